// Package outfit maps a temperature to a clothing recommendation.
package outfit

import (
	"math"
	"strconv"
	"strings"
)

// Advice texts, warmest band first.
const (
	AdviceHot      = "Light fabrics, sleeveless tops, shorts and sandals."
	AdviceWarm     = "Short-sleeved tops and a light jacket. Jeans work well."
	AdviceMild     = "Long-sleeved top or light sweater. Jeans or chinos."
	AdviceCool     = "Sweater plus jacket. Consider boots or closed shoes."
	AdviceCold     = "Coat, scarf, warm layers and thermal pants."
	AdviceNoSignal = "Check your connection and try again."
)

// band is a half-open range [min, next band's min) in degrees Celsius.
type band struct {
	min    float64
	advice string
}

var bands = []band{
	{min: 28, advice: AdviceHot},
	{min: 22, advice: AdviceWarm},
	{min: 16, advice: AdviceMild},
	{min: 10, advice: AdviceCool},
}

// Advise returns the recommendation for tempC. A nil or non-finite value
// yields the connectivity message, never a temperature band.
func Advise(tempC *float64) string {
	if tempC == nil || math.IsNaN(*tempC) || math.IsInf(*tempC, 0) {
		return AdviceNoSignal
	}
	for _, b := range bands {
		if *tempC >= b.min {
			return b.advice
		}
	}
	return AdviceCold
}

// AdviseText parses a formatted temperature such as a snapshot's temp field.
func AdviseText(tempC *string) string {
	if tempC == nil {
		return AdviceNoSignal
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*tempC), 64)
	if err != nil {
		return AdviceNoSignal
	}
	return Advise(&v)
}
