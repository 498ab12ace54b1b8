package weather

import (
	"github.com/i474232898/weatherlab/internal/common"
)

// Strategy is the resolution path chosen for a query.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyCoordinates
	StrategyForward
	StrategyFallbackText
)

func (s Strategy) String() string {
	switch s {
	case StrategyCoordinates:
		return "coordinates"
	case StrategyForward:
		return "forward"
	case StrategyFallbackText:
		return "fallback_text"
	default:
		return "none"
	}
}

// Plan is the normalized form of a LocationQuery.
type Plan struct {
	Strategy           Strategy
	Lat                float64
	Lon                float64
	AllowReverseLookup bool
	Text               string
}

// Normalize picks exactly one resolution path for q. Finite coordinates win,
// then a city or name, then the stringified query.
func Normalize(q LocationQuery) (Plan, error) {
	if q == nil {
		return Plan{}, failure(NoUsableLocation, ErrNoUsableLocation)
	}

	switch v := q.(type) {
	case Coordinates:
		if isFinite(v.Lat) && isFinite(v.Lon) {
			return Plan{
				Strategy:           StrategyCoordinates,
				Lat:                v.Lat,
				Lon:                v.Lon,
				AllowReverseLookup: v.AllowReverseLookup,
			}, nil
		}
	case StructuredHint:
		if v.Lat != nil && v.Lon != nil && isFinite(*v.Lat) && isFinite(*v.Lon) {
			allow := true
			if v.AllowReverseLookup != nil {
				allow = *v.AllowReverseLookup
			}
			return Plan{
				Strategy:           StrategyCoordinates,
				Lat:                *v.Lat,
				Lon:                *v.Lon,
				AllowReverseLookup: allow,
			}, nil
		}
		if name := common.FirstNonEmpty(v.City, v.Name); name != "" {
			return Plan{Strategy: StrategyForward, Text: name}, nil
		}
	case CityName:
		if text := v.String(); text != "" {
			return Plan{Strategy: StrategyForward, Text: text}, nil
		}
	}

	if text := q.String(); text != "" {
		return Plan{Strategy: StrategyFallbackText, Text: text}, nil
	}
	return Plan{}, failure(NoUsableLocation, ErrNoUsableLocation)
}
