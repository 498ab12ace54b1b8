package common

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// fixedPrec is wide enough to hold |v|*10^digits exactly for any float64.
const fixedPrec = 256

// FormatFixed renders v with exactly digits fractional digits. The decision is
// made on the exact binary value of v and exact ties round away from zero, so
// 13.25 gives "13.3" while 1.005 (stored just below 1.005) gives "1.00".
func FormatFixed(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || digits < 0 {
		return strconv.FormatFloat(v, 'f', digits, 64)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	x := new(big.Float).SetPrec(fixedPrec).SetFloat64(math.Abs(v))
	x.Mul(x, new(big.Float).SetPrec(fixedPrec).SetInt(scale))

	n, _ := x.Int(nil)
	frac := new(big.Float).SetPrec(fixedPrec).Sub(x, new(big.Float).SetPrec(fixedPrec).SetInt(n))
	if frac.Cmp(big.NewFloat(0.5)) >= 0 {
		n.Add(n, big.NewInt(1))
	}

	s := n.String()
	if digits > 0 {
		if len(s) <= digits {
			s = strings.Repeat("0", digits-len(s)+1) + s
		}
		s = s[:len(s)-digits] + "." + s[len(s)-digits:]
	}
	if v < 0 {
		s = "-" + s
	}
	return s
}
