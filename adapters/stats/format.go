package stats

import (
	"math"
	"strconv"
)

// Round3 rounds half away from zero to three decimals
func Round3(v float64) float64 {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		return 0
	}
	return r
}

// Format3 renders v with exactly three decimals, e.g. 0.5 → "0.500"
func Format3(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NA"
	}
	return strconv.FormatFloat(Round3(v), 'f', 3, 64)
}
