package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatDistance converts meters to kilometers rounded to two decimals.
func FormatDistance(meters float64) string {
	return formatDecimal(meters / 1000)
}

// FormatSpeed converts meters per second to kilometers per hour rounded to two decimals.
func FormatSpeed(metersPerSecond float64) string {
	return formatDecimal(metersPerSecond * 3.6)
}

// FormatElapsed renders total seconds as HH:MM:SS. Hours are not wrapped at 24.
// Negative input is floored, so -1 renders as "-1:59:59".
func FormatElapsed(seconds int64) string {
	minutes, sec := floorDivMod(seconds, 60)
	hours, minutes := floorDivMod(minutes, 60)
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, sec)
}

func floorDivMod(a, b int64) (int64, int64) {
	q, r := a/b, a%b
	if r != 0 && (r < 0) != (b < 0) {
		q--
		r += b
	}
	return q, r
}

// formatDecimal rounds the exact binary value to two decimals, ties to even, and
// drops trailing zeros while keeping one decimal: 18 renders as "18.0", 0.125 as "0.12".
func formatDecimal(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strings.TrimRight(strconv.FormatFloat(v, 'f', 2, 64), "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}
