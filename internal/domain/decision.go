package domain

import "math"

// ShouldEmit decides whether candidate is worth sending to the driver sink.
//
// A forced update or a first observation always emits. Otherwise the
// candidate emits only when it differs from the previously emitted value by
// at least half a display unit at the given precision, so a provider
// re-sending the same reading at finer float resolution is suppressed.
func ShouldEmit(previous *float64, candidate float64, precision int, force bool) bool {
	if force || previous == nil {
		return true
	}
	if math.IsNaN(*previous) {
		return !math.IsNaN(candidate)
	}
	if precision < 0 {
		precision = 0
	}
	half := 0.5 * math.Pow10(-precision)
	return math.Abs(candidate-*previous) >= half
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(v*p) / p
}
