package normalize

import "math"

// Round rounds a nullable value to the given number of decimal places.
// NaN and infinities become nil so they never reach an output record.
func Round(v *float64, places int) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	p := math.Pow(10, float64(places))
	r := math.Round(*v*p) / p
	return &r
}

// Finite returns nil for NaN or infinite input.
func Finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
