package insights

// SafeDiv divides defensively: a zero denominator yields 0 instead of
// Inf/NaN, matching how every dashboard ratio treats missing volume.
func SafeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// SafeRate is SafeDiv expressed as a percentage.
func SafeRate(numerator, denominator float64) float64 {
	return SafeDiv(numerator, denominator) * 100
}
