package utils

import "time"

// DaysBetween returns the fractional days from start to end. Negative spans
// are reported as zero.
func DaysBetween(start, end time.Time) float64 {
	if end.Before(start) {
		return 0
	}
	return end.Sub(start).Hours() / 24
}
