// Package time contains time related helpers
package time

import "time"

// Ptr returns a pointer to t or nil if t is zero, for nullable columns
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Hours renders a duration as fractional hours truncated to whole minutes
func Hours(d time.Duration) float64 {
	return float64(int64(d/time.Minute)) / 60
}
