package util

import (
	"math"
	"time"
)

// Midnight normalizes a timestamp to the start of its calendar day.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of whole calendar days from a to b.
// Both timestamps are midnight-normalized first, so the time of day never
// affects the result.
func DaysBetween(a, b time.Time) int {
	// Rounding absorbs DST days that are 23 or 25 hours long.
	return int(math.Round(Midnight(b).Sub(Midnight(a)).Hours() / 24))
}

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DaysBetween(a, b) == 0
}

// HoursUntilTomorrow returns the whole hours remaining until the next
// calendar-day rollover.
func HoursUntilTomorrow(now time.Time) int {
	tomorrow := Midnight(now).Add(24 * time.Hour)
	return int(tomorrow.Sub(now).Hours())
}
