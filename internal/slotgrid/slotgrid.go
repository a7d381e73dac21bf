// Package slotgrid produces the fixed set of bookable time-of-day slots.
// The grid is the same for every date: 08:00 to 16:30 in 30 minute steps,
// with the 13:00 hour reserved as the lunch break.
package slotgrid

import "fmt"

const (
	openingHour = 8
	closingHour = 17
	breakHour   = 13
	stepMinutes = 30
)

// Generate returns the ascending list of slot values ("HH:MM") for a day.
// It is pure and allocates a fresh slice on every call; callers that need
// the grid repeatedly may cache the result.
func Generate() []string {
	var slots []string
	for hour := openingHour; hour < closingHour; hour++ {
		if hour == breakHour {
			continue
		}
		for minute := 0; minute < 60; minute += stepMinutes {
			slots = append(slots, fmt.Sprintf("%02d:%02d", hour, minute))
		}
	}
	return slots
}

// Contains reports whether slot is a member of the daily grid.
func Contains(slot string) bool {
	for _, s := range Generate() {
		if s == slot {
			return true
		}
	}
	return false
}
