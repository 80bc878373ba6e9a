// Package schedule computes the bookable half-hour grid for a calendar day.
package schedule

import (
	"time"

	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/model"
)

// DayStarts returns every possible walk start for the given calendar day,
// 07:00 through 23:00 on the half-hour grid, in the day's location.
func DayStarts(day time.Time) []time.Time {
	starts := make([]time.Time, 0, (model.ClosingHour-model.OpeningHour)*2+1)
	for h := model.OpeningHour; h <= model.ClosingHour; h++ {
		starts = append(starts, time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, day.Location()))
		if h != model.ClosingHour {
			starts = append(starts, time.Date(day.Year(), day.Month(), day.Day(), h, 30, 0, 0, day.Location()))
		}
	}
	return starts
}

// FreeSlots filters DayStarts down to slots that still have capacity left
// and have not already begun. active maps start (Unix seconds) to the number
// of non-rejected walks booked there.
func FreeSlots(day time.Time, active map[int64]int, now time.Time) []time.Time {
	var free []time.Time
	for _, start := range DayStarts(day) {
		if !start.After(now) {
			continue
		}
		if active[start.Unix()] >= model.SlotCapacity {
			continue
		}
		free = append(free, start)
	}
	return free
}
