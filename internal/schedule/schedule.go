// Package schedule computes the advisory next-run timestamp for scheduled
// queries. Nothing in the application consumes the timestamp to trigger
// execution; scheduled queries run only when the user triggers them.
package schedule

import (
	"fmt"
	"time"

	"github.com/avirta/brandscope/internal/models"
)

// NextRun returns the next occurrence of timeOfDay ("HH:MM", local time)
// relative to now. When today's occurrence has already passed, the candidate
// is advanced by one interval step.
func NextRun(interval models.Interval, timeOfDay string, now time.Time) (time.Time, error) {
	if !interval.Valid() {
		return time.Time{}, fmt.Errorf("invalid interval: %q", interval)
	}

	clock, err := time.Parse("15:04", timeOfDay)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time of day %q: %w", timeOfDay, err)
	}

	next := time.Date(now.Year(), now.Month(), now.Day(),
		clock.Hour(), clock.Minute(), 0, 0, now.Location())

	if !next.After(now) {
		switch interval {
		case models.IntervalDaily:
			next = next.AddDate(0, 0, 1)
		case models.IntervalWeekly:
			next = next.AddDate(0, 0, 7)
		case models.IntervalMonthly:
			next = next.AddDate(0, 1, 0)
		}
	}

	return next, nil
}
