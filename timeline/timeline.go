// Package timeline enumerates the hourly buckets of a civil day in a
// timezone. A normal day yields 24 buckets; a DST spring-forward day yields
// 23 (the skipped local hour produces no bucket) and a fall-back day yields
// 25 (the repeated local hour produces two buckets with the same label but
// distinct UTC instants).
package timeline

import (
	"fmt"
	"time"
)

// Bucket is one hour-wide scheduling slot. Label is the local hour of day
// ("06:00") and is not unique on fall-back days; UTC is, always.
type Bucket struct {
	Label string
	Local time.Time
	UTC   time.Time
}

// Day is the ordered bucket sequence for one civil date in one timezone.
type Day struct {
	Date     time.Time
	Location *time.Location
	Buckets  []Bucket
}

// NewDay builds the bucket sequence for the given civil date. It walks
// absolute time from local midnight to the next local midnight in one-hour
// steps, so DST transitions fall out of the arithmetic rather than being
// special-cased.
func NewDay(year int, month time.Month, day int, loc *time.Location) Day {
	start := time.Date(year, month, day, 0, 0, 0, 0, loc)
	end := time.Date(year, month, day+1, 0, 0, 0, 0, loc)

	var buckets []Bucket
	for t := start; t.Before(end); t = t.Add(time.Hour) {
		local := t.In(loc)
		buckets = append(buckets, Bucket{
			Label: fmt.Sprintf("%02d:00", local.Hour()),
			Local: local,
			UTC:   t.UTC(),
		})
	}

	return Day{
		Date:     time.Date(year, month, day, 0, 0, 0, 0, loc),
		Location: loc,
		Buckets:  buckets,
	}
}

// NewDayFor builds the bucket sequence for the civil date of t in loc.
func NewDayFor(t time.Time, loc *time.Location) Day {
	local := t.In(loc)
	return NewDay(local.Year(), local.Month(), local.Day(), loc)
}

// HourCount reports the number of civil hours in the day (23, 24, or 25).
func (d Day) HourCount() int {
	return len(d.Buckets)
}

// IsTransition reports whether the day is a DST transition day.
func (d Day) IsTransition() bool {
	return len(d.Buckets) != 24
}

// TransitionNote describes the DST transition, or returns "" for normal days.
func (d Day) TransitionNote() string {
	switch len(d.Buckets) {
	case 23:
		return "DST spring forward (23-hour day)"
	case 25:
		return "DST fall back (25-hour day)"
	default:
		return ""
	}
}
