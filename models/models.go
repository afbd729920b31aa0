package models

import (
	"fmt"

	"agent-scheduler/timeline"
)

// DefaultTimezone is used when no timezone is supplied.
const DefaultTimezone = "America/Los_Angeles"

// TimeOfDay is a local wall-clock marker (hour, optionally minute). It is
// not tied to any date or timezone; the engine resolves it against the day
// being scheduled.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Minutes returns the marker as minutes since local midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is strictly earlier than u.
func (t TimeOfDay) Before(u TimeOfDay) bool {
	return t.Minutes() < u.Minutes()
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// CustomerRequest represents one customer's call requirements for the day.
// It is constructed once by the parser and consumed read-only.
type CustomerRequest struct {
	Name               string
	AvgDurationSeconds int
	Start              TimeOfDay // inclusive
	End                TimeOfDay // exclusive
	NumCalls           int
	Priority           int // 1-5, 1 is highest
}

// ActiveAtHour reports whether the bucket labeled hour:00 falls inside the
// customer's [Start, End) window. A 9:30AM start excludes the 09:00 bucket;
// a 3:45PM end includes the 15:00 bucket.
func (c CustomerRequest) ActiveAtHour(hour int) bool {
	m := hour * 60
	return c.Start.Minutes() <= m && m < c.End.Minutes()
}

// ActiveBucketCount returns how many of the day's buckets the customer is
// active in. On fall-back days a repeated label inside the window counts
// twice; a DST-skipped label counts zero times.
func (c CustomerRequest) ActiveBucketCount(day timeline.Day) int {
	count := 0
	for _, b := range day.Buckets {
		if c.ActiveAtHour(b.Local.Hour()) {
			count++
		}
	}
	return count
}

// BucketAllocation is the per-bucket, per-customer outcome.
type BucketAllocation struct {
	Demanded  int `json:"demanded"`
	Allocated int `json:"allocated"`
	Unmet     int `json:"unmet"`
	Priority  int `json:"priority"`
}

// HourlySchedule is the result row for one bucket of the day.
type HourlySchedule struct {
	Bucket         timeline.Bucket
	TotalDemanded  int
	TotalAllocated int
	// Allocations maps customer name to that customer's outcome. Empty for
	// buckets with no active customers.
	Allocations map[string]BucketAllocation
}

// Summary holds statistics derived from the assembled schedule. It is
// computed read-only and never influences allocation.
type Summary struct {
	PeakAllocated int `json:"peak_total_agents"`
	PeakDemand    int `json:"peak_demand"`
	ActiveBuckets int `json:"active_buckets"`
}

// CustomerShortfall is the day-level rollup of one customer's unmet demand.
type CustomerShortfall struct {
	Name            string  `json:"name"`
	Priority        int     `json:"priority"`
	CallsUnmet      int     `json:"calls_unmet"`
	CallsTotal      int     `json:"calls_total"`
	BucketsAffected int     `json:"buckets_affected"`
	PercentUnmet    float64 `json:"percent_unmet"`
}

// CapacityAnalysis reports the effect of a capacity ceiling on the day.
type CapacityAnalysis struct {
	Capacity   int                 `json:"capacity"`
	PeakDemand int                 `json:"peak_demand"`
	Shortfalls []CustomerShortfall `json:"unmet_demand"`
}

// Schedule is the full result of one scheduling run: one HourlySchedule per
// bucket in chronological order, plus day and summary information. Produced
// fresh per run and never mutated after assembly.
type Schedule struct {
	Timezone      string
	Date          string // YYYY-MM-DD
	HoursInDay    int
	DSTTransition bool
	DSTNote       string
	Hours         []HourlySchedule
	Summary       Summary
	Capacity      *int
	// Analysis is nil when capacity is unlimited or fully sufficient.
	Analysis *CapacityAnalysis
}
