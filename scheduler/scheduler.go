// Package scheduler turns customer call requirements into an hour-by-hour
// staffing plan for one civil day. A run is a pure function of (requests,
// day, utilization, capacity): it keeps no state between invocations and is
// safe to invoke concurrently.
package scheduler

import (
	stderrors "errors"
	"fmt"
	"math"
	"sort"
	"time"

	"agent-scheduler/errors"
	"agent-scheduler/metrics"
	"agent-scheduler/models"
	"agent-scheduler/timeline"
)

// AgentsPerBucket calculates how many agents a customer needs in each of its
// active buckets.
//
// Formula: ceil(numCalls / activeBuckets * avgDuration / 3600 / utilization).
// The single ceiling sizes for worst-case coverage without inflating demands
// that are already whole numbers.
func AgentsPerBucket(req models.CustomerRequest, activeBuckets int, utilization float64) (int, error) {
	if utilization <= 0 || utilization > 1 {
		return 0, fmt.Errorf("%w: got %v", errors.ErrInvalidUtilization, utilization)
	}
	if activeBuckets <= 0 {
		return 0, &errors.ScheduleError{Customer: req.Name, Err: errors.ErrZeroActiveBuckets}
	}

	callsPerBucket := float64(req.NumCalls) / float64(activeBuckets)
	baseAgents := callsPerBucket * float64(req.AvgDurationSeconds) / 3600.0
	return int(math.Ceil(baseAgents / utilization)), nil
}

// bucketEntry is one customer's claim on a single bucket, in original input
// order so that equal priorities break ties deterministically.
type bucketEntry struct {
	name     string
	priority int
	demand   int
}

// GenerateSchedule assembles the full schedule for day. capacity is an
// optional global agent ceiling; nil means unlimited, zero is a valid
// ceiling under which every demand goes unmet. All validation failures
// abort the run before any bucket is assembled.
func GenerateSchedule(requests []models.CustomerRequest, day timeline.Day, utilization float64, capacity *int) (*models.Schedule, error) {
	start := time.Now()
	sched, err := generate(requests, day, utilization, capacity)
	metrics.SchedulerDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SchedulerRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.SchedulerRunsTotal.WithLabelValues("ok").Inc()
	return sched, nil
}

func generate(requests []models.CustomerRequest, day timeline.Day, utilization float64, capacity *int) (*models.Schedule, error) {
	metrics.ResetSchedulerGauges()
	metrics.SchedulerCustomersProcessed.Observe(float64(len(requests)))

	if utilization <= 0 || utilization > 1 {
		return nil, fmt.Errorf("%w: got %v", errors.ErrInvalidUtilization, utilization)
	}
	if capacity != nil && *capacity < 0 {
		return nil, fmt.Errorf("%w: got %d", errors.ErrNegativeCapacity, *capacity)
	}

	// Per-customer demand is computed once against the whole day, not per
	// bucket: calls are spread uniformly over the active buckets.
	agents := make([]int, len(requests))
	for i, req := range requests {
		// The parser enforces window ordering; re-assert it so a hand-built
		// request can never produce a negative-length range.
		if !req.Start.Before(req.End) {
			return nil, &errors.ScheduleError{Customer: req.Name, Err: errors.ErrMalformedTimeWindow}
		}
		active := req.ActiveBucketCount(day)
		n, err := AgentsPerBucket(req, active, utilization)
		if err != nil {
			return nil, err
		}
		agents[i] = n
	}

	hours := make([]models.HourlySchedule, 0, len(day.Buckets))
	demandedByName := make(map[string]int)
	allocatedByName := make(map[string]int)
	affectedByName := make(map[string]int)

	for _, b := range day.Buckets {
		entries := make([]bucketEntry, 0, len(requests))
		for i, req := range requests {
			if req.ActiveAtHour(b.Local.Hour()) {
				entries = append(entries, bucketEntry{
					name:     req.Name,
					priority: req.Priority,
					demand:   agents[i],
				})
			}
		}

		row := allocateBucket(b, entries, capacity)
		hours = append(hours, row)

		for name, alloc := range row.Allocations {
			demandedByName[name] += alloc.Demanded
			allocatedByName[name] += alloc.Allocated
			if alloc.Unmet > 0 {
				affectedByName[name]++
			}
			observeAllocation(alloc)
		}
	}

	sched := &models.Schedule{
		Timezone:      day.Location.String(),
		Date:          day.Date.Format("2006-01-02"),
		HoursInDay:    day.HourCount(),
		DSTTransition: day.IsTransition(),
		DSTNote:       day.TransitionNote(),
		Hours:         hours,
		Summary:       summarize(hours),
		Capacity:      capacity,
	}
	if capacity != nil {
		sched.Analysis = analyzeCapacity(requests, *capacity, sched.Summary.PeakDemand, demandedByName, allocatedByName, affectedByName)
	}

	observeSchedule(sched)
	return sched, nil
}

// allocateBucket distributes capacity to one bucket's active customers in
// ascending priority order, ties broken by original input order.
func allocateBucket(b timeline.Bucket, entries []bucketEntry, capacity *int) models.HourlySchedule {
	row := models.HourlySchedule{
		Bucket:      b,
		Allocations: make(map[string]models.BucketAllocation, len(entries)),
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})

	remaining := math.MaxInt
	if capacity != nil {
		remaining = *capacity
	}

	for _, e := range entries {
		allocated := e.demand
		if allocated > remaining {
			allocated = remaining
		}
		remaining -= allocated

		row.Allocations[e.name] = models.BucketAllocation{
			Demanded:  e.demand,
			Allocated: allocated,
			Unmet:     e.demand - allocated,
			Priority:  e.priority,
		}
		row.TotalDemanded += e.demand
		row.TotalAllocated += allocated
	}

	return row
}

func summarize(hours []models.HourlySchedule) models.Summary {
	var s models.Summary
	for _, h := range hours {
		if h.TotalAllocated > s.PeakAllocated {
			s.PeakAllocated = h.TotalAllocated
		}
		if h.TotalDemanded > s.PeakDemand {
			s.PeakDemand = h.TotalDemanded
		}
		if h.TotalAllocated > 0 {
			s.ActiveBuckets++
		}
	}
	return s
}

// analyzeCapacity rolls unmet demand up to per-customer shortfalls, ordered
// by priority then input order. Returns nil when nothing went unmet.
func analyzeCapacity(requests []models.CustomerRequest, capacity, peakDemand int, demanded, allocated, affected map[string]int) *models.CapacityAnalysis {
	var shortfalls []models.CustomerShortfall
	for _, req := range requests {
		deficit := demanded[req.Name] - allocated[req.Name]
		if deficit <= 0 {
			continue
		}
		callsUnmet := deficit * 3600 / req.AvgDurationSeconds
		percent := 0.0
		if req.NumCalls > 0 {
			percent = math.Round(1000*float64(callsUnmet)/float64(req.NumCalls)) / 10
		}
		shortfalls = append(shortfalls, models.CustomerShortfall{
			Name:            req.Name,
			Priority:        req.Priority,
			CallsUnmet:      callsUnmet,
			CallsTotal:      req.NumCalls,
			BucketsAffected: affected[req.Name],
			PercentUnmet:    percent,
		})
	}
	if len(shortfalls) == 0 {
		return nil
	}
	sort.SliceStable(shortfalls, func(i, j int) bool {
		return shortfalls[i].Priority < shortfalls[j].Priority
	})
	return &models.CapacityAnalysis{
		Capacity:   capacity,
		PeakDemand: peakDemand,
		Shortfalls: shortfalls,
	}
}

func observeAllocation(alloc models.BucketAllocation) {
	if alloc.Priority == 1 {
		switch {
		case alloc.Allocated == 0 && alloc.Demanded > 0:
			metrics.HighPriorityUnsatisfied.Inc()
		case alloc.Unmet > 0:
			metrics.HighPriorityPartiallySatisfied.Inc()
		default:
			metrics.HighPriorityFullySatisfied.Inc()
		}
	}
	if alloc.Unmet > 0 {
		metrics.UnmetDemandByPriority.WithLabelValues(fmt.Sprintf("%d", alloc.Priority)).Add(float64(alloc.Unmet))
	}
}

func observeSchedule(sched *models.Schedule) {
	var demanded, allocated, unmetBuckets int
	for _, h := range sched.Hours {
		demanded += h.TotalDemanded
		allocated += h.TotalAllocated
		if h.TotalDemanded > h.TotalAllocated {
			unmetBuckets++
		}
	}
	metrics.AgentsDemandedTotal.Set(float64(demanded))
	metrics.AgentsAllocatedTotal.Set(float64(allocated))
	metrics.AgentsUnmetTotal.Set(float64(demanded - allocated))
	metrics.BucketsWithUnmetDemand.Set(float64(unmetBuckets))
}

// IsRunError reports whether err is one of the engine's hard failures, as
// opposed to an input parsing problem.
func IsRunError(err error) bool {
	return stderrors.Is(err, errors.ErrZeroActiveBuckets) ||
		stderrors.Is(err, errors.ErrInvalidUtilization) ||
		stderrors.Is(err, errors.ErrNegativeCapacity) ||
		stderrors.Is(err, errors.ErrMalformedTimeWindow)
}
