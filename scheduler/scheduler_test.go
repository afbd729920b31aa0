package scheduler_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customerrors "agent-scheduler/errors"
	"agent-scheduler/formatter"
	"agent-scheduler/models"
	"agent-scheduler/scheduler"
	"agent-scheduler/timeline"
)

func mustLoadLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func hourly(start, end int) (models.TimeOfDay, models.TimeOfDay) {
	return models.TimeOfDay{Hour: start}, models.TimeOfDay{Hour: end}
}

func intPtr(n int) *int { return &n }

func TestAgentsPerBucket(t *testing.T) {
	tests := map[string]struct {
		calls       int
		duration    int
		buckets     int
		utilization float64
		expected    int
	}{
		// 20,000 calls over 10 buckets at 300s each: 2000*300/3600 = 166.7
		"WorkedExample": {
			calls: 20000, duration: 300, buckets: 10, utilization: 1.0,
			expected: 167,
		},
		// Exact integer result gains no spurious +1.
		"ExactInteger": {
			calls: 12, duration: 3600, buckets: 1, utilization: 1.0,
			expected: 12,
		},
		"ExactIntegerWithUtilization": {
			calls: 10, duration: 3600, buckets: 1, utilization: 0.5,
			expected: 20,
		},
		"UtilizationInflates": {
			calls: 10, duration: 3600, buckets: 1, utilization: 0.8,
			expected: 13,
		},
		"ZeroCalls": {
			calls: 0, duration: 300, buckets: 5, utilization: 1.0,
			expected: 0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req := models.CustomerRequest{
				Name:               "Cust",
				AvgDurationSeconds: tt.duration,
				NumCalls:           tt.calls,
			}
			got, err := scheduler.AgentsPerBucket(req, tt.buckets, tt.utilization)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestAgentsPerBucket_Errors(t *testing.T) {
	req := models.CustomerRequest{Name: "Cust", AvgDurationSeconds: 300, NumCalls: 100}

	_, err := scheduler.AgentsPerBucket(req, 0, 1.0)
	assert.ErrorIs(t, err, customerrors.ErrZeroActiveBuckets)

	for _, u := range []float64{0, -0.5, 1.5} {
		_, err := scheduler.AgentsPerBucket(req, 4, u)
		assert.ErrorIs(t, err, customerrors.ErrInvalidUtilization, "utilization %v", u)
	}
}

func TestAgentsPerBucket_UtilizationMonotonic(t *testing.T) {
	req := models.CustomerRequest{Name: "Cust", AvgDurationSeconds: 270, NumCalls: 12345}

	prev := 0
	for _, u := range []float64{1.0, 0.9, 0.75, 0.5, 0.25, 0.1} {
		got, err := scheduler.AgentsPerBucket(req, 7, u)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, prev, "lowering utilization to %v decreased agents", u)
		prev = got
	}
}

func TestGenerateSchedule_Unconstrained(t *testing.T) {
	utc := time.UTC
	day := timeline.NewDay(2024, time.June, 15, utc)

	start, end := hourly(9, 19)
	requests := []models.CustomerRequest{
		{Name: "Stanford Hospital", AvgDurationSeconds: 300, Start: start, End: end, NumCalls: 20000, Priority: 1},
	}

	sched, err := scheduler.GenerateSchedule(requests, day, 1.0, nil)
	require.NoError(t, err)

	require.Len(t, sched.Hours, 24)
	assert.Equal(t, 24, sched.HoursInDay)
	assert.False(t, sched.DSTTransition)

	for _, h := range sched.Hours {
		hour := h.Bucket.Local.Hour()
		if hour >= 9 && hour < 19 {
			require.Contains(t, h.Allocations, "Stanford Hospital")
			alloc := h.Allocations["Stanford Hospital"]
			assert.Equal(t, 167, alloc.Demanded)
			assert.Equal(t, alloc.Demanded, alloc.Allocated, "unlimited capacity allocates full demand")
			assert.Equal(t, 0, alloc.Unmet)
		} else {
			assert.Empty(t, h.Allocations, "hour %d should be empty", hour)
			assert.Equal(t, 0, h.TotalAllocated)
		}
	}

	assert.Equal(t, 167, sched.Summary.PeakAllocated)
	assert.Equal(t, 167, sched.Summary.PeakDemand)
	assert.Equal(t, 10, sched.Summary.ActiveBuckets)
	assert.Nil(t, sched.Analysis)
}

func TestGenerateSchedule_PriorityAndCapacity(t *testing.T) {
	day := timeline.NewDay(2024, time.June, 15, time.UTC)
	start, end := hourly(10, 11)

	requests := []models.CustomerRequest{
		{Name: "HighPriority", AvgDurationSeconds: 3600, Start: start, End: end, NumCalls: 10, Priority: 1},
		{Name: "LowPriority", AvgDurationSeconds: 3600, Start: start, End: end, NumCalls: 10, Priority: 2},
	}

	// Capacity 15: HighPriority gets its full 10, LowPriority the remaining 5.
	sched, err := scheduler.GenerateSchedule(requests, day, 1.0, intPtr(15))
	require.NoError(t, err)

	row := sched.Hours[10]
	assert.Equal(t, 20, row.TotalDemanded)
	assert.Equal(t, 15, row.TotalAllocated)

	high := row.Allocations["HighPriority"]
	assert.Equal(t, 10, high.Allocated)
	assert.Equal(t, 0, high.Unmet)

	low := row.Allocations["LowPriority"]
	assert.Equal(t, 10, low.Demanded)
	assert.Equal(t, 5, low.Allocated)
	assert.Equal(t, 5, low.Unmet)

	require.NotNil(t, sched.Analysis)
	assert.Equal(t, 15, sched.Analysis.Capacity)
	assert.Equal(t, 20, sched.Analysis.PeakDemand)
	require.Len(t, sched.Analysis.Shortfalls, 1)
	sf := sched.Analysis.Shortfalls[0]
	assert.Equal(t, "LowPriority", sf.Name)
	assert.Equal(t, 5, sf.CallsUnmet)
	assert.Equal(t, 1, sf.BucketsAffected)
	assert.Equal(t, 50.0, sf.PercentUnmet)
}

func TestGenerateSchedule_StarvedLowPriority(t *testing.T) {
	day := timeline.NewDay(2024, time.June, 15, time.UTC)
	start, end := hourly(10, 12)

	requests := []models.CustomerRequest{
		{Name: "First", AvgDurationSeconds: 3600, Start: start, End: end, NumCalls: 20, Priority: 1},
		{Name: "Second", AvgDurationSeconds: 3600, Start: start, End: end, NumCalls: 20, Priority: 3},
	}

	// Capacity 5 < First's demand of 10: while a higher-priority customer is
	// short, the lower-priority one must receive nothing.
	sched, err := scheduler.GenerateSchedule(requests, day, 1.0, intPtr(5))
	require.NoError(t, err)

	for _, hour := range []int{10, 11} {
		row := sched.Hours[hour]
		assert.Equal(t, 5, row.Allocations["First"].Allocated)
		assert.Equal(t, 5, row.Allocations["First"].Unmet)
		assert.Equal(t, 0, row.Allocations["Second"].Allocated)
		assert.Equal(t, 10, row.Allocations["Second"].Unmet)
		assert.LessOrEqual(t, row.TotalAllocated, 5)
	}
}

func TestGenerateSchedule_EqualPriorityTieBreak(t *testing.T) {
	day := timeline.NewDay(2024, time.June, 15, time.UTC)
	start, end := hourly(10, 11)

	requests := []models.CustomerRequest{
		{Name: "ListedFirst", AvgDurationSeconds: 3600, Start: start, End: end, NumCalls: 10, Priority: 2},
		{Name: "ListedSecond", AvgDurationSeconds: 3600, Start: start, End: end, NumCalls: 10, Priority: 2},
	}

	sched, err := scheduler.GenerateSchedule(requests, day, 1.0, intPtr(10))
	require.NoError(t, err)

	row := sched.Hours[10]
	assert.Equal(t, 10, row.Allocations["ListedFirst"].Allocated, "first-seen customer wins the tie")
	assert.Equal(t, 0, row.Allocations["ListedSecond"].Allocated)
}

func TestGenerateSchedule_ZeroCapacity(t *testing.T) {
	day := timeline.NewDay(2024, time.June, 15, time.UTC)
	start, end := hourly(8, 12)

	requests := []models.CustomerRequest{
		{Name: "Cust", AvgDurationSeconds: 3600, Start: start, End: end, NumCalls: 40, Priority: 1},
	}

	sched, err := scheduler.GenerateSchedule(requests, day, 1.0, intPtr(0))
	require.NoError(t, err, "zero capacity is valid, not an error")

	for _, h := range sched.Hours {
		assert.Equal(t, 0, h.TotalAllocated)
		for _, alloc := range h.Allocations {
			assert.Equal(t, 0, alloc.Allocated)
			assert.Equal(t, alloc.Demanded, alloc.Unmet)
		}
	}
	assert.Equal(t, 0, sched.Summary.ActiveBuckets)
}

func TestGenerateSchedule_CapacityNeverExceeded(t *testing.T) {
	day := timeline.NewDay(2024, time.June, 15, time.UTC)

	requests := []models.CustomerRequest{
		{Name: "A", AvgDurationSeconds: 600, Start: models.TimeOfDay{Hour: 6}, End: models.TimeOfDay{Hour: 18}, NumCalls: 9000, Priority: 1},
		{Name: "B", AvgDurationSeconds: 300, Start: models.TimeOfDay{Hour: 8}, End: models.TimeOfDay{Hour: 14}, NumCalls: 12000, Priority: 2},
		{Name: "C", AvgDurationSeconds: 450, Start: models.TimeOfDay{Hour: 12}, End: models.TimeOfDay{Hour: 22}, NumCalls: 7000, Priority: 3},
	}

	const capacity = 150
	sched, err := scheduler.GenerateSchedule(requests, day, 0.9, intPtr(capacity))
	require.NoError(t, err)

	for _, h := range sched.Hours {
		assert.LessOrEqual(t, h.TotalAllocated, capacity)
		if h.TotalDemanded <= capacity {
			assert.Equal(t, h.TotalDemanded, h.TotalAllocated,
				"sufficient capacity at %s must be fully allocated", h.Bucket.Label)
		}
		for _, alloc := range h.Allocations {
			assert.GreaterOrEqual(t, alloc.Allocated, 0)
			assert.LessOrEqual(t, alloc.Allocated, alloc.Demanded)
			assert.Equal(t, alloc.Demanded-alloc.Allocated, alloc.Unmet)
		}
	}
}

func TestGenerateSchedule_DSTFallBack(t *testing.T) {
	la := mustLoadLocation(t, "America/Los_Angeles")
	day := timeline.NewDay(2024, time.November, 3, la)

	start, end := hourly(0, 3)
	requests := []models.CustomerRequest{
		// 12 calls over 4 active buckets (01:00 occurs twice): 3 per bucket.
		{Name: "FallBack", AvgDurationSeconds: 3600, Start: start, End: end, NumCalls: 12, Priority: 1},
	}

	sched, err := scheduler.GenerateSchedule(requests, day, 1.0, nil)
	require.NoError(t, err)

	require.Len(t, sched.Hours, 25)
	assert.True(t, sched.DSTTransition)
	assert.Equal(t, "DST fall back (25-hour day)", sched.DSTNote)

	var active int
	for _, h := range sched.Hours {
		if alloc, ok := h.Allocations["FallBack"]; ok {
			assert.Equal(t, 3, alloc.Allocated)
			active++
		}
	}
	assert.Equal(t, 4, active, "both 01:00 buckets are staffed")
}

func TestGenerateSchedule_DSTSpringForward(t *testing.T) {
	la := mustLoadLocation(t, "America/Los_Angeles")
	day := timeline.NewDay(2024, time.March, 10, la)

	start, end := hourly(1, 4)
	requests := []models.CustomerRequest{
		// Window covers 01:00, 02:00, 03:00 but 02:00 is skipped: 2 buckets.
		{Name: "SpringForward", AvgDurationSeconds: 3600, Start: start, End: end, NumCalls: 6, Priority: 1},
	}

	sched, err := scheduler.GenerateSchedule(requests, day, 1.0, nil)
	require.NoError(t, err)

	require.Len(t, sched.Hours, 23)
	var labels []string
	for _, h := range sched.Hours {
		if _, ok := h.Allocations["SpringForward"]; ok {
			assert.Equal(t, 3, h.Allocations["SpringForward"].Allocated)
			labels = append(labels, h.Bucket.Label)
		}
	}
	assert.Equal(t, []string{"01:00", "03:00"}, labels)
}

func TestGenerateSchedule_ZeroActiveBuckets(t *testing.T) {
	la := mustLoadLocation(t, "America/Los_Angeles")
	day := timeline.NewDay(2024, time.March, 10, la)

	start, end := hourly(2, 3)
	requests := []models.CustomerRequest{
		{Name: "Fine", AvgDurationSeconds: 300, Start: models.TimeOfDay{Hour: 9}, End: models.TimeOfDay{Hour: 17}, NumCalls: 100, Priority: 1},
		// The whole window is DST-skipped.
		{Name: "Skipped", AvgDurationSeconds: 300, Start: start, End: end, NumCalls: 100, Priority: 2},
	}

	sched, err := scheduler.GenerateSchedule(requests, day, 1.0, nil)
	assert.Nil(t, sched, "no partial schedule on failure")
	require.Error(t, err)
	assert.ErrorIs(t, err, customerrors.ErrZeroActiveBuckets)

	var schedErr *customerrors.ScheduleError
	require.True(t, errors.As(err, &schedErr))
	assert.Equal(t, "Skipped", schedErr.Customer)
}

func TestGenerateSchedule_ValidationFailures(t *testing.T) {
	day := timeline.NewDay(2024, time.June, 15, time.UTC)
	start, end := hourly(9, 17)
	valid := models.CustomerRequest{Name: "Cust", AvgDurationSeconds: 300, Start: start, End: end, NumCalls: 100, Priority: 1}

	tests := map[string]struct {
		requests    []models.CustomerRequest
		utilization float64
		capacity    *int
		wantErr     error
	}{
		"UtilizationZero": {
			requests: []models.CustomerRequest{valid}, utilization: 0,
			wantErr: customerrors.ErrInvalidUtilization,
		},
		"UtilizationAboveOne": {
			requests: []models.CustomerRequest{valid}, utilization: 1.01,
			wantErr: customerrors.ErrInvalidUtilization,
		},
		"NegativeCapacity": {
			requests: []models.CustomerRequest{valid}, utilization: 1.0, capacity: intPtr(-1),
			wantErr: customerrors.ErrNegativeCapacity,
		},
		"MalformedWindow_EndBeforeStart": {
			requests: []models.CustomerRequest{{
				Name: "Backwards", AvgDurationSeconds: 300,
				Start: models.TimeOfDay{Hour: 17}, End: models.TimeOfDay{Hour: 9},
				NumCalls: 100, Priority: 1,
			}},
			utilization: 1.0,
			wantErr:     customerrors.ErrMalformedTimeWindow,
		},
		"MalformedWindow_StartEqualsEnd": {
			requests: []models.CustomerRequest{{
				Name: "Empty", AvgDurationSeconds: 300,
				Start: models.TimeOfDay{Hour: 9}, End: models.TimeOfDay{Hour: 9},
				NumCalls: 100, Priority: 1,
			}},
			utilization: 1.0,
			wantErr:     customerrors.ErrMalformedTimeWindow,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			sched, err := scheduler.GenerateSchedule(tt.requests, day, tt.utilization, tt.capacity)
			assert.Nil(t, sched)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, scheduler.IsRunError(err))
		})
	}
}

func TestGenerateSchedule_Deterministic(t *testing.T) {
	la := mustLoadLocation(t, "America/Los_Angeles")
	day := timeline.NewDay(2024, time.November, 3, la)

	requests := []models.CustomerRequest{
		{Name: "VNS", AvgDurationSeconds: 120, Start: models.TimeOfDay{Hour: 6}, End: models.TimeOfDay{Hour: 13}, NumCalls: 40500, Priority: 1},
		{Name: "CVS", AvgDurationSeconds: 180, Start: models.TimeOfDay{Hour: 11}, End: models.TimeOfDay{Hour: 15}, NumCalls: 50000, Priority: 3},
		{Name: "Stanford Hospital", AvgDurationSeconds: 300, Start: models.TimeOfDay{Hour: 9}, End: models.TimeOfDay{Hour: 19}, NumCalls: 20000, Priority: 1},
	}

	first, err := scheduler.GenerateSchedule(requests, day, 0.8, intPtr(1200))
	require.NoError(t, err)
	second, err := scheduler.GenerateSchedule(requests, day, 0.8, intPtr(1200))
	require.NoError(t, err)

	assert.Equal(t, formatter.FormatJSON(first), formatter.FormatJSON(second))
	assert.Equal(t, formatter.FormatCSV(first), formatter.FormatCSV(second))
	assert.Equal(t, formatter.FormatText(first), formatter.FormatText(second))
}
