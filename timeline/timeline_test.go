package timeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-scheduler/timeline"
)

func mustLoadLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestNewDay(t *testing.T) {
	tests := map[string]struct {
		year       int
		month      time.Month
		day        int
		location   string
		wantHours  int
		transition bool
		note       string
	}{
		"NormalDay_Pacific": {
			year: 2024, month: time.June, day: 15,
			location:  "America/Los_Angeles",
			wantHours: 24,
		},
		"NormalDay_UTC": {
			// UTC has no DST even on US transition dates.
			year: 2024, month: time.March, day: 10,
			location:  "UTC",
			wantHours: 24,
		},
		"SpringForward_Pacific": {
			year: 2024, month: time.March, day: 10,
			location:   "America/Los_Angeles",
			wantHours:  23,
			transition: true,
			note:       "DST spring forward (23-hour day)",
		},
		"FallBack_Pacific": {
			year: 2024, month: time.November, day: 3,
			location:   "America/Los_Angeles",
			wantHours:  25,
			transition: true,
			note:       "DST fall back (25-hour day)",
		},
		"SpringForward_Eastern": {
			year: 2024, month: time.March, day: 10,
			location:   "America/New_York",
			wantHours:  23,
			transition: true,
			note:       "DST spring forward (23-hour day)",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			loc := mustLoadLocation(t, tt.location)
			day := timeline.NewDay(tt.year, tt.month, tt.day, loc)

			assert.Equal(t, tt.wantHours, day.HourCount())
			assert.Equal(t, tt.transition, day.IsTransition())
			assert.Equal(t, tt.note, day.TransitionNote())

			// First bucket is local midnight.
			require.NotEmpty(t, day.Buckets)
			assert.Equal(t, "00:00", day.Buckets[0].Label)

			// UTC instants are unique and strictly increasing, even when
			// labels repeat.
			for i := 1; i < len(day.Buckets); i++ {
				assert.True(t, day.Buckets[i-1].UTC.Before(day.Buckets[i].UTC),
					"bucket %d UTC not after bucket %d", i, i-1)
			}
		})
	}
}

func TestNewDay_SpringForwardSkipsLabel(t *testing.T) {
	loc := mustLoadLocation(t, "America/Los_Angeles")
	day := timeline.NewDay(2024, time.March, 10, loc)

	require.Equal(t, 23, day.HourCount())
	for _, b := range day.Buckets {
		assert.NotEqual(t, "02:00", b.Label, "skipped hour must produce no bucket")
	}
}

func TestNewDay_FallBackRepeatsLabel(t *testing.T) {
	loc := mustLoadLocation(t, "America/Los_Angeles")
	day := timeline.NewDay(2024, time.November, 3, loc)

	require.Equal(t, 25, day.HourCount())

	var repeats []timeline.Bucket
	for _, b := range day.Buckets {
		if b.Label == "01:00" {
			repeats = append(repeats, b)
		}
	}
	require.Len(t, repeats, 2, "repeated local hour appears exactly twice")
	assert.False(t, repeats[0].UTC.Equal(repeats[1].UTC), "repeated label maps to distinct instants")
	assert.Equal(t, time.Hour, repeats[1].UTC.Sub(repeats[0].UTC))
}

func TestNewDay_LabelsMatchLocalHours(t *testing.T) {
	loc := mustLoadLocation(t, "America/New_York")
	day := timeline.NewDay(2024, time.June, 15, loc)

	require.Equal(t, 24, day.HourCount())
	for i, b := range day.Buckets {
		assert.Equal(t, i, b.Local.Hour())
	}
}

func TestNewDayFor(t *testing.T) {
	loc := mustLoadLocation(t, "America/Los_Angeles")
	at := time.Date(2024, time.November, 3, 15, 30, 0, 0, loc)
	day := timeline.NewDayFor(at, loc)

	assert.Equal(t, 25, day.HourCount())
	assert.Equal(t, "2024-11-03", day.Date.Format("2006-01-02"))
}
