package formatter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"agent-scheduler/models"
)

// Document is the JSON output shape. The HTTP service embeds the same
// structure in its responses, so the CLI and the API stay in sync.
type Document struct {
	Schedules    []ScheduleRow            `json:"schedules"`
	TimezoneInfo TimezoneInfo             `json:"timezone_info"`
	Summary      models.Summary           `json:"summary"`
	Analysis     *models.CapacityAnalysis `json:"capacity_analysis,omitempty"`
}

// ScheduleRow is one bucket of the day. The UTC instant disambiguates
// repeated hour labels on fall-back days.
type ScheduleRow struct {
	Hour          string                             `json:"hour"`
	DatetimeUTC   string                             `json:"datetime_utc"`
	DatetimeLocal string                             `json:"datetime_local"`
	TotalAgents   int                                `json:"total_agents"`
	Customers     map[string]models.BucketAllocation `json:"customers"`
}

// TimezoneInfo describes the day that was scheduled.
type TimezoneInfo struct {
	Timezone        string `json:"timezone"`
	Date            string `json:"date"`
	HoursInDay      int    `json:"hours_in_day"`
	IsDSTTransition bool   `json:"is_dst_transition"`
	DSTNote         string `json:"dst_note,omitempty"`
}

// BuildDocument converts a schedule into the serializable document form.
func BuildDocument(s *models.Schedule) Document {
	rows := make([]ScheduleRow, 0, len(s.Hours))
	for _, h := range s.Hours {
		customers := make(map[string]models.BucketAllocation, len(h.Allocations))
		for name, alloc := range h.Allocations {
			customers[name] = alloc
		}
		rows = append(rows, ScheduleRow{
			Hour:          h.Bucket.Label,
			DatetimeUTC:   h.Bucket.UTC.Format(time.RFC3339),
			DatetimeLocal: h.Bucket.Local.Format(time.RFC3339),
			TotalAgents:   h.TotalAllocated,
			Customers:     customers,
		})
	}

	return Document{
		Schedules: rows,
		TimezoneInfo: TimezoneInfo{
			Timezone:        s.Timezone,
			Date:            s.Date,
			HoursInDay:      s.HoursInDay,
			IsDSTTransition: s.DSTTransition,
			DSTNote:         s.DSTNote,
		},
		Summary:  s.Summary,
		Analysis: s.Analysis,
	}
}

// FormatText returns the text representation of the schedule: one line per
// bucket in day order, followed by a capacity analysis block when demand
// went unmet.
func FormatText(s *models.Schedule) string {
	var sb strings.Builder

	if s.DSTTransition {
		fmt.Fprintf(&sb, "# %s on %s (%s)\n", s.DSTNote, s.Date, s.Timezone)
	}

	for _, h := range s.Hours {
		sb.WriteString(formatTextLine(h))
		sb.WriteString("\n")

		if h.TotalDemanded > h.TotalAllocated {
			fmt.Fprintf(&sb, "  ⚠️  CAPACITY WARNING: Demand=%d, Allocated=%d, Unmet=%d\n",
				h.TotalDemanded, h.TotalAllocated, h.TotalDemanded-h.TotalAllocated)
			sb.WriteString("  Impacted customers:\n")
			for _, name := range sortedNames(h.Allocations) {
				alloc := h.Allocations[name]
				if alloc.Unmet == 0 {
					continue
				}
				fmt.Fprintf(&sb, "    • %s [Priority %d]: Requested=%d, Allocated=%d, Unmet=%d\n",
					name, alloc.Priority, alloc.Demanded, alloc.Allocated, alloc.Unmet)
			}
		}
	}

	if s.Analysis != nil {
		sb.WriteString("\n--- Capacity Analysis ---\n")
		fmt.Fprintf(&sb, "Capacity: %d agents\n", s.Analysis.Capacity)
		fmt.Fprintf(&sb, "Peak Demand (unconstrained): %d agents\n", s.Analysis.PeakDemand)
		sb.WriteString("\nUnmet Demand by Customer:\n")
		for _, sf := range s.Analysis.Shortfalls {
			fmt.Fprintf(&sb, "  %s (Priority %d): %d calls unmet (%.1f%% of %d), %d buckets affected\n",
				sf.Name, sf.Priority, sf.CallsUnmet, sf.PercentUnmet, sf.CallsTotal, sf.BucketsAffected)
		}
	}

	return sb.String()
}

// FormatJSON returns the JSON representation of the schedule.
func FormatJSON(s *models.Schedule) string {
	jsonBytes, _ := json.MarshalIndent(BuildDocument(s), "", "  ")
	return string(jsonBytes)
}

// FormatCSV returns the CSV representation of the schedule: one row per
// bucket, one column per customer (allocated agents), plus the bucket's
// unmet total.
func FormatCSV(s *models.Schedule) string {
	names := allCustomerNames(s)

	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := append([]string{"Hour", "UTC", "Total"}, names...)
	header = append(header, "Unmet")
	writer.Write(header)

	for _, h := range s.Hours {
		row := []string{
			h.Bucket.Label,
			h.Bucket.UTC.Format(time.RFC3339),
			fmt.Sprintf("%d", h.TotalAllocated),
		}
		for _, name := range names {
			row = append(row, fmt.Sprintf("%d", h.Allocations[name].Allocated))
		}
		row = append(row, fmt.Sprintf("%d", h.TotalDemanded-h.TotalAllocated))
		writer.Write(row)
	}

	writer.Flush()
	return sb.String()
}

func formatTextLine(h models.HourlySchedule) string {
	if len(h.Allocations) == 0 || h.TotalAllocated == 0 && h.TotalDemanded == 0 {
		return fmt.Sprintf("%s : total=0 ; none", h.Bucket.Label)
	}

	parts := make([]string, 0, len(h.Allocations))
	for _, name := range sortedNames(h.Allocations) {
		parts = append(parts, fmt.Sprintf("%s=%d", name, h.Allocations[name].Allocated))
	}
	return fmt.Sprintf("%s : total=%d ; %s", h.Bucket.Label, h.TotalAllocated, strings.Join(parts, ", "))
}

func sortedNames(allocations map[string]models.BucketAllocation) []string {
	names := make([]string, 0, len(allocations))
	for name := range allocations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func allCustomerNames(s *models.Schedule) []string {
	seen := make(map[string]bool)
	var names []string
	for _, h := range s.Hours {
		for name := range h.Allocations {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
