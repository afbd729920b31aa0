package parser

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"agent-scheduler/errors"
	"agent-scheduler/metrics"
	"agent-scheduler/models"
)

// Parse reads CSV data from the reader and returns a slice of CustomerRequest.
// Lines starting with '#' are headers/comments and are skipped.
//
// Each record has six fields: CustomerName, AverageCallDurationSeconds,
// StartTime, EndTime, NumberOfCalls, Priority. Time fields are local
// wall-clock markers in "3PM" or "3:04PM" format; they are resolved against
// the run's date and timezone by the engine, so rows carry no timezone of
// their own.
func Parse(r io.Reader) ([]models.CustomerRequest, error) {
	start := time.Now()
	data, err := parse(r)
	metrics.ParserDurationSeconds.Observe(time.Since(start).Seconds())
	return data, err
}

func parse(r io.Reader) ([]models.CustomerRequest, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var data []models.CustomerRequest
	lineNum := 0

	for {
		record, err := reader.Read()
		lineNum++
		if err == io.EOF {
			break
		}
		if err != nil {
			metrics.ParserErrorsTotal.WithLabelValues("csv").Inc()
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}

		// Handle headers/comments
		if len(record) > 0 && strings.HasPrefix(record[0], "#") {
			continue
		}

		req, err := parseRecord(record)
		if err != nil {
			metrics.ParserErrorsTotal.WithLabelValues(errorType(err)).Inc()
			return nil, &errors.ParseError{Line: lineNum, Record: record, Err: err}
		}

		metrics.ParserRecordsTotal.Inc()
		data = append(data, req)
	}

	return data, nil
}

func parseRecord(record []string) (models.CustomerRequest, error) {
	req := models.CustomerRequest{}

	if len(record) != 6 {
		return req, errors.ErrInvalidFieldCount
	}

	req.Name = strings.TrimSpace(record[0])
	if req.Name == "" {
		return req, errors.ErrEmptyCustomerName
	}

	var err error
	req.AvgDurationSeconds, err = strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil || req.AvgDurationSeconds <= 0 {
		return req, fmt.Errorf("%w: %q", errors.ErrInvalidDuration, strings.TrimSpace(record[1]))
	}

	req.Start, err = ParseTimeOfDay(record[2])
	if err != nil {
		return req, fmt.Errorf("%w: %v", errors.ErrInvalidStartTime, err)
	}

	req.End, err = ParseTimeOfDay(record[3])
	if err != nil {
		return req, fmt.Errorf("%w: %v", errors.ErrInvalidEndTime, err)
	}

	// Same-day markers only: end at or before start is rejected here, not
	// treated as an overnight wraparound.
	if !req.Start.Before(req.End) {
		return req, fmt.Errorf("%w: start %s, end %s", errors.ErrMalformedTimeWindow, req.Start, req.End)
	}

	req.NumCalls, err = strconv.Atoi(strings.TrimSpace(record[4]))
	if err != nil || req.NumCalls < 0 {
		return req, fmt.Errorf("%w: %q", errors.ErrInvalidNumberOfCalls, strings.TrimSpace(record[4]))
	}

	req.Priority, err = strconv.Atoi(strings.TrimSpace(record[5]))
	if err != nil || req.Priority < 1 || req.Priority > 5 {
		return req, fmt.Errorf("%w: %q (must be 1-5)", errors.ErrInvalidPriority, strings.TrimSpace(record[5]))
	}

	return req, nil
}

// ParseTimeOfDay parses a local wall-clock marker in "3PM" or "3:04PM"
// format into a TimeOfDay.
func ParseTimeOfDay(value string) (models.TimeOfDay, error) {
	value = strings.TrimSpace(value)
	layouts := []string{"3:04PM", "3PM"}

	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return models.TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
		lastErr = err
	}
	return models.TimeOfDay{}, lastErr
}

func errorType(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrInvalidFieldCount):
		return "field_count"
	case stderrors.Is(err, errors.ErrEmptyCustomerName):
		return "empty_name"
	case stderrors.Is(err, errors.ErrInvalidDuration):
		return "duration"
	case stderrors.Is(err, errors.ErrInvalidStartTime):
		return "start_time"
	case stderrors.Is(err, errors.ErrInvalidEndTime):
		return "end_time"
	case stderrors.Is(err, errors.ErrMalformedTimeWindow):
		return "time_window"
	case stderrors.Is(err, errors.ErrInvalidNumberOfCalls):
		return "number_of_calls"
	case stderrors.Is(err, errors.ErrInvalidPriority):
		return "priority"
	default:
		return "other"
	}
}
