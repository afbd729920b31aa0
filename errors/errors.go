package errors

import "fmt"

// ParseError wraps a specific error with context about where it occurred.
type ParseError struct {
	Line   int
	Record []string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %v (record: %v)", e.Line, e.Err, e.Record)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ScheduleError attributes an engine failure to the customer that caused it.
type ScheduleError struct {
	Customer string
	Err      error
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("schedule error for customer %q: %v", e.Customer, e.Err)
}

func (e *ScheduleError) Unwrap() error {
	return e.Err
}

// Define specific error types for better error handling
var (
	ErrInvalidFieldCount    = fmt.Errorf("invalid field count")
	ErrEmptyCustomerName    = fmt.Errorf("empty customer name")
	ErrInvalidDuration      = fmt.Errorf("invalid duration")
	ErrInvalidStartTime     = fmt.Errorf("invalid start time")
	ErrInvalidEndTime       = fmt.Errorf("invalid end time")
	ErrInvalidNumberOfCalls = fmt.Errorf("invalid number of calls")
	ErrInvalidPriority      = fmt.Errorf("invalid priority")
	ErrEmptyRecord          = fmt.Errorf("empty record")
)

// Engine error kinds. Any of these aborts the entire scheduling run;
// no partial schedule is returned.
var (
	ErrZeroActiveBuckets   = fmt.Errorf("customer window covers zero buckets")
	ErrInvalidUtilization  = fmt.Errorf("utilization must be in (0, 1]")
	ErrNegativeCapacity    = fmt.Errorf("capacity must be non-negative")
	ErrMalformedTimeWindow = fmt.Errorf("end time must be after start time")
	ErrInvalidTimezone     = fmt.Errorf("invalid timezone")
	ErrInvalidDate         = fmt.Errorf("invalid date")
)
