package parser

import (
	"fmt"
	"time"

	"agent-scheduler/errors"
)

// LoadTimezone resolves an IANA timezone identifier.
func LoadTimezone(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q (use IANA names like America/Los_Angeles)", errors.ErrInvalidTimezone, name)
	}
	return loc, nil
}

// ParseDate parses a YYYY-MM-DD civil date. An empty string means today in
// the given timezone.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (expected YYYY-MM-DD)", errors.ErrInvalidDate, value)
	}
	return t, nil
}
