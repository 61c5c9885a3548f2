package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDueDate is returned for due dates that cannot be parsed.
var ErrInvalidDueDate = errors.New("invalid due date")

// ParseDueDate combines the separate date and time inputs of the due date
// picker into one instant in loc. Both parts empty means "no due date" and
// returns nil. An empty time means midnight; seconds are ignored.
func ParseDueDate(date, clock string, loc *time.Location) (*time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)

	if date == "" && clock == "" {
		return nil, nil
	}
	if date == "" {
		return nil, fmt.Errorf("%w: date is required when a time is given", ErrInvalidDueDate)
	}
	if clock == "" {
		clock = "00:00"
	}
	if len(clock) > 5 {
		clock = clock[:5]
	}
	if loc == nil {
		loc = time.UTC
	}

	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q %q", ErrInvalidDueDate, date, clock)
	}
	return &t, nil
}
