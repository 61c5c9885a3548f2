// Package filter turns loosely typed user input (query strings, form fields)
// into the typed values the task services work with.
package filter

import (
	"strings"
	"time"
)

// Query parameter names of the date range filter on task lists.
const (
	ParamAfter  = "date_field_after"
	ParamBefore = "date_field_before"
)

const dateLayout = "2006-01-02"

// DateRange is an inclusive, optionally open-ended time window.
// A zero DateRange matches everything.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// IsZero reports whether the range applies no constraint.
func (r DateRange) IsZero() bool {
	return r.From == nil && r.To == nil
}

// ParseDateRange builds a range from two calendar dates in loc. "after"
// becomes the first instant of its day and "before" the last instant of its
// day. Empty values leave that side open. If any value is malformed the whole
// filter is dropped and a zero range returned. An inverted range is kept and
// matches nothing.
func ParseDateRange(after, before string, loc *time.Location) DateRange {
	if loc == nil {
		loc = time.UTC
	}

	var r DateRange
	if s := strings.TrimSpace(after); s != "" {
		d, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return DateRange{}
		}
		r.From = &d
	}
	if s := strings.TrimSpace(before); s != "" {
		d, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return DateRange{}
		}
		end := d.AddDate(0, 0, 1).Add(-time.Nanosecond)
		r.To = &end
	}
	return r
}
