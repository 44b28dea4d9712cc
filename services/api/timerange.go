package api

import (
	"fmt"
	"strings"
	"time"
)

// Accepted time grammars: a 12-hour clock time ("03:04PM"), a 24-hour clock
// time ("15:04"), or a full RFC 3339 datetime. Clock times are combined with
// the reference date.
var clockLayouts = []string{"03:04PM", "15:04"}

// parseInstant is pure: the reference instant supplies the calendar date for
// bare clock times, so results are deterministic for a fixed ref.
func parseInstant(value string, ref time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("time value is required")
	}

	for _, layout := range clockLayouts {
		candidate := value
		if layout == "03:04PM" {
			candidate = strings.ToUpper(candidate)
		}
		t, err := time.Parse(layout, candidate)
		if err != nil {
			continue
		}
		return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour(), t.Minute(), 0, 0, ref.Location()), nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid time %q: expected HH:MMAM/PM, HH:MM, or RFC 3339", value)
}

// validateTimeRange parses and validates a session time range and derives its
// duration. end must be strictly after start; equal instants are invalid.
// Duration is floor(elapsed seconds / 60) and is non-negative by construction.
func validateTimeRange(start, end string, ref time.Time) (time.Time, time.Time, int, error) {
	fields := ValidationError{}

	startAt, err := parseInstant(start, ref)
	if err != nil {
		fields["start_time"] = err.Error()
	}
	endAt, err := parseInstant(end, ref)
	if err != nil {
		fields["end_time"] = err.Error()
	}
	if len(fields) > 0 {
		return time.Time{}, time.Time{}, 0, fields
	}

	if !endAt.After(startAt) {
		fields["end_time"] = "end_time must be strictly after start_time"
		return time.Time{}, time.Time{}, 0, fields
	}

	duration := int(endAt.Sub(startAt) / time.Minute)
	return startAt, endAt, duration, nil
}
