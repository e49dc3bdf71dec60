// Package timeparse converts client-supplied delivery times into the single
// canonical representation the rest of the system compares against: an
// absolute UTC instant.
//
// Offsets are honored during parsing and then discarded. A value stored or
// compared anywhere else in this codebase is already UTC; fixed-offset
// renderings (IST display strings and the like) are a presentation concern
// and never feed a due/not-due comparison.
package timeparse

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidFormat is returned when an input cannot be parsed as a
// calendar date/time.
var ErrInvalidFormat = errors.New("invalid time format")

// layouts tried in order. RFC 3339 first (the documented input format);
// the offset-less fallbacks are interpreted as UTC, never as server-local
// time, so the same input always names the same instant.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Normalize parses input and returns the instant in UTC.
// Round-trip guarantee: inputs expressed in different offsets that name the
// same instant normalize to equal time.Time values.
func Normalize(input string) (time.Time, error) {
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, input, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFormat, input)
}

// Format renders an instant in the canonical stored form: RFC 3339 with an
// explicit zero offset.
func Format(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
