// Package timefmt canonicalizes the timestamp representations that reach the
// scheduler. Bookings arrive as "2006-01-02T15:04", "2006-01-02T15:04:05.000Z"
// or already-canonical "2006-01-02 15:04:05"; everything is reduced to one
// clinic-local wall-clock form before any comparison, because mixing raw and
// canonical forms silently miscompares.
package timefmt

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// Layout is the canonical on-disk timestamp form.
	Layout = "2006-01-02 15:04:05"
	// DateLayout is a bare calendar date.
	DateLayout = "2006-01-02"
	// ClockLayout is a time of day without seconds, as slots are keyed.
	ClockLayout = "15:04"
)

var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Normalize converts raw into the canonical form: the "T" separator becomes a
// space, anything from the first "." onward is dropped (milliseconds plus any
// zone letter glued onto them), a trailing "Z" is dropped, and ":00" seconds
// are appended when absent. The result must parse as a real date-time.
// Normalize is idempotent.
func Normalize(raw string) (string, error) {
	s := strings.Replace(strings.TrimSpace(raw), "T", " ", 1)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, "Z")
	if len(s) == 16 {
		s += ":00"
	}
	if _, err := time.Parse(Layout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
	}
	return s, nil
}

// Parse normalizes raw and returns it as a wall-clock time.Time in UTC.
// The location carries no meaning; the clinic operates in local wall-clock
// time and the zone is never consulted.
func Parse(raw string) (time.Time, error) {
	s, err := Normalize(raw)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
	}
	return t, nil
}

// Format renders t in the canonical form.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// ParseDate parses a bare calendar date.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
	}
	return t, nil
}

// FormatDate renders the date part of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
