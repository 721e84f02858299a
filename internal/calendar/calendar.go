// Package calendar resolves clinic opening rules: per-weekday working hours,
// ad-hoc closure dates, and the booking-interval granularity that defines
// which start times are legal at all.
package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/dentech/clinic-scheduler/internal/timefmt"
)

var ErrInvalidConfiguration = errors.New("invalid clinic configuration")

// Hours is a working-hour window for one day, as "HH:MM" times of day.
type Hours struct {
	Start string
	End   string
}

// WorkingDay is one weekday's configuration. Custom times override the
// clinic-wide default only when the day is working; a non-working day has no
// hours regardless of what the custom fields hold.
type WorkingDay struct {
	Weekday     time.Weekday
	Working     bool
	CustomStart string
	CustomEnd   string
}

// Schedule is the full clinic configuration the calendar evaluates.
type Schedule struct {
	ClinicName      string
	DefaultStart    string
	DefaultEnd      string
	IntervalMinutes int
	WorkingDays     [7]WorkingDay
	Closures        map[string]string // "2006-01-02" -> reason
}

// IsOpen reports whether the clinic is open on the given date.
// A closure always wins over the weekday setting.
func (s Schedule) IsOpen(date time.Time) bool {
	if _, closed := s.Closures[timefmt.FormatDate(date)]; closed {
		return false
	}
	return s.WorkingDays[int(date.Weekday())].Working
}

// ClosureReason returns the recorded reason when date is a closure.
func (s Schedule) ClosureReason(date time.Time) (string, bool) {
	reason, ok := s.Closures[timefmt.FormatDate(date)]
	return reason, ok
}

// WorkingHours resolves the working-hour window for date, or ok=false when
// the clinic is closed that day.
func (s Schedule) WorkingHours(date time.Time) (Hours, bool) {
	if !s.IsOpen(date) {
		return Hours{}, false
	}
	wd := s.WorkingDays[int(date.Weekday())]
	if wd.CustomStart != "" && wd.CustomEnd != "" {
		return Hours{Start: wd.CustomStart, End: wd.CustomEnd}, true
	}
	return Hours{Start: s.DefaultStart, End: s.DefaultEnd}, true
}

// Slots generates the candidate appointment start times for one day: one slot
// every intervalMinutes from hours.Start while strictly before hours.End. The
// last partial stretch before closing never yields a slot.
func Slots(hours Hours, intervalMinutes int) ([]string, error) {
	if intervalMinutes <= 0 {
		return nil, fmt.Errorf("%w: booking interval must be positive, got %d", ErrInvalidConfiguration, intervalMinutes)
	}
	start, err := clockMinutes(hours.Start)
	if err != nil {
		return nil, err
	}
	end, err := clockMinutes(hours.End)
	if err != nil {
		return nil, err
	}

	var slots []string
	for m := start; m < end; m += intervalMinutes {
		slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return slots, nil
}

func clockMinutes(clock string) (int, error) {
	t, err := time.Parse(timefmt.ClockLayout, clock)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed working hour %q", ErrInvalidConfiguration, clock)
	}
	return t.Hour()*60 + t.Minute(), nil
}
