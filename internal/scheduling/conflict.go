package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dentech/clinic-scheduler/internal/timefmt"
)

var ErrSchedulingConflict = errors.New("doctor already has an appointment in this interval")

// ConflictError reports the interval that blocked a booking so callers can
// suggest alternatives. It unwraps to ErrSchedulingConflict.
type ConflictError struct {
	DoctorID uuid.UUID
	Start    time.Time
	End      time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("doctor %s already booked %s - %s",
		e.DoctorID, timefmt.Format(e.Start), timefmt.Format(e.End))
}

func (e *ConflictError) Unwrap() error { return ErrSchedulingConflict }

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2) share
// at least one instant. Adjacent intervals (e1 == s2) do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// Detector answers whether a proposed interval collides with an existing
// active appointment for the same doctor.
type Detector struct {
	repo Repository
}

func NewDetector(repo Repository) *Detector {
	return &Detector{repo: repo}
}

// Conflict returns the first active appointment for doctorID overlapping
// [start, end), or nil when the interval is free. exclude removes one
// appointment from consideration for in-place updates.
func (d *Detector) Conflict(ctx context.Context, doctorID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (*Appointment, error) {
	candidates, err := d.repo.FindActiveOverlapping(ctx, doctorID, start, end, exclude)
	if err != nil {
		return nil, fmt.Errorf("find overlapping appointments: %w", err)
	}
	for i := range candidates {
		c := &candidates[i]
		if Overlaps(start, end, c.Start, c.End) {
			return c, nil
		}
	}
	return nil, nil
}
