package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// Repository contains all DB interactions needed by the scheduler.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// FindActiveOverlapping returns active appointments (status not
	// cancelled/no_show) for the doctor whose half-open interval overlaps
	// [start, end), ordered by start. exclude, when non-nil, removes that
	// appointment from the candidate set so an in-place update never
	// conflicts with itself.
	FindActiveOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time, exclude *uuid.UUID) ([]Appointment, error)

	// ListActiveByDate returns active appointments starting on the given
	// calendar date ("2006-01-02"), optionally filtered to one doctor.
	ListActiveByDate(ctx context.Context, date string, doctorID *uuid.UUID) ([]Appointment, error)

	Insert(ctx context.Context, appt *Appointment) error

	// The update methods compare-and-swap on the field the caller's
	// conflict check depended on: UpdateInterval on the doctor it was
	// validated against, UpdateDoctor on the interval, UpdateStatus on the
	// current status. A swap that matches no row returns
	// ErrAppointmentNotFound; callers distinguish a vanished row from one a
	// concurrent writer changed.
	UpdateInterval(ctx context.Context, id uuid.UUID, start, end time.Time, durationMinutes int, expectDoctor *uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)
	UpdateDoctor(ctx context.Context, id uuid.UUID, doctorID uuid.UUID, expectStart, expectEnd time.Time) (*Appointment, error)
}
