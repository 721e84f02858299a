// Package scheduling implements appointment booking and conflict resolution:
// interval overlap detection, the appointment status state machine, and
// day-availability classification against the clinic calendar.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentech/clinic-scheduler/internal/calendar"
	redisclient "github.com/dentech/clinic-scheduler/internal/redis"
	"github.com/dentech/clinic-scheduler/internal/timefmt"
)

var (
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrInvalidInterval        = errors.New("appointment end must be after start")
	ErrDoctorBeingBooked      = errors.New("doctor is currently being booked, please retry")
	ErrConcurrentModification = errors.New("appointment changed concurrently, please retry")
)

// ConfirmationHook receives the post-transition event fired when an
// appointment enters confirmed. It runs detached from the request: its
// failure never rolls back or blocks the transition.
type ConfirmationHook interface {
	AppointmentConfirmed(ctx context.Context, appt Appointment)
}

type Service struct {
	repo     Repository
	detector *Detector
	schedule calendar.Store
	locker   redisclient.Locker
	hook     ConfirmationHook
	log      zerolog.Logger
}

func NewService(repo Repository, schedule calendar.Store, locker redisclient.Locker, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		detector: NewDetector(repo),
		schedule: schedule,
		locker:   locker,
		log:      log,
	}
}

// SetConfirmationHook registers the external side effect fired on the
// transition into confirmed.
func (s *Service) SetConfirmationHook(h ConfirmationHook) {
	s.hook = h
}

type CreateParams struct {
	PatientID uuid.UUID
	DoctorID  *uuid.UUID
	Start     string
	End       string
	Type      string
	Notes     string
}

// Create books a new appointment with status scheduled. When a doctor is
// assigned, the conflict check and the insert run under that doctor's lock;
// on conflict nothing is written. Unassigned appointments skip conflict
// detection entirely: without a doctor there is no resource to collide on.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Appointment, error) {
	start, end, duration, err := normalizeInterval(p.Start, p.End)
	if err != nil {
		return nil, err
	}

	appt := &Appointment{
		ID:              uuid.New(),
		PatientID:       p.PatientID,
		DoctorID:        p.DoctorID,
		Start:           start,
		End:             end,
		DurationMinutes: duration,
		Status:          StatusScheduled,
		Type:            p.Type,
		Notes:           p.Notes,
	}

	if p.DoctorID == nil {
		if err := s.repo.Insert(ctx, appt); err != nil {
			return nil, fmt.Errorf("insert appointment: %w", err)
		}
		return appt, nil
	}

	doctorID := *p.DoctorID
	err = s.locker.WithDoctorLock(ctx, doctorID, func(lockCtx context.Context) error {
		blocking, err := s.detector.Conflict(lockCtx, doctorID, start, end, nil)
		if err != nil {
			return err
		}
		if blocking != nil {
			return &ConflictError{DoctorID: doctorID, Start: blocking.Start, End: blocking.End}
		}
		if err := s.repo.Insert(lockCtx, appt); err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDoctorBeingBooked
		}
		return nil, err
	}

	return appt, nil
}

// Reschedule moves an appointment to a new interval. The conflict re-check
// excludes the appointment itself so it never collides with its own previous
// interval. On conflict the stored appointment is left untouched. The write
// swaps on the doctor the interval was validated against: if a reassignment
// lands between the read and the commit, the reschedule fails with
// ErrConcurrentModification instead of committing an unchecked interval.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newStart, newEnd string) (*Appointment, error) {
	start, end, duration, err := normalizeInterval(newStart, newEnd)
	if err != nil {
		return nil, err
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if appt.DoctorID == nil {
		updated, err := s.repo.UpdateInterval(ctx, id, start, end, duration, nil)
		if err != nil {
			return nil, s.casFailure(ctx, id, err)
		}
		return updated, nil
	}

	doctorID := *appt.DoctorID
	var updated *Appointment
	err = s.locker.WithDoctorLock(ctx, doctorID, func(lockCtx context.Context) error {
		blocking, err := s.detector.Conflict(lockCtx, doctorID, start, end, &id)
		if err != nil {
			return err
		}
		if blocking != nil {
			return &ConflictError{DoctorID: doctorID, Start: blocking.Start, End: blocking.End}
		}
		updated, err = s.repo.UpdateInterval(lockCtx, id, start, end, duration, appt.DoctorID)
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDoctorBeingBooked
		}
		return nil, s.casFailure(ctx, id, err)
	}

	return updated, nil
}

// AssignDoctor staffs an appointment, re-running the conflict check against
// the target doctor before commit. The write swaps on the interval that was
// checked, so a reschedule landing between the read and the commit fails the
// assignment with ErrConcurrentModification rather than staffing an interval
// the check never saw.
func (s *Service) AssignDoctor(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated *Appointment
	err = s.locker.WithDoctorLock(ctx, doctorID, func(lockCtx context.Context) error {
		blocking, err := s.detector.Conflict(lockCtx, doctorID, appt.Start, appt.End, &id)
		if err != nil {
			return err
		}
		if blocking != nil {
			return &ConflictError{DoctorID: doctorID, Start: blocking.Start, End: blocking.End}
		}
		updated, err = s.repo.UpdateDoctor(lockCtx, id, doctorID, appt.Start, appt.End)
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDoctorBeingBooked
		}
		return nil, s.casFailure(ctx, id, err)
	}

	return updated, nil
}

// UpdateStatus applies a state-machine transition. Entering confirmed fires
// the registered confirmation hook on a detached context.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, next Status) (*Appointment, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, next)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, appt.Status, next)
	if err != nil {
		// A lost swap on a row that still exists means the status moved
		// under us; report the transition from where the row is now.
		if errors.Is(err, ErrAppointmentNotFound) {
			if cur, getErr := s.repo.GetByID(ctx, id); getErr == nil {
				return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur.Status, next)
			}
		}
		return nil, err
	}

	if next == StatusConfirmed && s.hook != nil {
		hookCtx := context.WithoutCancel(ctx)
		confirmed := *updated
		go func() {
			defer func() {
				if r := recover(); r != nil {
					s.log.Error().Interface("panic", r).Stringer("appointment_id", confirmed.ID).
						Msg("confirmation hook panicked")
				}
			}()
			s.hook.AppointmentConfirmed(hookCtx, confirmed)
		}()
	}

	return updated, nil
}

// Cancel marks the appointment cancelled. The row is retained for audit and
// stops counting toward conflicts.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.UpdateStatus(ctx, id, StatusCancelled)
}

// Get returns one appointment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// Availability lists the day's candidate slots classified against existing
// active appointments, optionally restricted to one doctor. A closed date
// comes back with Open=false and a reason instead of a bare empty list.
func (s *Service) Availability(ctx context.Context, date string, doctorID *uuid.UUID) (*DayAvailability, error) {
	day, err := timefmt.ParseDate(date)
	if err != nil {
		return nil, err
	}
	canonical := timefmt.FormatDate(day)

	sched, err := s.schedule.Schedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clinic schedule: %w", err)
	}

	if !sched.IsOpen(day) {
		reason := ClosedReasonNotWorking
		if _, isClosure := sched.ClosureReason(day); isClosure {
			reason = ClosedReasonClosure
		}
		return &DayAvailability{Date: canonical, Open: false, Reason: reason, Slots: []TimeSlot{}}, nil
	}

	hours, _ := sched.WorkingHours(day)
	starts, err := calendar.Slots(hours, sched.IntervalMinutes)
	if err != nil {
		return nil, err
	}

	appts, err := s.repo.ListActiveByDate(ctx, canonical, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list appointments for %s: %w", canonical, err)
	}

	byClock := make(map[string][]Appointment)
	for _, a := range appts {
		clock := a.Start.Format(timefmt.ClockLayout)
		byClock[clock] = append(byClock[clock], a)
	}

	slots := make([]TimeSlot, 0, len(starts))
	for _, start := range starts {
		slots = append(slots, TimeSlot{Time: start, Status: classifySlot(byClock[start])})
	}

	return &DayAvailability{Date: canonical, Open: true, Slots: slots}, nil
}

// classifySlot colors a slot from the appointments occupying its exact start:
// any non-tentative active appointment makes it booked, a tentative one makes
// it pending, none leaves it available.
func classifySlot(appts []Appointment) SlotStatus {
	status := SlotAvailable
	for _, a := range appts {
		if !a.Status.Active() {
			continue
		}
		if !a.Status.Tentative() {
			return SlotBooked
		}
		status = SlotPending
	}
	return status
}

// casFailure resolves a failed compare-and-swap update: a row that is gone
// stays not-found, a row that survived was changed by a concurrent writer
// after our read and surfaces as retryable.
func (s *Service) casFailure(ctx context.Context, id uuid.UUID, err error) error {
	if errors.Is(err, ErrAppointmentNotFound) {
		if _, getErr := s.repo.GetByID(ctx, id); getErr == nil {
			return ErrConcurrentModification
		}
	}
	return err
}

func normalizeInterval(rawStart, rawEnd string) (start, end time.Time, durationMinutes int, err error) {
	start, err = timefmt.Parse(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}
	end, err = timefmt.Parse(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, 0, fmt.Errorf("%w: %s >= %s", ErrInvalidInterval, timefmt.Format(start), timefmt.Format(end))
	}
	return start, end, int(end.Sub(start) / time.Minute), nil
}
