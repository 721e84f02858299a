package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentech/clinic-scheduler/internal/calendar"
	"github.com/dentech/clinic-scheduler/internal/timefmt"
)

// -- Mocks --

type mockRepo struct {
	mu    sync.Mutex
	appts map[uuid.UUID]*Appointment

	// afterGet fires once after the next GetByID returns its snapshot,
	// simulating a concurrent writer landing between a read and the
	// update that depends on it.
	afterGet func()
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) add(a *Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.appts[a.ID] = &cp
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	a, ok := m.appts[id]
	var cp Appointment
	if ok {
		cp = *a
	}
	m.mu.Unlock()
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if m.afterGet != nil {
		hook := m.afterGet
		m.afterGet = nil
		hook()
	}
	return &cp, nil
}

func (m *mockRepo) FindActiveOverlapping(_ context.Context, doctorID uuid.UUID, start, end time.Time, exclude *uuid.UUID) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []Appointment
	for _, a := range m.appts {
		if a.DoctorID == nil || *a.DoctorID != doctorID {
			continue
		}
		if !a.Status.Active() {
			continue
		}
		if exclude != nil && a.ID == *exclude {
			continue
		}
		if Overlaps(start, end, a.Start, a.End) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockRepo) ListActiveByDate(_ context.Context, date string, doctorID *uuid.UUID) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []Appointment
	for _, a := range m.appts {
		if timefmt.FormatDate(a.Start) != date {
			continue
		}
		if !a.Status.Active() {
			continue
		}
		if doctorID != nil && (a.DoctorID == nil || *a.DoctorID != *doctorID) {
			continue
		}
		result = append(result, *a)
	}
	return result, nil
}

func (m *mockRepo) Insert(_ context.Context, appt *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	cp := *appt
	m.appts[appt.ID] = &cp
	return nil
}

func (m *mockRepo) UpdateInterval(_ context.Context, id uuid.UUID, start, end time.Time, durationMinutes int, expectDoctor *uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || !sameDoctor(a.DoctorID, expectDoctor) {
		return nil, ErrAppointmentNotFound
	}
	a.Start, a.End, a.DurationMinutes = start, end, durationMinutes
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *mockRepo) UpdateDoctor(_ context.Context, id, doctorID uuid.UUID, expectStart, expectEnd time.Time) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || !a.Start.Equal(expectStart) || !a.End.Equal(expectEnd) {
		return nil, ErrAppointmentNotFound
	}
	d := doctorID
	a.DoctorID = &d
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func sameDoctor(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type inlineLocker struct {
	mu sync.Mutex
}

func (l *inlineLocker) WithDoctorLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}

type memScheduleStore struct {
	sched calendar.Schedule
}

func (m *memScheduleStore) Schedule(_ context.Context) (calendar.Schedule, error) {
	return m.sched, nil
}

func (m *memScheduleStore) SetWorkingDay(_ context.Context, day calendar.WorkingDay) error {
	m.sched.WorkingDays[int(day.Weekday)] = day
	return nil
}

func (m *memScheduleStore) AddClosure(_ context.Context, date, reason string) error {
	m.sched.Closures[date] = reason
	return nil
}

func (m *memScheduleStore) RemoveClosure(_ context.Context, date string) error {
	delete(m.sched.Closures, date)
	return nil
}

func (m *memScheduleStore) SetBookingInterval(_ context.Context, minutes int) error {
	m.sched.IntervalMinutes = minutes
	return nil
}

func newTestService() (*Service, *mockRepo, *memScheduleStore) {
	repo := newMockRepo()
	sched := calendar.Schedule{
		DefaultStart:    "09:00",
		DefaultEnd:      "18:00",
		IntervalMinutes: 30,
		Closures:        map[string]string{},
	}
	for i := range sched.WorkingDays {
		sched.WorkingDays[i] = calendar.WorkingDay{Weekday: time.Weekday(i), Working: true}
	}
	sched.WorkingDays[time.Saturday].Working = false
	sched.WorkingDays[time.Sunday].Working = false
	store := &memScheduleStore{sched: sched}
	svc := NewService(repo, store, &inlineLocker{}, zerolog.Nop())
	return svc, repo, store
}

// -- Create --

func TestCreateAssigned(t *testing.T) {
	svc, repo, _ := newTestService()
	doc := uuid.New()

	appt, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(),
		DoctorID:  &doc,
		Start:     "2024-06-03T10:00",
		End:       "2024-06-03T10:30",
		Type:      "checkup",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if appt.Status != StatusScheduled {
		t.Errorf("status = %s, want scheduled", appt.Status)
	}
	if appt.DurationMinutes != 30 {
		t.Errorf("duration = %d, want 30", appt.DurationMinutes)
	}
	stored, err := repo.GetByID(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("stored appointment missing: %v", err)
	}
	if !stored.End.Equal(stored.Start.Add(30 * time.Minute)) {
		t.Error("stored interval inconsistent")
	}
}

func TestCreateConflict(t *testing.T) {
	svc, _, _ := newTestService()
	doc := uuid.New()

	first, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &doc,
		Start: "2024-06-03 10:00:00", End: "2024-06-03 10:30:00",
	})
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err = svc.UpdateStatus(context.Background(), first.ID, StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	_, err = svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &doc,
		Start: "2024-06-03T10:15", End: "2024-06-03T10:45",
	})
	if !errors.Is(err, ErrSchedulingConflict) {
		t.Fatalf("want ErrSchedulingConflict, got %v", err)
	}
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatal("conflict error should carry the blocking interval")
	}
	if timefmt.Format(ce.Start) != "2024-06-03 10:00:00" || timefmt.Format(ce.End) != "2024-06-03 10:30:00" {
		t.Errorf("blocking interval = %s - %s", timefmt.Format(ce.Start), timefmt.Format(ce.End))
	}
}

func TestCreateAdjacentSucceeds(t *testing.T) {
	svc, _, _ := newTestService()
	doc := uuid.New()

	if _, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &doc,
		Start: "2024-06-03T10:00", End: "2024-06-03T10:30",
	}); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	if _, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &doc,
		Start: "2024-06-03T10:30", End: "2024-06-03T11:00",
	}); err != nil {
		t.Fatalf("adjacent Create should succeed, got %v", err)
	}
}

func TestCreateAfterCancellationSucceeds(t *testing.T) {
	svc, _, _ := newTestService()
	doc := uuid.New()

	first, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &doc,
		Start: "2024-06-03T10:00", End: "2024-06-03T10:30",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	retry := CreateParams{
		PatientID: uuid.New(), DoctorID: &doc,
		Start: "2024-06-03T10:15", End: "2024-06-03T10:45",
	}
	if _, err := svc.Create(context.Background(), retry); !errors.Is(err, ErrSchedulingConflict) {
		t.Fatalf("want conflict before cancellation, got %v", err)
	}

	if _, err := svc.Cancel(context.Background(), first.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if _, err := svc.Create(context.Background(), retry); err != nil {
		t.Fatalf("create after cancellation should succeed, got %v", err)
	}
}

func TestCreateUnassignedSkipsConflictCheck(t *testing.T) {
	svc, _, _ := newTestService()

	// Two unassigned appointments over the same interval both go through;
	// the collision only surfaces when a doctor is assigned.
	p := CreateParams{PatientID: uuid.New(), Start: "2024-06-03T10:00", End: "2024-06-03T10:30"}
	if _, err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("second unassigned Create: %v", err)
	}
}

func TestCreateInvalidInput(t *testing.T) {
	svc, _, _ := newTestService()
	doc := uuid.New()

	if _, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &doc,
		Start: "garbage", End: "2024-06-03T10:30",
	}); !errors.Is(err, timefmt.ErrInvalidTimestamp) {
		t.Errorf("want ErrInvalidTimestamp, got %v", err)
	}

	if _, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &doc,
		Start: "2024-06-03T10:30", End: "2024-06-03T10:00",
	}); !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("want ErrInvalidInterval, got %v", err)
	}
}

// -- Reschedule --

func TestRescheduleSelfOverlap(t *testing.T) {
	svc, _, _ := newTestService()
	doc := uuid.New()

	appt, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &doc,
		Start: "2024-06-03T10:00", End: "2024-06-03T10:30",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Reschedule(context.Background(), appt.ID, "2024-06-03T10:15", "2024-06-03T10:45")
	if err != nil {
		t.Fatalf("reschedule over own interval must not conflict: %v", err)
	}
	if timefmt.Format(updated.Start) != "2024-06-03 10:15:00" {
		t.Errorf("start = %s", timefmt.Format(updated.Start))
	}
	if updated.DurationMinutes != 30 {
		t.Errorf("duration = %d", updated.DurationMinutes)
	}
}

func TestRescheduleConflictLeavesUntouched(t *testing.T) {
	svc, repo, _ := newTestService()
	doc := uuid.New()

	if _, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &doc,
		Start: "2024-06-03T11:00", End: "2024-06-03T11:30",
	}); err != nil {
		t.Fatalf("Create blocker: %v", err)
	}

	victim, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &doc,
		Start: "2024-06-03T10:00", End: "2024-06-03T10:30",
	})
	if err != nil {
		t.Fatalf("Create victim: %v", err)
	}

	_, err = svc.Reschedule(context.Background(), victim.ID, "2024-06-03T11:15", "2024-06-03T11:45")
	if !errors.Is(err, ErrSchedulingConflict) {
		t.Fatalf("want ErrSchedulingConflict, got %v", err)
	}

	stored, err := repo.GetByID(context.Background(), victim.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if timefmt.Format(stored.Start) != "2024-06-03 10:00:00" {
		t.Error("failed reschedule must not partially update the appointment")
	}
}

func TestRescheduleNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Reschedule(context.Background(), uuid.New(), "2024-06-03T10:00", "2024-06-03T10:30")
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("want ErrAppointmentNotFound, got %v", err)
	}
}

// -- AssignDoctor --

func TestAssignDoctorConflict(t *testing.T) {
	svc, _, _ := newTestService()
	doc := uuid.New()

	if _, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &doc,
		Start: "2024-06-03T10:00", End: "2024-06-03T10:30",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	unassigned, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(),
		Start:     "2024-06-03T10:00", End: "2024-06-03T10:30",
	})
	if err != nil {
		t.Fatalf("Create unassigned: %v", err)
	}

	if _, err := svc.AssignDoctor(context.Background(), unassigned.ID, doc); !errors.Is(err, ErrSchedulingConflict) {
		t.Fatalf("want ErrSchedulingConflict on assignment, got %v", err)
	}

	other := uuid.New()
	updated, err := svc.AssignDoctor(context.Background(), unassigned.ID, other)
	if err != nil {
		t.Fatalf("AssignDoctor to free doctor: %v", err)
	}
	if updated.DoctorID == nil || *updated.DoctorID != other {
		t.Error("doctor not assigned")
	}
}

// -- Interleaved writers --

func TestRescheduleFailsWhenDoctorReassignedAfterRead(t *testing.T) {
	svc, repo, _ := newTestService()
	docA, docB := uuid.New(), uuid.New()

	victim, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &docA,
		Start: "2024-06-03 10:00:00", End: "2024-06-03 10:30:00",
	})
	if err != nil {
		t.Fatalf("Create victim: %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &docB,
		Start: "2024-06-03 11:00:00", End: "2024-06-03 11:30:00",
	}); err != nil {
		t.Fatalf("Create blocker: %v", err)
	}

	// Reassignment lands after Reschedule reads the doctor but before it
	// commits. The moved interval was never checked against docB, so the
	// reschedule must fail rather than double-book docB at 11:00.
	repo.afterGet = func() {
		if _, err := svc.AssignDoctor(context.Background(), victim.ID, docB); err != nil {
			t.Fatalf("interleaved AssignDoctor: %v", err)
		}
	}

	_, err = svc.Reschedule(context.Background(), victim.ID, "2024-06-03 11:00:00", "2024-06-03 11:30:00")
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("want ErrConcurrentModification, got %v", err)
	}

	stored, err := repo.GetByID(context.Background(), victim.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !stored.Start.Equal(at("10:00")) {
		t.Errorf("interval moved to %s despite failed reschedule", stored.Start)
	}
	booked, err := repo.FindActiveOverlapping(context.Background(), docB, at("11:00"), at("11:30"), nil)
	if err != nil {
		t.Fatalf("FindActiveOverlapping: %v", err)
	}
	if len(booked) != 1 {
		t.Errorf("docB has %d active appointments at 11:00, want 1", len(booked))
	}
}

func TestAssignDoctorFailsWhenRescheduledAfterRead(t *testing.T) {
	svc, repo, _ := newTestService()
	docB := uuid.New()

	victim, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(),
		Start:     "2024-06-03 10:00:00", End: "2024-06-03 10:30:00",
	})
	if err != nil {
		t.Fatalf("Create victim: %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &docB,
		Start: "2024-06-03 11:00:00", End: "2024-06-03 11:30:00",
	}); err != nil {
		t.Fatalf("Create blocker: %v", err)
	}

	// The reschedule moves the victim onto docB's booked interval after
	// AssignDoctor has read it; the assignment validated the old interval
	// only and must not commit.
	repo.afterGet = func() {
		if _, err := svc.Reschedule(context.Background(), victim.ID, "2024-06-03 11:00:00", "2024-06-03 11:30:00"); err != nil {
			t.Fatalf("interleaved Reschedule: %v", err)
		}
	}

	_, err = svc.AssignDoctor(context.Background(), victim.ID, docB)
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("want ErrConcurrentModification, got %v", err)
	}

	stored, err := repo.GetByID(context.Background(), victim.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.DoctorID != nil {
		t.Error("doctor assigned despite failed swap")
	}
}

func TestRescheduleUnassignedFailsWhenDoctorAssignedAfterRead(t *testing.T) {
	svc, repo, _ := newTestService()
	docB := uuid.New()

	victim, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(),
		Start:     "2024-06-03 10:00:00", End: "2024-06-03 10:30:00",
	})
	if err != nil {
		t.Fatalf("Create victim: %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &docB,
		Start: "2024-06-03 11:00:00", End: "2024-06-03 11:30:00",
	}); err != nil {
		t.Fatalf("Create blocker: %v", err)
	}

	// The unassigned path skips conflict checks entirely, so a doctor
	// gaining the row mid-flight must invalidate the interval update.
	repo.afterGet = func() {
		if _, err := svc.AssignDoctor(context.Background(), victim.ID, docB); err != nil {
			t.Fatalf("interleaved AssignDoctor: %v", err)
		}
	}

	_, err = svc.Reschedule(context.Background(), victim.ID, "2024-06-03 11:00:00", "2024-06-03 11:30:00")
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("want ErrConcurrentModification, got %v", err)
	}
}

// -- UpdateStatus --

func TestUpdateStatusChain(t *testing.T) {
	svc, _, _ := newTestService()

	appt, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), Start: "2024-06-03T10:00", End: "2024-06-03T10:30",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, next := range []Status{StatusConfirmed, StatusInProgress, StatusCompleted} {
		if _, err := svc.UpdateStatus(context.Background(), appt.ID, next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	// Completed is terminal.
	if _, err := svc.UpdateStatus(context.Background(), appt.ID, StatusScheduled); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("want ErrInvalidTransition from completed, got %v", err)
	}
}

func TestUpdateStatusRejectsSkips(t *testing.T) {
	svc, _, _ := newTestService()

	appt, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), Start: "2024-06-03T10:00", End: "2024-06-03T10:30",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), appt.ID, StatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("scheduled -> completed should be rejected, got %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), appt.ID, Status("bogus")); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("unknown status should be rejected, got %v", err)
	}
}

func TestUpdateStatusLostRaceIsInvalidTransition(t *testing.T) {
	svc, repo, _ := newTestService()

	appt, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), Start: "2024-06-03T10:00", End: "2024-06-03T10:30",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Another writer cancels between the status read and the swap. The row
	// still exists, so the caller gets an invalid transition, not a 404.
	repo.afterGet = func() {
		repo.mu.Lock()
		repo.appts[appt.ID].Status = StatusCancelled
		repo.mu.Unlock()
	}

	_, err = svc.UpdateStatus(context.Background(), appt.ID, StatusConfirmed)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
	if errors.Is(err, ErrAppointmentNotFound) {
		t.Fatal("lost status race must not surface as not found")
	}
}

type recordingHook struct {
	confirmed chan Appointment
}

func (h *recordingHook) AppointmentConfirmed(_ context.Context, appt Appointment) {
	h.confirmed <- appt
}

func TestConfirmationHookFires(t *testing.T) {
	svc, _, _ := newTestService()
	hook := &recordingHook{confirmed: make(chan Appointment, 1)}
	svc.SetConfirmationHook(hook)

	appt, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), Start: "2024-06-03T10:00", End: "2024-06-03T10:30",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), appt.ID, StatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	select {
	case got := <-hook.confirmed:
		if got.ID != appt.ID {
			t.Errorf("hook received wrong appointment %s", got.ID)
		}
		if got.Status != StatusConfirmed {
			t.Errorf("hook received status %s", got.Status)
		}
	case <-time.After(time.Second):
		t.Fatal("confirmation hook never fired")
	}
}

// -- Availability --

func TestAvailabilityScenario(t *testing.T) {
	svc, _, _ := newTestService()
	doc := uuid.New()

	appt, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &doc,
		Start: "2024-06-03T10:00", End: "2024-06-03T10:30",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), appt.ID, StatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// 2024-06-03 is a Monday: open 09:00-18:00, interval 30.
	day, err := svc.Availability(context.Background(), "2024-06-03", &doc)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if !day.Open {
		t.Fatal("Monday should be open")
	}
	if len(day.Slots) != 18 {
		t.Fatalf("expected 18 slots, got %d", len(day.Slots))
	}
	for _, slot := range day.Slots {
		want := SlotAvailable
		if slot.Time == "10:00" {
			want = SlotBooked
		}
		if slot.Status != want {
			t.Errorf("slot %s = %s, want %s", slot.Time, slot.Status, want)
		}
	}
}

func TestAvailabilityPendingVsBooked(t *testing.T) {
	svc, _, _ := newTestService()
	doc := uuid.New()

	// A scheduled (tentative) appointment colors the slot pending only.
	if _, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &doc,
		Start: "2024-06-03T09:00", End: "2024-06-03T09:30",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	day, err := svc.Availability(context.Background(), "2024-06-03", &doc)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if day.Slots[0].Status != SlotPending {
		t.Errorf("slot 09:00 = %s, want pending", day.Slots[0].Status)
	}
}

func TestAvailabilityCancelledSlotFree(t *testing.T) {
	svc, _, _ := newTestService()
	doc := uuid.New()

	appt, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &doc,
		Start: "2024-06-03T09:00", End: "2024-06-03T09:30",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), appt.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	day, err := svc.Availability(context.Background(), "2024-06-03", &doc)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if day.Slots[0].Status != SlotAvailable {
		t.Errorf("cancelled appointment should leave slot available, got %s", day.Slots[0].Status)
	}
}

func TestAvailabilityClosedReasons(t *testing.T) {
	svc, _, store := newTestService()

	// Saturday is a non-working weekday.
	day, err := svc.Availability(context.Background(), "2024-06-01", nil)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if day.Open || day.Reason != ClosedReasonNotWorking {
		t.Errorf("Saturday: open=%v reason=%q", day.Open, day.Reason)
	}
	if len(day.Slots) != 0 {
		t.Errorf("closed day should have no slots, got %d", len(day.Slots))
	}

	// A closure overrides a working Monday.
	if err := store.AddClosure(context.Background(), "2024-06-03", "staff training"); err != nil {
		t.Fatalf("AddClosure: %v", err)
	}
	day, err = svc.Availability(context.Background(), "2024-06-03", nil)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if day.Open || day.Reason != ClosedReasonClosure {
		t.Errorf("closure: open=%v reason=%q", day.Open, day.Reason)
	}
}

func TestAvailabilityInvalidDate(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Availability(context.Background(), "06/03/2024", nil); !errors.Is(err, timefmt.ErrInvalidTimestamp) {
		t.Errorf("want ErrInvalidTimestamp, got %v", err)
	}
}

func TestAvailabilityAllDoctors(t *testing.T) {
	svc, _, _ := newTestService()
	docA, docB := uuid.New(), uuid.New()

	if _, err := svc.Create(context.Background(), CreateParams{
		PatientID: uuid.New(), DoctorID: &docA,
		Start: "2024-06-03T09:00", End: "2024-06-03T09:30",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Unfiltered listing sees doctor A's appointment; doctor B's does not.
	day, err := svc.Availability(context.Background(), "2024-06-03", nil)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if day.Slots[0].Status != SlotPending {
		t.Errorf("unfiltered slot 09:00 = %s", day.Slots[0].Status)
	}

	day, err = svc.Availability(context.Background(), "2024-06-03", &docB)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if day.Slots[0].Status != SlotAvailable {
		t.Errorf("doctor B slot 09:00 = %s", day.Slots[0].Status)
	}
}
