package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentech/clinic-scheduler/internal/scheduling"
)

type memRepo struct {
	mu       sync.Mutex
	appts    []scheduling.Appointment
	recorded map[string]string // appointmentID+kind -> message
}

func newMemRepo() *memRepo {
	return &memRepo{recorded: make(map[string]string)}
}

func (m *memRepo) FindUnreminded(_ context.Context, from, to time.Time) ([]scheduling.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []scheduling.Appointment
	for _, a := range m.appts {
		if !a.Status.Active() {
			continue
		}
		if a.Start.Before(from) || !a.Start.Before(to) {
			continue
		}
		if _, done := m.recorded[a.ID.String()+KindReminder]; done {
			continue
		}
		due = append(due, a)
	}
	return due, nil
}

func (m *memRepo) Record(_ context.Context, appointmentID uuid.UUID, kind, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := appointmentID.String() + kind
	if _, ok := m.recorded[key]; !ok {
		m.recorded[key] = message
	}
	return nil
}

func TestReminderRun(t *testing.T) {
	repo := newMemRepo()
	now := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

	within := scheduling.Appointment{ID: uuid.New(), Status: scheduling.StatusConfirmed,
		Start: now.Add(2 * time.Hour), End: now.Add(2*time.Hour + 30*time.Minute)}
	beyond := scheduling.Appointment{ID: uuid.New(), Status: scheduling.StatusConfirmed,
		Start: now.Add(48 * time.Hour), End: now.Add(48*time.Hour + 30*time.Minute)}
	cancelled := scheduling.Appointment{ID: uuid.New(), Status: scheduling.StatusCancelled,
		Start: now.Add(time.Hour), End: now.Add(time.Hour + 30*time.Minute)}
	repo.appts = []scheduling.Appointment{within, beyond, cancelled}

	r := NewReminder(repo, 24*time.Hour, zerolog.Nop())
	if err := r.Run(context.Background(), now); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, ok := repo.recorded[within.ID.String()+KindReminder]; !ok {
		t.Error("appointment within the lead window should be reminded")
	}
	if _, ok := repo.recorded[beyond.ID.String()+KindReminder]; ok {
		t.Error("appointment beyond the lead window must not be reminded")
	}
	if _, ok := repo.recorded[cancelled.ID.String()+KindReminder]; ok {
		t.Error("cancelled appointment must not be reminded")
	}
}

func TestReminderRunIdempotent(t *testing.T) {
	repo := newMemRepo()
	now := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	appt := scheduling.Appointment{ID: uuid.New(), Status: scheduling.StatusScheduled,
		Start: now.Add(time.Hour), End: now.Add(90 * time.Minute)}
	repo.appts = []scheduling.Appointment{appt}

	r := NewReminder(repo, 24*time.Hour, zerolog.Nop())
	for i := 0; i < 3; i++ {
		if err := r.Run(context.Background(), now); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}

	if len(repo.recorded) != 1 {
		t.Errorf("expected exactly one reminder, got %d", len(repo.recorded))
	}
}

func TestPortalInviter(t *testing.T) {
	repo := newMemRepo()
	inviter := NewPortalInviter(repo, zerolog.Nop())

	appt := scheduling.Appointment{ID: uuid.New(), Status: scheduling.StatusConfirmed,
		Start: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)}
	inviter.AppointmentConfirmed(context.Background(), appt)

	if _, ok := repo.recorded[appt.ID.String()+KindConfirmation]; !ok {
		t.Error("confirmation notification not recorded")
	}
}
