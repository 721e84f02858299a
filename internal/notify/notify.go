// Package notify emits notification records for appointment events: upcoming
// appointment reminders and the portal invitation sent when a booking is
// confirmed. Notifications are written at most once per appointment and kind.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentech/clinic-scheduler/internal/scheduling"
	"github.com/dentech/clinic-scheduler/internal/timefmt"
)

const (
	KindReminder     = "reminder"
	KindConfirmation = "confirmation"
)

// Repository persists notifications and finds appointments that still need
// one.
type Repository interface {
	// FindUnreminded returns active appointments starting within
	// [from, to) that have no reminder notification yet.
	FindUnreminded(ctx context.Context, from, to time.Time) ([]scheduling.Appointment, error)

	// Record writes one notification. Recording the same appointment and
	// kind twice is a no-op.
	Record(ctx context.Context, appointmentID uuid.UUID, kind, message string) error
}

// Reminder scans for appointments starting within the lead window and records
// a reminder for each. It runs from a worker loop, never from request
// handlers.
type Reminder struct {
	repo Repository
	lead time.Duration
	log  zerolog.Logger
}

func NewReminder(repo Repository, lead time.Duration, log zerolog.Logger) *Reminder {
	return &Reminder{repo: repo, lead: lead, log: log}
}

// Run performs one scan pass.
func (r *Reminder) Run(ctx context.Context, now time.Time) error {
	due, err := r.repo.FindUnreminded(ctx, now, now.Add(r.lead))
	if err != nil {
		return fmt.Errorf("find appointments due a reminder: %w", err)
	}

	for _, appt := range due {
		msg := fmt.Sprintf("Reminder: appointment at %s", timefmt.Format(appt.Start))
		if err := r.repo.Record(ctx, appt.ID, KindReminder, msg); err != nil {
			r.log.Error().Err(err).Stringer("appointment_id", appt.ID).Msg("record reminder")
			continue
		}
		r.log.Info().Stringer("appointment_id", appt.ID).
			Str("start", timefmt.Format(appt.Start)).Msg("reminder recorded")
	}

	return nil
}

// PortalInviter implements scheduling.ConfirmationHook: confirming a booking
// invites the contact to the patient portal. It only records the
// notification; account provisioning itself lives outside this service.
type PortalInviter struct {
	repo Repository
	log  zerolog.Logger
}

func NewPortalInviter(repo Repository, log zerolog.Logger) *PortalInviter {
	return &PortalInviter{repo: repo, log: log}
}

func (p *PortalInviter) AppointmentConfirmed(ctx context.Context, appt scheduling.Appointment) {
	msg := fmt.Sprintf("Appointment confirmed for %s; portal invitation issued", timefmt.Format(appt.Start))
	if err := p.repo.Record(ctx, appt.ID, KindConfirmation, msg); err != nil {
		p.log.Error().Err(err).Stringer("appointment_id", appt.ID).Msg("record confirmation notification")
		return
	}
	p.log.Info().Stringer("appointment_id", appt.ID).Msg("confirmation notification recorded")
}
