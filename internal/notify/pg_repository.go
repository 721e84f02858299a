package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentech/clinic-scheduler/internal/scheduling"
	"github.com/dentech/clinic-scheduler/internal/timefmt"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) FindUnreminded(ctx context.Context, from, to time.Time) ([]scheduling.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_id, a.doctor_id, a.start_time, a.end_time,
		       a.duration_minutes, a.status, a.appointment_type, a.notes,
		       a.created_at, a.updated_at
		FROM appointments a
		LEFT JOIN notifications n
		       ON n.appointment_id = a.id AND n.kind = $3
		WHERE a.status NOT IN ('cancelled', 'no_show')
		  AND a.start_time >= $1
		  AND a.start_time < $2
		  AND n.id IS NULL
		ORDER BY a.start_time
	`, timefmt.Format(from), timefmt.Format(to), KindReminder)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []scheduling.Appointment
	for rows.Next() {
		var (
			a          scheduling.Appointment
			doctorID   *uuid.UUID
			startText  string
			endText    string
			statusText string
		)
		err := rows.Scan(&a.ID, &a.PatientID, &doctorID, &startText, &endText,
			&a.DurationMinutes, &statusText, &a.Type, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, err
		}
		a.DoctorID = doctorID
		a.Status = scheduling.Status(statusText)
		if a.Start, err = timefmt.Parse(startText); err != nil {
			return nil, fmt.Errorf("stored start_time: %w", err)
		}
		if a.End, err = timefmt.Parse(endText); err != nil {
			return nil, fmt.Errorf("stored end_time: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) Record(ctx context.Context, appointmentID uuid.UUID, kind, message string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, appointment_id, kind, message)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (appointment_id, kind) DO NOTHING
	`, uuid.New(), appointmentID, kind, message)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
