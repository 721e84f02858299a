package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentech/clinic-scheduler/internal/timefmt"
)

// PgRepository persists appointments with canonical text timestamps. The
// fixed-width zero-padded form sorts lexicographically in chronological
// order, so the overlap predicate compares the columns directly against
// canonical parameters; time.Time is used everywhere above this boundary.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `id, patient_id, doctor_id, start_time, end_time, duration_minutes, status, appointment_type, notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a          Appointment
		doctorID   *uuid.UUID
		startText  string
		endText    string
		statusText string
	)

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&doctorID,
		&startText,
		&endText,
		&a.DurationMinutes,
		&statusText,
		&a.Type,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.DoctorID = doctorID
	a.Status = Status(statusText)
	if a.Start, err = timefmt.Parse(startText); err != nil {
		return nil, fmt.Errorf("stored start_time: %w", err)
	}
	if a.End, err = timefmt.Parse(endText); err != nil {
		return nil, fmt.Errorf("stored end_time: %w", err)
	}
	return &a, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) FindActiveOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time, exclude *uuid.UUID) ([]Appointment, error) {
	// Half-open overlap on canonical text: existing.start < new.end AND
	// new.start < existing.end. Adjacency is not a conflict.
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1
		  AND status NOT IN ('cancelled', 'no_show')
		  AND start_time < $3
		  AND $2 < end_time
	`
	args := []any{doctorID, timefmt.Format(start), timefmt.Format(end)}
	if exclude != nil {
		query += ` AND id != $4`
		args = append(args, *exclude)
	}
	query += ` ORDER BY start_time`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) ListActiveByDate(ctx context.Context, date string, doctorID *uuid.UUID) ([]Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE left(start_time, 10) = $1
		  AND status NOT IN ('cancelled', 'no_show')
	`
	args := []any{date}
	if doctorID != nil {
		query += ` AND doctor_id = $2`
		args = append(args, *doctorID)
	}
	query += ` ORDER BY start_time`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) Insert(ctx context.Context, appt *Appointment) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, start_time, end_time, duration_minutes, status, appointment_type, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING created_at, updated_at
	`, appt.ID, appt.PatientID, appt.DoctorID,
		timefmt.Format(appt.Start), timefmt.Format(appt.End),
		appt.DurationMinutes, string(appt.Status), appt.Type, appt.Notes)

	if err := row.Scan(&appt.CreatedAt, &appt.UpdatedAt); err != nil {
		return err
	}
	return nil
}

func (r *PgRepository) UpdateInterval(ctx context.Context, id uuid.UUID, start, end time.Time, durationMinutes int, expectDoctor *uuid.UUID) (*Appointment, error) {
	// Compare-and-swap on the doctor the interval was conflict-checked
	// against, so a reassignment committed after the caller's read fails
	// the update instead of slipping past its check.
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET start_time = $2,
		    end_time = $3,
		    duration_minutes = $4,
		    updated_at = now()
		WHERE id = $1
		  AND doctor_id IS NOT DISTINCT FROM $5
		RETURNING `+appointmentColumns+`
	`, id, timefmt.Format(start), timefmt.Format(end), durationMinutes, expectDoctor)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	// Compare-and-swap on the current status so a concurrent transition
	// surfaces as not-found rather than silently overwriting.
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, string(to), string(from))
	return scanAppointment(row)
}

func (r *PgRepository) UpdateDoctor(ctx context.Context, id, doctorID uuid.UUID, expectStart, expectEnd time.Time) (*Appointment, error) {
	// Compare-and-swap on the interval the target doctor was checked
	// against; a reschedule landing after the caller's read fails the swap.
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET doctor_id = $2,
		    updated_at = now()
		WHERE id = $1
		  AND start_time = $3
		  AND end_time = $4
		RETURNING `+appointmentColumns+`
	`, id, doctorID, timefmt.Format(expectStart), timefmt.Format(expectEnd))
	return scanAppointment(row)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
