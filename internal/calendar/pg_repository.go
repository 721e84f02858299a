package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentech/clinic-scheduler/internal/timefmt"
)

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Schedule(ctx context.Context) (Schedule, error) {
	var sched Schedule

	row := s.pool.QueryRow(ctx, `
		SELECT clinic_name, booking_interval_minutes, work_start_time, work_end_time
		FROM clinic_settings
		WHERE id = 1
	`)
	if err := row.Scan(&sched.ClinicName, &sched.IntervalMinutes, &sched.DefaultStart, &sched.DefaultEnd); err != nil {
		return Schedule{}, fmt.Errorf("load clinic settings: %w", err)
	}

	for i := range sched.WorkingDays {
		sched.WorkingDays[i] = WorkingDay{Weekday: time.Weekday(i), Working: true}
	}

	rows, err := s.pool.Query(ctx, `
		SELECT day_of_week, is_working, custom_start_time, custom_end_time
		FROM clinic_working_days
		ORDER BY day_of_week
	`)
	if err != nil {
		return Schedule{}, fmt.Errorf("load working days: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			day         int
			working     bool
			customStart *string
			customEnd   *string
		)
		if err := rows.Scan(&day, &working, &customStart, &customEnd); err != nil {
			return Schedule{}, fmt.Errorf("scan working day: %w", err)
		}
		if day < 0 || day > 6 {
			continue
		}
		wd := WorkingDay{Weekday: time.Weekday(day), Working: working}
		if customStart != nil {
			wd.CustomStart = *customStart
		}
		if customEnd != nil {
			wd.CustomEnd = *customEnd
		}
		sched.WorkingDays[day] = wd
	}
	if err := rows.Err(); err != nil {
		return Schedule{}, fmt.Errorf("read working days: %w", err)
	}

	sched.Closures = make(map[string]string)
	crows, err := s.pool.Query(ctx, `
		SELECT closure_date, reason
		FROM clinic_closures
		ORDER BY closure_date
	`)
	if err != nil {
		return Schedule{}, fmt.Errorf("load closures: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		var date, reason string
		if err := crows.Scan(&date, &reason); err != nil {
			return Schedule{}, fmt.Errorf("scan closure: %w", err)
		}
		sched.Closures[date] = reason
	}
	if err := crows.Err(); err != nil {
		return Schedule{}, fmt.Errorf("read closures: %w", err)
	}

	return sched, nil
}

func (s *PgStore) SetWorkingDay(ctx context.Context, day WorkingDay) error {
	if day.Weekday < 0 || day.Weekday > 6 {
		return fmt.Errorf("%w: weekday %d out of range", ErrInvalidConfiguration, day.Weekday)
	}
	var customStart, customEnd *string
	if day.CustomStart != "" {
		if _, err := clockMinutes(day.CustomStart); err != nil {
			return err
		}
		customStart = &day.CustomStart
	}
	if day.CustomEnd != "" {
		if _, err := clockMinutes(day.CustomEnd); err != nil {
			return err
		}
		customEnd = &day.CustomEnd
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO clinic_working_days (day_of_week, is_working, custom_start_time, custom_end_time)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (day_of_week) DO UPDATE
		SET is_working = EXCLUDED.is_working,
		    custom_start_time = EXCLUDED.custom_start_time,
		    custom_end_time = EXCLUDED.custom_end_time
	`, int(day.Weekday), day.Working, customStart, customEnd)
	if err != nil {
		return fmt.Errorf("upsert working day: %w", err)
	}
	return nil
}

func (s *PgStore) AddClosure(ctx context.Context, date, reason string) error {
	if _, err := timefmt.ParseDate(date); err != nil {
		return fmt.Errorf("%w: closure date %q", ErrInvalidConfiguration, date)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO clinic_closures (id, closure_date, reason)
		VALUES ($1, $2, $3)
		ON CONFLICT (closure_date) DO UPDATE SET reason = EXCLUDED.reason
	`, uuid.New(), date, reason)
	if err != nil {
		return fmt.Errorf("insert closure: %w", err)
	}
	return nil
}

func (s *PgStore) RemoveClosure(ctx context.Context, date string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM clinic_closures WHERE closure_date = $1
	`, date)
	if err != nil {
		return fmt.Errorf("delete closure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrClosureNotFound
	}
	return nil
}

func (s *PgStore) SetBookingInterval(ctx context.Context, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("%w: booking interval must be positive, got %d", ErrInvalidConfiguration, minutes)
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE clinic_settings SET booking_interval_minutes = $1 WHERE id = 1
	`, minutes)
	if err != nil {
		return fmt.Errorf("update booking interval: %w", err)
	}
	return nil
}
