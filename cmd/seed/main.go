package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentech/clinic-scheduler/internal/db"
	"github.com/dentech/clinic-scheduler/internal/timefmt"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedClinicSchedule(context.Background(), pool); err != nil {
		log.Fatalf("seed clinic schedule: %v", err)
	}
	doctors, err := seedDoctors(context.Background(), pool, 8)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	patients, err := seedPatients(context.Background(), pool, 500)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, doctors, patients, 300); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedClinicSchedule(ctx context.Context, pool *pgxpool.Pool) error {
	log.Println("seeding clinic schedule")

	_, err := pool.Exec(ctx, `
		INSERT INTO clinic_settings (id, clinic_name, booking_interval_minutes, work_start_time, work_end_time, timezone)
		VALUES (1, $1, 30, '09:00', '18:00', 'UTC')
		ON CONFLICT (id) DO NOTHING
	`, gofakeit.Company()+" Clinic")
	if err != nil {
		return err
	}

	for day := 0; day < 7; day++ {
		working := day != 0 && day != 6 // closed on weekends
		_, err := pool.Exec(ctx, `
			INSERT INTO clinic_working_days (day_of_week, is_working)
			VALUES ($1, $2)
			ON CONFLICT (day_of_week) DO NOTHING
		`, day, working)
		if err != nil {
			return err
		}
	}

	// A couple of upcoming closures so the calendar endpoints have data.
	for i := 0; i < 2; i++ {
		date := time.Now().AddDate(0, 0, 14+gofakeit.Number(0, 30))
		_, err := pool.Exec(ctx, `
			INSERT INTO clinic_closures (id, closure_date, reason)
			VALUES ($1, $2, $3)
			ON CONFLICT (closure_date) DO NOTHING
		`, uuid.New(), timefmt.FormatDate(date), gofakeit.HipsterWord())
		if err != nil {
			return err
		}
	}

	log.Println("clinic schedule seeded")
	return nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	specialties := []string{
		"General Dentistry",
		"Orthodontics",
		"Endodontics",
		"Periodontics",
		"Oral Surgery",
		"Pediatric Dentistry",
	}

	ids := make([]uuid.UUID, 0, count)
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty)
			VALUES ($1, $2, $3)
		`, id, name, spec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("doctors seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d patients", count)

	const batchSize = 100
	ids := make([]uuid.UUID, 0, count)

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, phone, email)
				VALUES ($1, $2, $3, $4)
			`, id, gofakeit.Name(), gofakeit.Phone(), gofakeit.Email())
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return ids, nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, doctors, patients []uuid.UUID, count int) error {
	log.Printf("seeding %d appointments", count)

	statuses := []string{"scheduled", "confirmed", "completed", "cancelled"}
	types := []string{"checkup", "cleaning", "filling", "consultation", "follow-up"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for attempts := 0; inserted < count && attempts < count*5; attempts++ {
		doctor := doctors[gofakeit.Number(0, len(doctors)-1)]
		patient := patients[gofakeit.Number(0, len(patients)-1)]

		day := time.Now().AddDate(0, 0, gofakeit.Number(1, 28))
		slot := gofakeit.Number(0, 17) // 09:00 .. 17:30 at 30-minute steps
		start := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC).
			Add(time.Duration(slot) * 30 * time.Minute)
		duration := 30 * (1 + gofakeit.Number(0, 1))
		end := start.Add(time.Duration(duration) * time.Minute)

		status := statuses[gofakeit.Number(0, len(statuses)-1)]

		// Keep the seed data free of same-doctor overlaps among active rows.
		if status != "cancelled" {
			var clash int
			err := tx.QueryRow(ctx, `
				SELECT count(*) FROM appointments
				WHERE doctor_id = $1
				  AND status NOT IN ('cancelled', 'no_show')
				  AND start_time < $3
				  AND $2 < end_time
			`, doctor, timefmt.Format(start), timefmt.Format(end)).Scan(&clash)
			if err != nil {
				return err
			}
			if clash > 0 {
				continue
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO appointments (id, patient_id, doctor_id, start_time, end_time, duration_minutes, status, appointment_type, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, uuid.New(), patient, doctor,
			timefmt.Format(start), timefmt.Format(end), duration,
			status, types[gofakeit.Number(0, len(types)-1)],
			fmt.Sprintf("seeded by %s", gofakeit.Username()))
		if err != nil {
			return err
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("appointments seeded: %d", inserted)
	return nil
}
