package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/dentech/clinic-scheduler/internal/calendar"
	"github.com/dentech/clinic-scheduler/internal/scheduling"
)

type RouterConfig struct {
	Scheduler *scheduling.Service
	Calendar  calendar.Store
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Log       zerolog.Logger
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Appointment endpoints
	r.Post("/appointments", createAppointmentHandler(cfg.Scheduler))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Scheduler))
	r.Post("/appointments/{id}/reschedule", rescheduleAppointmentHandler(cfg.Scheduler))
	r.Post("/appointments/{id}/assign-doctor", assignDoctorHandler(cfg.Scheduler))
	r.Post("/appointments/{id}/status", updateStatusHandler(cfg.Scheduler))
	r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Scheduler))

	// Availability and clinic calendar
	r.Get("/availability", availabilityHandler(cfg.Scheduler))
	r.Get("/calendar/check", checkDateHandler(cfg.Calendar))
	r.Get("/calendar/unavailable-dates", unavailableDatesHandler(cfg.Calendar))
	r.Get("/calendar/schedule", getScheduleHandler(cfg.Calendar))
	r.Put("/calendar/working-days/{day}", setWorkingDayHandler(cfg.Calendar))
	r.Post("/calendar/closures", addClosureHandler(cfg.Calendar))
	r.Delete("/calendar/closures/{date}", removeClosureHandler(cfg.Calendar))
	r.Put("/calendar/interval", setBookingIntervalHandler(cfg.Calendar))

	return r
}
