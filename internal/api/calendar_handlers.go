package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dentech/clinic-scheduler/internal/calendar"
	"github.com/dentech/clinic-scheduler/internal/timefmt"
)

func checkDateHandler(store calendar.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("date")
		date, err := timefmt.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		sched, err := store.Schedule(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := CheckDateResponse{Date: timefmt.FormatDate(date)}
		if hours, ok := sched.WorkingHours(date); ok {
			resp.Open = true
			resp.Start = hours.Start
			resp.End = hours.End
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// unavailableDatesHandler lists closed dates over a horizon so booking UIs
// can grey them out.
func unavailableDatesHandler(store calendar.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from := time.Now()
		if raw := r.URL.Query().Get("from"); raw != "" {
			parsed, err := timefmt.ParseDate(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "from must be YYYY-MM-DD")
				return
			}
			from = parsed
		}

		days := 60
		if raw := r.URL.Query().Get("days"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 || parsed > 366 {
				writeError(w, http.StatusBadRequest, "invalid_days", "days must be between 1 and 366")
				return
			}
			days = parsed
		}

		sched, err := store.Schedule(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		dates := []string{}
		for i := 0; i < days; i++ {
			day := from.AddDate(0, 0, i)
			if !sched.IsOpen(day) {
				dates = append(dates, timefmt.FormatDate(day))
			}
		}

		writeJSON(w, http.StatusOK, UnavailableDatesResponse{
			From:  timefmt.FormatDate(from),
			Days:  days,
			Dates: dates,
		})
	}
}

func getScheduleHandler(store calendar.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sched, err := store.Schedule(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, sched)
	}
}

func setWorkingDayHandler(store calendar.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, err := strconv.Atoi(chi.URLParam(r, "day"))
		if err != nil || day < 0 || day > 6 {
			writeError(w, http.StatusBadRequest, "invalid_weekday", "day must be 0 (Sunday) through 6 (Saturday)")
			return
		}

		var req WorkingDayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		wd := calendar.WorkingDay{
			Weekday:     time.Weekday(day),
			Working:     req.Working,
			CustomStart: req.CustomStart,
			CustomEnd:   req.CustomEnd,
		}
		if err := store.SetWorkingDay(r.Context(), wd); err != nil {
			handleCalendarError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wd)
	}
}

func addClosureHandler(store calendar.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClosureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := store.AddClosure(r.Context(), req.Date, req.Reason); err != nil {
			handleCalendarError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, req)
	}
}

func removeClosureHandler(store calendar.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := chi.URLParam(r, "date")
		if err := store.RemoveClosure(r.Context(), date); err != nil {
			handleCalendarError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func setBookingIntervalHandler(store calendar.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookingIntervalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := store.SetBookingInterval(r.Context(), req.Minutes); err != nil {
			handleCalendarError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}

func handleCalendarError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendar.ErrInvalidConfiguration):
		writeError(w, http.StatusBadRequest, "invalid_configuration", err.Error())
	case errors.Is(err, calendar.ErrClosureNotFound):
		writeError(w, http.StatusNotFound, "closure_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
