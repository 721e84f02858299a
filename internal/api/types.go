package api

import (
	"time"

	"github.com/google/uuid"
)

type CreateAppointmentRequest struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id,omitempty"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Type      string `json:"type,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type RescheduleRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AssignDoctorRequest struct {
	DoctorID string `json:"doctor_id"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	DoctorID        *uuid.UUID `json:"doctor_id,omitempty"`
	Start           string     `json:"start"`
	End             string     `json:"end"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status"`
	Type            string     `json:"type,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type WorkingDayRequest struct {
	Working     bool   `json:"working"`
	CustomStart string `json:"custom_start,omitempty"`
	CustomEnd   string `json:"custom_end,omitempty"`
}

type ClosureRequest struct {
	Date   string `json:"date"`
	Reason string `json:"reason,omitempty"`
}

type BookingIntervalRequest struct {
	Minutes int `json:"minutes"`
}

type CheckDateResponse struct {
	Date  string `json:"date"`
	Open  bool   `json:"open"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type UnavailableDatesResponse struct {
	From  string   `json:"from"`
	Days  int      `json:"days"`
	Dates []string `json:"dates"`
}

type ConflictInfo struct {
	DoctorID string `json:"doctor_id"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

type ErrorResponse struct {
	Error    string        `json:"error"`
	Details  string        `json:"details,omitempty"`
	Conflict *ConflictInfo `json:"conflict,omitempty"`
}
