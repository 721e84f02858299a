package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

var transitions = map[Status][]Status{
	StatusScheduled:  {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Terminal statuses admit no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// Active statuses count toward conflict detection. Cancelled and no-show
// appointments are kept for audit but never block a new booking.
func (s Status) Active() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// Tentative statuses color a slot "pending" rather than "booked".
func (s Status) Tentative() bool {
	return s == StatusScheduled
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// Appointment is a booking over a half-open interval [Start, End).
// DoctorID may be nil: an appointment can be created unassigned and staffed
// later. DurationMinutes is redundant with End-Start and the scheduler is the
// only writer that keeps them consistent.
type Appointment struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	DoctorID        *uuid.UUID
	Start           time.Time
	End             time.Time
	DurationMinutes int
	Status          Status
	Type            string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotPending   SlotStatus = "pending"
	SlotBooked    SlotStatus = "booked"
)

// TimeSlot is one candidate start time of a day's availability listing.
// Computed on demand, never persisted.
type TimeSlot struct {
	Time   string     `json:"time"`
	Status SlotStatus `json:"status"`
}

// DayAvailability distinguishes "no slots because the clinic is closed" from
// "no slots configured": Open is false and Reason set for the former.
type DayAvailability struct {
	Date   string     `json:"date"`
	Open   bool       `json:"open"`
	Reason string     `json:"reason,omitempty"`
	Slots  []TimeSlot `json:"slots"`
}

const (
	ClosedReasonClosure    = "closure"
	ClosedReasonNotWorking = "not_working"
)
