package calendar

import (
	"context"
	"errors"
)

var ErrClosureNotFound = errors.New("closure not found")

// Store loads and mutates the clinic schedule configuration.
type Store interface {
	// Schedule returns the full configuration in one read.
	Schedule(ctx context.Context) (Schedule, error)

	SetWorkingDay(ctx context.Context, day WorkingDay) error
	AddClosure(ctx context.Context, date, reason string) error
	RemoveClosure(ctx context.Context, date string) error
	SetBookingInterval(ctx context.Context, minutes int) error
}
