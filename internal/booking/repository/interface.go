// Package repository provides session storage for in-progress bookings.
// Sessions are ephemeral wizard state, not a booking store of record: the
// spreadsheet backend remains the only persistent home of a submitted
// booking.
package repository

import (
	"context"

	"clearaway_backend/internal/booking/domain"
	"clearaway_backend/platform/apperr"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = apperr.NotFound("booking session not found")

// Repository stores wizard sessions. Implementations must provide a
// submission lock so only one submit per session can be in flight.
type Repository interface {
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Update(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error

	// TryLockSubmit acquires the per-session submission lock. It returns
	// false when a submission is already in flight.
	TryLockSubmit(ctx context.Context, id string) (bool, error)
	// UnlockSubmit releases the submission lock.
	UnlockSubmit(ctx context.Context, id string) error
}
