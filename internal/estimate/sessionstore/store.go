// Package sessionstore keeps estimate sessions between HTTP turns.
package sessionstore

import (
	"context"
	"time"

	"estimate_portal_backend/internal/estimate/conversation"
	"estimate_portal_backend/platform/apperr"
)

const (
	lockTTL     = 30 * time.Second
	lockWait    = 3 * time.Second
	lockBackoff = 25 * time.Millisecond
)

// Store persists session snapshots with a time-to-live and serializes turns
// per session.
type Store interface {
	Get(ctx context.Context, id string) (conversation.Session, error)
	Put(ctx context.Context, s conversation.Session) error
	Delete(ctx context.Context, id string) error
	// Lock blocks until the caller owns the session or the wait expires.
	Lock(ctx context.Context, id string) (unlock func(), err error)
}

func errNotFound() error {
	return apperr.NotFound("estimate session not found")
}

func errBusy() error {
	return apperr.Conflict("estimate session is busy, try again")
}
