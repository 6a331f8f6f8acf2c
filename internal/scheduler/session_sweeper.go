package scheduler

import (
	"context"
	"time"

	"estimate_portal_backend/platform/logger"
)

const defaultSessionSweepInterval = 5 * time.Minute

// SessionPruner removes expired estimate sessions.
type SessionPruner interface {
	Sweep(ctx context.Context) (int, error)
}

// SessionSweeper periodically drops expired in-process estimate sessions.
// Redis-backed sessions expire by key TTL and need no sweeper.
type SessionSweeper struct {
	store    SessionPruner
	log      *logger.Logger
	interval time.Duration
}

func NewSessionSweeper(store SessionPruner, log *logger.Logger, interval time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = defaultSessionSweepInterval
	}
	return &SessionSweeper{store: store, log: log, interval: interval}
}

func (s *SessionSweeper) Run(ctx context.Context) {
	if s == nil || s.store == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SessionSweeper) sweep(ctx context.Context) {
	removed, err := s.store.Sweep(ctx)
	if err != nil {
		s.log.Warn("estimate session sweep failed", "error", err)
		return
	}

	if removed > 0 {
		s.log.Info("estimate session sweep removed expired sessions", "removed", removed)
	}
}
