// Package service runs estimate conversations against the session store.
// Each turn locks the session, replays the stored snapshot into a
// controller, applies one event and writes the result back. A completing
// turn also stores the session, marked as attempted, before the lead is
// saved, so a resubmitted turn never saves twice.
package service

import (
	"context"
	"errors"
	"strings"

	"estimate_portal_backend/internal/estimate/catalog"
	"estimate_portal_backend/internal/estimate/chat"
	"estimate_portal_backend/internal/estimate/conversation"
	"estimate_portal_backend/internal/estimate/sessionstore"
	"estimate_portal_backend/internal/estimate/transport"
	"estimate_portal_backend/platform/apperr"
	"estimate_portal_backend/platform/logger"
)

// Service is the estimate use-case layer used by the HTTP handler.
type Service struct {
	engine   *conversation.Engine
	store    sessionstore.Store
	catalog  *catalog.Catalog
	script   *chat.Script
	contacts chat.Contacts
	log      *logger.Logger
}

// New creates the estimate service.
func New(engine *conversation.Engine, store sessionstore.Store, cat *catalog.Catalog, contacts chat.Contacts, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		engine:   engine,
		store:    store,
		catalog:  cat,
		script:   chat.NewScript(contacts),
		contacts: contacts,
		log:      log,
	}
}

// Catalog returns the problem catalog, filtered by term when it is not blank.
func (s *Service) Catalog(term string) transport.CatalogResponse {
	groups := s.catalog.Groups()
	if strings.TrimSpace(term) != "" {
		groups = s.catalog.Search(term)
	}
	if groups == nil {
		groups = []catalog.Group{}
	}
	return transport.CatalogResponse{
		Groups:    groups,
		Urgencies: catalog.Urgencies,
		Fallback:  catalog.Fallback(),
	}
}

// Contacts returns the manual contact channels.
func (s *Service) Contacts() chat.Contacts {
	return s.contacts
}

// Create opens a session in mode and stores it.
func (s *Service) Create(ctx context.Context, mode string) (transport.SessionResponse, error) {
	m, ok := conversation.ParseMode(mode)
	if !ok {
		return transport.SessionResponse{}, apperr.BadRequest("unknown mode")
	}

	ctrl := s.engine.Start(m)
	snapshot := ctrl.Snapshot()
	if err := s.store.Put(ctx, snapshot); err != nil {
		return transport.SessionResponse{}, storeErr(err, "estimate.Create")
	}
	s.log.WithContext(ctx).Info("estimate session started", "session_id", snapshot.ID, "mode", string(m))

	resp := transport.SessionResponse{View: ctrl.View()}
	if m == conversation.ModeChat {
		resp.Messages = s.script.Greeting()
	}
	return resp, nil
}

// Get returns the current view of a session.
func (s *Service) Get(ctx context.Context, id string) (transport.SessionResponse, error) {
	stored, err := s.store.Get(ctx, id)
	if err != nil {
		return transport.SessionResponse{}, storeErr(err, "estimate.Get")
	}
	ctrl, err := s.engine.Resume(stored)
	if err != nil {
		return transport.SessionResponse{}, err
	}
	return transport.SessionResponse{View: ctrl.View()}, nil
}

// Apply handles one event for a stored session.
func (s *Service) Apply(ctx context.Context, id string, ev conversation.Event) (transport.SessionResponse, error) {
	return s.turn(ctx, id, ev, false)
}

// Restart clears a session back to problem collection, keeping its id.
func (s *Service) Restart(ctx context.Context, id string) (transport.SessionResponse, error) {
	return s.turn(ctx, id, conversation.Restart(), false)
}

// Discard cancels a session and removes it from the store.
func (s *Service) Discard(ctx context.Context, id string) (transport.SessionResponse, error) {
	return s.turn(ctx, id, conversation.Cancel(), true)
}

func (s *Service) turn(ctx context.Context, id string, ev conversation.Event, remove bool) (transport.SessionResponse, error) {
	unlock, err := s.store.Lock(ctx, id)
	if err != nil {
		return transport.SessionResponse{}, storeErr(err, "estimate.Lock")
	}
	defer unlock()

	stored, err := s.store.Get(ctx, id)
	if err != nil {
		return transport.SessionResponse{}, storeErr(err, "estimate.Get")
	}
	ctrl, err := s.engine.Resume(stored)
	if err != nil {
		return transport.SessionResponse{}, err
	}
	ctrl.SetCheckpoint(func(ctx context.Context, snap conversation.Session) error {
		if err := s.store.Put(ctx, snap); err != nil {
			return storeErr(err, "estimate.Checkpoint")
		}
		return nil
	})

	out, err := ctrl.Handle(ctx, ev)
	if err != nil {
		return transport.SessionResponse{}, err
	}

	if remove {
		if err := s.store.Delete(ctx, id); err != nil {
			return transport.SessionResponse{}, storeErr(err, "estimate.Delete")
		}
	} else if out.Accepted() {
		if err := s.store.Put(ctx, ctrl.Snapshot()); err != nil {
			// The completed estimate is shown regardless; the checkpoint
			// already stored the attempt.
			if !out.Entered(conversation.StateCompleted) {
				return transport.SessionResponse{}, storeErr(err, "estimate.Put")
			}
			s.log.WithContext(ctx).Error("completed estimate session not written back", "session_id", id, "error", err)
		}
	}

	resp := transport.SessionResponse{View: out.View, Transitions: out.Transitions}
	if out.View.Mode == conversation.ModeChat {
		resp.Messages = s.script.Reveal(out)
	}
	return resp, nil
}

func storeErr(err error, op string) error {
	if apperr.GetKind(err) != apperr.KindUnknown {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperr.Wrap(apperr.KindUnavailable, "session store unavailable", err).WithOp(op)
}
