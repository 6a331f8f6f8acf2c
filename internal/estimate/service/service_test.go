package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"estimate_portal_backend/internal/estimate/catalog"
	"estimate_portal_backend/internal/estimate/chat"
	"estimate_portal_backend/internal/estimate/classifier"
	"estimate_portal_backend/internal/estimate/conversation"
	"estimate_portal_backend/internal/estimate/sessionstore"
	"estimate_portal_backend/platform/apperr"
)

type brokenStore struct {
	sessionstore.Store
	err error
}

func (b brokenStore) Put(context.Context, conversation.Session) error { return b.err }

func (b brokenStore) Lock(context.Context, string) (func(), error) { return nil, b.err }

// flakyStore fails the first Put whose snapshot matches failOn.
type flakyStore struct {
	sessionstore.Store
	mu     sync.Mutex
	failOn func(conversation.Session) bool
	failed bool
}

func (f *flakyStore) Put(ctx context.Context, s conversation.Session) error {
	f.mu.Lock()
	fail := !f.failed && f.failOn(s)
	if fail {
		f.failed = true
	}
	f.mu.Unlock()
	if fail {
		return errors.New("redis: i/o timeout")
	}
	return f.Store.Put(ctx, s)
}

type countingSaver struct {
	mu    sync.Mutex
	calls int
}

func (c *countingSaver) Save(context.Context, conversation.Lead) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return "lead-1", nil
}

func (c *countingSaver) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newService(store sessionstore.Store) *Service {
	return newServiceWithSaver(store, nil)
}

func newServiceWithSaver(store sessionstore.Store, saver conversation.LeadSaver) *Service {
	cat := catalog.MustDefault()
	engine := conversation.NewEngine(conversation.Deps{Classifier: classifier.New(cat), Saver: saver})
	return New(engine, store, cat, chat.Contacts{}, nil)
}

// readyForPreference opens a wizard session and fills every slot except the
// contact preference.
func readyForPreference(t *testing.T, svc *Service) string {
	t.Helper()
	ctx := context.Background()
	created, err := svc.Create(ctx, "wizard")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := created.View.SessionID
	for _, ev := range []conversation.Event{
		conversation.SelectProblem("AC not cooling at all"),
		conversation.SubmitCustomerInfo("Jane Doe", "jane@example.com", "(908) 361-2183"),
	} {
		resp, err := svc.Apply(ctx, id, ev)
		if err != nil {
			t.Fatalf("apply %s: %v", ev.Type, err)
		}
		if len(resp.View.Errors) > 0 {
			t.Fatalf("apply %s rejected: %+v", ev.Type, resp.View.Errors)
		}
	}
	return id
}

func TestStoreFailuresAreUnavailable(t *testing.T) {
	svc := newService(brokenStore{err: errors.New("dial tcp: connection refused")})

	if _, err := svc.Create(context.Background(), "chat"); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("create error = %v", err)
	}
	if _, err := svc.Apply(context.Background(), "s-1", conversation.Restart()); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("apply error = %v", err)
	}
}

func TestTypedStoreErrorsPassThrough(t *testing.T) {
	svc := newService(brokenStore{err: apperr.Conflict("estimate session is busy, try again")})

	if _, err := svc.Apply(context.Background(), "s-1", conversation.Restart()); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRejectedInputIsNotStored(t *testing.T) {
	store := sessionstore.NewMemory(time.Hour)
	svc := newService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, "chat")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := created.View.SessionID

	resp, err := svc.Apply(ctx, id, conversation.SubmitProblem("short"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(resp.View.Errors) != 1 {
		t.Fatalf("expected one field error, got %+v", resp.View.Errors)
	}

	stored, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.ProblemText != "" || stored.State != conversation.StateCollectingProblem {
		t.Fatalf("rejected input leaked into the store: %+v", stored)
	}
}

func TestUnknownModeIsBadRequest(t *testing.T) {
	svc := newService(sessionstore.NewMemory(time.Hour))
	if _, err := svc.Create(context.Background(), "voice"); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestCatalogSearchNeverReturnsNull(t *testing.T) {
	svc := newService(sessionstore.NewMemory(time.Hour))
	if got := svc.Catalog("no such problem anywhere"); got.Groups == nil {
		t.Fatal("expected empty, non-nil groups")
	}
	if got := svc.Catalog(""); len(got.Groups) == 0 {
		t.Fatal("expected full catalog")
	}
}

func TestFailedWriteBackStillShowsEstimateAndSavesOnce(t *testing.T) {
	store := &flakyStore{
		Store:  sessionstore.NewMemory(time.Hour),
		failOn: func(s conversation.Session) bool { return s.LeadSaved },
	}
	saver := &countingSaver{}
	svc := newServiceWithSaver(store, saver)
	id := readyForPreference(t, svc)
	ctx := context.Background()

	first, err := svc.Apply(ctx, id, conversation.SubmitContactPreference("phone"))
	if err != nil {
		t.Fatalf("completing turn must not fail: %v", err)
	}
	if first.View.State != conversation.StateCompleted || first.View.FinalPrice == nil || !first.View.LeadSaved {
		t.Fatalf("expected completed estimate, got %+v", first.View)
	}

	if _, err := svc.Apply(ctx, id, conversation.SubmitContactPreference("phone")); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if saver.Calls() != 1 {
		t.Fatalf("expected 1 save call, got %d", saver.Calls())
	}

	stored, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.State != conversation.StateCompleted || !stored.PersistAttempted {
		t.Fatalf("expected attempted completion in store, got %+v", stored)
	}
}

func TestFailedCheckpointSkipsSave(t *testing.T) {
	store := &flakyStore{
		Store:  sessionstore.NewMemory(time.Hour),
		failOn: func(s conversation.Session) bool { return s.PersistAttempted },
	}
	saver := &countingSaver{}
	svc := newServiceWithSaver(store, saver)
	id := readyForPreference(t, svc)
	ctx := context.Background()

	first, err := svc.Apply(ctx, id, conversation.SubmitContactPreference("email"))
	if err != nil {
		t.Fatalf("completing turn must not fail: %v", err)
	}
	if first.View.State != conversation.StateCompleted || !first.View.ShowFallbackContactChannels {
		t.Fatalf("expected estimate with fallback channels, got %+v", first.View)
	}

	if _, err := svc.Apply(ctx, id, conversation.SubmitContactPreference("email")); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if saver.Calls() != 0 {
		t.Fatalf("expected no save call, got %d", saver.Calls())
	}
}
