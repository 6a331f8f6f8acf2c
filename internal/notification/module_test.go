package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"estimate_portal_backend/internal/email"
	"estimate_portal_backend/internal/estimate/catalog"
	"estimate_portal_backend/internal/events"
	"estimate_portal_backend/internal/leads"
	"estimate_portal_backend/platform/config"
	"estimate_portal_backend/platform/logger"

	"github.com/google/uuid"
)

const testNotifyEmail = "owner@example.com"

func testConfig() *config.Config {
	return &config.Config{
		EmailEnabled:    true,
		LeadNotifyEmail: testNotifyEmail,
		BusinessName:    "Mafair HVAC",
	}
}

type testSender struct {
	mu      sync.Mutex
	to      []string
	notices []email.LeadNotice
	err     error
}

func (s *testSender) SendLeadNotice(_ context.Context, to string, n email.LeadNotice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.to = append(s.to, to)
	s.notices = append(s.notices, n)
	return s.err
}

func (s *testSender) SendCustomEmail(context.Context, string, string, string) error { return nil }

type testReader struct {
	lead leads.Lead
	err  error
}

func (r testReader) GetByID(_ context.Context, id uuid.UUID) (leads.Lead, error) {
	if r.err != nil {
		return leads.Lead{}, r.err
	}
	l := r.lead
	l.ID = id
	return l, nil
}

func capturedEvent() events.LeadCaptured {
	return events.LeadCaptured{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        uuid.New(),
		Name:          "Jane Doe",
		Email:         "jane@example.com",
		Phone:         "(908) 361-2183",
		Service:       "Central Air - Repair",
		Urgency:       "emergency",
		PriceEstimate: "$225 - $1200",
	}
}

func TestLeadCapturedSendsInlineWithoutScheduler(t *testing.T) {
	sender := &testSender{}
	m := New(nil, sender, testConfig(), logger.Nop())

	e := capturedEvent()
	if err := m.Handle(context.Background(), e); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.notices) != 1 || sender.to[0] != testNotifyEmail {
		t.Fatalf("expected one notice to %s, got %v", testNotifyEmail, sender.to)
	}
	n := sender.notices[0]
	if n.LeadID != e.LeadID.String() || !n.Emergency() || n.BusinessName != "Mafair HVAC" {
		t.Fatalf("unexpected notice %+v", n)
	}
}

func TestLeadCapturedEnqueuesWhenSchedulerSet(t *testing.T) {
	sender := &testSender{}
	m := New(nil, sender, testConfig(), logger.Nop())
	var queued []string
	m.SetScheduler(LeadNoticeSchedulerFunc(func(_ context.Context, id string) error {
		queued = append(queued, id)
		return nil
	}))

	e := capturedEvent()
	if err := m.Handle(context.Background(), e); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(queued) != 1 || queued[0] != e.LeadID.String() {
		t.Fatalf("expected lead queued, got %v", queued)
	}
	if len(sender.notices) != 0 {
		t.Fatal("queued notice must not also be sent inline")
	}
}

func TestLeadCapturedFallsBackInlineWhenEnqueueFails(t *testing.T) {
	sender := &testSender{}
	m := New(nil, sender, testConfig(), logger.Nop())
	m.SetScheduler(LeadNoticeSchedulerFunc(func(context.Context, string) error {
		return errors.New("redis down")
	}))

	if err := m.Handle(context.Background(), capturedEvent()); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.notices) != 1 {
		t.Fatal("expected inline send after enqueue failure")
	}
}

func TestLeadNoticeDueLoadsLead(t *testing.T) {
	sender := &testSender{}
	reader := testReader{lead: leads.Lead{
		Name:              "Jane Doe",
		Service:           catalog.Fallback(),
		Urgency:           "normal",
		PriceEstimate:     "$75 - $200",
		ContactPreference: "email",
	}}
	m := New(reader, sender, testConfig(), logger.Nop())
	id := uuid.New()

	if err := m.Handle(context.Background(), events.LeadNoticeDue{LeadID: id}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.notices) != 1 {
		t.Fatal("expected a notice")
	}
	if n := sender.notices[0]; n.LeadID != id.String() || n.Service != "General Consultation" {
		t.Fatalf("unexpected notice %+v", n)
	}
}

func TestLeadNoticeDueErrors(t *testing.T) {
	boom := errors.New("connection refused")
	sender := &testSender{}

	missing := New(testReader{err: leads.ErrNotFound}, sender, testConfig(), logger.Nop())
	if err := missing.Handle(context.Background(), events.LeadNoticeDue{LeadID: uuid.New()}); err != nil {
		t.Fatalf("unknown lead must be dropped, got %v", err)
	}

	failing := New(testReader{err: boom}, sender, testConfig(), logger.Nop())
	if err := failing.Handle(context.Background(), events.LeadNoticeDue{LeadID: uuid.New()}); !errors.Is(err, boom) {
		t.Fatalf("expected retryable error, got %v", err)
	}

	noStore := New(nil, sender, testConfig(), logger.Nop())
	if err := noStore.Handle(context.Background(), events.LeadNoticeDue{LeadID: uuid.New()}); err == nil {
		t.Fatal("expected error without a lead store")
	}
	if len(sender.notices) != 0 {
		t.Fatal("no notice expected")
	}
}

func TestNothingSentWhenEmailDisabled(t *testing.T) {
	sender := &testSender{}
	cfg := testConfig()
	cfg.EmailEnabled = false
	m := New(nil, sender, cfg, logger.Nop())

	if err := m.Handle(context.Background(), capturedEvent()); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.notices) != 0 {
		t.Fatal("disabled email must not send")
	}
}

func TestRegisterHandlersWiresBus(t *testing.T) {
	sender := &testSender{}
	bus := events.NewInMemoryBus(logger.Nop())
	New(nil, sender, testConfig(), logger.Nop()).RegisterHandlers(bus)

	if err := bus.PublishSync(context.Background(), capturedEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(sender.notices) != 1 {
		t.Fatal("expected notice via bus")
	}
}
