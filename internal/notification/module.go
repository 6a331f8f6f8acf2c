// Package notification provides event handlers for sending operator
// notifications in response to domain events.
// This module subscribes to events and inverts the dependency: the leads
// domain does not need to know about email providers or templates.
package notification

import (
	"context"
	"errors"
	"fmt"

	"estimate_portal_backend/internal/email"
	"estimate_portal_backend/internal/events"
	"estimate_portal_backend/internal/leads"
	"estimate_portal_backend/platform/config"
	"estimate_portal_backend/platform/logger"
)

// Config is what the module needs to address and brand notices.
type Config interface {
	config.EmailConfig
	config.BusinessConfig
}

// LeadNoticeScheduler queues a notice for background delivery.
type LeadNoticeScheduler interface {
	EnqueueLeadNotice(ctx context.Context, leadID string) error
}

// LeadNoticeSchedulerFunc adapts a function to LeadNoticeScheduler.
type LeadNoticeSchedulerFunc func(ctx context.Context, leadID string) error

func (f LeadNoticeSchedulerFunc) EnqueueLeadNotice(ctx context.Context, leadID string) error {
	return f(ctx, leadID)
}

// Module handles all notification-related event subscriptions.
type Module struct {
	reader    leads.Reader
	sender    email.Sender
	scheduler LeadNoticeScheduler
	cfg       Config
	log       *logger.Logger
}

// New creates a new notification module. reader may be nil when no lead
// store is configured; queued notices then cannot be resolved.
func New(reader leads.Reader, sender email.Sender, cfg Config, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Module{
		reader: reader,
		sender: sender,
		cfg:    cfg,
		log:    log,
	}
}

// SetScheduler routes LeadCaptured notices through the task queue instead
// of sending them inline.
func (m *Module) SetScheduler(s LeadNoticeScheduler) {
	m.scheduler = s
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadCaptured{}.EventName(), m)
	bus.Subscribe(events.LeadNoticeDue{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadCaptured:
		return m.handleLeadCaptured(ctx, e)
	case events.LeadNoticeDue:
		return m.handleLeadNoticeDue(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleLeadCaptured(ctx context.Context, e events.LeadCaptured) error {
	if m.recipient() == "" {
		return nil
	}

	if m.scheduler != nil {
		err := m.scheduler.EnqueueLeadNotice(ctx, e.LeadID.String())
		if err == nil {
			return nil
		}
		m.log.Warn("lead notice enqueue failed, sending inline", "error", err, "leadId", e.LeadID)
	}

	return m.send(ctx, email.LeadNotice{
		LeadID:            e.LeadID.String(),
		Name:              e.Name,
		Email:             e.Email,
		Phone:             e.Phone,
		Problem:           e.Problem,
		Service:           e.Service,
		PriceEstimate:     e.PriceEstimate,
		Urgency:           e.Urgency,
		ContactPreference: e.ContactPreference,
	})
}

func (m *Module) handleLeadNoticeDue(ctx context.Context, e events.LeadNoticeDue) error {
	if m.recipient() == "" {
		return nil
	}
	if m.reader == nil {
		return errors.New("lead notice due but no lead store is configured")
	}

	lead, err := m.reader.GetByID(ctx, e.LeadID)
	if err != nil {
		if errors.Is(err, leads.ErrNotFound) {
			m.log.Warn("lead notice for unknown lead dropped", "leadId", e.LeadID)
			return nil
		}
		return fmt.Errorf("load lead %s: %w", e.LeadID, err)
	}

	return m.send(ctx, email.LeadNotice{
		LeadID:            lead.ID.String(),
		Name:              lead.Name,
		Email:             lead.Email,
		Phone:             lead.Phone,
		Problem:           lead.Problem,
		Service:           lead.Service.ServiceName,
		PriceEstimate:     lead.PriceEstimate,
		Urgency:           lead.Urgency,
		ContactPreference: lead.ContactPreference,
	})
}

func (m *Module) send(ctx context.Context, notice email.LeadNotice) error {
	notice.BusinessName = m.cfg.GetBusinessName()
	if err := m.sender.SendLeadNotice(ctx, m.recipient(), notice); err != nil {
		m.log.Error("lead notice send failed", "error", err, "leadId", notice.LeadID)
		return err
	}
	m.log.Info("lead notice sent", "leadId", notice.LeadID, "urgency", notice.Urgency)
	return nil
}

func (m *Module) recipient() string {
	if m.cfg == nil || !m.cfg.GetEmailEnabled() {
		return ""
	}
	return m.cfg.GetLeadNotifyEmail()
}
