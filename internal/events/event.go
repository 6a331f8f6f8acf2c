// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"estimate_portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCaptured is published once a completed estimate conversation has been
// stored as a new lead. Duplicate submissions do not publish it again.
type LeadCaptured struct {
	BaseEvent
	LeadID            uuid.UUID `json:"leadId"`
	SessionID         string    `json:"sessionId"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	PhoneE164         string    `json:"phoneE164,omitempty"`
	Problem           string    `json:"problem"`
	Service           string    `json:"service"`
	Urgency           string    `json:"urgency"`
	PriceEstimate     string    `json:"priceEstimate"`
	ContactPreference string    `json:"contactPreference"`
}

func (e LeadCaptured) EventName() string { return "leads.lead.captured" }

// LeadNoticeDue is published by the task worker when a queued operator
// notice for a lead should be sent.
type LeadNoticeDue struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
}

func (e LeadNoticeDue) EventName() string { return "notification.lead_notice.due" }
