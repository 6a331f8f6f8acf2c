// Package leads provides the lead persistence bounded context module.
// This file defines the module that wires the lead store, the capture
// service and its events.
package leads

import (
	"estimate_portal_backend/internal/estimate/conversation"
	"estimate_portal_backend/internal/events"
	"estimate_portal_backend/internal/leads/capture"
	"estimate_portal_backend/internal/leads/repository"
	"estimate_portal_backend/platform/logger"
)

// Module is the leads bounded context module. It has no HTTP routes; leads
// are created through the estimate conversation.
type Module struct {
	store   repository.Store
	capture *capture.Service
}

// NewModule creates the leads module. A nil store yields a module whose
// Saver is nil, so completed conversations fall back to manual contact.
func NewModule(store repository.Store, eventBus events.Bus, log *logger.Logger) *Module {
	m := &Module{store: store}
	if store != nil {
		m.capture = capture.New(store, eventBus, log)
	}
	return m
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Saver returns the persistence adapter for the conversation engine, or nil
// when no store is configured.
func (m *Module) Saver() conversation.LeadSaver {
	if m.capture == nil {
		return nil
	}
	return m.capture
}

// Reader returns the lead reader, or nil when no store is configured.
func (m *Module) Reader() Reader {
	if m.store == nil {
		return nil
	}
	return m.store
}
