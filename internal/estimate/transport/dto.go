// Package transport holds the JSON shapes of the estimate HTTP API.
package transport

import (
	"estimate_portal_backend/internal/estimate/catalog"
	"estimate_portal_backend/internal/estimate/chat"
	"estimate_portal_backend/internal/estimate/conversation"
)

// Request DTOs
type CreateSessionRequest struct {
	Mode string `json:"mode" validate:"omitempty,oneof=chat wizard"`
}

type EventRequest struct {
	Type  string `json:"type" validate:"required,oneof=submitProblem selectProblem selectUrgency submitName submitEmail submitPhone submitCustomerInfo submitContactPreference restart cancel"`
	Value string `json:"value" validate:"max=2000"`
	Name  string `json:"name" validate:"max=200"`
	Email string `json:"email" validate:"max=320"`
	Phone string `json:"phone" validate:"max=40"`
}

// Event converts the request into a conversation event.
func (r EventRequest) Event() conversation.Event {
	return conversation.Event{
		Type:  conversation.EventType(r.Type),
		Value: r.Value,
		Name:  r.Name,
		Email: r.Email,
		Phone: r.Phone,
	}
}

// Response DTOs
type SessionResponse struct {
	View        conversation.View    `json:"view"`
	Transitions []conversation.State `json:"transitions,omitempty"`

	// Messages is the chat reveal schedule; only set for chat sessions.
	Messages []chat.Message `json:"messages,omitempty"`
}

type CatalogResponse struct {
	Groups    []catalog.Group           `json:"groups"`
	Urgencies []catalog.Urgency         `json:"urgencies"`
	Fallback  catalog.ServiceDescriptor `json:"fallback"`
}

type BusinessContactResponse = chat.Contacts
