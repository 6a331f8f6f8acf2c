package conversation

import (
	"context"

	"estimate_portal_backend/internal/estimate/catalog"
	"estimate_portal_backend/internal/estimate/validation"
)

// LeadStatusNew is the status of every lead written by a conversation.
const LeadStatusNew = "new"

// Lead is what a completed conversation hands to the lead store.
type Lead struct {
	SessionID         string                       `json:"sessionId"`
	SubmissionKey     string                       `json:"submissionKey"`
	Name              string                       `json:"name"`
	Email             string                       `json:"email"`
	Phone             string                       `json:"phone"`
	Problem           string                       `json:"problem"`
	Service           catalog.ServiceDescriptor    `json:"service"`
	Urgency           catalog.Urgency              `json:"urgency"`
	PriceEstimate     string                       `json:"price_estimate"`
	Status            string                       `json:"status"`
	ContactPreference validation.ContactPreference `json:"contact_preference"`
	ConsentGiven      bool                         `json:"consent_given"`
}

// LeadSaver persists a completed lead and returns its id.
// Implementations report failures as errors; a returned error that is not
// a *PersistError is wrapped in one by the controller. Saving the same
// SubmissionKey twice must return the first lead's id.
type LeadSaver interface {
	Save(ctx context.Context, lead Lead) (string, error)
}

// LeadSaverFunc adapts a function to LeadSaver.
type LeadSaverFunc func(ctx context.Context, lead Lead) (string, error)

// Save calls f.
func (f LeadSaverFunc) Save(ctx context.Context, lead Lead) (string, error) {
	return f(ctx, lead)
}

// PersistError is the typed failure of the single save attempt.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	if e.Err == nil {
		return "persist lead"
	}
	return "persist lead: " + e.Err.Error()
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
