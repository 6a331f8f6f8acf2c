package conversation

import (
	"strconv"
	"time"

	"estimate_portal_backend/internal/estimate/catalog"
	"estimate_portal_backend/internal/estimate/classifier"
	"estimate_portal_backend/internal/estimate/validation"
	"estimate_portal_backend/platform/apperr"
)

// CustomerInfo holds the contact slots.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Session is the state of one estimate conversation. It serializes to JSON
// so adapters can keep it between turns.
type Session struct {
	ID        string    `json:"id"`
	Mode      Mode      `json:"mode"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
	// Generation counts restarts of this session id.
	Generation int `json:"generation"`

	ProblemText       string                     `json:"problemText,omitempty"`
	MatchedPhrase     string                     `json:"matchedPhrase,omitempty"`
	Category          string                     `json:"category,omitempty"`
	MatchKind         classifier.MatchKind       `json:"matchKind,omitempty"`
	ClassifiedService *catalog.ServiceDescriptor `json:"classifiedService,omitempty"`

	Urgency           catalog.Urgency              `json:"urgency"`
	CustomerInfo      CustomerInfo                 `json:"customerInfo"`
	ContactPreference validation.ContactPreference `json:"contactPreference,omitempty"`
	FinalPrice        *catalog.PriceRange          `json:"finalPrice,omitempty"`

	// PersistAttempted flips once, before the single save call.
	PersistAttempted bool   `json:"persistAttempted"`
	LeadSaved        bool   `json:"leadSaved"`
	LeadID           string `json:"leadId,omitempty"`
	PersistenceError string `json:"persistenceError,omitempty"`
}

// SubmissionKey identifies the lead this run of the session may produce.
// It changes on every restart.
func (s Session) SubmissionKey() string {
	return s.ID + "#" + strconv.Itoa(s.Generation)
}

func newSession(id string, mode Mode, now time.Time) Session {
	return Session{
		ID:        id,
		Mode:      mode,
		State:     StateCollectingProblem,
		CreatedAt: now,
		Urgency:   catalog.DefaultUrgency,
	}
}

// check rejects snapshots that could not have been produced by a controller.
func (s Session) check() error {
	if s.ID == "" {
		return apperr.BadRequest("session id is missing")
	}
	if _, ok := ParseMode(string(s.Mode)); !ok || s.Mode == "" {
		return apperr.BadRequest("unknown session mode")
	}
	if !knownStates[s.State] {
		return apperr.BadRequest("unknown session state")
	}
	if _, ok := catalog.ParseUrgency(string(s.Urgency)); !ok {
		return apperr.BadRequest("unknown urgency")
	}
	switch s.State {
	case StateCollectingProblem, StateDiscarded:
	default:
		if s.ClassifiedService == nil || s.ClassifiedService.IsZero() {
			return apperr.BadRequest("session has no classified service")
		}
	}
	if s.Generation < 0 {
		return apperr.BadRequest("session generation is negative")
	}
	if s.LeadSaved && !s.PersistAttempted {
		return apperr.BadRequest("session marks a lead saved without an attempt")
	}
	return nil
}
