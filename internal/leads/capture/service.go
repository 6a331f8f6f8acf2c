// Package capture stores leads produced by completed estimate conversations.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"estimate_portal_backend/internal/estimate/conversation"
	"estimate_portal_backend/internal/events"
	"estimate_portal_backend/internal/leads/repository"
	"estimate_portal_backend/platform/logger"
	"estimate_portal_backend/platform/phone"
	"estimate_portal_backend/platform/sanitize"
)

// Service is the lead persistence adapter for the conversation engine.
type Service struct {
	repo     repository.Store
	eventBus events.Bus
	log      *logger.Logger
}

var _ conversation.LeadSaver = (*Service)(nil)

// New creates a capture service.
func New(repo repository.Store, eventBus events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, eventBus: eventBus, log: log}
}

// Save writes lead and returns its id. A lead already stored under the
// same submission key is returned instead of inserting again; distinct
// sessions and restarted runs always get their own lead.
func (s *Service) Save(ctx context.Context, lead conversation.Lead) (string, error) {
	existing, err := s.repo.FindBySubmission(ctx, lead.SubmissionKey)
	if err != nil {
		// the unique submission key still guards the insert
		s.log.Error("capture: failed to look up submission", "error", err, "sessionId", lead.SessionID)
	} else if existing != nil {
		s.log.Info("capture: lead already stored for submission, skipping creation", "leadId", *existing, "sessionId", lead.SessionID)
		return existing.String(), nil
	}

	phoneE164 := phone.NormalizeE164(lead.Phone)
	if !strings.HasPrefix(phoneE164, "+") {
		phoneE164 = ""
	}

	status := lead.Status
	if status == "" {
		status = conversation.LeadStatusNew
	}

	stored, err := s.repo.Create(ctx, repository.CreateLeadParams{
		SessionID:         lead.SessionID,
		SubmissionKey:     lead.SubmissionKey,
		Name:              sanitize.Text(lead.Name),
		Email:             strings.TrimSpace(lead.Email),
		Phone:             strings.TrimSpace(lead.Phone),
		PhoneE164:         phoneE164,
		Problem:           sanitize.Text(lead.Problem),
		Service:           lead.Service,
		Urgency:           string(lead.Urgency),
		PriceEstimate:     lead.PriceEstimate,
		Status:            status,
		ContactPreference: string(lead.ContactPreference),
		ConsentGiven:      lead.ConsentGiven,
	})
	if errors.Is(err, repository.ErrDuplicateSubmission) {
		if id, ferr := s.repo.FindBySubmission(ctx, lead.SubmissionKey); ferr == nil && id != nil {
			return id.String(), nil
		}
	}
	if err != nil {
		return "", fmt.Errorf("create lead: %w", err)
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.LeadCaptured{
			BaseEvent:         events.NewBaseEvent(),
			LeadID:            stored.ID,
			SessionID:         stored.SessionID,
			Name:              stored.Name,
			Email:             stored.Email,
			Phone:             stored.Phone,
			PhoneE164:         stored.PhoneE164,
			Problem:           stored.Problem,
			Service:           stored.Service.ServiceName,
			Urgency:           stored.Urgency,
			PriceEstimate:     stored.PriceEstimate,
			ContactPreference: stored.ContactPreference,
		})
	}

	return stored.ID.String(), nil
}
