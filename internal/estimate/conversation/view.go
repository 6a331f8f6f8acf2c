package conversation

import (
	"estimate_portal_backend/internal/estimate/catalog"
	"estimate_portal_backend/internal/estimate/pricing"
	"estimate_portal_backend/internal/estimate/validation"
)

// View is the render model handed to presentation adapters after each turn.
type View struct {
	SessionID         string                       `json:"sessionId"`
	Mode              Mode                         `json:"mode"`
	State             State                        `json:"state"`
	Problem           string                       `json:"problem,omitempty"`
	MatchedPhrase     string                       `json:"matchedPhrase,omitempty"`
	Category          string                       `json:"category,omitempty"`
	Service           *catalog.ServiceDescriptor   `json:"service,omitempty"`
	Urgency           catalog.Urgency              `json:"urgency"`
	CustomerInfo      CustomerInfo                 `json:"customerInfo"`
	ContactPreference validation.ContactPreference `json:"contactPreference,omitempty"`

	// Quote is the price at the current urgency, available once a service
	// is identified. FinalPrice is only set on completion.
	Quote          *catalog.PriceRange `json:"quote,omitempty"`
	FinalPrice     *catalog.PriceRange `json:"finalPrice,omitempty"`
	FinalPriceText string              `json:"finalPriceText,omitempty"`

	LeadSaved                   bool                    `json:"leadSaved"`
	Errors                      []validation.FieldError `json:"errors,omitempty"`
	ShowFallbackContactChannels bool                    `json:"showFallbackContactChannels"`
}

// Outcome is the result of one Handle call: the view plus every state
// entered during the turn, in order.
type Outcome struct {
	View        View    `json:"view"`
	Transitions []State `json:"transitions,omitempty"`
}

// Accepted reports whether the turn's input was taken.
func (o Outcome) Accepted() bool {
	return len(o.View.Errors) == 0
}

// Entered reports whether the turn passed through s.
func (o Outcome) Entered(s State) bool {
	for _, t := range o.Transitions {
		if t == s {
			return true
		}
	}
	return false
}

func render(s Session, errs []validation.FieldError) View {
	v := View{
		SessionID:                   s.ID,
		Mode:                        s.Mode,
		State:                       s.State,
		Problem:                     s.ProblemText,
		MatchedPhrase:               s.MatchedPhrase,
		Category:                    s.Category,
		Urgency:                     s.Urgency,
		CustomerInfo:                s.CustomerInfo,
		ContactPreference:           s.ContactPreference,
		LeadSaved:                   s.LeadSaved,
		Errors:                      errs,
		ShowFallbackContactChannels: s.PersistenceError != "",
	}
	if s.ClassifiedService != nil {
		svc := *s.ClassifiedService
		v.Service = &svc
		quote := pricing.ComputeFinalPrice(svc.BasePrice, s.Urgency, svc.UrgencyMultiplier)
		v.Quote = &quote
	}
	if s.FinalPrice != nil {
		final := *s.FinalPrice
		v.FinalPrice = &final
		v.FinalPriceText = final.String()
	}
	return v
}
