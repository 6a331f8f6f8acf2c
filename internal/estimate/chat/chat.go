// Package chat renders conversation outcomes as a staged chat transcript.
// Delays are data; the caller decides whether to wait before showing each
// message.
package chat

import (
	"encoding/json"
	"fmt"
	"time"

	"estimate_portal_backend/internal/estimate/conversation"
	"estimate_portal_backend/internal/estimate/validation"
)

// Message is one bot message and how long to pause before revealing it,
// measured from the previous message.
type Message struct {
	Text  string
	Delay time.Duration
}

// MarshalJSON encodes the delay in milliseconds.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Text    string `json:"text"`
		DelayMs int64  `json:"delayMs"`
	}{Text: m.Text, DelayMs: m.Delay.Milliseconds()})
}

// Contacts are the manual channels offered when a lead could not be saved.
type Contacts struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	PhoneFormatted string `json:"phoneFormatted"`
	Email          string `json:"email"`
}

const (
	typingDelay  = 600 * time.Millisecond
	analyzeDelay = 800 * time.Millisecond
	serviceDelay = 1000*time.Millisecond + typingDelay
	summaryDelay = 500 * time.Millisecond
)

// Script turns outcomes into bot messages.
type Script struct {
	contacts Contacts
}

// NewScript creates a Script that offers contacts on persistence failure.
func NewScript(contacts Contacts) *Script {
	return &Script{contacts: contacts}
}

// Greeting is shown when a chat opens or restarts.
func (s *Script) Greeting() []Message {
	return []Message{
		{Text: "👋 Hi! I'm your HVAC assistant. Let's get you an instant estimate."},
		{Text: "What problem are you experiencing with your HVAC system?"},
	}
}

// Reveal returns the bot messages for one turn in display order.
func (s *Script) Reveal(out conversation.Outcome) []Message {
	v := out.View
	if len(v.Errors) > 0 {
		return s.rejections(v.Errors)
	}

	var msgs []Message
	for _, st := range out.Transitions {
		switch st {
		case conversation.StateCollectingProblem:
			msgs = append(msgs, s.Greeting()...)
		case conversation.StateCollectingName:
			service := "General Consultation"
			if v.Service != nil {
				service = v.Service.ServiceName
			}
			msgs = append(msgs,
				Message{Text: "Got it! Based on your issue, I recommend: " + service, Delay: analyzeDelay},
				Message{Text: "Now I need your contact information. What's your name?", Delay: serviceDelay},
			)
		case conversation.StateCollectingEmail:
			msgs = append(msgs, Message{
				Text:  fmt.Sprintf("Nice to meet you, %s! What's your email address?", v.CustomerInfo.Name),
				Delay: typingDelay,
			})
		case conversation.StateCollectingPhone:
			msgs = append(msgs, Message{Text: "Great! What's your phone number?", Delay: typingDelay})
		case conversation.StateCollectingContactPreference:
			msgs = append(msgs, Message{
				Text:  "Perfect! How would you like us to contact you? Say 'call', 'email', or 'either'.",
				Delay: typingDelay,
			})
		case conversation.StateCompleted:
			msgs = append(msgs, s.summary(v)...)
		case conversation.StateDiscarded:
			msgs = append(msgs, Message{Text: "No problem, I've cleared your request. Say 'restart' whenever you want a new estimate."})
		}
	}
	return msgs
}

func (s *Script) summary(v conversation.View) []Message {
	service := ""
	if v.Service != nil {
		service = v.Service.ServiceName
	}

	msgs := []Message{
		{Text: "Excellent! Here's your estimate:", Delay: typingDelay},
		{Text: "Service: " + service, Delay: summaryDelay},
		{Text: "Price Range: " + v.FinalPriceText, Delay: summaryDelay},
		{Text: followUp(v), Delay: summaryDelay},
	}

	if v.ShowFallbackContactChannels {
		msgs = append(msgs, Message{Text: "⚠️ We got your contact. If you prefer, you can reach us directly below."})
		if s.contacts.PhoneFormatted != "" {
			msgs = append(msgs, Message{Text: "📞 Call " + s.contacts.PhoneFormatted})
		}
		if s.contacts.Email != "" {
			msgs = append(msgs, Message{Text: "✉️ Email " + s.contacts.Email})
		}
		return msgs
	}
	return append(msgs, Message{Text: "We got your contact. A specialist will reach out soon."})
}

func followUp(v conversation.View) string {
	switch v.ContactPreference {
	case validation.ContactPhone:
		return fmt.Sprintf("We'll call you at %s soon!", v.CustomerInfo.Phone)
	case validation.ContactEmail:
		return fmt.Sprintf("We'll email you at %s soon!", v.CustomerInfo.Email)
	default:
		return fmt.Sprintf("We'll contact you at %s soon!", v.CustomerInfo.Email)
	}
}

func (s *Script) rejections(errs []validation.FieldError) []Message {
	msgs := make([]Message, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, Message{Text: chatRejection(fe), Delay: typingDelay})
	}
	return msgs
}

func chatRejection(fe validation.FieldError) string {
	switch fe.Field {
	case validation.FieldEmail:
		return "Please enter a valid email address."
	case validation.FieldPhone:
		return "Please enter a valid phone number (at least 10 digits)."
	case validation.FieldName:
		return "Could you tell me your name? It needs at least 2 characters."
	case validation.FieldProblem:
		return "Could you describe the problem in a bit more detail? At least 10 characters helps me find the right service."
	case validation.FieldContactPreference:
		return "Say 'call', 'email', or 'either'."
	default:
		return fe.Message
	}
}
