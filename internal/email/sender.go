package email

import (
	"context"
)

// LeadNotice is the operator-facing summary of a newly captured lead.
type LeadNotice struct {
	BusinessName      string
	LeadID            string
	Name              string
	Email             string
	Phone             string
	Problem           string
	Service           string
	PriceEstimate     string
	Urgency           string
	ContactPreference string
}

// Emergency reports whether the lead asked for emergency service.
func (n LeadNotice) Emergency() bool {
	return n.Urgency == "emergency"
}

type Sender interface {
	SendLeadNotice(ctx context.Context, toEmail string, notice LeadNotice) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

type NoopSender struct{}

func (NoopSender) SendLeadNotice(ctx context.Context, toEmail string, notice LeadNotice) error {
	return nil
}

func (NoopSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return nil
}
