// Package validation checks customer-supplied slot values before the
// conversation accepts them.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"estimate_portal_backend/platform/phone"
	"estimate_portal_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Field names used in FieldError.
const (
	FieldProblem           = "problem"
	FieldName              = "name"
	FieldEmail             = "email"
	FieldPhone             = "phone"
	FieldContactPreference = "contactPreference"
	FieldUrgency           = "urgency"
)

const (
	minNameLength    = 2
	minProblemLength = 10
	minPhoneDigits   = 10
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d \-()]+$`)
)

// FieldError is a validation failure scoped to one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ContactPreference is the customer's chosen follow-up channel.
type ContactPreference string

const (
	ContactPhone ContactPreference = "phone"
	ContactEmail ContactPreference = "email"
	ContactWait  ContactPreference = "wait"
)

type rule struct {
	field    string
	tags     string
	messages map[string]string
}

var (
	nameRule = rule{
		field: FieldName,
		tags:  "notblank,personname",
		messages: map[string]string{
			"notblank":   "Name is required",
			"personname": "Name must be at least 2 characters",
		},
	}
	emailRule = rule{
		field: FieldEmail,
		tags:  "notblank,leademail",
		messages: map[string]string{
			"notblank":  "Email is required",
			"leademail": "Please enter a valid email address",
		},
	}
	phoneRule = rule{
		field: FieldPhone,
		tags:  "notblank,leadphone",
		messages: map[string]string{
			"notblank":  "Phone number is required",
			"leadphone": "Please enter a valid phone number",
		},
	}
	problemRule = rule{
		field: FieldProblem,
		tags:  "notblank,problemtext",
		messages: map[string]string{
			"notblank":    "Please describe the problem you're experiencing",
			"problemtext": "Please describe the problem in at least 10 characters",
		},
	}
)

// Gate validates slot values. It is safe for concurrent use.
type Gate struct {
	v *validator.Validator
}

// NewGate builds a Gate with the lead-intake rules registered.
func NewGate() *Gate {
	v := validator.New()
	mustRegister(v, "notblank", validators.NotBlank)
	mustRegister(v, "personname", func(fl playground.FieldLevel) bool {
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= minNameLength
	})
	mustRegister(v, "leademail", func(fl playground.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	})
	mustRegister(v, "leadphone", func(fl playground.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	})
	mustRegister(v, "problemtext", func(fl playground.FieldLevel) bool {
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= minProblemLength
	})
	return &Gate{v: v}
}

func mustRegister(v *validator.Validator, tag string, fn playground.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("register validation " + tag + ": " + err.Error())
	}
}

// Name accepts a trimmed name of at least two characters.
func (g *Gate) Name(value string) *FieldError { return g.check(nameRule, value) }

// Email accepts a local@domain.tld shaped address.
func (g *Gate) Email(value string) *FieldError { return g.check(emailRule, strings.TrimSpace(value)) }

// Phone accepts digits, spaces, hyphens and parentheses with at least ten digits.
func (g *Gate) Phone(value string) *FieldError { return g.check(phoneRule, strings.TrimSpace(value)) }

// ProblemText accepts free-text problem descriptions of at least ten characters.
func (g *Gate) ProblemText(value string) *FieldError { return g.check(problemRule, value) }

// CustomerInfo validates all three contact fields independently and returns
// every failure in field order.
func (g *Gate) CustomerInfo(name, email, phoneNumber string) []FieldError {
	var errs []FieldError
	for _, fe := range []*FieldError{g.Name(name), g.Email(email), g.Phone(phoneNumber)} {
		if fe != nil {
			errs = append(errs, *fe)
		}
	}
	return errs
}

// ContactPreference normalizes a preference. The canonical values phone,
// email and wait pass through. Free text mentioning "call" or "phone" maps to
// phone, "email" to email, and anything else (including "either") to wait.
func (g *Gate) ContactPreference(value string) (ContactPreference, *FieldError) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "", &FieldError{Field: FieldContactPreference, Message: "Please choose how we should contact you"}
	}
	switch {
	case v == string(ContactPhone) || strings.Contains(v, "call") || strings.Contains(v, "phone"):
		return ContactPhone, nil
	case strings.Contains(v, "email"):
		return ContactEmail, nil
	default:
		return ContactWait, nil
	}
}

func (g *Gate) check(r rule, value string) *FieldError {
	err := g.v.Var(value, r.tags)
	if err == nil {
		return nil
	}
	msg, ok := r.messages[validator.FirstFailedTag(err)]
	if !ok {
		msg = "Invalid " + r.field
	}
	return &FieldError{Field: r.field, Message: msg}
}

// IsEmail reports whether value has a local@domain.tld shape.
func IsEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// IsPhone reports whether value holds only phone punctuation and at least
// ten digits.
func IsPhone(value string) bool {
	return phonePattern.MatchString(value) && len(phone.Digits(value)) >= minPhoneDigits
}
