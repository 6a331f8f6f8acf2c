package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"estimate_portal_backend/internal/estimate/catalog"
	"estimate_portal_backend/internal/estimate/chat"
	"estimate_portal_backend/internal/estimate/classifier"
	"estimate_portal_backend/internal/estimate/conversation"
	"estimate_portal_backend/internal/estimate/validation"
)

type recordingSaver struct {
	leads []conversation.Lead
}

func (r *recordingSaver) Save(_ context.Context, lead conversation.Lead) (string, error) {
	r.leads = append(r.leads, lead)
	return "lead-1", nil
}

func newTestTerminal(saver conversation.LeadSaver, out *bytes.Buffer) (*terminal, *[]time.Duration) {
	engine := conversation.NewEngine(conversation.Deps{
		Classifier:     classifier.New(catalog.MustDefault()),
		Saver:          saver,
		PersistTimeout: time.Second,
	})
	var slept []time.Duration
	script := chat.NewScript(chat.Contacts{PhoneFormatted: "(908) 361-2183", Email: "service@example.com"})
	return newTerminal(engine, script, out, func(d time.Duration) { slept = append(slept, d) }), &slept
}

func TestTerminalCompletesEstimate(t *testing.T) {
	saver := &recordingSaver{}
	var out bytes.Buffer
	term, slept := newTestTerminal(saver, &out)

	input := strings.Join([]string{
		"AC not cooling at all",
		"/urgency emergency",
		"Jane Doe",
		"not-an-email",
		"jane@example.com",
		"(908) 361-2183",
		"please call me",
		"what now?",
		"quit",
	}, "\n")

	if err := term.run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"What problem are you experiencing",
		"Urgency set to emergency.",
		"Please enter a valid email address.",
		"Here's your estimate:",
		"A specialist will reach out soon.",
		"Type 'restart' for a new estimate",
		"Thanks for stopping by!",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}

	if len(saver.leads) != 1 {
		t.Fatalf("expected one saved lead, got %d", len(saver.leads))
	}
	lead := saver.leads[0]
	if lead.Urgency != catalog.UrgencyEmergency || lead.ContactPreference != validation.ContactPhone {
		t.Fatalf("unexpected lead %+v", lead)
	}

	var staged bool
	for _, d := range *slept {
		if d > 0 {
			staged = true
		}
	}
	if !staged {
		t.Fatal("expected staged reply delays")
	}
}

func TestTerminalWithoutStoreOffersContacts(t *testing.T) {
	var out bytes.Buffer
	term, _ := newTestTerminal(nil, &out)

	input := "furnace not heating\nJane Doe\njane@example.com\n9083612183\nemail\n"
	if err := term.run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "📞 Call (908) 361-2183") || !strings.Contains(got, "✉️ Email service@example.com") {
		t.Fatalf("expected fallback contacts:\n%s", got)
	}
}

func TestTerminalCancelAndRestart(t *testing.T) {
	saver := &recordingSaver{}
	var out bytes.Buffer
	term, _ := newTestTerminal(saver, &out)

	input := "thermostat is blank\ncancel\nJane\nrestart\n"
	if err := term.run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "I've cleared your request") {
		t.Fatalf("expected discard message:\n%s", got)
	}
	if strings.Count(got, "What problem are you experiencing") != 2 {
		t.Fatalf("expected greeting on start and restart:\n%s", got)
	}
	if term.ctrl.View().State != conversation.StateCollectingProblem {
		t.Fatalf("state = %s", term.ctrl.View().State)
	}
	if len(saver.leads) != 0 {
		t.Fatal("cancelled conversation must not save")
	}
}

func TestEventForMapsStateToSlot(t *testing.T) {
	var out bytes.Buffer
	term, _ := newTestTerminal(nil, &out)

	tests := []struct {
		line string
		want conversation.EventType
	}{
		{"restart", conversation.EventRestart},
		{"CANCEL", conversation.EventCancel},
		{"/urgency urgent", conversation.EventSelectUrgency},
		{"my heat pump is loud", conversation.EventSubmitProblem},
	}
	for _, tt := range tests {
		ev, ok := term.eventFor(tt.line)
		if !ok || ev.Type != tt.want {
			t.Fatalf("eventFor(%q) = %v, %v; want %s", tt.line, ev.Type, ok, tt.want)
		}
	}
}
