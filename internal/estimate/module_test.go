package estimate

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"estimate_portal_backend/internal/estimate/catalog"
	"estimate_portal_backend/internal/estimate/conversation"
	"estimate_portal_backend/internal/estimate/sessionstore"
	"estimate_portal_backend/internal/estimate/transport"
	apphttp "estimate_portal_backend/internal/http"
	"estimate_portal_backend/platform/config"
	"estimate_portal_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSaver struct {
	mu    sync.Mutex
	leads []conversation.Lead
}

func (f *fakeSaver) Save(_ context.Context, lead conversation.Lead) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads = append(f.leads, lead)
	return "lead-42", nil
}

func testConfig() *config.Config {
	return &config.Config{
		PersistTimeout:         time.Second,
		SessionTTL:             time.Hour,
		BusinessName:           "Cool Air HVAC",
		BusinessPhone:          "+19083612183",
		BusinessPhoneFormatted: "(908) 361-2183",
		BusinessEmail:          "service@coolair.example",
	}
}

func newTestServer(t *testing.T, saver conversation.LeadSaver) *gin.Engine {
	t.Helper()
	m := NewModule(testConfig(), catalog.MustDefault(), sessionstore.NewMemory(time.Hour), saver, logger.Nop())
	engine := gin.New()
	m.RegisterRoutes(&apphttp.RouterContext{Engine: engine, V1: engine.Group("/api/v1"), Logger: logger.Nop()})
	return engine
}

func do(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) transport.SessionResponse {
	t.Helper()
	var resp transport.SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return resp
}

func createSession(t *testing.T, engine *gin.Engine, mode string) transport.SessionResponse {
	t.Helper()
	w := do(t, engine, http.MethodPost, "/api/v1/estimate/sessions", map[string]string{"mode": mode})
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", w.Code, w.Body.String())
	}
	return decodeSession(t, w)
}

func sendEvent(t *testing.T, engine *gin.Engine, id string, ev map[string]string) transport.SessionResponse {
	t.Helper()
	w := do(t, engine, http.MethodPost, "/api/v1/estimate/sessions/"+id+"/events", ev)
	if w.Code != http.StatusOK {
		t.Fatalf("event %v: %d %s", ev, w.Code, w.Body.String())
	}
	return decodeSession(t, w)
}

func TestWizardSessionCompletesAndSavesLead(t *testing.T) {
	saver := &fakeSaver{}
	engine := newTestServer(t, saver)

	created := createSession(t, engine, "wizard")
	if created.View.State != conversation.StateCollectingProblem || created.View.Mode != conversation.ModeWizard {
		t.Fatalf("unexpected initial view %+v", created.View)
	}
	if len(created.Messages) != 0 {
		t.Fatal("wizard sessions should not carry chat messages")
	}
	id := created.View.SessionID

	resp := sendEvent(t, engine, id, map[string]string{"type": "submitProblem", "value": "AC not cooling"})
	if resp.View.State != conversation.StateCollectingName {
		t.Fatalf("state = %s", resp.View.State)
	}
	if resp.View.Service == nil || resp.View.Quote == nil {
		t.Fatal("expected identified service and quote")
	}

	sendEvent(t, engine, id, map[string]string{"type": "selectUrgency", "value": "emergency"})
	sendEvent(t, engine, id, map[string]string{
		"type": "submitCustomerInfo", "name": "Jane Doe", "email": "jane@example.com", "phone": "(908) 361-2183",
	})
	resp = sendEvent(t, engine, id, map[string]string{"type": "submitContactPreference", "value": "email"})

	if resp.View.State != conversation.StateCompleted || !resp.View.LeadSaved {
		t.Fatalf("unexpected final view %+v", resp.View)
	}
	if resp.View.FinalPriceText == "" {
		t.Fatal("expected final price text")
	}
	if len(saver.leads) != 1 || saver.leads[0].Urgency != catalog.UrgencyEmergency {
		t.Fatalf("saved leads %+v", saver.leads)
	}

	w := do(t, engine, http.MethodGet, "/api/v1/estimate/sessions/"+id, nil)
	if w.Code != http.StatusOK || decodeSession(t, w).View.State != conversation.StateCompleted {
		t.Fatalf("get after completion: %d %s", w.Code, w.Body.String())
	}
}

func TestChatSessionRevealsMessages(t *testing.T) {
	engine := newTestServer(t, &fakeSaver{})

	w := do(t, engine, http.MethodPost, "/api/v1/estimate/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create with empty body: %d %s", w.Code, w.Body.String())
	}
	created := decodeSession(t, w)
	if created.View.Mode != conversation.ModeChat || len(created.Messages) == 0 {
		t.Fatalf("expected chat greeting, got %+v", created)
	}
	id := created.View.SessionID

	resp := sendEvent(t, engine, id, map[string]string{"type": "submitProblem", "value": "furnace not heating"})
	if len(resp.Messages) == 0 {
		t.Fatal("expected recommendation messages")
	}
	sendEvent(t, engine, id, map[string]string{"type": "submitName", "value": "Jane Doe"})

	resp = sendEvent(t, engine, id, map[string]string{"type": "submitEmail", "value": "not-an-email"})
	if len(resp.View.Errors) != 1 || resp.View.Errors[0].Field != "email" {
		t.Fatalf("expected email error, got %+v", resp.View.Errors)
	}
	if resp.View.State != conversation.StateCollectingEmail {
		t.Fatalf("rejected input moved state to %s", resp.View.State)
	}
	if len(resp.Messages) == 0 {
		t.Fatal("expected a rejection message")
	}
}

func TestMissingSaverOffersContactChannels(t *testing.T) {
	engine := newTestServer(t, nil)
	id := createSession(t, engine, "wizard").View.SessionID

	sendEvent(t, engine, id, map[string]string{"type": "submitProblem", "value": "thermostat blank"})
	sendEvent(t, engine, id, map[string]string{
		"type": "submitCustomerInfo", "name": "Jane Doe", "email": "jane@example.com", "phone": "(908) 361-2183",
	})
	resp := sendEvent(t, engine, id, map[string]string{"type": "submitContactPreference", "value": "phone"})

	if resp.View.State != conversation.StateCompleted || resp.View.LeadSaved || !resp.View.ShowFallbackContactChannels {
		t.Fatalf("unexpected view %+v", resp.View)
	}
}

func TestSessionErrors(t *testing.T) {
	engine := newTestServer(t, &fakeSaver{})
	id := createSession(t, engine, "wizard").View.SessionID

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown session", http.MethodGet, "/api/v1/estimate/sessions/missing", nil, http.StatusNotFound},
		{"event on unknown session", http.MethodPost, "/api/v1/estimate/sessions/missing/events", map[string]string{"type": "restart"}, http.StatusNotFound},
		{"unknown event type", http.MethodPost, "/api/v1/estimate/sessions/" + id + "/events", map[string]string{"type": "dance"}, http.StatusBadRequest},
		{"event out of order", http.MethodPost, "/api/v1/estimate/sessions/" + id + "/events", map[string]string{"type": "submitEmail", "value": "a@b.co"}, http.StatusBadRequest},
		{"unknown mode", http.MethodPost, "/api/v1/estimate/sessions", map[string]string{"mode": "voice"}, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/v1/estimate/sessions/" + id + "/events", "not an object", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, engine, tt.method, tt.path, tt.body)
			if w.Code != tt.status {
				t.Fatalf("got %d %s, want %d", w.Code, w.Body.String(), tt.status)
			}
		})
	}
}

func TestRestartKeepsSessionID(t *testing.T) {
	engine := newTestServer(t, &fakeSaver{})
	id := createSession(t, engine, "chat").View.SessionID
	sendEvent(t, engine, id, map[string]string{"type": "submitProblem", "value": "AC not cooling"})

	w := do(t, engine, http.MethodPost, "/api/v1/estimate/sessions/"+id+"/restart", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("restart: %d %s", w.Code, w.Body.String())
	}
	resp := decodeSession(t, w)
	if resp.View.SessionID != id || resp.View.State != conversation.StateCollectingProblem || resp.View.Service != nil {
		t.Fatalf("unexpected view after restart %+v", resp.View)
	}
	if len(resp.Messages) == 0 {
		t.Fatal("expected greeting after restart")
	}
}

func TestDiscardRemovesSession(t *testing.T) {
	saver := &fakeSaver{}
	engine := newTestServer(t, saver)
	id := createSession(t, engine, "wizard").View.SessionID
	sendEvent(t, engine, id, map[string]string{"type": "submitProblem", "value": "AC not cooling"})

	w := do(t, engine, http.MethodDelete, "/api/v1/estimate/sessions/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("discard: %d %s", w.Code, w.Body.String())
	}
	if state := decodeSession(t, w).View.State; state != conversation.StateDiscarded {
		t.Fatalf("state = %s", state)
	}

	w = do(t, engine, http.MethodGet, "/api/v1/estimate/sessions/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected discarded session to be gone, got %d", w.Code)
	}
	if len(saver.leads) != 0 {
		t.Fatal("discarded session must not persist a lead")
	}
}

func TestCatalogAndContactEndpoints(t *testing.T) {
	engine := newTestServer(t, nil)

	w := do(t, engine, http.MethodGet, "/api/v1/estimate/catalog", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("catalog: %d", w.Code)
	}
	var cat transport.CatalogResponse
	if err := json.Unmarshal(w.Body.Bytes(), &cat); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(cat.Groups) == 0 || len(cat.Urgencies) != 4 || cat.Fallback.ServiceName != "General Consultation" {
		t.Fatalf("unexpected catalog %+v", cat)
	}

	w = do(t, engine, http.MethodGet, "/api/v1/estimate/catalog?q=zzzz-no-such-problem", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &cat); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(cat.Groups) != 0 {
		t.Fatalf("expected empty search result, got %d groups", len(cat.Groups))
	}

	w = do(t, engine, http.MethodGet, "/api/v1/business/contact", nil)
	var contact transport.BusinessContactResponse
	if err := json.Unmarshal(w.Body.Bytes(), &contact); err != nil {
		t.Fatalf("decode contact: %v", err)
	}
	if contact.PhoneFormatted != "(908) 361-2183" || contact.Email != "service@coolair.example" {
		t.Fatalf("unexpected contact %+v", contact)
	}
}
