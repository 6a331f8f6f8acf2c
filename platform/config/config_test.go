package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsWithoutLeadStore(t *testing.T) {
	t.Setenv("LEAD_STORE", "none")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.HTTPAddr)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("expected 2h session ttl, got %s", cfg.SessionTTL)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected 2 cors origins, got %v", cfg.CORSOrigins)
	}
	if cfg.EmailEnabled {
		t.Fatal("email must be disabled without SMTP_HOST")
	}
	if cfg.GetBusinessPhoneFormatted() != "(908) 361-2183" {
		t.Fatalf("unexpected business phone %q", cfg.GetBusinessPhoneFormatted())
	}
}

func TestLoadRequiresDatabaseForPostgres(t *testing.T) {
	t.Setenv("LEAD_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadRejectsUnknownLeadStore(t *testing.T) {
	t.Setenv("LEAD_STORE", "mongo")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown lead store")
	}
}

func TestLoadWildcardOriginEnablesAllowAll(t *testing.T) {
	t.Setenv("LEAD_STORE", "none")
	t.Setenv("CORS_ORIGINS", "*")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.CORSAllowAll {
		t.Fatal("expected wildcard origin to enable CORSAllowAll")
	}
}

func TestLoadEmailNeedsRecipients(t *testing.T) {
	t.Setenv("LEAD_STORE", "none")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("EMAIL_FROM_ADDRESS", "estimates@example.com")
	t.Setenv("LEAD_NOTIFY_EMAIL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when LEAD_NOTIFY_EMAIL is missing")
	}
}

func TestLoadPersistTimeoutBounds(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"10s", false},
		{"25s", false},
		{"0s", true},
		{"45s", true},
	}
	for _, tt := range tests {
		t.Setenv("LEAD_STORE", "none")
		t.Setenv("PERSIST_TIMEOUT", tt.value)

		_, err := Load()
		if (err != nil) != tt.wantErr {
			t.Fatalf("PERSIST_TIMEOUT=%s: err = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestLoadFormatsBusinessPhone(t *testing.T) {
	t.Setenv("LEAD_STORE", "none")
	t.Setenv("BUSINESS_PHONE", "2125550100")
	t.Setenv("BUSINESS_PHONE_FORMATTED", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.GetBusinessPhoneFormatted(); got != "(212) 555-0100" {
		t.Fatalf("formatted phone = %q", got)
	}

	t.Setenv("BUSINESS_PHONE_FORMATTED", "212-555-0100")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.GetBusinessPhoneFormatted(); got != "212-555-0100" {
		t.Fatalf("explicit formatted phone = %q", got)
	}
}
