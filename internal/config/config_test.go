package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ProductionRequiresSessionSecret(t *testing.T) {
	cfg := &Config{Env: "production"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing SESSION_SECRET in production")
	}
}

func TestValidate_ShortSessionSecret(t *testing.T) {
	cfg := &Config{Env: "development", SessionSecret: "too-short"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for short session secret")
	}
	if !strings.Contains(err.Error(), "32 characters") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_PartialSSO(t *testing.T) {
	cfg := &Config{
		Env:           "development",
		SSOClientID:   "client",
		SessionSecret: strings.Repeat("s", 32),
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for incomplete SSO configuration")
	}
}

func TestValidate_CompleteSSO(t *testing.T) {
	cfg := &Config{
		Env:             "development",
		SessionSecret:   strings.Repeat("s", 32),
		SSOClientID:     "client",
		SSOClientSecret: "secret",
		SSOIssuerURL:    "https://sso.example.com",
		SSORedirectURI:  "https://app.example.com/api/v1/auth/sso/callback",
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !cfg.SSOConfigured() {
		t.Error("expected SSOConfigured to be true")
	}
}

func TestValidate_TLSRequiresFiles(t *testing.T) {
	cfg := &Config{Env: "development", TLSEnabled: true}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing TLS cert file")
	}
	cfg.TLSCertFile = "/etc/tls/cert.pem"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing TLS key file")
	}
	cfg.TLSKeyFile = "/etc/tls/key.pem"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHospitalAPITimeout_Default(t *testing.T) {
	cfg := &Config{}
	if got := cfg.HospitalAPITimeout(); got != 15*time.Second {
		t.Errorf("expected 15s default, got %v", got)
	}
	cfg.HospitalAPITimeoutSec = 30
	if got := cfg.HospitalAPITimeout(); got != 30*time.Second {
		t.Errorf("expected 30s, got %v", got)
	}
}

func TestHospitalAPIConfigured(t *testing.T) {
	cfg := &Config{HospitalAPIUsername: "svc"}
	if cfg.HospitalAPIConfigured() {
		t.Error("username alone should not count as configured")
	}
	cfg.HospitalAPIPassword = "pw"
	if !cfg.HospitalAPIConfigured() {
		t.Error("expected configured with both credentials")
	}
}
