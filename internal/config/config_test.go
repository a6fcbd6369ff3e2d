package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port: got %q, want 8080", cfg.Port)
	}
	if cfg.DBName != "dispatchdb" {
		t.Errorf("DBName: got %q", cfg.DBName)
	}
	if cfg.DispatchInterval != 30*time.Second {
		t.Errorf("DispatchInterval: got %v, want 30s", cfg.DispatchInterval)
	}
	if cfg.SweepCron != "@every 10m" {
		t.Errorf("SweepCron: got %q", cfg.SweepCron)
	}
	if cfg.SendRatePerMinute != 60 {
		t.Errorf("SendRatePerMinute: got %d", cfg.SendRatePerMinute)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DISPATCH_INTERVAL_SECONDS", "5")
	t.Setenv("RELAY_URL", "http://relay.internal/send")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://app.example.com ,http://localhost:3000,")

	cfg := Load()
	if cfg.DispatchInterval != 5*time.Second {
		t.Errorf("DispatchInterval: got %v, want 5s", cfg.DispatchInterval)
	}
	if cfg.RelayURL != "http://relay.internal/send" {
		t.Errorf("RelayURL: got %q", cfg.RelayURL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[0] != "https://app.example.com" {
		t.Errorf("CORSAllowedOrigins: got %v", cfg.CORSAllowedOrigins)
	}
}
