package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, `{}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.HTTPPort, DefaultHTTPPort)
	}
	if cfg.TickInterval != DefaultTickInterval {
		t.Errorf("tick_interval: got %v, want %v", cfg.TickInterval, DefaultTickInterval)
	}
	if cfg.Alerting.GlobalCooldownMinutes != DefaultGlobalCooldown {
		t.Errorf("global_cooldown_minutes: got %d, want %d",
			cfg.Alerting.GlobalCooldownMinutes, DefaultGlobalCooldown)
	}
	if !cfg.Alerting.EnableSuppression {
		t.Error("enable_suppression: want true by default")
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeConfig(t, `http_port: 9091
tick_interval: 10s
broadcast_interval: 2s
seed_file: /etc/alertmesh/seed.json
alerting:
  global_cooldown_minutes: 5
  max_alerts_per_hour: 20
  enable_escalation: true
  escalation_delay_minutes: 10
  enable_suppression: false
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != 9091 {
		t.Errorf("http_port: got %d, want 9091", cfg.HTTPPort)
	}
	if cfg.TickInterval != 10*time.Second {
		t.Errorf("tick_interval: got %v, want 10s", cfg.TickInterval)
	}
	if cfg.SeedFile != "/etc/alertmesh/seed.json" {
		t.Errorf("seed_file: got %q", cfg.SeedFile)
	}
	if cfg.Alerting.MaxAlertsPerHour != 20 {
		t.Errorf("max_alerts_per_hour: got %d, want 20", cfg.Alerting.MaxAlertsPerHour)
	}
	if !cfg.Alerting.EnableEscalation || cfg.Alerting.EscalationDelayMinutes != 10 {
		t.Errorf("escalation: %+v", cfg.Alerting)
	}
	if cfg.Alerting.EnableSuppression {
		t.Error("enable_suppression: got true, want false")
	}
}

func TestLoad_BadPort(t *testing.T) {
	p := writeConfig(t, `http_port: 99999`)
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for out-of-range port, got nil")
	}
}

func TestLoad_NegativeCooldown(t *testing.T) {
	p := writeConfig(t, `alerting:
  global_cooldown_minutes: -1
`)
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for negative cooldown, got nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	p := writeConfig(t, "http_port: [not a port")
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for malformed yaml, got nil")
	}
}
