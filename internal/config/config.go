package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the service configuration.
const (
	DefaultHTTPPort          = 8080
	DefaultTickInterval      = 30 * time.Second
	DefaultBroadcastInterval = 5 * time.Second
	DefaultGlobalCooldown    = 15
)

// AlertingConfig holds the process-wide alerting defaults. It is set once at
// engine construction and changed only through an explicit reconfigure or
// configuration import.
type AlertingConfig struct {
	// GlobalCooldownMinutes is the cooldown applied to rules whose own
	// cooldown_minutes is zero.
	GlobalCooldownMinutes int `yaml:"global_cooldown_minutes" json:"global_cooldown_minutes"`

	// MaxAlertsPerHour caps alert creation across all rules in a rolling
	// hour. Zero means uncapped. Fires beyond the cap are dropped and logged.
	MaxAlertsPerHour int `yaml:"max_alerts_per_hour" json:"max_alerts_per_hour"`

	// EnableEscalation turns on the per-tick escalation pass: active alerts
	// not acknowledged within EscalationDelayMinutes have their severity
	// raised one step and are re-notified, once.
	EnableEscalation       bool `yaml:"enable_escalation" json:"enable_escalation"`
	EscalationDelayMinutes int  `yaml:"escalation_delay_minutes" json:"escalation_delay_minutes"`

	// EnableSuppression gates the suppress operation. When false, suppress
	// requests are soft no-ops.
	EnableSuppression          bool `yaml:"enable_suppression" json:"enable_suppression"`
	SuppressionDurationMinutes int  `yaml:"suppression_duration_minutes" json:"suppression_duration_minutes"`
}

// Config holds all service settings parsed from the YAML config file.
type Config struct {
	// HTTPPort is the port the REST API and WebSocket hub listen on.
	HTTPPort int `yaml:"http_port"`

	// TickInterval is how often the evaluator checks every enabled rule.
	TickInterval time.Duration `yaml:"tick_interval"`

	// BroadcastInterval is how often the WebSocket hub pushes alert state.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	// SeedFile optionally names a JSON export payload (rules, channels,
	// alerting config) imported at startup.
	SeedFile string `yaml:"seed_file"`

	// Alerting holds the engine-wide alerting defaults.
	Alerting AlertingConfig `yaml:"alerting"`
}

// Load reads and parses the config file at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config pre-populated with default values.
func Defaults() *Config {
	return &Config{
		HTTPPort:          DefaultHTTPPort,
		TickInterval:      DefaultTickInterval,
		BroadcastInterval: DefaultBroadcastInterval,
		Alerting: AlertingConfig{
			GlobalCooldownMinutes:      DefaultGlobalCooldown,
			EnableSuppression:          true,
			SuppressionDurationMinutes: 60,
			EscalationDelayMinutes:     30,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return fmt.Errorf("http_port %d is out of range [1, 65535]", cfg.HTTPPort)
	}
	if cfg.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive")
	}
	if cfg.BroadcastInterval <= 0 {
		return fmt.Errorf("broadcast_interval must be positive")
	}
	if cfg.Alerting.GlobalCooldownMinutes < 0 {
		return fmt.Errorf("alerting.global_cooldown_minutes must not be negative")
	}
	if cfg.Alerting.MaxAlertsPerHour < 0 {
		return fmt.Errorf("alerting.max_alerts_per_hour must not be negative")
	}
	if cfg.Alerting.EscalationDelayMinutes < 0 {
		return fmt.Errorf("alerting.escalation_delay_minutes must not be negative")
	}
	if cfg.Alerting.SuppressionDurationMinutes < 0 {
		return fmt.Errorf("alerting.suppression_duration_minutes must not be negative")
	}
	return nil
}
