package rules

import "time"

// Severity classifies how urgent a rule firing is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for escalation: low < medium < high < critical.
// Unknown severities rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Escalated returns the next severity up, or s unchanged when already critical.
func (s Severity) Escalated() Severity {
	switch s {
	case SeverityLow:
		return SeverityMedium
	case SeverityMedium:
		return SeverityHigh
	case SeverityHigh:
		return SeverityCritical
	default:
		return s
	}
}

// Condition is the comparison a rule applies between the latest sample value
// and the rule threshold.
type Condition string

const (
	ConditionGreaterThan Condition = "greater_than"
	ConditionLessThan    Condition = "less_than"
	ConditionEquals      Condition = "equals"
	ConditionNotEquals   Condition = "not_equals"
	ConditionContains    Condition = "contains"
	ConditionNotContains Condition = "not_contains"
)

// AlertRule is one threshold condition over one metric. Threshold is either
// numeric (float64 after a JSON round-trip) or a string, matching the sample
// values it is compared against.
type AlertRule struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Metric      string    `json:"metric"`
	Condition   Condition `json:"condition"`
	Threshold   any       `json:"threshold"`
	Severity    Severity  `json:"severity"`
	Enabled     bool      `json:"enabled"`

	// CooldownMinutes suppresses re-fires for this many minutes after the
	// rule fires. Zero falls back to the engine's global cooldown.
	CooldownMinutes int `json:"cooldown_minutes"`

	// LastTriggeredAt is maintained by the evaluator; nil until the first fire.
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`

	Tags                   []string `json:"tags,omitempty"`
	NotificationChannelIDs []string `json:"notification_channel_ids,omitempty"`
}
