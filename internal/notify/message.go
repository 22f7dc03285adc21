package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/alertmesh/alertmesh/internal/alerts"
	"github.com/alertmesh/alertmesh/internal/rules"
)

// FormatMessage renders the channel-agnostic notification text for a.
// The template is deterministic and identical across channel types.
func FormatMessage(a alerts.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s | severity=%s status=%s at=%s",
		severityMarker(a.Severity),
		a.Title,
		a.Severity,
		a.Status,
		a.TriggeredAt.UTC().Format(time.RFC3339),
	)
	if a.Description != "" {
		fmt.Fprintf(&b, " | %s", a.Description)
	}
	if len(a.Tags) > 0 {
		fmt.Fprintf(&b, " | tags=%s", strings.Join(a.Tags, ","))
	}
	return b.String()
}

// severityMarker maps a severity to its message prefix.
func severityMarker(s rules.Severity) string {
	switch s {
	case rules.SeverityCritical:
		return "[CRITICAL]"
	case rules.SeverityHigh:
		return "[HIGH]"
	case rules.SeverityMedium:
		return "[MEDIUM]"
	default:
		return "[LOW]"
	}
}
