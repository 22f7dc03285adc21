package engine

import (
	"encoding/json"
	"log/slog"

	"github.com/alertmesh/alertmesh/internal/channels"
	"github.com/alertmesh/alertmesh/internal/rules"
)

// exportPayload is the JSON artifact ExportConfiguration produces. Rules and
// channels round-trip losslessly through ImportConfiguration.
type exportPayload struct {
	Rules    []rules.AlertRule  `json:"rules"`
	Channels []channels.Channel `json:"channels"`
	Config   json.RawMessage    `json:"config,omitempty"`
}

// ExportConfiguration serializes all rules, all channels, and the alerting
// defaults as one JSON document, suitable for external durable storage.
func (e *Engine) ExportConfiguration() ([]byte, error) {
	cfg, err := json.Marshal(e.alertingConfig())
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(exportPayload{
		Rules:    e.rules.List(),
		Channels: e.channels.List(),
		Config:   cfg,
	}, "", "  ")
}

// ImportConfiguration applies a previously exported payload. On any parse
// failure it returns false and leaves all state untouched. A successful
// parse is applied additively: rules and channels are upserted by id and the
// alerting config is merged shallowly: fields absent from the payload keep
// their current values.
func (e *Engine) ImportConfiguration(data []byte) bool {
	var p exportPayload
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Error("engine: configuration import rejected", "err", err)
		return false
	}

	cfg := e.alertingConfig()
	if len(p.Config) > 0 {
		if err := json.Unmarshal(p.Config, &cfg); err != nil {
			slog.Error("engine: configuration import rejected: bad config block", "err", err)
			return false
		}
	}

	// Parse stage passed; apply everything.
	if len(p.Config) > 0 {
		e.Reconfigure(cfg)
	}
	for _, r := range p.Rules {
		e.rules.Add(r)
	}
	for _, ch := range p.Channels {
		e.channels.Add(ch)
	}

	slog.Info("engine: configuration imported",
		"rules", len(p.Rules), "channels", len(p.Channels))
	return true
}
