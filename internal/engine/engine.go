package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alertmesh/alertmesh/internal/alerts"
	"github.com/alertmesh/alertmesh/internal/channels"
	"github.com/alertmesh/alertmesh/internal/config"
	"github.com/alertmesh/alertmesh/internal/metrics"
	"github.com/alertmesh/alertmesh/internal/notify"
	"github.com/alertmesh/alertmesh/internal/rules"
)

const (
	// DefaultTickInterval is the evaluation cadence when none is configured.
	DefaultTickInterval = 30 * time.Second

	// lookbackWindow bounds how far back Recent() looks for samples.
	lookbackWindow = 5 * time.Minute
)

// Engine owns every collection of the alerting subsystem and runs the
// periodic evaluation tick. All public operations are safe to call
// concurrently with an in-progress tick; each collection synchronizes
// independently, so a metric recorded mid-evaluation may or may not be seen
// by the current tick.
type Engine struct {
	buffer     *metrics.Buffer
	rules      *rules.Registry
	channels   *channels.Registry
	alerts     *alerts.Store
	dispatcher *notify.Dispatcher

	interval time.Duration
	now      func() time.Time // injectable for deterministic tests

	// dispatch hands a fired alert to the dispatcher without blocking the
	// tick loop. Tests replace it with a synchronous variant.
	dispatch func(a alerts.Alert, channelIDs []string)

	mu       sync.Mutex
	cfg      config.AlertingConfig
	running  bool
	cancel   context.CancelFunc
	fireLog  []time.Time // fire times within the last hour, for the rate cap
}

// New constructs an Engine with empty collections from the process-wide
// alerting defaults. A tick interval <= 0 falls back to DefaultTickInterval.
func New(cfg config.AlertingConfig, tick time.Duration) *Engine {
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	chreg := channels.NewRegistry()
	e := &Engine{
		buffer:     metrics.NewBuffer(metrics.DefaultCapacity),
		rules:      rules.NewRegistry(),
		channels:   chreg,
		alerts:     alerts.NewStore(),
		dispatcher: notify.NewDispatcher(chreg, nil),
		interval:   tick,
		now:        time.Now,
		cfg:        cfg,
	}
	e.dispatch = func(a alerts.Alert, channelIDs []string) {
		go e.dispatcher.Dispatch(context.Background(), a, channelIDs)
	}
	return e
}

// Buffer returns the metric buffer producers record into.
func (e *Engine) Buffer() *metrics.Buffer { return e.buffer }

// Rules returns the rule registry.
func (e *Engine) Rules() *rules.Registry { return e.rules }

// Channels returns the notification channel registry.
func (e *Engine) Channels() *channels.Registry { return e.channels }

// Alerts returns the alert store.
func (e *Engine) Alerts() *alerts.Store { return e.alerts }

// RecordMetric appends one sample to the metric buffer.
func (e *Engine) RecordMetric(m metrics.Metric) {
	e.buffer.Record(m)
}

// Start begins the periodic evaluation tick. Calling Start on a running
// engine is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.running = true
	go e.run(ctx)
	slog.Info("engine: evaluator started", "interval", e.interval)
}

// Stop prevents any new tick from starting. An in-flight tick and its
// channel sends are allowed to complete. Calling Stop on a stopped engine
// is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.cancel()
	e.running = false
	slog.Info("engine: evaluator stopped")
}

// Running reports whether the periodic tick is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// run is the ticker loop. It exits when ctx is cancelled.
func (e *Engine) run(ctx context.Context) {
	t := time.NewTicker(e.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.EvaluateNow()
		}
	}
}

// EvaluateNow runs one evaluation pass over every enabled rule, using a
// single clock reading for cooldown checks, alert timestamps, and the
// escalation pass.
func (e *Engine) EvaluateNow() {
	now := e.now()
	for _, rule := range e.rules.Enabled() {
		e.evaluateRule(rule, now)
	}

	cfg := e.alertingConfig()
	if cfg.EnableEscalation {
		e.escalatePass(now, cfg)
	}
}

// evaluateRule checks one rule against the latest sample of its metric and
// fires when the condition holds.
func (e *Engine) evaluateRule(rule rules.AlertRule, now time.Time) {
	cooldown := time.Duration(rule.CooldownMinutes) * time.Minute
	if cooldown <= 0 {
		cooldown = time.Duration(e.alertingConfig().GlobalCooldownMinutes) * time.Minute
	}
	if rule.LastTriggeredAt != nil && now.Sub(*rule.LastTriggeredAt) < cooldown {
		return
	}

	recent := e.buffer.Recent(rule.Metric, lookbackWindow)
	if len(recent) == 0 {
		// No data is no decision, not a failure.
		return
	}
	latest := recent[len(recent)-1]

	if !conditionHolds(rule.Condition, latest.Value, rule.Threshold) {
		return
	}

	if !e.admitFire(now) {
		slog.Warn("engine: alert rate cap reached, skipping fire",
			"rule", rule.ID, "metric", rule.Metric)
		return
	}

	a := e.alerts.Append(alerts.Alert{
		RuleID:      rule.ID,
		Title:       rule.Name,
		Description: fmt.Sprintf("%s %s %v (latest value %v)", rule.Metric, rule.Condition, rule.Threshold, latest.Value),
		Severity:    rule.Severity,
		Status:      alerts.StatusActive,
		TriggeredAt: now,
		Tags:        rule.Tags,
		Metadata: map[string]any{
			"rule_name": rule.Name,
			"metric":    rule.Metric,
			"condition": string(rule.Condition),
			"threshold": rule.Threshold,
			"value":     latest.Value,
		},
	})
	e.rules.MarkTriggered(rule.ID, now)

	slog.Warn("engine: alert fired",
		"rule", rule.ID,
		"metric", rule.Metric,
		"value", latest.Value,
		"severity", rule.Severity,
		"alert", a.ID,
	)
	e.dispatch(a, rule.NotificationChannelIDs)
}

// admitFire enforces the rolling-hour alert cap. It always records admitted
// fires so the window stays accurate.
func (e *Engine) admitFire(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := now.Add(-time.Hour)
	kept := e.fireLog[:0]
	for _, t := range e.fireLog {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	e.fireLog = kept

	if e.cfg.MaxAlertsPerHour > 0 && len(e.fireLog) >= e.cfg.MaxAlertsPerHour {
		return false
	}
	e.fireLog = append(e.fireLog, now)
	return true
}

// escalatePass raises the severity of active alerts that have gone
// unacknowledged past the escalation delay and re-notifies their channels.
// Each alert escalates at most once.
func (e *Engine) escalatePass(now time.Time, cfg config.AlertingConfig) {
	delay := time.Duration(cfg.EscalationDelayMinutes) * time.Minute
	if delay <= 0 {
		return
	}
	for _, a := range e.alerts.Active() {
		if now.Sub(a.TriggeredAt) < delay {
			continue
		}
		if !e.alerts.Escalate(a.ID, a.Severity.Escalated()) {
			continue
		}
		escalated, _ := e.alerts.Get(a.ID)
		slog.Warn("engine: alert escalated",
			"alert", a.ID, "from", a.Severity, "to", escalated.Severity)
		if rule, ok := e.rules.Get(a.RuleID); ok {
			e.dispatch(escalated, rule.NotificationChannelIDs)
		}
	}
}

// AcknowledgeAlert marks an active alert as acknowledged by an operator.
func (e *Engine) AcknowledgeAlert(id, by string) bool {
	return e.alerts.Acknowledge(id, by)
}

// ResolveAlert resolves an active or acknowledged alert.
func (e *Engine) ResolveAlert(id, by string) bool {
	return e.alerts.Resolve(id, by)
}

// SuppressAlert suppresses an active alert. When suppression is disabled in
// the alerting config this is a soft no-op returning false.
func (e *Engine) SuppressAlert(id, by string) bool {
	cfg := e.alertingConfig()
	if !cfg.EnableSuppression {
		slog.Debug("engine: suppression disabled, ignoring request", "alert", id)
		return false
	}
	duration := time.Duration(cfg.SuppressionDurationMinutes) * time.Minute
	return e.alerts.Suppress(id, by, duration)
}

// Reconfigure replaces the process-wide alerting defaults. This is the one
// sanctioned way to change them after construction besides a configuration
// import.
func (e *Engine) Reconfigure(cfg config.AlertingConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	slog.Info("engine: alerting config replaced",
		"global_cooldown_minutes", cfg.GlobalCooldownMinutes,
		"max_alerts_per_hour", cfg.MaxAlertsPerHour,
	)
}

// alertingConfig returns a copy of the current alerting defaults.
func (e *Engine) alertingConfig() config.AlertingConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}
