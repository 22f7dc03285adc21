package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alertmesh/alertmesh/internal/alerts"
	"github.com/alertmesh/alertmesh/internal/channels"
	"github.com/alertmesh/alertmesh/internal/config"
	"github.com/alertmesh/alertmesh/internal/metrics"
	"github.com/alertmesh/alertmesh/internal/rules"
)

func testConfig() config.AlertingConfig {
	return config.AlertingConfig{
		GlobalCooldownMinutes:      15,
		EnableSuppression:          true,
		SuppressionDurationMinutes: 60,
	}
}

// newTestEngine returns an engine with a controllable clock and a
// synchronous no-op dispatch that records fan-outs.
func newTestEngine(cfg config.AlertingConfig) (*Engine, *dispatchLog, func(time.Time)) {
	e := New(cfg, time.Minute)
	log := &dispatchLog{}
	e.dispatch = log.record

	clock := time.Now()
	var mu sync.Mutex
	e.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}
	setClock := func(t time.Time) {
		mu.Lock()
		clock = t
		mu.Unlock()
	}
	return e, log, setClock
}

type dispatchLog struct {
	mu    sync.Mutex
	calls [][]string
}

func (d *dispatchLog) record(a alerts.Alert, channelIDs []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, channelIDs)
}

func (d *dispatchLog) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func addRule(e *Engine, cooldownMinutes int) rules.AlertRule {
	return e.Rules().Add(rules.AlertRule{
		Name:                   "queue depth high",
		Metric:                 "queue_depth",
		Condition:              rules.ConditionGreaterThan,
		Threshold:              100.0,
		Severity:               rules.SeverityHigh,
		Enabled:                true,
		CooldownMinutes:        cooldownMinutes,
		NotificationChannelIDs: []string{"webhook-1"},
	})
}

func TestEvaluate_LatestSampleWins(t *testing.T) {
	e, _, _ := newTestEngine(testConfig())
	addRule(e, 5)

	// Older sample would not fire; the latest one does.
	e.RecordMetric(metrics.Metric{Name: "queue_depth", Value: 5.0})
	e.RecordMetric(metrics.Metric{Name: "queue_depth", Value: 150.0})

	e.EvaluateNow()

	active := e.Alerts().Active()
	if len(active) != 1 {
		t.Fatalf("active alerts: got %d, want 1", len(active))
	}
	if active[0].Metadata["value"] != 150.0 {
		t.Errorf("fired on value %v, want 150", active[0].Metadata["value"])
	}
}

func TestEvaluate_NoDataNoFire(t *testing.T) {
	e, _, _ := newTestEngine(testConfig())
	addRule(e, 5)

	e.EvaluateNow()

	if got := len(e.Alerts().All()); got != 0 {
		t.Fatalf("alerts without data: got %d, want 0", got)
	}
}

func TestEvaluate_CooldownHonored(t *testing.T) {
	base := time.Now()
	e, _, setClock := newTestEngine(testConfig())
	addRule(e, 5)

	e.RecordMetric(metrics.Metric{Name: "queue_depth", Value: 150.0})

	setClock(base)
	e.EvaluateNow()
	if got := len(e.Alerts().All()); got != 1 {
		t.Fatalf("after first tick: got %d alerts, want 1", got)
	}

	// Condition still holds one minute later, so cooldown suppresses the fire.
	e.RecordMetric(metrics.Metric{Name: "queue_depth", Value: 200.0})
	setClock(base.Add(time.Minute))
	e.EvaluateNow()
	if got := len(e.Alerts().All()); got != 1 {
		t.Fatalf("within cooldown: got %d alerts, want 1", got)
	}

	// Past the cooldown it fires again.
	e.RecordMetric(metrics.Metric{Name: "queue_depth", Value: 200.0})
	setClock(base.Add(6 * time.Minute))
	e.EvaluateNow()
	if got := len(e.Alerts().All()); got != 2 {
		t.Fatalf("past cooldown: got %d alerts, want 2", got)
	}
}

func TestEvaluate_DisabledRuleSkipped(t *testing.T) {
	e, _, _ := newTestEngine(testConfig())
	rule := addRule(e, 5)
	rule.Enabled = false
	e.Rules().Update(rule)

	e.RecordMetric(metrics.Metric{Name: "queue_depth", Value: 150.0})
	e.EvaluateNow()

	if got := len(e.Alerts().All()); got != 0 {
		t.Fatalf("disabled rule fired: got %d alerts, want 0", got)
	}
}

func TestEvaluate_GlobalCooldownFallback(t *testing.T) {
	base := time.Now()
	cfg := testConfig()
	cfg.GlobalCooldownMinutes = 10
	e, _, setClock := newTestEngine(cfg)
	addRule(e, 0) // no per-rule cooldown

	e.RecordMetric(metrics.Metric{Name: "queue_depth", Value: 150.0})
	setClock(base)
	e.EvaluateNow()

	e.RecordMetric(metrics.Metric{Name: "queue_depth", Value: 150.0})
	setClock(base.Add(5 * time.Minute))
	e.EvaluateNow()
	if got := len(e.Alerts().All()); got != 1 {
		t.Fatalf("within global cooldown: got %d alerts, want 1", got)
	}
}

func TestEvaluate_AlertRateCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAlertsPerHour = 2
	e, _, _ := newTestEngine(cfg)

	for _, name := range []string{"m1", "m2", "m3"} {
		e.Rules().Add(rules.AlertRule{
			Name: name, Metric: name,
			Condition: rules.ConditionGreaterThan, Threshold: 0.0,
			Severity: rules.SeverityLow, Enabled: true, CooldownMinutes: 60,
		})
		e.RecordMetric(metrics.Metric{Name: name, Value: 1.0})
	}

	e.EvaluateNow()

	if got := len(e.Alerts().All()); got != 2 {
		t.Fatalf("capped fires: got %d alerts, want 2", got)
	}
}

func TestEscalation(t *testing.T) {
	base := time.Now()
	cfg := testConfig()
	cfg.EnableEscalation = true
	cfg.EscalationDelayMinutes = 10
	e, log, setClock := newTestEngine(cfg)
	addRule(e, 60)

	e.RecordMetric(metrics.Metric{Name: "queue_depth", Value: 150.0})
	setClock(base)
	e.EvaluateNow()
	if log.count() != 1 {
		t.Fatalf("dispatches after fire: got %d, want 1", log.count())
	}

	// Not yet past the delay: no escalation.
	setClock(base.Add(5 * time.Minute))
	e.EvaluateNow()
	a := e.Alerts().All()[0]
	if a.Severity != rules.SeverityHigh {
		t.Fatalf("escalated too early: %q", a.Severity)
	}

	// Past the delay: severity bumps one step and channels are re-notified.
	setClock(base.Add(11 * time.Minute))
	e.EvaluateNow()
	a = e.Alerts().All()[0]
	if a.Severity != rules.SeverityCritical {
		t.Fatalf("severity after escalation: got %q, want critical", a.Severity)
	}
	if log.count() != 2 {
		t.Fatalf("dispatches after escalation: got %d, want 2", log.count())
	}

	// Escalation happens once.
	setClock(base.Add(30 * time.Minute))
	e.EvaluateNow()
	if log.count() != 2 {
		t.Fatalf("dispatches after second pass: got %d, want 2", log.count())
	}
}

func TestEscalation_AcknowledgedAlertLeftAlone(t *testing.T) {
	base := time.Now()
	cfg := testConfig()
	cfg.EnableEscalation = true
	cfg.EscalationDelayMinutes = 10
	e, _, setClock := newTestEngine(cfg)
	addRule(e, 60)

	e.RecordMetric(metrics.Metric{Name: "queue_depth", Value: 150.0})
	setClock(base)
	e.EvaluateNow()

	a := e.Alerts().All()[0]
	e.AcknowledgeAlert(a.ID, "oncall")

	setClock(base.Add(time.Hour))
	e.EvaluateNow()
	got, _ := e.Alerts().Get(a.ID)
	if got.Severity != rules.SeverityHigh {
		t.Fatalf("acknowledged alert escalated: %q", got.Severity)
	}
}

func TestSuppressAlert_GatedByConfig(t *testing.T) {
	cfg := testConfig()
	cfg.EnableSuppression = false
	e, _, _ := newTestEngine(cfg)
	addRule(e, 5)
	e.RecordMetric(metrics.Metric{Name: "queue_depth", Value: 150.0})
	e.EvaluateNow()

	a := e.Alerts().All()[0]
	if e.SuppressAlert(a.ID, "oncall") {
		t.Fatal("SuppressAlert with suppression disabled: got true, want false")
	}
	got, _ := e.Alerts().Get(a.ID)
	if got.Status != alerts.StatusActive {
		t.Errorf("status: got %q, want active", got.Status)
	}
}

func TestStartStop_Idempotent(t *testing.T) {
	e, _, _ := newTestEngine(testConfig())

	e.Start()
	e.Start()
	if !e.Running() {
		t.Fatal("Running after Start: got false")
	}
	e.Stop()
	e.Stop()
	if e.Running() {
		t.Fatal("Running after Stop: got true")
	}
	// Restart works.
	e.Start()
	if !e.Running() {
		t.Fatal("Running after restart: got false")
	}
	e.Stop()
}

// TestEndToEnd_WebhookDelivery covers the full path: record, tick, fire,
// webhook POST, cooldown, re-fire.
func TestEndToEnd_WebhookDelivery(t *testing.T) {
	var mu sync.Mutex
	posts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		posts++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	base := time.Now()
	e, _, setClock := newTestEngine(testConfig())
	// Deliver synchronously through the real dispatcher so the test can
	// assert without sleeping.
	e.dispatch = func(a alerts.Alert, channelIDs []string) {
		e.dispatcher.Dispatch(context.Background(), a, channelIDs)
	}

	e.Channels().Add(channels.Channel{
		ID:      "webhook-1",
		Name:    "ops hook",
		Type:    channels.TypeWebhook,
		Config:  map[string]any{"url": srv.URL},
		Enabled: true,
	})
	addRule(e, 5)

	e.RecordMetric(metrics.Metric{Name: "queue_depth", Value: 150.0})
	setClock(base)
	e.EvaluateNow()

	mu.Lock()
	if posts != 1 {
		mu.Unlock()
		t.Fatalf("webhook posts after first fire: got %d, want 1", posts)
	}
	mu.Unlock()
	if got := len(e.Alerts().Active()); got != 1 {
		t.Fatalf("active alerts: got %d, want 1", got)
	}

	// One minute later the condition persists but cooldown holds.
	e.RecordMetric(metrics.Metric{Name: "queue_depth", Value: 200.0})
	setClock(base.Add(time.Minute))
	e.EvaluateNow()
	if got := len(e.Alerts().All()); got != 1 {
		t.Fatalf("alerts within cooldown: got %d, want 1", got)
	}

	// Six minutes in, a second alert fires and posts again.
	e.RecordMetric(metrics.Metric{Name: "queue_depth", Value: 200.0})
	setClock(base.Add(6 * time.Minute))
	e.EvaluateNow()
	if got := len(e.Alerts().All()); got != 2 {
		t.Fatalf("alerts past cooldown: got %d, want 2", got)
	}
	mu.Lock()
	if posts != 2 {
		mu.Unlock()
		t.Fatalf("webhook posts after second fire: got %d, want 2", posts)
	}
	mu.Unlock()
}
