package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alertmesh/alertmesh/internal/alerts"
	"github.com/alertmesh/alertmesh/internal/channels"
	"github.com/alertmesh/alertmesh/internal/engine"
	"github.com/alertmesh/alertmesh/internal/metrics"
	"github.com/alertmesh/alertmesh/internal/rules"
)

// maxBodyBytes caps request bodies; exposition dumps can be large but a
// megabyte is plenty for any legitimate payload here.
const maxBodyBytes = 1 << 20

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	engine *engine.Engine
	mux    *http.ServeMux
}

// New creates a Handler wired to the given engine and registers all routes.
func New(e *engine.Engine) http.Handler {
	h := &Handler{engine: e, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/metrics", h.recordMetrics)
	h.mux.HandleFunc("/api/v1/rules", h.rulesCollection)
	h.mux.HandleFunc("/api/v1/rules/", h.ruleItem) // subtree match for {id}
	h.mux.HandleFunc("/api/v1/channels", h.channelsCollection)
	h.mux.HandleFunc("/api/v1/channels/", h.channelItem)
	h.mux.HandleFunc("/api/v1/alerts", h.listAlerts)
	h.mux.HandleFunc("/api/v1/alerts/", h.alertSubtree) // stats and {id}/{action}
	h.mux.HandleFunc("/api/v1/config/export", h.exportConfig)
	h.mux.HandleFunc("/api/v1/config/import", h.importConfig)
	h.mux.HandleFunc("/api/v1/evaluate", h.evaluate)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, healthResponse{
		Status:       "ok",
		Running:      h.engine.Running(),
		Rules:        h.engine.Rules().Len(),
		Channels:     h.engine.Channels().Len(),
		ActiveAlerts: len(h.engine.Alerts().Active()),
	})
}

// recordMetrics accepts POST /api/v1/metrics with either a single JSON
// Metric object, a JSON array of them, or a Prometheus text exposition
// (Content-Type text/plain or application/openmetrics-text).
func (h *Handler) recordMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "text/plain") || strings.HasPrefix(ct, "application/openmetrics-text") {
		samples, err := metrics.ParseExposition(r.Body, time.Now())
		if err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		for _, m := range samples {
			h.engine.RecordMetric(m)
		}
		jsonResp(w, http.StatusAccepted, recordedResponse{Recorded: len(samples)})
		return
	}

	body, err := readBody(r)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	var batch []metrics.Metric
	if err := json.Unmarshal(body, &batch); err != nil {
		var one metrics.Metric
		if err := json.Unmarshal(body, &one); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid metric payload")
			return
		}
		batch = []metrics.Metric{one}
	}
	for _, m := range batch {
		if m.Name == "" {
			jsonErr(w, http.StatusBadRequest, "metric name is required")
			return
		}
		h.engine.RecordMetric(m)
	}
	jsonResp(w, http.StatusAccepted, recordedResponse{Recorded: len(batch)})
}

func (h *Handler) rulesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jsonResp(w, http.StatusOK, h.engine.Rules().List())
	case http.MethodPost:
		var rule rules.AlertRule
		if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid rule payload")
			return
		}
		if rule.Name == "" || rule.Metric == "" {
			jsonErr(w, http.StatusBadRequest, "rule name and metric are required")
			return
		}
		jsonResp(w, http.StatusCreated, h.engine.Rules().Add(rule))
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) ruleItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/rules/")
	if id == "" {
		h.rulesCollection(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		rule, ok := h.engine.Rules().Get(id)
		if !ok {
			jsonErr(w, http.StatusNotFound, "rule not found")
			return
		}
		jsonResp(w, http.StatusOK, rule)

	case http.MethodPut:
		// Partial update: decode over a copy of the stored rule so absent
		// fields keep their values.
		rule, ok := h.engine.Rules().Get(id)
		if !ok {
			jsonErr(w, http.StatusNotFound, "rule not found")
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid rule payload")
			return
		}
		rule.ID = id
		if !h.engine.Rules().Update(rule) {
			jsonErr(w, http.StatusNotFound, "rule not found")
			return
		}
		updated, _ := h.engine.Rules().Get(id)
		jsonResp(w, http.StatusOK, updated)

	case http.MethodDelete:
		if !h.engine.Rules().Remove(id) {
			jsonErr(w, http.StatusNotFound, "rule not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) channelsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jsonResp(w, http.StatusOK, h.engine.Channels().List())
	case http.MethodPost:
		var ch channels.Channel
		if err := json.NewDecoder(r.Body).Decode(&ch); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid channel payload")
			return
		}
		if ch.Type == "" {
			jsonErr(w, http.StatusBadRequest, "channel type is required")
			return
		}
		jsonResp(w, http.StatusCreated, h.engine.Channels().Add(ch))
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) channelItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/channels/")
	if id == "" {
		h.channelsCollection(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		ch, ok := h.engine.Channels().Get(id)
		if !ok {
			jsonErr(w, http.StatusNotFound, "channel not found")
			return
		}
		jsonResp(w, http.StatusOK, ch)

	case http.MethodPut:
		ch, ok := h.engine.Channels().Get(id)
		if !ok {
			jsonErr(w, http.StatusNotFound, "channel not found")
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&ch); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid channel payload")
			return
		}
		ch.ID = id
		if !h.engine.Channels().Update(ch) {
			jsonErr(w, http.StatusNotFound, "channel not found")
			return
		}
		updated, _ := h.engine.Channels().Get(id)
		jsonResp(w, http.StatusOK, updated)

	case http.MethodDelete:
		if !h.engine.Channels().Remove(id) {
			jsonErr(w, http.StatusNotFound, "channel not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// listAlerts returns GET /api/v1/alerts, filterable by ?status=, ?severity=,
// and ?rule=. Filters combine by intersection.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	out := h.engine.Alerts().All()
	if s := q.Get("status"); s != "" {
		out = filterAlerts(out, func(a alerts.Alert) bool { return a.Status == alerts.Status(s) })
	}
	if s := q.Get("severity"); s != "" {
		out = filterAlerts(out, func(a alerts.Alert) bool { return a.Severity == rules.Severity(s) })
	}
	if s := q.Get("rule"); s != "" {
		out = filterAlerts(out, func(a alerts.Alert) bool { return a.RuleID == s })
	}
	jsonResp(w, http.StatusOK, out)
}

// alertSubtree handles GET /api/v1/alerts/stats and
// POST /api/v1/alerts/{id}/{acknowledge|resolve|suppress}.
func (h *Handler) alertSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/alerts/")
	if rest == "" {
		h.listAlerts(w, r)
		return
	}
	if rest == "stats" {
		if r.Method != http.MethodGet {
			jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		jsonResp(w, http.StatusOK, h.engine.Alerts().Stats())
		return
	}

	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		a, ok := h.engine.Alerts().Get(id)
		if !ok {
			jsonErr(w, http.StatusNotFound, "alert not found")
			return
		}
		jsonResp(w, http.StatusOK, a)
		return
	}

	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req actionRequest
	// Body is optional; a missing actor is recorded as empty.
	_ = json.NewDecoder(r.Body).Decode(&req)

	var applied bool
	switch parts[1] {
	case "acknowledge":
		applied = h.engine.AcknowledgeAlert(id, req.By)
	case "resolve":
		applied = h.engine.ResolveAlert(id, req.By)
	case "suppress":
		applied = h.engine.SuppressAlert(id, req.By)
	default:
		jsonErr(w, http.StatusNotFound, "unknown alert action")
		return
	}

	a, ok := h.engine.Alerts().Get(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, "alert not found")
		return
	}
	code := http.StatusOK
	if !applied {
		// The alert exists but the transition was illegal from its state.
		code = http.StatusConflict
	}
	jsonResp(w, code, actionResponse{Applied: applied, Status: string(a.Status)})
}

func (h *Handler) exportConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	data, err := h.engine.ExportConfiguration()
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

func (h *Handler) importConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	body, err := readBody(r)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	if !h.engine.ImportConfiguration(body) {
		jsonErr(w, http.StatusBadRequest, "configuration rejected")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// evaluate triggers one synchronous evaluation pass, mainly for smoke tests
// and operators who don't want to wait out the tick interval.
func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.engine.EvaluateNow()
	w.WriteHeader(http.StatusNoContent)
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

func filterAlerts(in []alerts.Alert, keep func(alerts.Alert) bool) []alerts.Alert {
	out := make([]alerts.Alert, 0, len(in))
	for _, a := range in {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
