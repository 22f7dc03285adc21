package alerts

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alertmesh/alertmesh/internal/rules"
)

// Status is the lifecycle state of an alert.
type Status string

const (
	StatusActive       Status = "active"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
	StatusSuppressed   Status = "suppressed"
)

// Alert is one rule-firing event tracked through its lifecycle. Metadata
// carries a snapshot of the rule, condition, and threshold at fire time so
// later rule edits do not rewrite alert history.
type Alert struct {
	ID          string         `json:"id"`
	RuleID      string         `json:"rule_id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Severity    rules.Severity `json:"severity"`
	Status      Status         `json:"status"`
	TriggeredAt time.Time      `json:"triggered_at"`

	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy     string     `json:"resolved_by,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
	Tags     []string       `json:"tags,omitempty"`
}

// Stats is the on-demand aggregate view of the store.
type Stats struct {
	Total      int                    `json:"total"`
	ByStatus   map[Status]int         `json:"by_status"`
	BySeverity map[rules.Severity]int `json:"by_severity"`
}

// Store retains all alerts ever created, in trigger order. The history is
// unbounded; callers that need retention should export and prune externally.
type Store struct {
	mu     sync.RWMutex
	alerts map[string]*Alert
	order  []string
	now    func() time.Time // injectable for deterministic tests
}

// NewStore creates an empty alert store.
func NewStore() *Store {
	return &Store{
		alerts: make(map[string]*Alert),
		now:    time.Now,
	}
}

// Append stores a newly triggered alert, assigning a fresh id when a.ID is
// empty, and returns the stored copy.
func (s *Store) Append(a Alert) Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = StatusActive
	}
	if a.TriggeredAt.IsZero() {
		a.TriggeredAt = s.now()
	}
	if _, exists := s.alerts[a.ID]; !exists {
		s.order = append(s.order, a.ID)
	}
	s.alerts[a.ID] = &a
	return a
}

// Acknowledge moves an active alert to acknowledged, recording who and when.
// Any other source state is a soft no-op returning false.
func (s *Store) Acknowledge(id, by string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok || a.Status != StatusActive {
		return false
	}
	t := s.now()
	a.Status = StatusAcknowledged
	a.AcknowledgedAt = &t
	a.AcknowledgedBy = by
	return true
}

// Resolve moves an active or acknowledged alert to resolved. Resolving an
// already-resolved or suppressed alert returns false and leaves ResolvedAt
// untouched.
func (s *Store) Resolve(id, by string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok || a.Status == StatusResolved || a.Status == StatusSuppressed {
		return false
	}
	t := s.now()
	a.Status = StatusResolved
	a.ResolvedAt = &t
	a.ResolvedBy = by
	return true
}

// Suppress moves an active alert to suppressed, a terminal state marking the
// alert as intentionally ignored. A duration > 0 is recorded in metadata so
// dashboards can display the intended suppression window.
func (s *Store) Suppress(id, by string, duration time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok || a.Status != StatusActive {
		return false
	}
	a.Status = StatusSuppressed
	// Copy-on-write: copies handed out by Get/All alias the stored metadata
	// map, so mutate a clone and swap it in rather than writing in place.
	meta := cloneMetadata(a.Metadata)
	meta["suppressed_by"] = by
	meta["suppressed_at"] = s.now().UTC().Format(time.RFC3339)
	if duration > 0 {
		meta["suppression_duration_minutes"] = int(duration.Minutes())
	}
	a.Metadata = meta
	return true
}

// Escalate raises the alert's severity. Legal only while the alert is active
// and the new severity actually ranks higher; at most one escalation is
// recorded per alert.
func (s *Store) Escalate(id string, to rules.Severity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok || a.Status != StatusActive || to.Rank() <= a.Severity.Rank() {
		return false
	}
	if a.Metadata != nil {
		if esc, _ := a.Metadata["escalated"].(bool); esc {
			return false
		}
	}
	// Same copy-on-write discipline as Suppress.
	meta := cloneMetadata(a.Metadata)
	meta["escalated"] = true
	meta["escalated_from"] = string(a.Severity)
	a.Metadata = meta
	a.Severity = to
	return true
}

// cloneMetadata returns a fresh map holding m's entries. Previously returned
// alert copies keep the old map, so in-place lifecycle updates never race
// with readers marshaling those copies.
func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Get returns a copy of the alert with the given id.
func (s *Store) Get(id string) (Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.alerts[id]
	if !ok {
		return Alert{}, false
	}
	return *a, true
}

// Active returns copies of all alerts still in the active state, in trigger order.
func (s *Store) Active() []Alert {
	return s.ByStatus(StatusActive)
}

// ByStatus returns copies of all alerts with the given status, in trigger order.
func (s *Store) ByStatus(status Status) []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Alert, 0)
	for _, id := range s.order {
		if a := s.alerts[id]; a.Status == status {
			out = append(out, *a)
		}
	}
	return out
}

// BySeverity returns copies of all alerts with the given severity, in trigger order.
func (s *Store) BySeverity(sev rules.Severity) []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Alert, 0)
	for _, id := range s.order {
		if a := s.alerts[id]; a.Severity == sev {
			out = append(out, *a)
		}
	}
	return out
}

// ByRule returns copies of all alerts created by the given rule, in trigger order.
func (s *Store) ByRule(ruleID string) []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Alert, 0)
	for _, id := range s.order {
		if a := s.alerts[id]; a.RuleID == ruleID {
			out = append(out, *a)
		}
	}
	return out
}

// All returns copies of every alert ever stored, in trigger order.
func (s *Store) All() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Alert, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.alerts[id])
	}
	return out
}

// Stats computes counts per status and per severity. Nothing is cached; the
// view is recomputed on every call.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		Total:      len(s.order),
		ByStatus:   make(map[Status]int),
		BySeverity: make(map[rules.Severity]int),
	}
	for _, a := range s.alerts {
		st.ByStatus[a.Status]++
		st.BySeverity[a.Severity]++
	}
	return st
}
