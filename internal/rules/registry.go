package rules

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry is a thread-safe in-memory store of alert rules, preserving
// insertion order so the evaluator visits rules in a stable sequence.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]*AlertRule
	order []string
}

// NewRegistry creates an empty rule registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]*AlertRule)}
}

// Add stores rule, assigning a fresh id when rule.ID is empty, and returns
// the stored copy. An existing rule with the same id is replaced in place.
func (r *Registry) Add(rule AlertRule) AlertRule {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.CooldownMinutes < 0 {
		rule.CooldownMinutes = 0
	}
	if _, exists := r.rules[rule.ID]; !exists {
		r.order = append(r.order, rule.ID)
	}
	r.rules[rule.ID] = &rule
	return rule
}

// Update replaces the rule with rule.ID. Returns false when no rule with
// that id exists. The stored LastTriggeredAt is preserved when the
// replacement leaves it nil, so a UI edit does not reset cooldown state.
func (r *Registry) Update(rule AlertRule) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.rules[rule.ID]
	if !ok {
		return false
	}
	if rule.CooldownMinutes < 0 {
		rule.CooldownMinutes = 0
	}
	if rule.LastTriggeredAt == nil {
		rule.LastTriggeredAt = prev.LastTriggeredAt
	}
	r.rules[rule.ID] = &rule
	return true
}

// Remove deletes the rule with the given id. Returns false when unknown.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[id]; !ok {
		return false
	}
	delete(r.rules, id)
	for i, rid := range r.order {
		if rid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a copy of the rule with the given id.
func (r *Registry) Get(id string) (AlertRule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	if !ok {
		return AlertRule{}, false
	}
	return *rule, true
}

// List returns copies of all rules in insertion order.
func (r *Registry) List() []AlertRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AlertRule, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.rules[id])
	}
	return out
}

// Enabled returns copies of all enabled rules in insertion order.
func (r *Registry) Enabled() []AlertRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AlertRule, 0, len(r.order))
	for _, id := range r.order {
		if rule := r.rules[id]; rule.Enabled {
			out = append(out, *rule)
		}
	}
	return out
}

// MarkTriggered records a fire time on the rule. This is the evaluator's
// only write into the registry. Returns false when the rule is gone, which
// can happen when an operator removes it mid-tick.
func (r *Registry) MarkTriggered(id string, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return false
	}
	t := at
	rule.LastTriggeredAt = &t
	return true
}

// Len returns the number of rules held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}
