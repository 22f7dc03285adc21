package channels

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type identifies the delivery mechanism of a channel. The set is closed.
type Type string

const (
	TypeEmail   Type = "email"
	TypeSlack   Type = "slack"
	TypeWebhook Type = "webhook"
	TypeSMS     Type = "sms"
	TypePush    Type = "push"
)

// Channel is one notification destination. Config holds the type-specific
// delivery fields: webhook {url, headers?}, slack {webhook_url?, channel},
// email {email}, sms {phone}, push {device_token}.
type Channel struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Type    Type           `json:"type"`
	Config  map[string]any `json:"config,omitempty"`
	Enabled bool           `json:"enabled"`

	// RateLimitPerHour caps deliveries; excess sends are dropped, not
	// queued. Zero or negative means unlimited.
	RateLimitPerHour int `json:"rate_limit_per_hour"`

	// LastSentAt is maintained by the dispatcher; nil until the first send.
	LastSentAt *time.Time `json:"last_sent_at,omitempty"`
}

// Registry is a thread-safe in-memory store of notification channels.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]*Channel
	order    []string
}

// NewRegistry creates an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]*Channel)}
}

// Add stores ch, assigning a fresh id when ch.ID is empty, and returns the
// stored copy. An existing channel with the same id is replaced.
func (r *Registry) Add(ch Channel) Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch.ID == "" {
		ch.ID = uuid.New().String()
	}
	if _, exists := r.channels[ch.ID]; !exists {
		r.order = append(r.order, ch.ID)
	}
	r.channels[ch.ID] = &ch
	return ch
}

// Update replaces the channel with ch.ID. Returns false when unknown.
// A nil LastSentAt on the replacement keeps the stored send time so an
// operator edit cannot reset rate limiting.
func (r *Registry) Update(ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.channels[ch.ID]
	if !ok {
		return false
	}
	if ch.LastSentAt == nil {
		ch.LastSentAt = prev.LastSentAt
	}
	r.channels[ch.ID] = &ch
	return true
}

// Remove deletes the channel with the given id. Returns false when unknown.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channels[id]; !ok {
		return false
	}
	delete(r.channels, id)
	for i, cid := range r.order {
		if cid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a copy of the channel with the given id.
func (r *Registry) Get(id string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[id]
	if !ok {
		return Channel{}, false
	}
	return *ch, true
}

// List returns copies of all channels in insertion order.
func (r *Registry) List() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Channel, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.channels[id])
	}
	return out
}

// RateLimited reports whether the channel must skip a send at time at.
// A channel is rate-limited while less than one send interval
// (1 hour / RateLimitPerHour) has passed since its last send.
func (r *Registry) RateLimited(id string, at time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[id]
	if !ok || ch.RateLimitPerHour <= 0 || ch.LastSentAt == nil {
		return false
	}
	interval := time.Hour / time.Duration(ch.RateLimitPerHour)
	return at.Sub(*ch.LastSentAt) < interval
}

// MarkSent records a successful delivery time for the channel.
// Returns false when the channel is gone.
func (r *Registry) MarkSent(id string, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[id]
	if !ok {
		return false
	}
	t := at
	ch.LastSentAt = &t
	return true
}

// Len returns the number of channels held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
