package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/alertmesh/alertmesh/internal/alerts"
	"github.com/alertmesh/alertmesh/internal/channels"
)

// Dispatcher delivers one alert to each of the channels its rule names.
// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	registry *channels.Registry
	senders  map[channels.Type]Sender
	now      func() time.Time // injectable for deterministic tests
}

// NewDispatcher creates a Dispatcher reading channel state from registry.
// A nil senders map falls back to DefaultSenders.
func NewDispatcher(registry *channels.Registry, senders map[channels.Type]Sender) *Dispatcher {
	if senders == nil {
		senders = DefaultSenders()
	}
	return &Dispatcher{
		registry: registry,
		senders:  senders,
		now:      time.Now,
	}
}

// Dispatch sends a to every channel in channelIDs. Missing, disabled, and
// rate-limited channels are skipped; a failed send is logged and does not
// affect the remaining channels. Successful sends update the channel's
// rate-limit bookkeeping.
func (d *Dispatcher) Dispatch(ctx context.Context, a alerts.Alert, channelIDs []string) {
	if len(channelIDs) == 0 {
		return
	}
	message := FormatMessage(a)
	now := d.now()

	for _, id := range channelIDs {
		ch, ok := d.registry.Get(id)
		if !ok || !ch.Enabled {
			slog.Debug("notify: channel unavailable, skipping",
				"channel", id, "alert", a.ID)
			continue
		}
		if d.registry.RateLimited(id, now) {
			slog.Warn("notify: channel rate-limited, dropping send",
				"channel", id, "type", ch.Type, "alert", a.ID)
			continue
		}
		sender, ok := d.senders[ch.Type]
		if !ok {
			slog.Warn("notify: unknown channel type, skipping",
				"channel", id, "type", ch.Type)
			continue
		}

		if err := sender.Send(ctx, ch, a, message); err != nil {
			slog.Error("notify: delivery failed",
				"channel", id, "type", ch.Type, "alert", a.ID, "err", err)
			continue
		}

		d.registry.MarkSent(id, now)
		slog.Debug("notify: delivered",
			"channel", id, "type", ch.Type, "alert", a.ID)
	}
}
