package ws

import (
	"sync"
	"testing"
	"time"

	"github.com/alertmesh/alertmesh/internal/alerts"
)

// A broadcast racing an unregister must never send on the freshly closed
// channel. Unbuffered send channels keep the clients permanently "slow" so
// both paths contend on every iteration.
func TestBroadcast_ConcurrentUnregisterDoesNotPanic(t *testing.T) {
	h := New(alerts.NewStore(), time.Minute)

	for i := 0; i < 200; i++ {
		c := &client{send: make(chan []byte)}
		h.register(c)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.broadcast()
		}()
		go func() {
			defer wg.Done()
			h.unregister(c)
		}()
		wg.Wait()
	}

	if got := h.Count(); got != 0 {
		t.Errorf("Count: got %d, want 0", got)
	}
}
