// Package realtimetest provides an in-process realtime.Bus for tests.
package realtimetest

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/notekeeper/internal/client/realtime"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
)

// Bus delivers events synchronously through a real realtime.Hub and records
// everything emitted. It also stands in for the connection lifecycle.
type Bus struct {
	*realtime.Hub

	mu        sync.Mutex
	emitted   []realtime.Event
	connected bool
	token     string
	userID    string
}

// New returns a disconnected bus; call Connect before expecting emits.
func New() *Bus {
	return &Bus{Hub: realtime.NewHub(logging.Discard())}
}

// Emit records the event. Like the real client it refuses to send while
// disconnected, and such events are not recorded.
func (b *Bus) Emit(_ context.Context, name string, p realtime.Payload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return realtime.ErrNotConnected
	}
	b.emitted = append(b.emitted, realtime.Event{Name: name, Payload: p})
	return nil
}

// Deliver dispatches an inbound event to the subscribers.
func (b *Bus) Deliver(name string, p realtime.Payload) {
	b.Dispatch(context.Background(), realtime.Event{Name: name, Payload: p})
}

// Emitted returns the recorded events named name, or all when name is "".
func (b *Bus) Emitted(name string) []realtime.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []realtime.Event
	for _, e := range b.emitted {
		if name == "" || e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (b *Bus) Connect(token, userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected, b.token, b.userID = true, token, userID
}

func (b *Bus) Disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected, b.token, b.userID = false, "", ""
}

// Connection reports the current connect state and its parameters.
func (b *Bus) Connection() (connected bool, token, userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected, b.token, b.userID
}
