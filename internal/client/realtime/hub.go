package realtime

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/notekeeper/internal/logging"
)

type Handler func(ctx context.Context, ev Event)

// Bus is the view of the realtime connection the state holders depend on.
type Bus interface {
	On(name string, h Handler) *Subscription
	Emit(ctx context.Context, name string, p Payload) error
}

// Subscription detaches a handler registered with On.
type Subscription struct {
	hub    *Hub
	name   string
	active atomic.Bool
}

// Unsubscribe is idempotent. Once it returns the handler is not invoked
// again, even by a dispatch already in progress.
func (s *Subscription) Unsubscribe() {
	if s == nil || !s.active.CompareAndSwap(true, false) {
		return
	}
	s.hub.remove(s)
}

type entry struct {
	sub *Subscription
	h   Handler
}

// Hub fans inbound events out to handlers. Handlers for one event run
// sequentially in registration order on the dispatching goroutine.
type Hub struct {
	logger logging.Logger

	mu       sync.Mutex
	handlers map[string][]entry
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		logger:   logger,
		handlers: make(map[string][]entry),
	}
}

func (h *Hub) On(name string, fn Handler) *Subscription {
	sub := &Subscription{hub: h, name: name}
	sub.active.Store(true)

	h.mu.Lock()
	defer h.mu.Unlock()
	// copy on write: Dispatch iterates over a snapshot without the lock
	next := slices.Clone(h.handlers[name])
	h.handlers[name] = append(next, entry{sub: sub, h: fn})
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.handlers[sub.name]
	i := slices.IndexFunc(list, func(e entry) bool { return e.sub == sub })
	if i < 0 {
		return
	}
	next := slices.Delete(slices.Clone(list), i, i+1)
	if len(next) == 0 {
		delete(h.handlers, sub.name)
		return
	}
	h.handlers[sub.name] = next
}

// Dispatch delivers ev to its handlers. Events outside the inbound set are
// dropped.
func (h *Hub) Dispatch(ctx context.Context, ev Event) {
	if !IsInbound(ev.Name) {
		h.logger.Debug(ctx, "dropping unknown realtime event", "event", ev.Name)
		return
	}

	h.mu.Lock()
	list := h.handlers[ev.Name]
	h.mu.Unlock()

	for _, e := range list {
		if !e.sub.active.Load() {
			continue
		}
		e.h(ctx, ev)
	}
}

// Subscribers returns the number of live handlers for name.
func (h *Hub) Subscribers(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handlers[name])
}
