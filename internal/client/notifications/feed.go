// Package notifications keeps the in-memory list of things that happened to
// the user's notes while they were signed in.
package notifications

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/client/realtime"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/oklog/ulid/v2"
)

// Identity tells the feed who is signed in.
type Identity interface {
	UserID() string
}

type Option func(*Feed)

func WithClock(now func() time.Time) Option {
	return func(f *Feed) { f.now = now }
}

// Feed is append-only apart from explicit removal. The unread count is
// always derived from the entries.
type Feed struct {
	bus    realtime.Bus
	me     Identity
	logger logging.Logger
	now    func() time.Time

	mu        sync.Mutex
	entropy   io.Reader
	entries   []models.Notification
	subs      []*realtime.Subscription
	listeners []func()
}

func New(bus realtime.Bus, me Identity, logger logging.Logger, opts ...Option) *Feed {
	f := &Feed{
		bus:     bus,
		me:      me,
		logger:  logger,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

type rule struct {
	typ models.NotificationType
	// fromOthers drops events the signed-in user caused.
	fromOthers bool
	text       func(p realtime.Payload) string
}

var rules = map[string]rule{
	realtime.EventNewSharedNote: {models.NotificationShare, false, func(p realtime.Payload) string {
		return fmt.Sprintf("%s shared %q with you", p.Actor(), p.NoteTitle())
	}},
	realtime.EventYourShareRoleUpdated: {models.NotificationRole, false, func(p realtime.Payload) string {
		return fmt.Sprintf("Your access to %q changed to %s", p.NoteTitle(), p.Role)
	}},
	realtime.EventNoteUnshared: {models.NotificationUnshare, false, func(p realtime.Payload) string {
		return fmt.Sprintf("You no longer have access to %q", p.NoteTitle())
	}},
	realtime.EventNotifyNoteDeleted: {models.NotificationDelete, true, func(p realtime.Payload) string {
		return fmt.Sprintf("%s deleted %q", p.Actor(), p.NoteTitle())
	}},
	realtime.EventNotifyNoteArchivedUnarchived: {models.NotificationArchive, true, func(p realtime.Payload) string {
		if p.Archived != nil && !*p.Archived {
			return fmt.Sprintf("%q was restored from the archive", p.NoteTitle())
		}
		return fmt.Sprintf("%q was archived", p.NoteTitle())
	}},
	realtime.EventNotifyNoteUpdatedByOther: {models.NotificationEdit, true, func(p realtime.Payload) string {
		return fmt.Sprintf("%s edited %q", p.Actor(), p.NoteTitle())
	}},
	realtime.EventNoteEditFinishedByOtherUser: {models.NotificationEdit, true, func(p realtime.Payload) string {
		return fmt.Sprintf("%s finished editing %q", p.Actor(), p.NoteTitle())
	}},
	realtime.EventNoteSharingConfirmation: {models.NotificationInfo, false, func(p realtime.Payload) string {
		return fmt.Sprintf("%q was shared", p.NoteTitle())
	}},
}

// Subscribe attaches the realtime handlers.
func (f *Feed) Subscribe() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs != nil {
		return
	}
	for name, r := range rules {
		f.subs = append(f.subs, f.bus.On(name, func(ctx context.Context, ev realtime.Event) {
			f.handle(ctx, ev, r)
		}))
	}
}

func (f *Feed) Unsubscribe() {
	f.mu.Lock()
	subs := f.subs
	f.subs = nil
	f.mu.Unlock()
	for _, s := range subs {
		s.Unsubscribe()
	}
}

func (f *Feed) handle(ctx context.Context, ev realtime.Event, r rule) {
	p := ev.Payload
	if r.fromOthers && p.UserID != "" && p.UserID == f.me.UserID() {
		return
	}
	msg := p.Message
	if msg == "" {
		msg = r.text(p)
	}
	n := f.Push(r.typ, msg, p.TargetNoteID())
	f.logger.Debug(ctx, "notification added", "event", ev.Name, "id", n.ID)
}

// Push appends an unread entry and returns it.
func (f *Feed) Push(typ models.NotificationType, msg, noteID string) models.Notification {
	f.mu.Lock()
	t := f.now()
	n := models.Notification{
		ID:      ulid.MustNew(ulid.Timestamp(t), f.entropy).String(),
		Message: msg,
		Type:    typ,
		Time:    t,
		NoteID:  noteID,
	}
	f.entries = append(f.entries, n)
	f.mu.Unlock()

	f.changed()
	return n
}

// Entries returns the notifications, newest first.
func (f *Feed) Entries() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.entries)
	slices.Reverse(out)
	return out
}

func (f *Feed) Unread() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.entries {
		if !e.Read {
			n++
		}
	}
	return n
}

// MarkRead reports whether id was found.
func (f *Feed) MarkRead(id string) bool {
	return f.mutate(func() bool {
		i := f.index(id)
		if i < 0 {
			return false
		}
		f.entries[i].Read = true
		return true
	})
}

func (f *Feed) MarkAllRead() {
	f.mutate(func() bool {
		for i := range f.entries {
			f.entries[i].Read = true
		}
		return len(f.entries) > 0
	})
}

// Remove reports whether id was found.
func (f *Feed) Remove(id string) bool {
	return f.mutate(func() bool {
		i := f.index(id)
		if i < 0 {
			return false
		}
		f.entries = slices.Delete(f.entries, i, i+1)
		return true
	})
}

// Clear drops every entry. Called when the session ends.
func (f *Feed) Clear() {
	f.mutate(func() bool {
		had := len(f.entries) > 0
		f.entries = nil
		return had
	})
}

func (f *Feed) index(id string) int {
	return slices.IndexFunc(f.entries, func(n models.Notification) bool { return n.ID == id })
}

func (f *Feed) mutate(fn func() bool) bool {
	f.mu.Lock()
	ok := fn()
	f.mu.Unlock()
	if ok {
		f.changed()
	}
	return ok
}

func (f *Feed) OnChange(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

func (f *Feed) changed() {
	f.mu.Lock()
	ls := slices.Clone(f.listeners)
	f.mu.Unlock()
	for _, fn := range ls {
		fn()
	}
}
