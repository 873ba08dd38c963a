package editor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/client/client"
	"github.com/dmitrijs2005/notekeeper/internal/client/debounce"
	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/client/realtime"
	"github.com/dmitrijs2005/notekeeper/internal/client/richtext"
	"github.com/dmitrijs2005/notekeeper/internal/client/ui"
	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
)

var (
	ErrReadOnly    = errors.New("note is read-only")
	ErrClosed      = errors.New("editor is closed")
	ErrNotLoaded   = errors.New("note is not loaded")
	ErrNotOwner    = errors.New("only the owner can manage sharing")
	ErrAlreadyOpen = errors.New("editor already opened")
)

type State string

const (
	StateLoading  State = "loading"
	StateNew      State = "new-unsaved"
	StateClean    State = "editable-clean"
	StateDirty    State = "editable-dirty"
	StateSaving   State = "saving"
	StateReadOnly State = "read-only"
	StateError    State = "error"
)

// Identity tells the editor who is signed in.
type Identity interface {
	UserID() string
}

type Editor struct {
	api    client.Client
	bus    realtime.Bus
	me     Identity
	nav    ui.Navigator
	toast  ui.Toaster
	logger logging.Logger
	timer  *debounce.Timer

	mu sync.Mutex
	// ctx is the Open context without its cancellation; autosaves run on it.
	ctx    context.Context
	opened bool
	closed bool
	loaded bool
	failed bool

	id      string
	note    models.Note
	title   string
	content string
	sel     richtext.Selection

	baseTitle   string
	baseContent string

	saving    bool
	resave    bool
	saveErr   bool
	forbidden bool
	epoch     uint64
	revision  uint64

	roToasted bool
	started   bool
	touched   bool

	subs      []*realtime.Subscription
	listeners []func()
}

// New returns an editor that autosaves once edits have been quiet for
// autosaveDelay.
func New(api client.Client, bus realtime.Bus, me Identity, nav ui.Navigator, toast ui.Toaster, logger logging.Logger, autosaveDelay time.Duration) *Editor {
	e := &Editor{
		api:    api,
		bus:    bus,
		me:     me,
		nav:    nav,
		toast:  toast,
		logger: logger,
		ctx:    context.Background(),
	}
	e.timer = debounce.New(autosaveDelay, e.autosave)
	return e
}

// Snapshot is a consistent copy of the editor's state.
type Snapshot struct {
	ID        string
	State     State
	Title     string
	Content   string
	Selection richtext.Selection
	Dirty     bool
	ReadOnly  bool
	Owner     bool
	Archived  bool
	Creator   models.Ref
	Shares    []models.Share
	UpdatedAt time.Time
	// Revision increases each time the content is replaced by someone
	// else's edit, telling the front end to redraw it wholesale.
	Revision uint64
}

func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	uid := e.me.UserID()
	return Snapshot{
		ID:        e.id,
		State:     e.stateLocked(),
		Title:     e.title,
		Content:   e.content,
		Selection: e.sel,
		Dirty:     e.dirtyLocked(),
		ReadOnly:  e.readOnlyLocked(),
		Owner:     e.id == "" || e.note.IsOwnedBy(uid),
		Archived:  e.note.Archived,
		Creator:   e.note.Creator,
		Shares:    slices.Clone(e.note.Shares),
		UpdatedAt: e.note.UpdatedAt,
		Revision:  e.revision,
	}
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Editor) stateLocked() State {
	switch {
	case !e.loaded && e.failed:
		return StateError
	case !e.loaded:
		return StateLoading
	case e.readOnlyLocked():
		return StateReadOnly
	case e.saving:
		return StateSaving
	case e.saveErr:
		return StateError
	case e.id == "":
		return StateNew
	case e.dirtyLocked():
		return StateDirty
	default:
		return StateClean
	}
}

func (e *Editor) dirtyLocked() bool {
	return e.title != e.baseTitle || e.content != e.baseContent
}

// readOnlyLocked is true for archived notes, notes the user may only read,
// and after the server refused a save.
func (e *Editor) readOnlyLocked() bool {
	if e.id == "" {
		return false
	}
	return e.forbidden || e.note.Archived || !e.note.CanEdit(e.me.UserID())
}

// permissionChangedLocked starts a new read-only episode when the note
// becomes writable again, and stops a pending autosave when it does not.
func (e *Editor) permissionChangedLocked() {
	if e.readOnlyLocked() {
		e.timer.Cancel()
		return
	}
	e.roToasted = false
	e.scheduleLocked()
}

// OnChange registers fn to run after any state change.
func (e *Editor) OnChange(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

func (e *Editor) changed() {
	e.mu.Lock()
	ls := slices.Clone(e.listeners)
	e.mu.Unlock()
	for _, fn := range ls {
		fn()
	}
}

// Open loads note id. An empty id or common.NewNoteID starts a new note
// without a request. A missing or forbidden note sends the user back to the
// dashboard; any other failure leaves the editor in StateError.
func (e *Editor) Open(ctx context.Context, id string) error {
	e.mu.Lock()
	if e.opened {
		e.mu.Unlock()
		return ErrAlreadyOpen
	}
	e.opened = true
	e.ctx = context.WithoutCancel(ctx)

	if id == "" || id == common.NewNoteID {
		e.loaded = true
		e.note = models.Note{Creator: models.RefID(e.me.UserID())}
		e.mu.Unlock()
		e.subscribe()
		e.changed()
		return nil
	}
	e.id = id
	e.mu.Unlock()

	e.subscribe()

	n, err := e.api.GetNote(ctx, id)
	if err != nil {
		e.logger.Warn(ctx, "open note failed", "note", id, "error", err)
		switch {
		case errors.Is(err, client.ErrNotFound):
			e.leave(ui.LevelError, client.UserMessage(err, "Note not found"))
		case errors.Is(err, client.ErrForbidden):
			e.leave(ui.LevelError, client.UserMessage(err, "You do not have access to this note"))
		default:
			e.mu.Lock()
			e.failed = true
			e.mu.Unlock()
			e.toast.Toast(ui.LevelError, client.UserMessage(err, "Failed to load note"))
			e.changed()
		}
		return fmt.Errorf("open note %s: %w", id, err)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.loaded = true
	e.note = n.Clone()
	e.title, e.content = n.Title, n.Content
	e.baseTitle, e.baseContent = n.Title, n.Content
	e.mu.Unlock()

	e.changed()
	return nil
}

// Close stops the autosave timer and the realtime handlers, then announces
// the end of the session. userFinishedEditingNote carries the local values
// and is only sent if the user changed something. Completions of requests
// still in flight are ignored afterwards.
func (e *Editor) Close(ctx context.Context) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	subs := e.subs
	e.subs = nil
	id, title, content := e.id, e.title, e.content
	started, touched := e.started, e.touched
	e.mu.Unlock()

	e.timer.Cancel()
	for _, s := range subs {
		s.Unsubscribe()
	}

	uid := e.me.UserID()
	if started {
		e.emit(ctx, realtime.EventUserStoppedEditingNote, realtime.Payload{NoteID: id, UserID: uid})
	}
	if touched && id != "" {
		e.emit(ctx, realtime.EventUserFinishedEditingNote, realtime.Payload{
			NoteID:  id,
			UserID:  uid,
			Title:   title,
			Content: content,
		})
	}
}

// leave shuts the editor down without announcing anything and returns to
// the dashboard.
func (e *Editor) leave(level ui.Level, msg string) {
	e.mu.Lock()
	already := e.closed
	e.closed = true
	subs := e.subs
	e.subs = nil
	e.mu.Unlock()

	e.timer.Cancel()
	for _, s := range subs {
		s.Unsubscribe()
	}
	if already {
		return
	}
	e.toast.Toast(level, msg)
	e.nav.Navigate(common.RouteDashboard)
	e.changed()
}

// Closed reports whether Close ran or the editor left the note on its own.
func (e *Editor) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Editor) emit(ctx context.Context, name string, p realtime.Payload) {
	if err := e.bus.Emit(ctx, name, p); err != nil {
		e.logger.Debug(ctx, "realtime event not sent", "event", name, "note", p.NoteID, "error", err)
	}
}
