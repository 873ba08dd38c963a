package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/notekeeper/internal/client/client"
	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/client/realtime"
	"github.com/dmitrijs2005/notekeeper/internal/client/ui"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
)

var ErrUnknownNote = errors.New("note is not on the dashboard")

// Identity tells the dashboard who is signed in.
type Identity interface {
	UserID() string
}

// listEvents imply that some collection may have changed.
var listEvents = []string{
	realtime.EventNotesListUpdated,
	realtime.EventNotesListGlobalUpdate,
	realtime.EventNotifyNoteDeleted,
	realtime.EventNotifyNoteArchivedUnarchived,
	realtime.EventNoteUnshared,
	realtime.EventYourShareRoleUpdated,
	realtime.EventNoteSharingSettingsChanged,
	realtime.EventNoteSharingConfirmation,
	realtime.EventNoteSharingUpdated,
	realtime.EventNoteUpdateSuccess,
	realtime.EventNotifyNoteUpdatedByOther,
	realtime.EventNoteDetailsUpdated,
}

type Dashboard struct {
	api      client.Client
	bus      realtime.Bus
	me       Identity
	toast    ui.Toaster
	logger   logging.Logger
	pageSize int

	fetching       atomic.Bool
	fetchingShared atomic.Bool
	kick           chan struct{}

	mu           sync.Mutex
	lists        map[Collection]*List
	tab          Collection
	query        string
	loaded       bool
	gen          uint64
	pending      []*op
	notesChanged uint64
	newShared    uint64
	subs         []*realtime.Subscription
	listeners    []func()
}

func New(api client.Client, bus realtime.Bus, me Identity, toast ui.Toaster, logger logging.Logger, pageSize int) *Dashboard {
	d := &Dashboard{
		api:      api,
		bus:      bus,
		me:       me,
		toast:    toast,
		logger:   logger,
		pageSize: pageSize,
		kick:     make(chan struct{}, 1),
		lists:    make(map[Collection]*List, len(Collections)),
		tab:      Mine,
	}
	for _, c := range Collections {
		d.lists[c] = newList()
	}
	return d
}

// Subscribe attaches the realtime handlers. Handlers only bump counters;
// Run performs the refetches.
func (d *Dashboard) Subscribe() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.subs != nil {
		return
	}
	for _, name := range listEvents {
		d.subs = append(d.subs, d.bus.On(name, func(ctx context.Context, ev realtime.Event) {
			d.bump(ctx, ev, false)
		}))
	}
	d.subs = append(d.subs, d.bus.On(realtime.EventNewSharedNote, func(ctx context.Context, ev realtime.Event) {
		d.bump(ctx, ev, true)
	}))
}

// Unsubscribe detaches the realtime handlers.
func (d *Dashboard) Unsubscribe() {
	d.mu.Lock()
	subs := d.subs
	d.subs = nil
	d.mu.Unlock()
	for _, s := range subs {
		s.Unsubscribe()
	}
}

func (d *Dashboard) bump(ctx context.Context, ev realtime.Event, shared bool) {
	d.mu.Lock()
	if shared {
		d.newShared++
	} else {
		d.notesChanged++
	}
	d.mu.Unlock()
	d.logger.Debug(ctx, "dashboard invalidated", "event", ev.Name, "note", ev.Payload.TargetNoteID())

	select {
	case d.kick <- struct{}{}:
	default:
	}
}

// Counters returns the notes-changed and new-shared counters.
func (d *Dashboard) Counters() (notesChanged, newShared uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notesChanged, d.newShared
}

// Run refetches whenever a counter moves, until ctx ends. A moved
// notes-changed counter refetches every collection; a moved new-shared
// counter refetches page 1 of the shared collection. Events that arrived
// before Run started are acted on once it does.
func (d *Dashboard) Run(ctx context.Context) error {
	var seenChanged, seenShared uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.kick:
		}

		changed, shared := d.Counters()
		if changed != seenChanged {
			seenChanged = changed
			d.Fetch(ctx)
		}
		if shared != seenShared {
			seenShared = shared
			d.FetchSharedFirstPage(ctx)
		}
	}
}

// OnChange registers fn to run after the collections change.
func (d *Dashboard) OnChange(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

func (d *Dashboard) changed() {
	d.mu.Lock()
	ls := slices.Clone(d.listeners)
	d.mu.Unlock()
	for _, fn := range ls {
		fn()
	}
}

// Loading reports whether a full fetch is in flight.
func (d *Dashboard) Loading() bool {
	return d.fetching.Load()
}

func (d *Dashboard) listQuery(c Collection) models.ListQuery {
	l := d.lists[c]
	return models.ListQuery{Page: l.Page, Limit: d.pageSize, SortBy: l.Sort.By, SortOrder: l.Sort.Order}
}

func (d *Dashboard) request(ctx context.Context, c Collection, q models.ListQuery) (*models.Page, error) {
	switch c {
	case Mine:
		return d.api.MyNotes(ctx, q)
	case Shared:
		return d.api.SharedWithMe(ctx, q)
	default:
		return d.api.Archived(ctx, q)
	}
}

// Fetch loads all three collections concurrently. It returns false without
// doing anything when another fetch is in flight.
func (d *Dashboard) Fetch(ctx context.Context) bool {
	if !d.fetching.CompareAndSwap(false, true) {
		d.logger.Debug(ctx, "dashboard fetch skipped, one already in flight")
		return false
	}
	defer d.fetching.Store(false)

	d.mu.Lock()
	fetchGen := d.gen
	initial := !d.loaded
	tab := d.tab
	queries := make(map[Collection]models.ListQuery, len(Collections))
	for _, c := range Collections {
		queries[c] = d.listQuery(c)
	}
	d.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range Collections {
		wg.Add(1)
		go func(c Collection) {
			defer wg.Done()
			page, err := d.request(ctx, c, queries[c])
			d.applyPage(ctx, c, queries[c], page, err, fetchGen, initial || tab == c)
		}(c)
	}
	wg.Wait()

	d.mu.Lock()
	d.loaded = true
	d.prune(fetchGen)
	d.mu.Unlock()

	d.changed()
	return true
}

// FetchSharedFirstPage reloads page 1 of the shared collection.
func (d *Dashboard) FetchSharedFirstPage(ctx context.Context) bool {
	if !d.fetchingShared.CompareAndSwap(false, true) {
		return false
	}
	defer d.fetchingShared.Store(false)

	d.mu.Lock()
	d.lists[Shared].Page = 1
	q := d.listQuery(Shared)
	fetchGen := d.gen
	d.mu.Unlock()

	page, err := d.request(ctx, Shared, q)
	d.applyPage(ctx, Shared, q, page, err, fetchGen, true)
	d.changed()
	return true
}

// applyPage stores a fetch result. loud decides whether an archived
// collection failure is toasted; failures of the other collections always
// are.
func (d *Dashboard) applyPage(ctx context.Context, c Collection, q models.ListQuery, page *models.Page, err error, fetchGen uint64, loud bool) {
	if err != nil {
		d.mu.Lock()
		l := d.lists[c]
		l.Notes = nil
		l.Page = 1
		l.TotalPages = 0
		l.Total = 0
		d.mu.Unlock()

		d.logger.Warn(ctx, "dashboard fetch failed", "collection", c, "error", err)
		if c != Archived || loud {
			d.toast.Toast(ui.LevelError, client.UserMessage(err, "Failed to load "+c.label()))
		}
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	l := d.lists[c]
	l.Notes = slices.Clone(page.Notes)
	l.Page = page.Page
	if l.Page <= 0 {
		l.Page = q.Page
	}
	l.TotalPages = page.TotalPages
	l.Total = page.Total

	uid := d.me.UserID()
	for _, o := range d.pending {
		if o.stale(fetchGen) {
			o.apply(d.lists, uid)
		}
	}
}

// prune drops operations a fetch issued at fetchGen already reflects.
// Caller holds d.mu.
func (d *Dashboard) prune(fetchGen uint64) {
	d.pending = slices.DeleteFunc(d.pending, func(o *op) bool { return !o.stale(fetchGen) })
}

// View returns a copy of collection c with the client-side filter and the
// title query applied.
func (d *Dashboard) View(c Collection) List {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := d.lists[c].clone()
	uid := d.me.UserID()
	q := strings.TrimSpace(d.query)
	out.Notes = slices.DeleteFunc(out.Notes, func(n models.Note) bool { return !visible(c, n, uid, q) })
	return out
}

func (d *Dashboard) Tab() Collection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tab
}

func (d *Dashboard) SetTab(c Collection) error {
	if !c.Valid() {
		return fmt.Errorf("unknown collection %q", c)
	}
	d.mu.Lock()
	d.tab = c
	d.mu.Unlock()
	d.changed()
	return nil
}

func (d *Dashboard) Query() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.query
}

// SetQuery sets the title filter. It never triggers a fetch.
func (d *Dashboard) SetQuery(q string) {
	d.mu.Lock()
	d.query = q
	d.mu.Unlock()
	d.changed()
}

// SetPage moves collection c to page and refetches. It reports whether a
// fetch ran.
func (d *Dashboard) SetPage(ctx context.Context, c Collection, page int) (bool, error) {
	if !c.Valid() {
		return false, fmt.Errorf("unknown collection %q", c)
	}
	d.mu.Lock()
	l := d.lists[c]
	if page < 1 {
		page = 1
	}
	if l.TotalPages > 0 && page > l.TotalPages {
		page = l.TotalPages
	}
	if page == l.Page {
		d.mu.Unlock()
		return false, nil
	}
	l.Page = page
	d.mu.Unlock()

	return d.Fetch(ctx), nil
}

// SetSort changes the order of collection c, goes back to page 1 and
// refetches.
func (d *Dashboard) SetSort(ctx context.Context, c Collection, s Sort) (bool, error) {
	if !c.Valid() {
		return false, fmt.Errorf("unknown collection %q", c)
	}
	if s.Order != models.SortAsc && s.Order != models.SortDesc {
		return false, fmt.Errorf("unknown sort order %q", s.Order)
	}
	d.mu.Lock()
	l := d.lists[c]
	if l.Sort == s {
		d.mu.Unlock()
		return false, nil
	}
	l.Sort = s
	l.Page = 1
	d.mu.Unlock()

	return d.Fetch(ctx), nil
}

// Find returns the note id from whichever collection holds it.
func (d *Dashboard) Find(id string) (models.Note, Collection, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.find(id, Collections...)
}

func (d *Dashboard) find(id string, in ...Collection) (models.Note, Collection, bool) {
	for _, c := range in {
		l := d.lists[c]
		if i := l.index(id); i >= 0 {
			return l.Notes[i].Clone(), c, true
		}
	}
	return models.Note{}, "", false
}

// Search queries the server; it does not touch the collections.
func (d *Dashboard) Search(ctx context.Context, q string) ([]models.Note, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	notes, err := d.api.Search(ctx, q)
	if err != nil {
		d.toast.Toast(ui.LevelError, client.UserMessage(err, "Search failed"))
		return nil, fmt.Errorf("search: %w", err)
	}
	return notes, nil
}
