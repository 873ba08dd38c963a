package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/client/client"
	"github.com/dmitrijs2005/notekeeper/internal/client/client/clienttest"
	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/client/realtime"
	"github.com/dmitrijs2005/notekeeper/internal/client/realtime/realtimetest"
	"github.com/dmitrijs2005/notekeeper/internal/client/ui"
	"github.com/dmitrijs2005/notekeeper/internal/client/ui/uitest"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const me = "u1"

type staticUser string

func (s staticUser) UserID() string { return string(s) }

func own(id, title string) models.Note {
	return models.Note{ID: id, Title: title, Creator: models.RefID(me)}
}

func sharedNote(id, title string) models.Note {
	return models.Note{
		ID:      id,
		Title:   title,
		Creator: models.RefUser(models.User{ID: "u2", Username: "bob"}),
		Shares:  []models.Share{{User: models.RefID(me), Role: models.RoleRead}},
	}
}

func archived(n models.Note) models.Note {
	n.Archived = true
	return n
}

func pageOf(notes ...models.Note) *models.Page {
	return &models.Page{Notes: notes, Page: 1, TotalPages: 1, Total: len(notes)}
}

// backend serves the three collections from fixed pages.
type backend struct {
	mu       sync.Mutex
	mine     *models.Page
	shared   *models.Page
	archived *models.Page
}

func (b *backend) set(c Collection, p *models.Page) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch c {
	case Mine:
		b.mine = p
	case Shared:
		b.shared = p
	default:
		b.archived = p
	}
}

func (b *backend) get(c Collection) *models.Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	var p *models.Page
	switch c {
	case Mine:
		p = b.mine
	case Shared:
		p = b.shared
	default:
		p = b.archived
	}
	cp := *p
	cp.Notes = append([]models.Note(nil), p.Notes...)
	return &cp
}

type fixture struct {
	api *clienttest.Fake
	be  *backend
	bus *realtimetest.Bus
	rec *uitest.Recorder
	d   *Dashboard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		api: &clienttest.Fake{},
		be: &backend{
			mine:     pageOf(own("n1", "Alpha"), own("n2", "Beta")),
			shared:   pageOf(sharedNote("s1", "Shared one")),
			archived: pageOf(archived(own("a1", "Old"))),
		},
		bus: realtimetest.New(),
		rec: &uitest.Recorder{},
	}
	f.api.MyNotesFunc = func(context.Context, models.ListQuery) (*models.Page, error) { return f.be.get(Mine), nil }
	f.api.SharedWithMeFunc = func(context.Context, models.ListQuery) (*models.Page, error) { return f.be.get(Shared), nil }
	f.api.ArchivedFunc = func(context.Context, models.ListQuery) (*models.Page, error) { return f.be.get(Archived), nil }
	f.bus.Connect("tok", me)
	f.d = New(f.api, f.bus, staticUser(me), f.rec, logging.Discard(), 10)
	return f
}

func ids(l List) []string {
	out := []string{}
	for _, n := range l.Notes {
		out = append(out, n.ID)
	}
	return out
}

func TestFetch_LoadsAllCollectionsConcurrently(t *testing.T) {
	f := newFixture(t)

	var arrived sync.WaitGroup
	arrived.Add(3)
	all := make(chan struct{})
	go func() { arrived.Wait(); close(all) }()
	barrier := func(c Collection) func(context.Context, models.ListQuery) (*models.Page, error) {
		return func(context.Context, models.ListQuery) (*models.Page, error) {
			arrived.Done()
			select {
			case <-all:
			case <-time.After(2 * time.Second):
				return nil, errors.New("requests were not concurrent")
			}
			return f.be.get(c), nil
		}
	}
	f.api.MyNotesFunc = barrier(Mine)
	f.api.SharedWithMeFunc = barrier(Shared)
	f.api.ArchivedFunc = barrier(Archived)

	require.True(t, f.d.Fetch(context.Background()))

	assert.Equal(t, []string{"n1", "n2"}, ids(f.d.View(Mine)))
	assert.Equal(t, []string{"s1"}, ids(f.d.View(Shared)))
	assert.Equal(t, []string{"a1"}, ids(f.d.View(Archived)))
	assert.Empty(t, f.rec.Toasts())

	q := f.api.Calls("MyNotes")[0].Input.(models.ListQuery)
	assert.Equal(t, models.ListQuery{Page: 1, Limit: 10, SortBy: "updatedAt", SortOrder: models.SortDesc}, q)
}

func TestFetch_PartialFailureIsolated(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.d.Fetch(context.Background()))

	require.NoError(t, f.d.SetTab(Shared))
	f.api.SharedWithMeFunc = func(context.Context, models.ListQuery) (*models.Page, error) {
		return nil, &client.APIError{Status: 500}
	}
	f.d.mu.Lock()
	f.d.lists[Shared].Page = 3
	f.d.mu.Unlock()

	require.True(t, f.d.Fetch(context.Background()))

	shared := f.d.View(Shared)
	assert.Empty(t, shared.Notes)
	assert.Equal(t, 1, shared.Page)
	assert.Equal(t, 0, shared.Total)
	assert.Equal(t, []string{"n1", "n2"}, ids(f.d.View(Mine)))
	assert.Equal(t, []string{"Failed to load shared notes"}, f.rec.Messages(ui.LevelError))
}

func TestFetch_ArchivedFailureToastRules(t *testing.T) {
	f := newFixture(t)
	f.api.ArchivedFunc = func(context.Context, models.ListQuery) (*models.Page, error) {
		return nil, client.ErrUnavailable
	}

	// первичная загрузка: тост есть
	require.True(t, f.d.Fetch(context.Background()))
	require.Len(t, f.rec.Messages(ui.LevelError), 1)

	// не активная вкладка: только лог
	require.True(t, f.d.Fetch(context.Background()))
	require.Len(t, f.rec.Messages(ui.LevelError), 1)

	// активная вкладка: тост
	require.NoError(t, f.d.SetTab(Archived))
	require.True(t, f.d.Fetch(context.Background()))
	require.Len(t, f.rec.Messages(ui.LevelError), 2)
}

func TestFetch_ConcurrentCallIsSkipped(t *testing.T) {
	f := newFixture(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.MyNotesFunc = func(context.Context, models.ListQuery) (*models.Page, error) {
		close(entered)
		<-release
		return f.be.get(Mine), nil
	}

	done := make(chan bool)
	go func() { done <- f.d.Fetch(context.Background()) }()
	<-entered

	require.True(t, f.d.Loading())
	require.False(t, f.d.Fetch(context.Background()))
	close(release)
	require.True(t, <-done)

	assert.Equal(t, 1, f.api.Count("MyNotes"))
	assert.Equal(t, 1, f.api.Count("SharedWithMe"))
	assert.Equal(t, 1, f.api.Count("Archived"))
	assert.False(t, f.d.Loading())
}

func TestArchive_OptimisticThenConfirmed(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.d.Fetch(context.Background()))

	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.ArchiveNoteFunc = func(_ context.Context, id string) (*models.Note, error) {
		close(entered)
		<-release
		n := archived(own(id, "Alpha"))
		return &n, nil
	}

	errc := make(chan error)
	go func() { errc <- f.d.Archive(context.Background(), "n1") }()
	<-entered

	// до ответа сервера
	mine := f.d.View(Mine)
	assert.Equal(t, []string{"n2"}, ids(mine))
	assert.Equal(t, 1, mine.Total)
	arch := f.d.View(Archived)
	assert.Equal(t, []string{"a1", "n1"}, ids(arch))
	assert.Equal(t, 2, arch.Total)

	close(release)
	require.NoError(t, <-errc)
	assert.Equal(t, []string{"n2"}, ids(f.d.View(Mine)))
	assert.Equal(t, []string{"Note archived"}, f.rec.Messages(ui.LevelSuccess))
}

func TestArchive_FailureRollsBack(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.d.Fetch(context.Background()))
	f.api.ArchiveNoteFunc = func(context.Context, string) (*models.Note, error) {
		return nil, &client.APIError{Status: 403, Message: "Only the owner can archive"}
	}

	err := f.d.Archive(context.Background(), "n1")
	require.ErrorIs(t, err, client.ErrForbidden)

	mine := f.d.View(Mine)
	assert.Equal(t, []string{"n1", "n2"}, ids(mine))
	assert.Equal(t, 2, mine.Total)
	assert.Equal(t, []string{"a1"}, ids(f.d.View(Archived)))
	assert.Equal(t, []string{"Only the owner can archive"}, f.rec.Messages(ui.LevelError))
}

func TestUnarchive_MovesBack(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.d.Fetch(context.Background()))
	f.api.UnarchiveNoteFunc = func(_ context.Context, id string) (*models.Note, error) {
		n := own(id, "Old")
		return &n, nil
	}

	require.NoError(t, f.d.Unarchive(context.Background(), "a1"))
	assert.Equal(t, []string{"n1", "n2", "a1"}, ids(f.d.View(Mine)))
	assert.Empty(t, ids(f.d.View(Archived)))
}

func TestMutation_UnknownNote(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.d.Archive(context.Background(), "nope"), ErrUnknownNote)
	require.ErrorIs(t, f.d.Unarchive(context.Background(), "n1"), ErrUnknownNote)
	assert.Zero(t, f.api.Count("ArchiveNote"))
}

func TestStaleRefetchDoesNotResurrect(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.d.Fetch(context.Background()))

	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.ArchiveNoteFunc = func(_ context.Context, id string) (*models.Note, error) {
		close(entered)
		<-release
		return &models.Note{ID: id}, nil
	}
	errc := make(chan error)
	go func() { errc <- f.d.Archive(context.Background(), "n1") }()
	<-entered

	// сервер ещё не применил архивацию: refetch возвращает старые данные
	require.True(t, f.d.Fetch(context.Background()))
	assert.Equal(t, []string{"n2"}, ids(f.d.View(Mine)))
	assert.Contains(t, ids(f.d.View(Archived)), "n1")

	close(release)
	require.NoError(t, <-errc)

	// операция живёт до первого fetch, запрошенного после подтверждения
	f.d.mu.Lock()
	require.Len(t, f.d.pending, 1)
	f.d.mu.Unlock()

	// сервер отражает изменение; свежий fetch снимает операцию
	f.be.set(Mine, pageOf(own("n2", "Beta")))
	f.be.set(Archived, pageOf(archived(own("a1", "Old")), archived(own("n1", "Alpha"))))
	require.True(t, f.d.Fetch(context.Background()))
	assert.Equal(t, []string{"n2"}, ids(f.d.View(Mine)))
	assert.Equal(t, []string{"a1", "n1"}, ids(f.d.View(Archived)))
	f.d.mu.Lock()
	assert.Empty(t, f.d.pending)
	f.d.mu.Unlock()
}

func TestDelete_EmitsNoteDeletedOnSuccessOnly(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.d.Fetch(context.Background()))

	f.api.DeleteNoteFunc = func(context.Context, string) error { return client.ErrUnavailable }
	require.Error(t, f.d.Delete(context.Background(), "n2"))
	assert.Equal(t, []string{"n1", "n2"}, ids(f.d.View(Mine)))
	assert.Empty(t, f.bus.Emitted(realtime.EventNoteDeleted))

	f.api.DeleteNoteFunc = func(context.Context, string) error { return nil }
	require.NoError(t, f.d.Delete(context.Background(), "n2"))
	assert.Equal(t, []string{"n1"}, ids(f.d.View(Mine)))
	ev := f.bus.Emitted(realtime.EventNoteDeleted)
	require.Len(t, ev, 1)
	assert.Equal(t, "n2", ev[0].Payload.NoteID)
	assert.Equal(t, "Beta", ev[0].Payload.Title)
}

func TestSetSort_ResetsPageAndFetches(t *testing.T) {
	f := newFixture(t)
	f.be.set(Mine, &models.Page{Notes: []models.Note{own("n1", "Alpha")}, Page: 2, TotalPages: 3, Total: 21})
	require.True(t, f.d.Fetch(context.Background()))
	require.Equal(t, 2, f.d.View(Mine).Page)

	ran, err := f.d.SetSort(context.Background(), Mine, Sort{By: "title", Order: models.SortAsc})
	require.NoError(t, err)
	require.True(t, ran)

	calls := f.api.Calls("MyNotes")
	last := calls[len(calls)-1].Input.(models.ListQuery)
	assert.Equal(t, 1, last.Page)
	assert.Equal(t, "title", last.SortBy)
	assert.Equal(t, models.SortAsc, last.SortOrder)

	_, err = f.d.SetSort(context.Background(), Mine, Sort{By: "title", Order: "sideways"})
	require.Error(t, err)
}

func TestSetPage_ClampsAndFetches(t *testing.T) {
	f := newFixture(t)
	f.be.set(Mine, &models.Page{Notes: []models.Note{own("n1", "Alpha")}, Page: 1, TotalPages: 3, Total: 21})
	require.True(t, f.d.Fetch(context.Background()))

	ran, err := f.d.SetPage(context.Background(), Mine, 9)
	require.NoError(t, err)
	require.True(t, ran)
	calls := f.api.Calls("MyNotes")
	assert.Equal(t, 3, calls[len(calls)-1].Input.(models.ListQuery).Page)

	ran, err = f.d.SetPage(context.Background(), Collection("bogus"), 1)
	require.Error(t, err)
	require.False(t, ran)
}

func TestView_ClientSideFilter(t *testing.T) {
	f := newFixture(t)
	stranger := models.Note{ID: "x1", Title: "Alien", Creator: models.RefID("u9")}
	f.be.set(Mine, &models.Page{
		Notes:      []models.Note{own("n1", "Alpha"), archived(own("n3", "Gone")), stranger, own("n2", "alphabet")},
		Page:       1,
		TotalPages: 2,
		Total:      14,
	})
	f.be.set(Shared, pageOf(sharedNote("s1", "Shared one"), own("n4", "Mine really")))
	require.True(t, f.d.Fetch(context.Background()))

	mine := f.d.View(Mine)
	assert.Equal(t, []string{"n1", "n2"}, ids(mine))
	assert.Equal(t, 14, mine.Total)
	assert.Equal(t, 2, mine.TotalPages)
	assert.Equal(t, []string{"s1"}, ids(f.d.View(Shared)))

	f.d.SetQuery("ALPHA")
	assert.Equal(t, []string{"n1", "n2"}, ids(f.d.View(Mine)))
	f.d.SetQuery("bet")
	assert.Equal(t, []string{"n2"}, ids(f.d.View(Mine)))
	assert.Equal(t, 1, f.api.Count("MyNotes"), "query changes must not fetch")
}

func TestRun_RefetchesOnCounters(t *testing.T) {
	f := newFixture(t)
	f.d.Subscribe()
	defer f.d.Unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = f.d.Run(ctx) }()

	f.bus.Deliver(realtime.EventNotifyNoteArchivedUnarchived, realtime.Payload{NoteID: "n1"})
	require.Eventually(t, func() bool { return f.api.Count("Archived") == 1 }, time.Second, 5*time.Millisecond)
	changed, shared := f.d.Counters()
	assert.Equal(t, uint64(1), changed)
	assert.Equal(t, uint64(0), shared)

	f.bus.Deliver(realtime.EventNewSharedNote, realtime.Payload{NoteID: "s2"})
	require.Eventually(t, func() bool { return f.api.Count("SharedWithMe") == 2 }, time.Second, 5*time.Millisecond)
	require.Never(t, func() bool { return f.api.Count("MyNotes") > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	calls := f.api.Calls("SharedWithMe")
	assert.Equal(t, 1, calls[1].Input.(models.ListQuery).Page)
}

func TestUnsubscribe_StopsCounting(t *testing.T) {
	f := newFixture(t)
	f.d.Subscribe()
	f.d.Unsubscribe()

	f.bus.Deliver(realtime.EventNotesListUpdated, realtime.Payload{})
	changed, _ := f.d.Counters()
	assert.Zero(t, changed)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	f.api.SearchFunc = func(_ context.Context, q string) ([]models.Note, error) {
		return []models.Note{own("n1", q)}, nil
	}

	res, err := f.d.Search(context.Background(), "  alpha ")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "alpha", res[0].Title)

	res, err = f.d.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 1, f.api.Count("Search"))
}
