package editor

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/client/client"
	"github.com/dmitrijs2005/notekeeper/internal/client/client/clienttest"
	"github.com/dmitrijs2005/notekeeper/internal/client/export"
	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/client/realtime"
	"github.com/dmitrijs2005/notekeeper/internal/client/realtime/realtimetest"
	"github.com/dmitrijs2005/notekeeper/internal/client/richtext"
	"github.com/dmitrijs2005/notekeeper/internal/client/ui"
	"github.com/dmitrijs2005/notekeeper/internal/client/ui/uitest"
	"github.com/dmitrijs2005/notekeeper/internal/client/validate"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	me    = "u1"
	other = "u2"

	quiet = 80 * time.Millisecond
	never = time.Hour
)

type staticUser string

func (s staticUser) UserID() string { return string(s) }

func ownNote(id string) *models.Note {
	return &models.Note{ID: id, Title: "Plan", Content: "<p>hello</p>", Creator: models.RefID(me)}
}

func sharedNote(id string, role models.Role) *models.Note {
	return &models.Note{
		ID:      id,
		Title:   "Theirs",
		Content: "<p>shared</p>",
		Creator: models.RefID(other),
		Shares:  []models.Share{{User: models.RefID(me), Role: role}},
	}
}

type fixture struct {
	api *clienttest.Fake
	bus *realtimetest.Bus
	rec *uitest.Recorder
	e   *Editor
}

func newFixture(t *testing.T, delay time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		api: &clienttest.Fake{},
		bus: realtimetest.New(),
		rec: &uitest.Recorder{},
	}
	f.api.UpdateNoteFunc = func(_ context.Context, id string, in models.NoteInput) (*models.Note, error) {
		return &models.Note{ID: id, Title: in.Title, Content: in.Content}, nil
	}
	f.bus.Connect("tok", me)
	f.e = New(f.api, f.bus, staticUser(me), f.rec, f.rec, logging.Discard(), delay)
	t.Cleanup(func() { f.e.Close(context.Background()) })
	return f
}

func (f *fixture) open(t *testing.T, n *models.Note) {
	t.Helper()
	f.api.GetNoteFunc = func(context.Context, string) (*models.Note, error) {
		c := n.Clone()
		return &c, nil
	}
	require.NoError(t, f.e.Open(context.Background(), n.ID))
}

func updates(f *fixture) []models.NoteInput {
	var out []models.NoteInput
	for _, c := range f.api.Calls("UpdateNote") {
		out = append(out, c.Input.(models.NoteInput))
	}
	return out
}

func TestOpen_NewNoteSkipsFetch(t *testing.T) {
	f := newFixture(t, never)
	require.NoError(t, f.e.Open(context.Background(), "new"))

	s := f.e.Snapshot()
	assert.Equal(t, StateNew, s.State)
	assert.Empty(t, s.ID)
	assert.True(t, s.Owner)
	assert.Zero(t, f.api.Count("GetNote"))
}

func TestOpen_StateFollowsPermission(t *testing.T) {
	archived := ownNote("n1")
	archived.Archived = true

	tests := []struct {
		name string
		note *models.Note
		want State
	}{
		{"owner", ownNote("n1"), StateClean},
		{"write share", sharedNote("n1", models.RoleWrite), StateClean},
		{"read share", sharedNote("n1", models.RoleRead), StateReadOnly},
		{"archived", archived, StateReadOnly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, never)
			f.open(t, tt.note)
			assert.Equal(t, tt.want, f.e.State())
			assert.Equal(t, tt.note.Title, f.e.Snapshot().Title)
		})
	}
}

func TestOpen_Failures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantState State
		wantRoute string
	}{
		{"not found", &client.APIError{Status: 404}, "", "/dashboard"},
		{"forbidden", &client.APIError{Status: 403, Message: "Access denied"}, "", "/dashboard"},
		{"unavailable", client.ErrUnavailable, StateError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, never)
			f.api.GetNoteFunc = func(context.Context, string) (*models.Note, error) { return nil, tt.err }

			err := f.e.Open(context.Background(), "n1")
			require.ErrorIs(t, err, tt.err)
			require.Len(t, f.rec.Messages(ui.LevelError), 1)
			assert.Equal(t, tt.wantRoute, f.rec.LastRoute())
			if tt.wantState != "" {
				assert.Equal(t, tt.wantState, f.e.State())
				assert.False(t, f.e.Closed())
			} else {
				assert.True(t, f.e.Closed())
				assert.Zero(t, f.bus.Subscribers(realtime.EventNotifyNoteUpdatedByOther))
			}
		})
	}

	f := newFixture(t, never)
	require.NoError(t, f.e.Open(context.Background(), "new"))
	require.ErrorIs(t, f.e.Open(context.Background(), "new"), ErrAlreadyOpen)
}

func TestAutosave_BurstYieldsSingleSaveWithFinalValues(t *testing.T) {
	f := newFixture(t, quiet)
	f.open(t, ownNote("n1"))
	ctx := context.Background()

	for _, c := range []string{"<p>h</p>", "<p>he</p>", "<p>hel</p>"} {
		require.NoError(t, f.e.SetContent(ctx, c, richtext.Selection{Index: 3}))
		time.Sleep(quiet / 8)
	}
	require.NoError(t, f.e.SetTitle(ctx, "Plan v2"))
	assert.Equal(t, StateDirty, f.e.State())

	require.Eventually(t, func() bool { return f.api.Count("UpdateNote") == 1 }, time.Second, 5*time.Millisecond)
	require.Never(t, func() bool { return f.api.Count("UpdateNote") > 1 }, 4*quiet, 10*time.Millisecond)

	assert.Equal(t, []models.NoteInput{{Title: "Plan v2", Content: "<p>hel</p>"}}, updates(f))
	assert.Equal(t, "n1", f.api.Calls("UpdateNote")[0].NoteID)
	assert.Equal(t, StateClean, f.e.State())
}

func TestSave_ManualBypassesTimer(t *testing.T) {
	f := newFixture(t, quiet)
	f.open(t, ownNote("n1"))
	ctx := context.Background()

	require.NoError(t, f.e.SetTitle(ctx, "Now"))
	require.NoError(t, f.e.Save(ctx))
	require.Equal(t, 1, f.api.Count("UpdateNote"))

	require.Never(t, func() bool { return f.api.Count("UpdateNote") > 1 }, 3*quiet, 10*time.Millisecond)

	// nothing changed since: no request
	require.NoError(t, f.e.Save(ctx))
	assert.Equal(t, 1, f.api.Count("UpdateNote"))
}

func TestCreate_SprintPlan(t *testing.T) {
	f := newFixture(t, quiet)
	f.api.CreateNoteFunc = func(_ context.Context, in models.NoteInput) (*models.Note, error) {
		return &models.Note{ID: "n9", Title: in.Title, Content: in.Content, Creator: models.RefID(me)}, nil
	}
	ctx := context.Background()
	require.NoError(t, f.e.Open(ctx, "new"))

	require.NoError(t, f.e.SetTitle(ctx, "Sprint Plan"))
	require.NoError(t, f.e.Save(ctx))

	require.Equal(t, 1, f.api.Count("CreateNote"))
	assert.Equal(t, models.NoteInput{Title: "Sprint Plan"}, f.api.Calls("CreateNote")[0].Input)
	assert.Equal(t, []string{"/notes/n9"}, f.rec.Replaced())
	assert.Equal(t, "n9", f.e.Snapshot().ID)
	assert.Equal(t, StateClean, f.e.State())

	require.NoError(t, f.e.SetContent(ctx, "<p>goals</p>", richtext.Selection{}))
	require.Eventually(t, func() bool { return f.api.Count("UpdateNote") == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, f.api.Count("CreateNote"))
	assert.Equal(t, "n9", f.api.Calls("UpdateNote")[0].NoteID)

	// после создания объявляется начало редактирования
	started := f.bus.Emitted(realtime.EventUserStartedEditingNote)
	require.Len(t, started, 1)
	assert.Equal(t, "n9", started[0].Payload.NoteID)
}

func TestCreate_NeedsTitle(t *testing.T) {
	f := newFixture(t, quiet)
	ctx := context.Background()
	require.NoError(t, f.e.Open(ctx, ""))

	require.NoError(t, f.e.SetContent(ctx, "<p>draft</p>", richtext.Selection{}))
	require.Never(t, func() bool { return f.api.Count("CreateNote") > 0 }, 3*quiet, 10*time.Millisecond)

	err := f.e.Save(ctx)
	var verr validate.Errors
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, validate.FieldTitle)
	assert.Zero(t, f.api.Count("CreateNote"))
	assert.Empty(t, f.bus.Emitted(realtime.EventUserStartedEditingNote))
}

func TestSetTitle_TooLong(t *testing.T) {
	f := newFixture(t, never)
	f.open(t, ownNote("n1"))

	long := string(bytes.Repeat([]byte("x"), models.MaxTitleLength+1))
	err := f.e.SetTitle(context.Background(), long)
	var verr validate.Errors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Plan", f.e.Snapshot().Title)
	assert.Equal(t, StateClean, f.e.State())
}

func TestExternalUpdate_WinsOverPendingLocalEdit(t *testing.T) {
	f := newFixture(t, quiet)
	f.open(t, ownNote("n1"))
	ctx := context.Background()

	require.NoError(t, f.e.SetContent(ctx, "<p>hello local edit</p>", richtext.Selection{Index: 16}))
	require.True(t, f.e.Snapshot().Dirty)

	f.bus.Deliver(realtime.EventNotifyNoteUpdatedByOther, realtime.Payload{
		NoteID:  "n1",
		UserID:  other,
		Title:   "Their title",
		Content: "<p>hi</p>",
	})

	s := f.e.Snapshot()
	assert.Equal(t, "Their title", s.Title)
	assert.Equal(t, "<p>hi</p>", s.Content)
	assert.False(t, s.Dirty)
	assert.Equal(t, StateClean, s.State)
	assert.Equal(t, uint64(1), s.Revision)
	// каретка за концом документа переезжает в конец
	assert.Equal(t, richtext.Selection{Index: 2}, s.Selection)

	require.Never(t, func() bool { return f.api.Count("UpdateNote") > 0 }, 3*quiet, 10*time.Millisecond)
}

func TestExternalUpdate_Filtering(t *testing.T) {
	f := newFixture(t, never)
	f.open(t, ownNote("n1"))

	f.bus.Deliver(realtime.EventNoteDetailsUpdated, realtime.Payload{NoteID: "n2", UserID: other, Content: "<p>x</p>"})
	f.bus.Deliver(realtime.EventNoteDetailsUpdated, realtime.Payload{NoteID: "n1", UserID: me, Content: "<p>echo</p>"})
	assert.Equal(t, "<p>hello</p>", f.e.Snapshot().Content)

	f.bus.Deliver(realtime.EventNoteDetailsUpdated, realtime.Payload{
		UserID: other,
		Note:   &models.Note{ID: "n1", Title: "From note", Content: "<p>embedded</p>"},
	})
	s := f.e.Snapshot()
	assert.Equal(t, "From note", s.Title)
	assert.Equal(t, "<p>embedded</p>", s.Content)
}

func TestEditFinishedByOther_OnlyWhenClean(t *testing.T) {
	f := newFixture(t, never)
	f.open(t, ownNote("n1"))
	ctx := context.Background()

	f.bus.Deliver(realtime.EventNoteEditFinishedByOtherUser, realtime.Payload{NoteID: "n1", UserID: other, Content: "<p>b</p>"})
	assert.Equal(t, "<p>b</p>", f.e.Snapshot().Content)

	require.NoError(t, f.e.SetContent(ctx, "<p>mine</p>", richtext.Selection{}))
	f.bus.Deliver(realtime.EventNoteEditFinishedByOtherUser, realtime.Payload{NoteID: "n1", UserID: other, Content: "<p>c</p>"})
	assert.Equal(t, "<p>mine</p>", f.e.Snapshot().Content)
	assert.True(t, f.e.Snapshot().Dirty)
}

func TestReadOnly_RejectsEditsWithOneToastPerEpisode(t *testing.T) {
	f := newFixture(t, quiet)
	f.open(t, sharedNote("n1", models.RoleRead))
	ctx := context.Background()

	require.ErrorIs(t, f.e.SetTitle(ctx, "mine now"), ErrReadOnly)
	require.ErrorIs(t, f.e.SetContent(ctx, "<p>typed</p>", richtext.Selection{}), ErrReadOnly)

	s := f.e.Snapshot()
	assert.Equal(t, "Theirs", s.Title)
	assert.Equal(t, "<p>shared</p>", s.Content)
	assert.False(t, s.Dirty)
	assert.Len(t, f.rec.Messages(ui.LevelWarning), 1)
	assert.Empty(t, f.bus.Emitted(realtime.EventUserStartedEditingNote))

	// повышение роли делает заметку редактируемой
	f.bus.Deliver(realtime.EventYourShareRoleUpdated, realtime.Payload{NoteID: "n1", Role: models.RoleWrite})
	assert.Equal(t, StateClean, f.e.State())
	require.NoError(t, f.e.SetTitle(ctx, "edited"))

	f.bus.Deliver(realtime.EventYourShareRoleUpdated, realtime.Payload{NoteID: "n1", Role: models.RoleRead})
	assert.Equal(t, StateReadOnly, f.e.State())
	require.ErrorIs(t, f.e.SetTitle(ctx, "again"), ErrReadOnly)
	// новый эпизод: новый тост
	assert.Len(t, f.rec.Messages(ui.LevelWarning), 2)
	require.Never(t, func() bool { return f.api.Count("UpdateNote") > 0 }, 3*quiet, 10*time.Millisecond)
}

func TestArchivedEvent_TogglesReadOnly(t *testing.T) {
	f := newFixture(t, never)
	f.open(t, ownNote("n1"))
	ctx := context.Background()

	f.bus.Deliver(realtime.EventNotifyNoteArchivedUnarchived, realtime.Payload{NoteID: "n1", Archived: realtime.Bool(true)})
	assert.Equal(t, StateReadOnly, f.e.State())
	assert.True(t, f.e.Snapshot().Archived)
	require.ErrorIs(t, f.e.SetTitle(ctx, "x"), ErrReadOnly)

	f.bus.Deliver(realtime.EventNotifyNoteArchivedUnarchived, realtime.Payload{NoteID: "n1", Archived: realtime.Bool(false)})
	assert.Equal(t, StateClean, f.e.State())
	require.NoError(t, f.e.SetTitle(ctx, "x"))
	assert.Len(t, f.rec.Messages(ui.LevelInfo), 2)
}

func TestArchivedEvent_WithoutFlagAsksServer(t *testing.T) {
	f := newFixture(t, never)
	f.open(t, ownNote("n1"))

	archived := ownNote("n1")
	archived.Archived = true
	f.api.GetNoteFunc = func(context.Context, string) (*models.Note, error) { n := archived.Clone(); return &n, nil }

	// повторная доставка не должна переключать обратно
	f.bus.Deliver(realtime.EventNotifyNoteArchivedUnarchived, realtime.Payload{NoteID: "n1"})
	f.bus.Deliver(realtime.EventNotifyNoteArchivedUnarchived, realtime.Payload{NoteID: "n1"})

	require.Eventually(t, func() bool { return f.api.Count("GetNote") == 3 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return f.e.State() == StateReadOnly }, time.Second, 5*time.Millisecond)
	require.Never(t, func() bool { return f.e.State() != StateReadOnly }, 3*quiet, 10*time.Millisecond)
	assert.True(t, f.e.Snapshot().Archived)
	assert.Len(t, f.rec.Messages(ui.LevelInfo), 1)
}

func TestSave_ForbiddenBecomesReadOnlyKeepingEdits(t *testing.T) {
	f := newFixture(t, never)
	f.open(t, sharedNote("n1", models.RoleWrite))
	f.api.UpdateNoteFunc = func(context.Context, string, models.NoteInput) (*models.Note, error) {
		return nil, &client.APIError{Status: 403}
	}
	ctx := context.Background()

	require.NoError(t, f.e.SetTitle(ctx, "my edit"))
	require.ErrorIs(t, f.e.Save(ctx), client.ErrForbidden)

	s := f.e.Snapshot()
	assert.Equal(t, StateReadOnly, s.State)
	assert.Equal(t, "my edit", s.Title)
	assert.True(t, s.Dirty)
	require.Len(t, f.rec.Messages(ui.LevelError), 1)

	require.ErrorIs(t, f.e.SetTitle(ctx, "more"), ErrReadOnly)
	assert.Empty(t, f.rec.Messages(ui.LevelWarning))
}

func TestSave_FailureKeepsEditsAndRetries(t *testing.T) {
	f := newFixture(t, never)
	f.open(t, ownNote("n1"))
	ctx := context.Background()

	fail := true
	f.api.UpdateNoteFunc = func(_ context.Context, id string, in models.NoteInput) (*models.Note, error) {
		if fail {
			return nil, &client.APIError{Status: 500}
		}
		return &models.Note{ID: id, Title: in.Title, Content: in.Content}, nil
	}

	require.NoError(t, f.e.SetContent(ctx, "<p>keep me</p>", richtext.Selection{}))
	require.Error(t, f.e.Save(ctx))
	assert.Equal(t, StateError, f.e.State())
	assert.Equal(t, "<p>keep me</p>", f.e.Snapshot().Content)
	assert.Equal(t, []string{"Failed to save note"}, f.rec.Messages(ui.LevelError))

	fail = false
	require.NoError(t, f.e.Save(ctx))
	assert.Equal(t, StateClean, f.e.State())
	assert.Equal(t, 2, f.api.Count("UpdateNote"))
}

// blockingUpdates makes every UpdateNote wait for a release.
func blockingUpdates(f *fixture) (release func()) {
	gate := make(chan struct{})
	var once sync.Once
	f.api.UpdateNoteFunc = func(_ context.Context, id string, in models.NoteInput) (*models.Note, error) {
		<-gate
		return &models.Note{ID: id, Title: in.Title, Content: in.Content}, nil
	}
	return func() { once.Do(func() { close(gate) }) }
}

func TestSave_DuringSaveRunsFollowUpWithNewestValues(t *testing.T) {
	f := newFixture(t, never)
	f.open(t, ownNote("n1"))
	release := blockingUpdates(f)
	defer release()
	ctx := context.Background()

	require.NoError(t, f.e.SetTitle(ctx, "first"))
	done := make(chan error, 1)
	go func() { done <- f.e.Save(ctx) }()
	require.Eventually(t, func() bool { return f.api.Count("UpdateNote") == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return f.e.State() == StateSaving }, time.Second, time.Millisecond)

	require.NoError(t, f.e.SetTitle(ctx, "second"))
	require.NoError(t, f.e.SetTitle(ctx, "third"))
	require.NoError(t, f.e.Save(ctx))
	assert.Equal(t, 1, f.api.Count("UpdateNote"))

	release()
	require.NoError(t, <-done)

	want := []models.NoteInput{
		{Title: "first", Content: "<p>hello</p>"},
		{Title: "third", Content: "<p>hello</p>"},
	}
	if diff := cmp.Diff(want, updates(f)); diff != "" {
		t.Errorf("updates mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, StateClean, f.e.State())
}

func TestSave_StaleCompletionKeepsExternalBaseline(t *testing.T) {
	f := newFixture(t, never)
	f.open(t, ownNote("n1"))
	release := blockingUpdates(f)
	ctx := context.Background()

	require.NoError(t, f.e.SetTitle(ctx, "local"))
	done := make(chan error, 1)
	go func() { done <- f.e.Save(ctx) }()
	require.Eventually(t, func() bool { return f.api.Count("UpdateNote") == 1 }, time.Second, time.Millisecond)

	f.bus.Deliver(realtime.EventNotifyNoteUpdatedByOther, realtime.Payload{NoteID: "n1", UserID: other, Title: "remote", Content: "<p>remote</p>"})
	release()
	require.NoError(t, <-done)

	s := f.e.Snapshot()
	assert.Equal(t, "remote", s.Title)
	assert.Equal(t, "<p>remote</p>", s.Content)
	assert.False(t, s.Dirty)
	assert.Equal(t, 1, f.api.Count("UpdateNote"))
}

func TestClose_AnnouncesFinishedOnlyWhenTouched(t *testing.T) {
	t.Run("untouched", func(t *testing.T) {
		f := newFixture(t, never)
		f.open(t, ownNote("n1"))
		f.e.Close(context.Background())

		assert.Empty(t, f.bus.Emitted(""))
		assert.Zero(t, f.bus.Subscribers(realtime.EventNotifyNoteUpdatedByOther))
	})

	t.Run("touched", func(t *testing.T) {
		f := newFixture(t, never)
		f.open(t, ownNote("n1"))
		ctx := context.Background()
		require.NoError(t, f.e.SetTitle(ctx, "unsaved title"))
		f.e.Close(ctx)

		var names []string
		for _, ev := range f.bus.Emitted("") {
			names = append(names, ev.Name)
		}
		assert.Equal(t, []string{
			realtime.EventUserStartedEditingNote,
			realtime.EventUserStoppedEditingNote,
			realtime.EventUserFinishedEditingNote,
		}, names)

		fin := f.bus.Emitted(realtime.EventUserFinishedEditingNote)[0].Payload
		assert.Equal(t, realtime.Payload{NoteID: "n1", UserID: me, Title: "unsaved title", Content: "<p>hello</p>"}, fin)
		assert.Zero(t, f.api.Count("UpdateNote"))
		require.ErrorIs(t, f.e.SetTitle(ctx, "late"), ErrClosed)
	})
}

func TestClose_LateSaveCompletionIsNoop(t *testing.T) {
	f := newFixture(t, never)
	f.open(t, ownNote("n1"))
	release := blockingUpdates(f)
	ctx := context.Background()

	require.NoError(t, f.e.SetTitle(ctx, "t"))
	done := make(chan error, 1)
	go func() { done <- f.e.Save(ctx) }()
	require.Eventually(t, func() bool { return f.api.Count("UpdateNote") == 1 }, time.Second, time.Millisecond)

	f.e.Close(ctx)
	release()
	require.NoError(t, <-done)
	assert.Equal(t, "Plan", func() string { f.e.mu.Lock(); defer f.e.mu.Unlock(); return f.e.baseTitle }())
}

func TestNoteGone_LeavesWithoutAnnouncing(t *testing.T) {
	for _, name := range []string{realtime.EventNotifyNoteDeleted, realtime.EventNoteUnshared} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, never)
			f.open(t, sharedNote("n1", models.RoleWrite))
			ctx := context.Background()
			require.NoError(t, f.e.SetTitle(ctx, "edit"))

			f.bus.Deliver(name, realtime.Payload{NoteID: "n1"})
			assert.True(t, f.e.Closed())
			assert.Equal(t, "/dashboard", f.rec.LastRoute())
			assert.Len(t, f.rec.Messages(ui.LevelWarning), 1)

			f.e.Close(ctx)
			assert.Empty(t, f.bus.Emitted(realtime.EventUserFinishedEditingNote))
		})
	}
}

func TestSharing_OwnerOnly(t *testing.T) {
	f := newFixture(t, never)
	f.open(t, ownNote("n1"))
	ctx := context.Background()
	bob := models.Share{User: models.RefID("u3"), Email: "bob@x.io", Role: models.RoleRead}
	f.api.ShareNoteFunc = func(_ context.Context, id string, req models.ShareRequest) (*models.Note, error) {
		return &models.Note{ID: id, Shares: []models.Share{bob}}, nil
	}

	require.Error(t, f.e.Share(ctx, "bob@x.io", models.RoleOwner))
	assert.Zero(t, f.api.Count("ShareNote"))

	require.NoError(t, f.e.Share(ctx, " bob@x.io ", models.RoleRead))
	assert.Equal(t, models.ShareRequest{Email: "bob@x.io", Role: models.RoleRead}, f.api.Calls("ShareNote")[0].Input)
	assert.Equal(t, []models.Share{bob}, f.e.Snapshot().Shares)
	assert.Equal(t, []string{"Note shared with bob@x.io"}, f.rec.Messages(ui.LevelSuccess))

	f.api.RemoveShareFunc = func(_ context.Context, id, userID string) (*models.Note, error) {
		return nil, &client.APIError{Status: 400, Message: "User is not shared"}
	}
	require.Error(t, f.e.Unshare(ctx, "u3"))
	assert.Equal(t, []string{"User is not shared"}, f.rec.Messages(ui.LevelError))

	g := newFixture(t, never)
	g.open(t, sharedNote("n2", models.RoleWrite))
	require.ErrorIs(t, g.e.Share(ctx, "bob@x.io", models.RoleRead), ErrNotOwner)
	require.ErrorIs(t, g.e.UpdateShare(ctx, "u3", models.RoleWrite), ErrNotOwner)
}

func TestSharesChanged_PayloadOrRefresh(t *testing.T) {
	f := newFixture(t, never)
	f.open(t, sharedNote("n1", models.RoleWrite))

	f.bus.Deliver(realtime.EventNoteSharingUpdated, realtime.Payload{
		NoteID: "n1",
		Shares: []models.Share{{User: models.RefID(me), Role: models.RoleRead}},
	})
	assert.Equal(t, StateReadOnly, f.e.State())

	refreshed := sharedNote("n1", models.RoleWrite)
	f.api.GetNoteFunc = func(context.Context, string) (*models.Note, error) { return refreshed, nil }
	f.bus.Deliver(realtime.EventNoteSharingSettingsChanged, realtime.Payload{NoteID: "n1"})
	require.Eventually(t, func() bool { return f.e.State() == StateClean }, time.Second, 5*time.Millisecond)
}

func TestFindUsers_ExcludesSelf(t *testing.T) {
	f := newFixture(t, never)
	f.open(t, ownNote("n1"))
	cached := []models.User{{ID: me, Email: "me@x.io"}, {ID: "u3", Email: "bob@x.io"}}
	f.api.SearchUsersFunc = func(context.Context, string) ([]models.User, error) {
		return cached, nil
	}

	users, err := f.e.FindUsers(context.Background(), "x.io")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u3", users[0].ID)
	// ответ клиента не переписывается
	assert.Equal(t, []models.User{{ID: me, Email: "me@x.io"}, {ID: "u3", Email: "bob@x.io"}}, cached)
}

func TestExport(t *testing.T) {
	f := newFixture(t, never)
	require.NoError(t, f.e.Open(context.Background(), "new"))
	require.NoError(t, f.e.SetContent(context.Background(), richtext.EmptyDocument, richtext.Selection{}))

	var buf bytes.Buffer
	require.ErrorIs(t, f.e.Export(&buf, export.FormatMarkdown), export.ErrNothingToExport)
	assert.Equal(t, []string{"Nothing to export"}, f.rec.Messages(ui.LevelWarning))

	require.NoError(t, f.e.SetTitle(context.Background(), "Sprint Plan"))
	require.NoError(t, f.e.Export(&buf, export.FormatWord))
	assert.Contains(t, buf.String(), "<h1>Sprint Plan</h1>")
}
