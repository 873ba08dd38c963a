package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/notekeeper/internal/client/client"
	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/client/realtime"
	"github.com/dmitrijs2005/notekeeper/internal/client/richtext"
	"github.com/dmitrijs2005/notekeeper/internal/client/ui"
	"github.com/dmitrijs2005/notekeeper/internal/client/validate"
	"github.com/dmitrijs2005/notekeeper/internal/common"
)

const readOnlyMessage = "This note is read-only"

// SetTitle replaces the local title. A title over the length limit is
// rejected and leaves the previous value in place.
func (e *Editor) SetTitle(ctx context.Context, title string) error {
	if err := validate.Title(title, false); err != nil {
		return err
	}
	return e.edit(ctx, func() { e.title = title })
}

// SetContent replaces the local content and caret.
func (e *Editor) SetContent(ctx context.Context, content string, sel richtext.Selection) error {
	return e.edit(ctx, func() {
		e.content = content
		e.sel = sel.Clamp(richtext.Length(content))
	})
}

// SetSelection moves the caret without editing.
func (e *Editor) SetSelection(sel richtext.Selection) {
	e.mu.Lock()
	e.sel = sel.Clamp(richtext.Length(e.content))
	e.mu.Unlock()
}

func (e *Editor) edit(ctx context.Context, apply func()) error {
	e.mu.Lock()
	switch {
	case e.closed:
		e.mu.Unlock()
		return ErrClosed
	case !e.loaded:
		e.mu.Unlock()
		return ErrNotLoaded
	case e.readOnlyLocked():
		toast := !e.roToasted
		e.roToasted = true
		e.mu.Unlock()
		if toast {
			e.toast.Toast(ui.LevelWarning, readOnlyMessage)
		}
		e.changed()
		return ErrReadOnly
	}

	apply()
	e.touched = true
	announce := !e.started && e.id != ""
	if announce {
		e.started = true
	}
	id := e.id
	e.scheduleLocked()
	e.mu.Unlock()

	if announce {
		e.emit(ctx, realtime.EventUserStartedEditingNote, realtime.Payload{NoteID: id, UserID: e.me.UserID()})
	}
	e.changed()
	return nil
}

// scheduleLocked arms the autosave timer while there is something it could
// save. A new note is not created until it has a title.
func (e *Editor) scheduleLocked() {
	if e.closed || !e.dirtyLocked() || e.readOnlyLocked() {
		e.timer.Cancel()
		return
	}
	if e.id == "" && strings.TrimSpace(e.title) == "" {
		e.timer.Cancel()
		return
	}
	e.timer.Trigger()
}

func (e *Editor) autosave() {
	e.mu.Lock()
	ctx := e.ctx
	e.mu.Unlock()
	_ = e.save(ctx, false)
}

// Save writes the local values now, skipping the autosave delay. It is how
// the user retries after a failed save.
func (e *Editor) Save(ctx context.Context) error {
	e.timer.Cancel()
	return e.save(ctx, true)
}

func (e *Editor) save(ctx context.Context, manual bool) error {
	e.mu.Lock()
	switch {
	case e.closed:
		e.mu.Unlock()
		return ErrClosed
	case !e.loaded:
		e.mu.Unlock()
		return ErrNotLoaded
	case e.readOnlyLocked():
		toast := manual && !e.roToasted
		e.roToasted = e.roToasted || manual
		e.mu.Unlock()
		if toast {
			e.toast.Toast(ui.LevelWarning, readOnlyMessage)
		}
		return ErrReadOnly
	}
	if e.id == "" {
		if err := validate.Title(e.title, true); err != nil {
			e.mu.Unlock()
			return err
		}
	}
	if e.id != "" && !e.dirtyLocked() {
		e.mu.Unlock()
		return nil
	}
	if e.saving {
		// the running save picks up the newest values when it finishes
		e.resave = true
		e.mu.Unlock()
		return nil
	}
	e.saving = true
	e.saveErr = false
	id := e.id
	in := models.NoteInput{Title: e.title, Content: e.content}
	epoch := e.epoch
	e.mu.Unlock()
	e.changed()

	var (
		n   *models.Note
		err error
	)
	if id == "" {
		n, err = e.api.CreateNote(ctx, in)
		if err == nil && (n == nil || n.ID == "") {
			err = errors.New("create response carries no note id")
		}
	} else {
		n, err = e.api.UpdateNote(ctx, id, in)
	}

	e.mu.Lock()
	e.saving = false
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	again := e.resave
	e.resave = false

	if err != nil {
		forbidden := errors.Is(err, client.ErrForbidden)
		if forbidden {
			e.forbidden = true
			e.roToasted = true
			e.timer.Cancel()
		} else {
			e.saveErr = true
		}
		e.mu.Unlock()

		e.logger.Warn(ctx, "save note failed", "note", id, "error", err)
		if forbidden {
			e.toast.Toast(ui.LevelError, client.UserMessage(err, "You no longer have permission to edit this note"))
		} else {
			e.toast.Toast(ui.LevelError, client.UserMessage(err, "Failed to save note"))
		}
		e.changed()
		return fmt.Errorf("save note: %w", err)
	}

	if n == nil {
		n = &models.Note{ID: id}
	}
	created := id == ""
	if created {
		e.id = n.ID
		id = n.ID
	}
	e.mergeServerLocked(*n)
	// an external update during the request already moved the baseline
	if epoch == e.epoch {
		e.baseTitle, e.baseContent = in.Title, in.Content
	}
	announce := created && e.touched && !e.started
	if announce {
		e.started = true
	}
	more := again && e.dirtyLocked()
	e.mu.Unlock()

	e.logger.Debug(ctx, "note saved", "note", id, "created", created)
	if created {
		e.nav.Replace(common.NotePath(id))
	}
	if announce {
		e.emit(ctx, realtime.EventUserStartedEditingNote, realtime.Payload{NoteID: id, UserID: e.me.UserID()})
	}
	e.changed()

	if more {
		return e.save(ctx, false)
	}
	return nil
}

// mergeServerLocked takes the server's metadata for the note. Fields the
// response leaves out keep their local values.
func (e *Editor) mergeServerLocked(n models.Note) {
	if !n.Creator.IsZero() {
		e.note.Creator = n.Creator
	}
	if n.Shares != nil {
		e.note.Shares = append([]models.Share(nil), n.Shares...)
	}
	if !n.CreatedAt.IsZero() {
		e.note.CreatedAt = n.CreatedAt
	}
	if !n.UpdatedAt.IsZero() {
		e.note.UpdatedAt = n.UpdatedAt
	}
	e.note.ID = e.id
}
