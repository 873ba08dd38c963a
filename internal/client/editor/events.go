package editor

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/client/realtime"
	"github.com/dmitrijs2005/notekeeper/internal/client/richtext"
	"github.com/dmitrijs2005/notekeeper/internal/client/ui"
)

func (e *Editor) subscribe() {
	handlers := map[string]realtime.Handler{
		realtime.EventNotifyNoteUpdatedByOther:     e.onExternalUpdate,
		realtime.EventNoteDetailsUpdated:           e.onExternalUpdate,
		realtime.EventNoteEditFinishedByOtherUser:  e.onEditFinished,
		realtime.EventNotifyNoteArchivedUnarchived: e.onArchived,
		realtime.EventYourShareRoleUpdated:         e.onRoleUpdated,
		realtime.EventNoteUnshared:                 e.onGone,
		realtime.EventNotifyNoteDeleted:            e.onGone,
		realtime.EventNoteSharingUpdated:           e.onSharesChanged,
		realtime.EventNoteSharingSettingsChanged:   e.onSharesChanged,
	}

	subs := make([]*realtime.Subscription, 0, len(handlers))
	for name, h := range handlers {
		subs = append(subs, e.bus.On(name, h))
	}

	e.mu.Lock()
	e.subs = append(e.subs, subs...)
	e.mu.Unlock()
}

// targetLocked reports whether ev concerns the open, loaded note.
func (e *Editor) targetLocked(ev realtime.Event) bool {
	if e.closed || !e.loaded || e.id == "" {
		return false
	}
	return ev.Payload.TargetNoteID() == e.id
}

func (e *Editor) onExternalUpdate(ctx context.Context, ev realtime.Event) {
	e.mu.Lock()
	if !e.targetLocked(ev) || ev.Payload.UserID == e.me.UserID() {
		e.mu.Unlock()
		return
	}
	e.applyExternalLocked(ev.Payload)
	e.mu.Unlock()

	e.logger.Debug(ctx, "note replaced by remote edit", "note", ev.Payload.TargetNoteID(), "event", ev.Name)
	e.changed()
}

// onEditFinished applies another user's final values unless the local user
// has edits of their own in progress.
func (e *Editor) onEditFinished(ctx context.Context, ev realtime.Event) {
	e.mu.Lock()
	if !e.targetLocked(ev) || ev.Payload.UserID == e.me.UserID() {
		e.mu.Unlock()
		return
	}
	if e.dirtyLocked() || e.saving {
		e.mu.Unlock()
		e.logger.Debug(ctx, "remote edit skipped, local edits pending", "note", ev.Payload.TargetNoteID())
		return
	}
	e.applyExternalLocked(ev.Payload)
	e.mu.Unlock()
	e.changed()
}

// applyExternalLocked makes the incoming values both the current and the
// confirmed ones. Pending local edits are discarded and never submitted.
// Empty fields in the payload are treated as absent.
func (e *Editor) applyExternalLocked(p realtime.Payload) {
	title, content, archived := p.Title, p.Content, p.Archived
	if p.Note != nil {
		title, content = p.Note.Title, p.Note.Content
		if archived == nil {
			archived = &p.Note.Archived
		}
	}
	if title != "" {
		e.title = title
	}
	if content != "" && content != e.content {
		e.content = content
		e.sel = e.sel.Clamp(richtext.Length(content))
		e.revision++
	}
	if archived != nil {
		e.note.Archived = *archived
	}
	e.baseTitle, e.baseContent = e.title, e.content
	e.epoch++
	e.saveErr = false
	e.timer.Cancel()
	e.permissionChangedLocked()
}

func (e *Editor) onArchived(ctx context.Context, ev realtime.Event) {
	e.mu.Lock()
	if !e.targetLocked(ev) {
		e.mu.Unlock()
		return
	}
	noteID := e.id
	var archived bool
	switch {
	case ev.Payload.Archived != nil:
		archived = *ev.Payload.Archived
	case ev.Payload.Note != nil:
		archived = ev.Payload.Note.Archived
	default:
		// no flag: ask the server rather than guess, so a repeat is harmless
		e.mu.Unlock()
		go e.refreshArchived(context.WithoutCancel(ctx), noteID)
		return
	}
	e.mu.Unlock()
	e.setArchived(noteID, archived)
}

func (e *Editor) refreshArchived(ctx context.Context, id string) {
	n, err := e.api.GetNote(ctx, id)
	if err != nil {
		e.logger.Warn(ctx, "refresh archive state failed", "note", id, "error", err)
		return
	}
	e.setArchived(id, n.Archived)
}

// setArchived applies the archival flag of note id and toasts when it moved.
func (e *Editor) setArchived(id string, archived bool) {
	e.mu.Lock()
	if e.closed || e.id != id {
		e.mu.Unlock()
		return
	}
	moved := archived != e.note.Archived
	e.note.Archived = archived
	e.permissionChangedLocked()
	e.mu.Unlock()

	if !moved {
		return
	}
	if archived {
		e.toast.Toast(ui.LevelInfo, "This note was archived and is now read-only")
	} else {
		e.toast.Toast(ui.LevelInfo, "This note was restored")
	}
	e.changed()
}

func (e *Editor) onRoleUpdated(ctx context.Context, ev realtime.Event) {
	role := ev.Payload.Role
	e.mu.Lock()
	if !e.targetLocked(ev) || !role.Valid() {
		e.mu.Unlock()
		return
	}
	uid := e.me.UserID()
	e.note.Shares = withRole(e.note.Shares, uid, role)
	e.forbidden = false
	e.permissionChangedLocked()
	e.mu.Unlock()

	e.toast.Toast(ui.LevelInfo, fmt.Sprintf("Your access to this note changed to %s", role))
	e.changed()
}

func withRole(shares []models.Share, userID string, role models.Role) []models.Share {
	out := make([]models.Share, 0, len(shares)+1)
	found := false
	for _, s := range shares {
		if s.User.Is(userID) {
			s.Role = role
			found = true
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, models.Share{User: models.RefID(userID), Role: role})
	}
	return out
}

// onGone handles the note being deleted or unshared from this user.
func (e *Editor) onGone(ctx context.Context, ev realtime.Event) {
	e.mu.Lock()
	target := e.targetLocked(ev)
	e.mu.Unlock()
	if !target {
		return
	}

	msg := "This note was deleted"
	if ev.Name == realtime.EventNoteUnshared {
		msg = "You no longer have access to this note"
	}
	e.logger.Info(ctx, "open note is gone", "note", ev.Payload.TargetNoteID(), "event", ev.Name)
	e.leave(ui.LevelWarning, msg)
}

func (e *Editor) onSharesChanged(ctx context.Context, ev realtime.Event) {
	e.mu.Lock()
	if !e.targetLocked(ev) {
		e.mu.Unlock()
		return
	}
	var shares []models.Share
	switch {
	case ev.Payload.Note != nil:
		shares = ev.Payload.Note.Shares
	case ev.Payload.Shares != nil:
		shares = ev.Payload.Shares
	default:
		id := e.id
		e.mu.Unlock()
		// refresh off the reader goroutine so later events are not held up
		go e.refreshShares(context.WithoutCancel(ctx), id)
		return
	}
	e.note.Shares = append([]models.Share(nil), shares...)
	e.permissionChangedLocked()
	e.mu.Unlock()
	e.changed()
}

func (e *Editor) refreshShares(ctx context.Context, id string) {
	n, err := e.api.GetNote(ctx, id)
	if err != nil {
		e.logger.Warn(ctx, "refresh shares failed", "note", id, "error", err)
		return
	}
	e.mu.Lock()
	if e.closed || e.id != id {
		e.mu.Unlock()
		return
	}
	e.note.Shares = append([]models.Share(nil), n.Shares...)
	if !n.Creator.IsZero() {
		e.note.Creator = n.Creator
	}
	e.permissionChangedLocked()
	e.mu.Unlock()
	e.changed()
}
