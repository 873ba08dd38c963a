package dashboard

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/notekeeper/internal/client/client"
	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/client/realtime"
	"github.com/dmitrijs2005/notekeeper/internal/client/ui"
)

// Archive moves note id from the active collections to the archived one,
// then asks the server. On failure the move is undone.
func (d *Dashboard) Archive(ctx context.Context, id string) error {
	return d.mutate(ctx, opArchive, id, []Collection{Mine, Shared}, func() error {
		_, err := d.api.ArchiveNote(ctx, id)
		return err
	})
}

func (d *Dashboard) Unarchive(ctx context.Context, id string) error {
	return d.mutate(ctx, opUnarchive, id, []Collection{Archived}, func() error {
		_, err := d.api.UnarchiveNote(ctx, id)
		return err
	})
}

// Delete removes note id everywhere and, once the server agrees, tells
// other clients with noteDeleted.
func (d *Dashboard) Delete(ctx context.Context, id string) error {
	return d.mutate(ctx, opDelete, id, Collections, func() error {
		return d.api.DeleteNote(ctx, id)
	})
}

var (
	successText = map[opKind]string{
		opArchive:   "Note archived",
		opUnarchive: "Note restored",
		opDelete:    "Note deleted",
	}
	failureText = map[opKind]string{
		opArchive:   "Failed to archive note",
		opUnarchive: "Failed to unarchive note",
		opDelete:    "Failed to delete note",
	}
)

func (d *Dashboard) mutate(ctx context.Context, kind opKind, id string, from []Collection, call func() error) error {
	uid := d.me.UserID()

	d.mu.Lock()
	n, _, ok := d.find(id, from...)
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%s %s: %w", kind, id, ErrUnknownNote)
	}
	d.gen++
	o := &op{kind: kind, note: n, gen: d.gen}
	o.origins = o.apply(d.lists, uid)
	d.pending = append(d.pending, o)
	d.mu.Unlock()
	d.changed()

	err := call()

	d.mu.Lock()
	d.gen++
	if err != nil {
		d.pending = slices.DeleteFunc(d.pending, func(p *op) bool { return p == o })
		o.revert(d.lists, uid)
	} else {
		o.done = true
		o.doneGen = d.gen
	}
	d.mu.Unlock()
	d.changed()

	if err != nil {
		d.logger.Warn(ctx, "dashboard mutation failed", "op", kind, "note", id, "error", err)
		d.toast.Toast(ui.LevelError, client.UserMessage(err, failureText[kind]))
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}

	if kind == opDelete {
		d.announceDelete(ctx, n)
	}
	d.toast.Toast(ui.LevelSuccess, successText[kind])
	return nil
}

func (d *Dashboard) announceDelete(ctx context.Context, n models.Note) {
	err := d.bus.Emit(ctx, realtime.EventNoteDeleted, realtime.Payload{
		NoteID: n.ID,
		Title:  n.Title,
		UserID: d.me.UserID(),
	})
	if err != nil {
		d.logger.Debug(ctx, "noteDeleted not sent", "note", n.ID, "error", err)
	}
}
