package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/notekeeper/internal/client/client"
	"github.com/dmitrijs2005/notekeeper/internal/client/export"
	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/client/ui"
	"github.com/dmitrijs2005/notekeeper/internal/client/validate"
)

// ownedID returns the note id when the signed-in user owns the open note.
func (e *Editor) ownedID() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.closed:
		return "", ErrClosed
	case !e.loaded || e.id == "":
		return "", ErrNotLoaded
	case !e.note.IsOwnedBy(e.me.UserID()):
		return "", ErrNotOwner
	}
	return e.id, nil
}

func (e *Editor) sharesUpdated(n *models.Note) {
	if n == nil {
		return
	}
	e.mu.Lock()
	if !e.closed {
		e.note.Shares = append([]models.Share(nil), n.Shares...)
	}
	e.mu.Unlock()
	e.changed()
}

// Share grants the user with email the given role.
func (e *Editor) Share(ctx context.Context, email string, role models.Role) error {
	email = strings.TrimSpace(email)
	if err := validate.Share(email, role); err != nil {
		return err
	}
	id, err := e.ownedID()
	if err != nil {
		return err
	}

	n, err := e.api.ShareNote(ctx, id, models.ShareRequest{Email: email, Role: role})
	if err != nil {
		e.logger.Warn(ctx, "share note failed", "note", id, "error", err)
		e.toast.Toast(ui.LevelError, client.UserMessage(err, "Failed to share note"))
		return fmt.Errorf("share note %s: %w", id, err)
	}
	e.sharesUpdated(n)
	e.toast.Toast(ui.LevelSuccess, fmt.Sprintf("Note shared with %s", email))
	return nil
}

func (e *Editor) UpdateShare(ctx context.Context, userID string, role models.Role) error {
	if role != models.RoleRead && role != models.RoleWrite {
		return validate.Errors{validate.FieldRole: "Role must be read or write"}
	}
	id, err := e.ownedID()
	if err != nil {
		return err
	}

	n, err := e.api.UpdateShare(ctx, id, models.UpdateShareRequest{UserID: userID, Role: role})
	if err != nil {
		e.logger.Warn(ctx, "update share failed", "note", id, "user", userID, "error", err)
		e.toast.Toast(ui.LevelError, client.UserMessage(err, "Failed to update permissions"))
		return fmt.Errorf("update share %s: %w", id, err)
	}
	e.sharesUpdated(n)
	e.toast.Toast(ui.LevelSuccess, "Permissions updated")
	return nil
}

func (e *Editor) Unshare(ctx context.Context, userID string) error {
	id, err := e.ownedID()
	if err != nil {
		return err
	}

	n, err := e.api.RemoveShare(ctx, id, userID)
	if err != nil {
		e.logger.Warn(ctx, "remove share failed", "note", id, "user", userID, "error", err)
		e.toast.Toast(ui.LevelError, client.UserMessage(err, "Failed to remove user"))
		return fmt.Errorf("remove share %s: %w", id, err)
	}
	e.sharesUpdated(n)
	e.toast.Toast(ui.LevelSuccess, "User removed from note")
	return nil
}

// FindUsers looks up users to share with, leaving out the signed-in user.
func (e *Editor) FindUsers(ctx context.Context, email string) ([]models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	users, err := e.api.SearchUsers(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	uid := e.me.UserID()
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID != uid {
			out = append(out, u)
		}
	}
	return out, nil
}

// Export writes the current title and content to w.
func (e *Editor) Export(w io.Writer, f export.Format) error {
	e.mu.Lock()
	title, content := e.title, e.content
	e.mu.Unlock()

	err := export.Write(w, f, title, content)
	if errors.Is(err, export.ErrNothingToExport) {
		e.toast.Toast(ui.LevelWarning, "Nothing to export")
	}
	return err
}
