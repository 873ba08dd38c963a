package cli

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/notekeeper/internal/client/editor"
	"github.com/dmitrijs2005/notekeeper/internal/client/export"
	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/client/richtext"
	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/filex"
)

// createFile is a test seam for export targets.
var createFile = func(name string) (io.WriteCloser, error) { return filex.Create(name) }

// OpenNote closes the current note, if any, and opens id in a fresh editor.
// "new" starts an unsaved note.
func (a *App) OpenNote(ctx context.Context, args []string) error {
	id := common.NewNoteID
	if len(args) > 0 {
		var err error
		if id, err = a.resolveNoteID(args[0]); err != nil {
			return err
		}
	}

	ed := editor.New(a.api, a.rt, a.session, a, a, a.logger.With("component", "editor"), a.config.AutosaveDelay)

	a.mu.Lock()
	old := a.editor
	a.editor = ed
	a.mu.Unlock()
	if old != nil {
		old.Close(ctx)
	}

	a.Navigate(common.NotePath(id))
	if err := ed.Open(ctx, id); err != nil {
		return err
	}
	return a.Show(ctx, nil)
}

// NewNote is "open new".
func (a *App) NewNote(ctx context.Context, _ []string) error {
	return a.OpenNote(ctx, []string{common.NewNoteID})
}

// CloseNote leaves the editor and goes back to the dashboard.
func (a *App) CloseNote(ctx context.Context, _ []string) error {
	a.mu.Lock()
	ed := a.editor
	a.editor = nil
	a.mu.Unlock()
	if ed == nil {
		return errNoNote
	}
	ed.Close(ctx)
	a.Navigate(common.RouteDashboard)
	return nil
}

func (a *App) Show(context.Context, []string) error {
	ed, err := a.currentEditor()
	if err != nil {
		return err
	}
	s := ed.Snapshot()

	a.outMu.Lock()
	defer a.outMu.Unlock()

	title := s.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(a.out, "%s [%s]\n", title, s.State)
	if s.ID != "" {
		fmt.Fprintf(a.out, "id: %s\n", s.ID)
	}
	if s.Archived {
		fmt.Fprintln(a.out, "archived")
	}
	fmt.Fprintln(a.out, strings.Repeat("-", 40))
	if richtext.IsEmpty(s.Content) {
		fmt.Fprintln(a.out, "(empty)")
	} else {
		fmt.Fprintln(a.out, richtext.PlainText(s.Content))
	}
	if len(s.Shares) > 0 {
		fmt.Fprintln(a.out, strings.Repeat("-", 40))
		writeShares(a.out, s.Shares)
	}
	return nil
}

func writeShares(out io.Writer, shares []models.Share) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tEMAIL\tROLE\t")
	for _, sh := range shares {
		email := sh.Email
		if u, ok := sh.User.User(); ok && email == "" {
			email = u.Email
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", sh.User.ID(), email, sh.Role)
	}
	_ = w.Flush()
}

func (a *App) SetTitle(ctx context.Context, args []string) error {
	ed, err := a.currentEditor()
	if err != nil {
		return err
	}
	return ed.SetTitle(ctx, strings.Join(args, " "))
}

// Write replaces the note body with text typed at the prompt, one paragraph
// per line. The caret ends up after the last character.
func (a *App) Write(ctx context.Context, _ []string) error {
	ed, err := a.currentEditor()
	if err != nil {
		return err
	}
	text, err := getMultiline(a.reader, "Enter note text", a.out)
	if err != nil {
		return err
	}
	content := toDocument(text)
	return ed.SetContent(ctx, content, richtext.Selection{Index: richtext.Length(content)})
}

var getMultiline = GetMultiline

func toDocument(text string) string {
	if strings.TrimSpace(text) == "" {
		return richtext.EmptyDocument
	}
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			b.WriteString("<p><br></p>")
			continue
		}
		b.WriteString("<p>" + html.EscapeString(line) + "</p>")
	}
	return b.String()
}

func (a *App) Save(ctx context.Context, _ []string) error {
	ed, err := a.currentEditor()
	if err != nil {
		return err
	}
	if err := ed.Save(ctx); err != nil {
		return err
	}
	a.printf("Saved (%s)\n", ed.State())
	return nil
}

// Export writes the open note to a file. The name defaults to one derived
// from the title.
func (a *App) Export(_ context.Context, args []string) error {
	ed, err := a.currentEditor()
	if err != nil {
		return err
	}
	f, err := export.ParseFormat(args[0])
	if err != nil {
		return err
	}
	name := export.FileName(ed.Snapshot().Title, f)
	if len(args) > 1 {
		name = args[1]
	}

	file, err := createFile(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	werr := ed.Export(file, f)
	cerr := file.Close()
	if errors.Is(werr, export.ErrNothingToExport) {
		_ = os.Remove(name)
		return nil
	}
	if err := errors.Join(werr, cerr); err != nil {
		return err
	}
	a.printf("Exported to %s\n", name)
	return nil
}

func (a *App) Share(ctx context.Context, args []string) error {
	ed, err := a.currentEditor()
	if err != nil {
		return err
	}
	role, err := models.ParseRole(strings.ToLower(args[1]))
	if err != nil {
		return err
	}
	return ed.Share(ctx, args[0], role)
}

func (a *App) UpdateRole(ctx context.Context, args []string) error {
	ed, err := a.currentEditor()
	if err != nil {
		return err
	}
	role, err := models.ParseRole(strings.ToLower(args[1]))
	if err != nil {
		return err
	}
	return ed.UpdateShare(ctx, args[0], role)
}

func (a *App) Unshare(ctx context.Context, args []string) error {
	ed, err := a.currentEditor()
	if err != nil {
		return err
	}
	return ed.Unshare(ctx, args[0])
}

// FindUsers lists users to share the open note with.
func (a *App) FindUsers(ctx context.Context, args []string) error {
	ed, err := a.currentEditor()
	if err != nil {
		return err
	}
	users, err := ed.FindUsers(ctx, args[0])
	if err != nil {
		return err
	}
	if len(users) == 0 {
		a.printf("No users found\n")
		return nil
	}

	a.outMu.Lock()
	defer a.outMu.Unlock()
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\t")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", u.ID, u.Username, u.Email)
	}
	return w.Flush()
}

// ExportNote opens note id, writes it to name in format f and closes it
// again. It backs the non-interactive export command.
func (a *App) ExportNote(ctx context.Context, id string, f export.Format, name string) error {
	if err := a.OpenNote(ctx, []string{id}); err != nil {
		return err
	}
	defer func() { _ = a.CloseNote(ctx, nil) }()

	args := []string{string(f)}
	if name != "" {
		args = append(args, name)
	}
	return a.Export(ctx, args)
}
