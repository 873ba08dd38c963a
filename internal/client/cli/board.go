package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/client/dashboard"
	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/common"
)

func (a *App) collectionArg(board *dashboard.Dashboard, args []string, at int) (dashboard.Collection, error) {
	if len(args) <= at {
		return board.Tab(), nil
	}
	c := dashboard.Collection(strings.ToLower(args[at]))
	if !c.Valid() {
		return "", fmt.Errorf("unknown tab %q (want mine, shared or archived)", args[at])
	}
	return c, nil
}

// List prints one collection of the dashboard, the active tab by default.
func (a *App) List(_ context.Context, args []string) error {
	board, err := a.dashboard()
	if err != nil {
		return err
	}
	c, err := a.collectionArg(board, args, 0)
	if err != nil {
		return err
	}
	a.printList(c, board.View(c), board.Query())
	return nil
}

func (a *App) printList(c dashboard.Collection, l dashboard.List, query string) {
	a.outMu.Lock()
	defer a.outMu.Unlock()

	header := fmt.Sprintf("%s: page %d of %d, %d notes, sorted by %s %s", c, l.Page, max(l.TotalPages, 1), l.Total, l.Sort.By, l.Sort.Order)
	if query != "" {
		header += fmt.Sprintf(", filter %q", query)
	}
	fmt.Fprintln(a.out, header)
	if len(l.Notes) == 0 {
		fmt.Fprintln(a.out, "  (no notes)")
		return
	}
	writeNotes(a.out, l.Notes)
}

func writeNotes(out io.Writer, notes []models.Note) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tOWNER\tUPDATED\t")
	for _, n := range notes {
		owner := n.Creator.ID()
		if u, ok := n.Creator.User(); ok {
			owner = u.DisplayName()
		}
		updated := ""
		if !n.UpdatedAt.IsZero() {
			updated = n.UpdatedAt.Local().Format(time.DateTime)
		}
		title := n.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", n.ID, title, owner, updated)
	}
	_ = w.Flush()
}

func (a *App) SetTab(ctx context.Context, args []string) error {
	board, err := a.dashboard()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		a.printf("Active tab: %s\n", board.Tab())
		return nil
	}
	if err := board.SetTab(dashboard.Collection(strings.ToLower(args[0]))); err != nil {
		return err
	}
	a.Navigate(common.RouteDashboard)
	return a.List(ctx, nil)
}

// Page moves a collection to another page and refetches.
func (a *App) Page(ctx context.Context, args []string) error {
	board, err := a.dashboard()
	if err != nil {
		return err
	}
	page, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("page must be a number: %w", err)
	}
	c, err := a.collectionArg(board, args, 1)
	if err != nil {
		return err
	}
	if _, err := board.SetPage(ctx, c, page); err != nil {
		return err
	}
	a.printList(c, board.View(c), board.Query())
	return nil
}

// Sort changes the order of the active tab.
func (a *App) Sort(ctx context.Context, args []string) error {
	board, err := a.dashboard()
	if err != nil {
		return err
	}
	s := dashboard.Sort{By: args[0], Order: models.SortDesc}
	if len(args) > 1 {
		s.Order = models.SortOrder(strings.ToLower(args[1]))
	}
	c := board.Tab()
	if _, err := board.SetSort(ctx, c, s); err != nil {
		return err
	}
	a.printList(c, board.View(c), board.Query())
	return nil
}

// Filter narrows the dashboard by title without asking the server. No
// argument clears the filter.
func (a *App) Filter(_ context.Context, args []string) error {
	board, err := a.dashboard()
	if err != nil {
		return err
	}
	board.SetQuery(strings.Join(args, " "))
	c := board.Tab()
	a.printList(c, board.View(c), board.Query())
	return nil
}

// Search asks the server for notes matching the query. The results are kept
// so that "open" can refer to them by position.
func (a *App) Search(ctx context.Context, args []string) error {
	board, err := a.dashboard()
	if err != nil {
		return err
	}
	notes, err := board.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.lastResults = notes
	a.mu.Unlock()

	if len(notes) == 0 {
		a.printf("No notes found\n")
		return nil
	}
	a.outMu.Lock()
	defer a.outMu.Unlock()
	writeNotes(a.out, notes)
	return nil
}

// resolveNoteID turns "#n" into the id of the n-th search result.
func (a *App) resolveNoteID(arg string) (string, error) {
	if !strings.HasPrefix(arg, "#") {
		return arg, nil
	}
	i, err := strconv.Atoi(arg[1:])
	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil || i < 1 || i > len(a.lastResults) {
		return "", fmt.Errorf("no search result %s", arg)
	}
	return a.lastResults[i-1].ID, nil
}

func (a *App) Archive(ctx context.Context, args []string) error {
	return a.mutateNote(ctx, args[0], (*dashboard.Dashboard).Archive)
}

func (a *App) Unarchive(ctx context.Context, args []string) error {
	return a.mutateNote(ctx, args[0], (*dashboard.Dashboard).Unarchive)
}

func (a *App) Delete(ctx context.Context, args []string) error {
	return a.mutateNote(ctx, args[0], (*dashboard.Dashboard).Delete)
}

func (a *App) mutateNote(ctx context.Context, arg string, fn func(*dashboard.Dashboard, context.Context, string) error) error {
	board, err := a.dashboard()
	if err != nil {
		return err
	}
	id, err := a.resolveNoteID(arg)
	if err != nil {
		return err
	}
	return fn(board, ctx, id)
}
