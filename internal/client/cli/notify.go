package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"
)

// Notifications prints the feed, newest first.
func (a *App) Notifications(context.Context, []string) error {
	entries := a.feed.Entries()
	if len(entries) == 0 {
		a.printf("No notifications\n")
		return nil
	}

	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, "%d unread\n", a.feed.Unread())
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, n := range entries {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", mark, n.ID, n.Time.Local().Format(time.Kitchen), n.Type, n.Message)
	}
	return w.Flush()
}

func (a *App) MarkRead(_ context.Context, args []string) error {
	if !a.feed.MarkRead(args[0]) {
		return fmt.Errorf("no notification %s", args[0])
	}
	return nil
}

func (a *App) MarkAllRead(context.Context, []string) error {
	a.feed.MarkAllRead()
	return nil
}

func (a *App) Dismiss(_ context.Context, args []string) error {
	if !a.feed.Remove(args[0]) {
		return fmt.Errorf("no notification %s", args[0])
	}
	return nil
}
