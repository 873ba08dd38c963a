package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/client/client"
	"github.com/dmitrijs2005/notekeeper/internal/client/config"
	"github.com/dmitrijs2005/notekeeper/internal/client/dashboard"
	"github.com/dmitrijs2005/notekeeper/internal/client/editor"
	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/client/notifications"
	"github.com/dmitrijs2005/notekeeper/internal/client/realtime"
	"github.com/dmitrijs2005/notekeeper/internal/client/session"
	"github.com/dmitrijs2005/notekeeper/internal/client/store"
	"github.com/dmitrijs2005/notekeeper/internal/client/ui"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

// Realtime is the realtime connection as the App uses it.
type Realtime interface {
	realtime.Bus
	session.Realtime
}

// Deps are the collaborators of an App. NewApp builds the real ones.
type Deps struct {
	Config   *config.Config
	Logger   logging.Logger
	API      client.Client
	Tokens   store.TokenStore
	Realtime Realtime
	// Online reports whether the realtime connection is up. Nil means
	// always online.
	Online func() bool
	In     io.Reader
	Out    io.Writer
}

type App struct {
	config *config.Config
	logger logging.Logger
	api    client.Client
	rt     Realtime
	online func() bool
	reader *bufio.Reader

	session *session.Session
	feed    *notifications.Feed

	outMu sync.Mutex
	out   io.Writer

	mu          sync.Mutex
	Mode        Mode
	route       string
	board       *dashboard.Dashboard
	stopBoard   context.CancelFunc
	editor      *editor.Editor
	lastResults []models.Note
}

func New(d Deps) *App {
	a := &App{
		config: d.Config,
		logger: d.Logger,
		api:    d.API,
		rt:     d.Realtime,
		online: d.Online,
		reader: bufio.NewReader(d.In),
		out:    d.Out,
		Mode:   ModeDisabled,
	}
	if a.online == nil {
		a.online = func() bool { return true }
	}
	a.session = session.New(d.API, d.Tokens, d.Realtime, a, a, d.Logger)
	a.feed = notifications.New(d.Realtime, a.session, d.Logger)
	a.feed.Subscribe()
	a.session.OnChange(a.sessionChanged)
	return a
}

// NewApp opens the local store and builds the REST and realtime clients
// for cfg. The returned function releases them.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, func(), error) {
	db, err := store.OpenDatabase(ctx, cfg.StorePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, nil, err
	}

	api := client.NewHTTPClient(cfg.APIBaseURL, cfg.RequestTimeout, logger.With("component", "api"))

	settings := realtime.DefaultSettings(cfg.RealtimeURL)
	settings.ReconnectDelay = cfg.ReconnectDelay
	settings.PresenceInterval = cfg.PresenceInterval
	rt := realtime.NewClient(settings, logger.With("component", "realtime"))

	a := New(Deps{
		Config:   cfg,
		Logger:   logger,
		API:      api,
		Tokens:   store.NewSQLiteTokenStore(store.NewSQLiteMetadataRepository(db)),
		Realtime: rt,
		Online:   rt.Connected,
		In:       os.Stdin,
		Out:      os.Stdout,
	})
	api.SetUnauthorizedHandler(func() { a.session.Expire(context.Background()) })

	return a, func() { closeAll(rt, db) }, nil
}

func closeAll(rt *realtime.Client, db *sql.DB) {
	rt.Close()
	_ = db.Close()
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

// Toast prints a transient message.
func (a *App) Toast(level ui.Level, msg string) {
	a.printf("[%s] %s\n", level, msg)
}

// Navigate switches the active view. Leaving the editor drops it once it
// has closed itself.
func (a *App) Navigate(path string) {
	a.mu.Lock()
	a.route = path
	if a.editor != nil && path != "" && a.editor.Closed() {
		a.editor = nil
	}
	a.mu.Unlock()
	a.logger.Debug(context.Background(), "navigate", "route", path)
}

// Replace updates the route in place, as after a note is created.
func (a *App) Replace(path string) {
	a.mu.Lock()
	a.route = path
	a.mu.Unlock()
}

func (a *App) Route() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.route
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()
	if changed {
		a.printf("Switched to %s mode\n", mode)
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.Authenticated()
}

// sessionChanged mounts the dashboard for a signed-in user and tears the
// signed-in views down on sign-out.
func (a *App) sessionChanged(u *models.User) {
	ctx := context.Background()
	a.mu.Lock()
	oldBoard, stop, ed := a.board, a.stopBoard, a.editor
	a.board, a.stopBoard, a.editor, a.lastResults = nil, nil, nil, nil
	a.mu.Unlock()

	if ed != nil {
		ed.Close(ctx)
	}
	if stop != nil {
		stop()
	}
	if oldBoard != nil {
		oldBoard.Unsubscribe()
	}

	if u == nil {
		a.feed.Clear()
		a.setMode(ModeDisabled)
		return
	}

	board := dashboard.New(a.api, a.rt, a.session, a, a.logger.With("component", "dashboard"), a.config.PageSize)
	board.Subscribe()
	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		if err := board.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn(runCtx, "dashboard loop stopped", "error", err)
		}
	}()

	a.mu.Lock()
	a.board, a.stopBoard = board, cancel
	a.mu.Unlock()

	a.setMode(ModeOnline)
	board.Fetch(ctx)
}

func (a *App) dashboard() (*dashboard.Dashboard, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.board == nil {
		return nil, session.ErrNotAuthenticated
	}
	return a.board, nil
}

var errNoNote = errors.New("no note is open (use 'open <id>' or 'new')")

func (a *App) currentEditor() (*editor.Editor, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.editor == nil {
		return nil, errNoNote
	}
	return a.editor, nil
}

// Run restores the previous session if there is one and runs the REPL
// until the user exits or ctx ends.
func (a *App) Run(ctx context.Context) {
	defer a.shutdown(ctx)

	a.printf("Welcome to notekeeper (type 'help' for commands)\n")
	if err := a.session.CheckAuth(ctx); err != nil {
		a.logger.Debug(ctx, "no session restored", "error", err)
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.ReconnectDelay)

	runREPL(ctx, a.commands(), a.isLoggedIn, a.getStatus, a.reader)
}

func (a *App) shutdown(ctx context.Context) {
	a.mu.Lock()
	ed, stop := a.editor, a.stopBoard
	a.editor = nil
	a.mu.Unlock()
	if ed != nil {
		ed.Close(ctx)
	}
	if stop != nil {
		stop()
	}
	a.feed.Unsubscribe()
}

// StartOnlineStatusWatcher polls the realtime connection while signed in
// and reports transitions between online and offline.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !a.isLoggedIn() {
				continue
			}
			if a.online() {
				a.setMode(ModeOnline)
			} else {
				a.setMode(ModeOffline)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) getStatus() string {
	s := ""
	if u, ok := a.session.User(); ok {
		s = u.DisplayName() + " "
	}
	a.mu.Lock()
	mode, route := a.Mode, a.route
	a.mu.Unlock()
	if mode != ModeDisabled {
		s += string(mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	if route != "" {
		s += " " + route
	}
	return s
}

// Restore signs in with the stored token without starting the REPL.
func (a *App) Restore(ctx context.Context) error {
	return a.session.CheckAuth(ctx)
}
