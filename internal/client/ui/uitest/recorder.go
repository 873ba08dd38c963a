// Package uitest provides a recording Toaster and Navigator for tests.
package uitest

import (
	"sync"

	"github.com/dmitrijs2005/notekeeper/internal/client/ui"
)

type Toast struct {
	Level ui.Level
	Msg   string
}

// Recorder records every toast and route change.
type Recorder struct {
	mu       sync.Mutex
	toasts   []Toast
	routes   []string
	replaced []string
}

func (r *Recorder) Toast(level ui.Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, Toast{Level: level, Msg: msg})
}

func (r *Recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, path)
}

func (r *Recorder) Replace(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaced = append(r.replaced, path)
}

func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Messages returns the toast texts at level, or all of them when level is "".
func (r *Recorder) Messages(level ui.Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, t := range r.toasts {
		if level == "" || t.Level == level {
			out = append(out, t.Msg)
		}
	}
	return out
}

func (r *Recorder) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

func (r *Recorder) Replaced() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.replaced...)
}

// LastRoute returns the most recent Navigate target, or "".
func (r *Recorder) LastRoute() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}
