// Package ui holds the ports through which state holders reach the
// presentation layer: transient toasts and route changes.
package ui

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Toaster shows a dismissible, transient message.
type Toaster interface {
	Toast(level Level, msg string)
}

// Navigator changes the current route. Replace swaps the current history
// entry instead of pushing a new one.
type Navigator interface {
	Navigate(path string)
	Replace(path string)
}

// Nop discards toasts and navigation. Useful for headless commands.
type Nop struct{}

func (Nop) Toast(Level, string) {}
func (Nop) Navigate(string)     {}
func (Nop) Replace(string)      {}
