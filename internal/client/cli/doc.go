// Package cli provides the interactive notekeeper terminal client.
//
// It wires configuration, the local token store, the REST and realtime
// clients and the state holders (session, dashboard, editor, notification
// feed) behind a line-oriented REPL. The App plays the part of the view:
// toasts are printed, and route changes decide which state holder is live.
//
// Typical flow: restore the stored session, watch the realtime connection
// in the background, and execute user commands until "exit".
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
