// Package editor keeps the state of one open note: the values being edited,
// the last values the server confirmed, the autosave timer, and the note's
// permissions as they change under realtime events.
//
// The zero-to-done lifecycle is New, Open, any number of edits and saves,
// then Close. An Editor is not reused across notes.
package editor
