// Package dashboard keeps the three note collections shown on the
// dashboard (own, shared with me, archived) in step with the server.
//
// Each collection is fetched independently; a failure in one leaves the
// others intact. At most one full fetch runs at a time and a fetch
// requested meanwhile is skipped, not queued. Archive, unarchive and delete
// update the collections before the request is sent and roll back if it
// fails.
//
// Optimistic operations are stamped with a generation number. A fetch
// remembers the generation at which it was issued, and operations that were
// still in flight then, or finished later, are re-applied over the fetched
// pages so that a stale response cannot resurrect an archived or deleted
// note.
package dashboard
