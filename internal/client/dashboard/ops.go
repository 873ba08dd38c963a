package dashboard

import (
	"github.com/dmitrijs2005/notekeeper/internal/client/models"
)

type opKind int

const (
	opArchive opKind = iota
	opUnarchive
	opDelete
)

func (k opKind) String() string {
	switch k {
	case opArchive:
		return "archive"
	case opUnarchive:
		return "unarchive"
	default:
		return "delete"
	}
}

type origin struct {
	coll Collection
	pos  int
}

// op is an optimistic mutation awaiting or recently given server
// confirmation.
type op struct {
	kind    opKind
	note    models.Note
	gen     uint64
	done    bool
	doneGen uint64
	origins []origin
}

// stale reports whether a fetch issued at fetchGen may predate the server
// applying o.
func (o *op) stale(fetchGen uint64) bool {
	return !o.done || o.doneGen > fetchGen
}

// apply performs o on lists. It is idempotent, so it can be replayed over
// freshly fetched pages. It returns where the note was removed from.
func (o *op) apply(lists map[Collection]*List, uid string) []origin {
	var removed []origin
	take := func(c Collection) {
		if pos := lists[c].remove(o.note.ID); pos >= 0 {
			removed = append(removed, origin{coll: c, pos: pos})
		}
	}

	switch o.kind {
	case opArchive:
		take(Mine)
		take(Shared)
		n := o.note.Clone()
		n.Archived = true
		lists[Archived].insert(n, -1)
	case opUnarchive:
		take(Archived)
		n := o.note.Clone()
		n.Archived = false
		lists[home(n, uid)].insert(n, -1)
	case opDelete:
		for _, c := range Collections {
			take(c)
		}
	}
	return removed
}

// revert undoes apply using the origins recorded the first time.
func (o *op) revert(lists map[Collection]*List, uid string) {
	switch o.kind {
	case opArchive:
		lists[Archived].remove(o.note.ID)
	case opUnarchive:
		lists[home(o.note, uid)].remove(o.note.ID)
	}
	for _, or := range o.origins {
		lists[or.coll].insert(o.note.Clone(), or.pos)
	}
}

// home is the active collection a non-archived note belongs to.
func home(n models.Note, uid string) Collection {
	if n.IsOwnedBy(uid) || !n.SharedWith(uid) {
		return Mine
	}
	return Shared
}
