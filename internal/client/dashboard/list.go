package dashboard

import (
	"slices"
	"strings"

	"github.com/dmitrijs2005/notekeeper/internal/client/models"
)

type Collection string

const (
	Mine     Collection = "mine"
	Shared   Collection = "shared"
	Archived Collection = "archived"
)

var Collections = []Collection{Mine, Shared, Archived}

func (c Collection) Valid() bool {
	return slices.Contains(Collections, c)
}

func (c Collection) label() string {
	switch c {
	case Mine:
		return "your notes"
	case Shared:
		return "shared notes"
	default:
		return "archived notes"
	}
}

type Sort struct {
	By    string
	Order models.SortOrder
}

var DefaultSort = Sort{By: "updatedAt", Order: models.SortDesc}

// List is one collection: the current page plus pagination and sort state.
type List struct {
	Notes      []models.Note
	Page       int
	TotalPages int
	Total      int
	Sort       Sort
}

func newList() *List {
	return &List{Page: 1, Sort: DefaultSort}
}

func (l *List) clone() List {
	c := *l
	c.Notes = make([]models.Note, len(l.Notes))
	for i, n := range l.Notes {
		c.Notes[i] = n.Clone()
	}
	return c
}

func (l *List) index(id string) int {
	return slices.IndexFunc(l.Notes, func(n models.Note) bool { return n.ID == id })
}

// remove drops id and returns its former position, or -1.
func (l *List) remove(id string) int {
	i := l.index(id)
	if i < 0 {
		return -1
	}
	l.Notes = slices.Delete(l.Notes, i, i+1)
	if l.Total > 0 {
		l.Total--
	}
	return i
}

// insert places n at pos (clamped), unless it is already present.
func (l *List) insert(n models.Note, pos int) {
	if l.index(n.ID) >= 0 {
		return
	}
	if pos < 0 || pos > len(l.Notes) {
		pos = len(l.Notes)
	}
	l.Notes = slices.Insert(l.Notes, pos, n)
	l.Total++
}

// visible applies the client-side safety filter of collection c for user
// uid and the title query q. Pagination fields are left as fetched.
func visible(c Collection, n models.Note, uid, q string) bool {
	owned := n.IsOwnedBy(uid)
	switch c {
	case Mine:
		if n.Archived || !owned {
			return false
		}
	case Shared:
		if n.Archived || owned || !n.SharedWith(uid) {
			return false
		}
	case Archived:
		if !n.Archived || !(owned || n.SharedWith(uid)) {
			return false
		}
	}
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(n.Title), strings.ToLower(q))
}
