package models

import (
	"encoding/json"
	"time"
)

// MaxTitleLength bounds note titles, in characters.
const MaxTitleLength = 100

// Share grants a user a role on a note.
type Share struct {
	User  Ref    `json:"user"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
}

type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Creator   Ref       `json:"creator"`
	Shares    []Share   `json:"sharedWith,omitempty"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UnmarshalJSON accepts either "id" or "_id", and "isArchived" as an alias
// of "archived".
func (n *Note) UnmarshalJSON(b []byte) error {
	type plain Note
	var aux struct {
		plain
		MongoID    string `json:"_id"`
		IsArchived *bool  `json:"isArchived"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*n = Note(aux.plain)
	if n.ID == "" {
		n.ID = aux.MongoID
	}
	if aux.IsArchived != nil {
		n.Archived = *aux.IsArchived
	}
	return nil
}

func (n Note) IsOwnedBy(userID string) bool {
	return n.Creator.Is(userID)
}

// ShareFor returns the share granted to userID, if any.
func (n Note) ShareFor(userID string) (Share, bool) {
	for _, s := range n.Shares {
		if s.User.Is(userID) {
			return s, true
		}
	}
	return Share{}, false
}

func (n Note) SharedWith(userID string) bool {
	_, ok := n.ShareFor(userID)
	return ok
}

// CanEdit is true for the creator and for write/owner shares. Archival is
// not considered here.
func (n Note) CanEdit(userID string) bool {
	if n.IsOwnedBy(userID) {
		return true
	}
	s, ok := n.ShareFor(userID)
	return ok && s.Role.CanWrite()
}

// Clone returns a copy that does not alias the shares slice.
func (n Note) Clone() Note {
	c := n
	if n.Shares != nil {
		c.Shares = append([]Share(nil), n.Shares...)
	}
	return c
}

// NoteInput is the body of create and update requests.
type NoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
