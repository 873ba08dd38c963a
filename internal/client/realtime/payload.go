package realtime

import (
	"encoding/json"

	"github.com/dmitrijs2005/notekeeper/internal/client/models"
)

// Payload is the data object of a frame. Each event fills the subset of
// fields it needs.
type Payload struct {
	UserID   string         `json:"userId,omitempty"`
	NoteID   string         `json:"noteId,omitempty"`
	Title    string         `json:"title,omitempty"`
	Content  string         `json:"content,omitempty"`
	Archived *bool          `json:"isArchived,omitempty"`
	Role     models.Role    `json:"role,omitempty"`
	Message  string         `json:"message,omitempty"`
	Username string         `json:"username,omitempty"`
	User     *models.User   `json:"user,omitempty"`
	Note     *models.Note   `json:"note,omitempty"`
	Shares   []models.Share `json:"sharedWith,omitempty"`
}

// UnmarshalJSON also accepts "archived" for the archival flag.
func (p *Payload) UnmarshalJSON(b []byte) error {
	type plain Payload
	var aux struct {
		plain
		AltArchived *bool `json:"archived"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*p = Payload(aux.plain)
	if p.Archived == nil {
		p.Archived = aux.AltArchived
	}
	return nil
}

// TargetNoteID resolves the note an event refers to, whether it is sent as
// noteId or inside an embedded note.
func (p Payload) TargetNoteID() string {
	if p.NoteID != "" {
		return p.NoteID
	}
	if p.Note != nil {
		return p.Note.ID
	}
	return ""
}

// Actor names whoever triggered the event, for notification text.
func (p Payload) Actor() string {
	switch {
	case p.User != nil && p.User.DisplayName() != "":
		return p.User.DisplayName()
	case p.Username != "":
		return p.Username
	default:
		return "Someone"
	}
}

// NoteTitle prefers the embedded note's title.
func (p Payload) NoteTitle() string {
	if p.Note != nil && p.Note.Title != "" {
		return p.Note.Title
	}
	return p.Title
}

type Event struct {
	Name    string
	Payload Payload
}

// frame is the wire envelope: {"event": "...", "data": {...}}.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encodeFrame(name string, p Payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(frame{Event: name, Data: data})
}

func decodeFrame(b []byte) (Event, error) {
	var f frame
	if err := json.Unmarshal(b, &f); err != nil {
		return Event{}, err
	}
	ev := Event{Name: f.Event}
	if len(f.Data) > 0 && string(f.Data) != "null" {
		if err := json.Unmarshal(f.Data, &ev.Payload); err != nil {
			return Event{}, err
		}
	}
	return ev, nil
}

// Bool is a helper for building payloads with an Archived flag.
func Bool(b bool) *bool {
	return &b
}
