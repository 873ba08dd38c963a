package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Ref is a reference to a user that the backend sends either as a bare
// identifier or as a populated user object.
type Ref struct {
	id   string
	user *User
}

// RefID builds an unresolved reference.
func RefID(id string) Ref {
	return Ref{id: id}
}

// RefUser builds a resolved reference.
func RefUser(u User) Ref {
	return Ref{user: &u}
}

// ID resolves either form to the user identifier.
func (r Ref) ID() string {
	if r.user != nil {
		return r.user.ID
	}
	return r.id
}

// User returns the populated user when the reference is resolved.
func (r Ref) User() (User, bool) {
	if r.user == nil {
		return User{}, false
	}
	return *r.user, true
}

func (r Ref) IsZero() bool {
	return r.user == nil && r.id == ""
}

// Is reports whether the reference points at userID.
func (r Ref) Is(userID string) bool {
	return userID != "" && r.ID() == userID
}

func (r Ref) MarshalJSON() ([]byte, error) {
	switch {
	case r.user != nil:
		return json.Marshal(r.user)
	case r.id != "":
		return json.Marshal(r.id)
	default:
		return []byte("null"), nil
	}
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*r = Ref{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '"':
		return json.Unmarshal(b, &r.id)
	case '{':
		var u User
		if err := json.Unmarshal(b, &u); err != nil {
			return err
		}
		r.user = &u
		return nil
	default:
		return errors.New("user reference must be a string or an object")
	}
}
