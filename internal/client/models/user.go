// Package models defines the client-side cached copies of backend entities:
// users, notes, shares, pages of notes, and ephemeral notifications.
package models

import (
	"encoding/json"
	"fmt"
)

// Role is a share permission level.
type Role string

const (
	RoleRead  Role = "read"
	RoleWrite Role = "write"
	RoleOwner Role = "owner"
)

// CanWrite reports whether the role allows editing note content.
func (r Role) CanWrite() bool {
	return r == RoleWrite || r == RoleOwner
}

func (r Role) Valid() bool {
	switch r {
	case RoleRead, RoleWrite, RoleOwner:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User is a backend account as seen by the client.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
}

// UnmarshalJSON accepts either "id" or the document-store style "_id".
func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

// DisplayName prefers the username and falls back to the email.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
