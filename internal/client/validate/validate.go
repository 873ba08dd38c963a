// Package validate checks form input before any request is sent. Failures
// are reported per field so the front end can show them inline.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/notekeeper/internal/client/models"
)

const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldTitle    = "title"
	FieldRole     = "role"

	MinPasswordLength = 6
)

var (
	// 3-30 letters, digits, dots, dashes or underscores
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,30}$`)

	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Errors maps a field name to its message. A nil or empty Errors means the
// input is valid.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e Errors) add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

// Err returns e as an error, or nil when it holds no messages.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func checkEmail(e Errors, email string) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		e.add(FieldEmail, "Email is required")
	case len(email) > 255 || !emailRegex.MatchString(email):
		e.add(FieldEmail, "Invalid email address")
	}
}

func Login(email, password string) error {
	e := Errors{}
	checkEmail(e, email)
	if password == "" {
		e.add(FieldPassword, "Password is required")
	}
	return e.Err()
}

func Register(username, email, password string) error {
	e := Errors{}
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		e.add(FieldUsername, "Username is required")
	case !usernameRegex.MatchString(username):
		e.add(FieldUsername, "Username must be 3-30 letters, digits, dots, dashes or underscores")
	}
	checkEmail(e, email)
	switch {
	case password == "":
		e.add(FieldPassword, "Password is required")
	case utf8.RuneCountInString(password) < MinPasswordLength:
		e.add(FieldPassword, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	return e.Err()
}

// Title checks a note title. Blank titles are rejected only when required,
// since an existing note can be saved while its title is being retyped.
func Title(title string, required bool) error {
	e := Errors{}
	if required && strings.TrimSpace(title) == "" {
		e.add(FieldTitle, "Title is required")
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		e.add(FieldTitle, fmt.Sprintf("Title must be at most %d characters", models.MaxTitleLength))
	}
	return e.Err()
}

func Share(email string, role models.Role) error {
	e := Errors{}
	checkEmail(e, email)
	if role != models.RoleRead && role != models.RoleWrite {
		e.add(FieldRole, "Role must be read or write")
	}
	return e.Err()
}
