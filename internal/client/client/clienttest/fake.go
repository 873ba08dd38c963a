// Package clienttest provides a scriptable client.Client for state holder
// tests.
package clienttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/notekeeper/internal/client/client"
	"github.com/dmitrijs2005/notekeeper/internal/client/models"
)

// Call is one recorded request.
type Call struct {
	Method string
	NoteID string
	Input  any
}

// Fake implements client.Client. Each endpoint delegates to its Func field
// when set; unset endpoints return client.ErrUnavailable. Every call is
// recorded before the Func runs.
type Fake struct {
	LoginFunc         func(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	RegisterFunc      func(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	LogoutFunc        func(ctx context.Context) error
	MeFunc            func(ctx context.Context) (*models.User, error)
	MyNotesFunc       func(ctx context.Context, q models.ListQuery) (*models.Page, error)
	SharedWithMeFunc  func(ctx context.Context, q models.ListQuery) (*models.Page, error)
	ArchivedFunc      func(ctx context.Context, q models.ListQuery) (*models.Page, error)
	SearchFunc        func(ctx context.Context, query string) ([]models.Note, error)
	CreateNoteFunc    func(ctx context.Context, in models.NoteInput) (*models.Note, error)
	GetNoteFunc       func(ctx context.Context, id string) (*models.Note, error)
	UpdateNoteFunc    func(ctx context.Context, id string, in models.NoteInput) (*models.Note, error)
	DeleteNoteFunc    func(ctx context.Context, id string) error
	ArchiveNoteFunc   func(ctx context.Context, id string) (*models.Note, error)
	UnarchiveNoteFunc func(ctx context.Context, id string) (*models.Note, error)
	ShareNoteFunc     func(ctx context.Context, id string, req models.ShareRequest) (*models.Note, error)
	UpdateShareFunc   func(ctx context.Context, id string, req models.UpdateShareRequest) (*models.Note, error)
	RemoveShareFunc   func(ctx context.Context, id string, userID string) (*models.Note, error)
	SearchUsersFunc   func(ctx context.Context, email string) ([]models.User, error)

	mu    sync.Mutex
	token string
	calls []Call
}

var _ client.Client = (*Fake)(nil)

func (f *Fake) record(method, noteID string, input any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: method, NoteID: noteID, Input: input})
}

// Calls returns the recorded calls, optionally only those named method.
func (f *Fake) Calls(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Count is len(f.Calls(method)).
func (f *Fake) Count(method string) int {
	return len(f.Calls(method))
}

func (f *Fake) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *Fake) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func unset(method string) error {
	return fmt.Errorf("%w: %s not scripted", client.ErrUnavailable, method)
}

func (f *Fake) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	f.record("Login", "", req)
	if f.LoginFunc == nil {
		return nil, unset("Login")
	}
	return f.LoginFunc(ctx, req)
}

func (f *Fake) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	f.record("Register", "", req)
	if f.RegisterFunc == nil {
		return nil, unset("Register")
	}
	return f.RegisterFunc(ctx, req)
}

func (f *Fake) Logout(ctx context.Context) error {
	f.record("Logout", "", nil)
	if f.LogoutFunc == nil {
		return nil
	}
	return f.LogoutFunc(ctx)
}

func (f *Fake) Me(ctx context.Context) (*models.User, error) {
	f.record("Me", "", nil)
	if f.MeFunc == nil {
		return nil, unset("Me")
	}
	return f.MeFunc(ctx)
}

func (f *Fake) MyNotes(ctx context.Context, q models.ListQuery) (*models.Page, error) {
	f.record("MyNotes", "", q)
	if f.MyNotesFunc == nil {
		return nil, unset("MyNotes")
	}
	return f.MyNotesFunc(ctx, q)
}

func (f *Fake) SharedWithMe(ctx context.Context, q models.ListQuery) (*models.Page, error) {
	f.record("SharedWithMe", "", q)
	if f.SharedWithMeFunc == nil {
		return nil, unset("SharedWithMe")
	}
	return f.SharedWithMeFunc(ctx, q)
}

func (f *Fake) Archived(ctx context.Context, q models.ListQuery) (*models.Page, error) {
	f.record("Archived", "", q)
	if f.ArchivedFunc == nil {
		return nil, unset("Archived")
	}
	return f.ArchivedFunc(ctx, q)
}

func (f *Fake) Search(ctx context.Context, query string) ([]models.Note, error) {
	f.record("Search", "", query)
	if f.SearchFunc == nil {
		return nil, unset("Search")
	}
	return f.SearchFunc(ctx, query)
}

func (f *Fake) CreateNote(ctx context.Context, in models.NoteInput) (*models.Note, error) {
	f.record("CreateNote", "", in)
	if f.CreateNoteFunc == nil {
		return nil, unset("CreateNote")
	}
	return f.CreateNoteFunc(ctx, in)
}

func (f *Fake) GetNote(ctx context.Context, id string) (*models.Note, error) {
	f.record("GetNote", id, nil)
	if f.GetNoteFunc == nil {
		return nil, unset("GetNote")
	}
	return f.GetNoteFunc(ctx, id)
}

func (f *Fake) UpdateNote(ctx context.Context, id string, in models.NoteInput) (*models.Note, error) {
	f.record("UpdateNote", id, in)
	if f.UpdateNoteFunc == nil {
		return nil, unset("UpdateNote")
	}
	return f.UpdateNoteFunc(ctx, id, in)
}

func (f *Fake) DeleteNote(ctx context.Context, id string) error {
	f.record("DeleteNote", id, nil)
	if f.DeleteNoteFunc == nil {
		return unset("DeleteNote")
	}
	return f.DeleteNoteFunc(ctx, id)
}

func (f *Fake) ArchiveNote(ctx context.Context, id string) (*models.Note, error) {
	f.record("ArchiveNote", id, nil)
	if f.ArchiveNoteFunc == nil {
		return nil, unset("ArchiveNote")
	}
	return f.ArchiveNoteFunc(ctx, id)
}

func (f *Fake) UnarchiveNote(ctx context.Context, id string) (*models.Note, error) {
	f.record("UnarchiveNote", id, nil)
	if f.UnarchiveNoteFunc == nil {
		return nil, unset("UnarchiveNote")
	}
	return f.UnarchiveNoteFunc(ctx, id)
}

func (f *Fake) ShareNote(ctx context.Context, id string, req models.ShareRequest) (*models.Note, error) {
	f.record("ShareNote", id, req)
	if f.ShareNoteFunc == nil {
		return nil, unset("ShareNote")
	}
	return f.ShareNoteFunc(ctx, id, req)
}

func (f *Fake) UpdateShare(ctx context.Context, id string, req models.UpdateShareRequest) (*models.Note, error) {
	f.record("UpdateShare", id, req)
	if f.UpdateShareFunc == nil {
		return nil, unset("UpdateShare")
	}
	return f.UpdateShareFunc(ctx, id, req)
}

func (f *Fake) RemoveShare(ctx context.Context, id string, userID string) (*models.Note, error) {
	f.record("RemoveShare", id, userID)
	if f.RemoveShareFunc == nil {
		return nil, unset("RemoveShare")
	}
	return f.RemoveShareFunc(ctx, id, userID)
}

func (f *Fake) SearchUsers(ctx context.Context, email string) ([]models.User, error) {
	f.record("SearchUsers", "", email)
	if f.SearchUsersFunc == nil {
		return nil, unset("SearchUsers")
	}
	return f.SearchUsersFunc(ctx, email)
}
