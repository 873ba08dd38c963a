package client

import (
	"context"

	"github.com/dmitrijs2005/notekeeper/internal/client/models"
)

// Client is the REST API contract consumed by the session, dashboard and
// editor state holders.
type Client interface {
	SetToken(token string)

	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)

	MyNotes(ctx context.Context, q models.ListQuery) (*models.Page, error)
	SharedWithMe(ctx context.Context, q models.ListQuery) (*models.Page, error)
	Archived(ctx context.Context, q models.ListQuery) (*models.Page, error)
	Search(ctx context.Context, query string) ([]models.Note, error)

	CreateNote(ctx context.Context, in models.NoteInput) (*models.Note, error)
	GetNote(ctx context.Context, id string) (*models.Note, error)
	UpdateNote(ctx context.Context, id string, in models.NoteInput) (*models.Note, error)
	DeleteNote(ctx context.Context, id string) error
	ArchiveNote(ctx context.Context, id string) (*models.Note, error)
	UnarchiveNote(ctx context.Context, id string) (*models.Note, error)

	ShareNote(ctx context.Context, id string, req models.ShareRequest) (*models.Note, error)
	UpdateShare(ctx context.Context, id string, req models.UpdateShareRequest) (*models.Note, error)
	RemoveShare(ctx context.Context, id string, userID string) (*models.Note, error)
	SearchUsers(ctx context.Context, email string) ([]models.User, error)
}
