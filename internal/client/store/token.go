package store

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/notekeeper/internal/common"
)

// TokenStore keeps the session token between runs. An absent token is
// reported as "" with a nil error.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// SQLiteTokenStore stores the token under a fixed metadata key.
type SQLiteTokenStore struct {
	repo MetadataRepository
}

func NewSQLiteTokenStore(repo MetadataRepository) *SQLiteTokenStore {
	return &SQLiteTokenStore{repo: repo}
}

func (s *SQLiteTokenStore) Token(ctx context.Context) (string, error) {
	v, err := s.repo.Get(ctx, common.TokenStoreKey)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *SQLiteTokenStore) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.ClearToken(ctx)
	}
	return s.repo.Set(ctx, common.TokenStoreKey, []byte(token))
}

func (s *SQLiteTokenStore) ClearToken(ctx context.Context) error {
	return s.repo.Delete(ctx, common.TokenStoreKey)
}

// MemoryTokenStore keeps the token for the life of the process only.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryTokenStore) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) ClearToken(context.Context) error {
	return s.SetToken(context.Background(), "")
}
