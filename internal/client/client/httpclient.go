package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/google/uuid"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultTLSTimeout     = 5 * time.Second
)

func defaultHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout: defaultConnectTimeout,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: defaultTLSTimeout,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

// NewHTTPClient builds a client for the API rooted at baseURL
// (e.g. "http://localhost:5000/api").
func NewHTTPClient(baseURL string, timeout time.Duration, logger logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    defaultHTTPClient(timeout),
		logger:  logger,
	}
}

// SetToken sets the bearer token attached to subsequent requests. An empty
// token sends requests unauthenticated.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// SetUnauthorizedHandler registers fn to run when an authenticated request
// comes back 401.
func (c *HTTPClient) SetUnauthorizedHandler(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

func (c *HTTPClient) auth() (string, func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.onUnauthorized
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, onUnauthorized := c.auth()
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
		c.logger.Debug(ctx, "api request failed",
			"method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)
		if resp.StatusCode == http.StatusUnauthorized && token != "" && onUnauthorized != nil {
			onUnauthorized()
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts {"message": ...} or {"error": ...}, falling back to
// a short plain-text body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}

// envelope decodes either a bare value or one wrapped under key,
// e.g. {"note": {...}}.
type envelope[T any] struct {
	key   string
	value T
}

func (e *envelope[T]) UnmarshalJSON(b []byte) error {
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(b, &wrapped); err == nil {
		if inner, ok := wrapped[e.key]; ok {
			return json.Unmarshal(inner, &e.value)
		}
	}
	return json.Unmarshal(b, &e.value)
}

func (c *HTTPClient) note(ctx context.Context, method, path string, body any) (*models.Note, error) {
	out := &envelope[models.Note]{key: "note"}
	if err := c.do(ctx, method, path, nil, body, out); err != nil {
		return nil, err
	}
	return &out.value, nil
}

func (c *HTTPClient) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, errors.New("login response carries no token")
	}
	return &out, nil
}

func (c *HTTPClient) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	out := &envelope[models.User]{key: "user"}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, out); err != nil {
		return nil, err
	}
	return &out.value, nil
}

func (c *HTTPClient) page(ctx context.Context, path string, q models.ListQuery) (*models.Page, error) {
	var out models.Page
	if err := c.do(ctx, http.MethodGet, path, q.Values(), nil, &out); err != nil {
		return nil, err
	}
	if out.Notes == nil {
		out.Notes = []models.Note{}
	}
	return &out, nil
}

func (c *HTTPClient) MyNotes(ctx context.Context, q models.ListQuery) (*models.Page, error) {
	return c.page(ctx, "/notes/mynotes", q)
}

func (c *HTTPClient) SharedWithMe(ctx context.Context, q models.ListQuery) (*models.Page, error) {
	return c.page(ctx, "/notes/sharedwithme", q)
}

func (c *HTTPClient) Archived(ctx context.Context, q models.ListQuery) (*models.Page, error) {
	return c.page(ctx, "/notes/archived", q)
}

func (c *HTTPClient) Search(ctx context.Context, query string) ([]models.Note, error) {
	out := &envelope[[]models.Note]{key: "notes"}
	if err := c.do(ctx, http.MethodGet, "/notes/search", url.Values{"q": {query}}, nil, out); err != nil {
		return nil, err
	}
	return out.value, nil
}

func (c *HTTPClient) CreateNote(ctx context.Context, in models.NoteInput) (*models.Note, error) {
	return c.note(ctx, http.MethodPost, "/notes", in)
}

func (c *HTTPClient) GetNote(ctx context.Context, id string) (*models.Note, error) {
	return c.note(ctx, http.MethodGet, notePath(id), nil)
}

func (c *HTTPClient) UpdateNote(ctx context.Context, id string, in models.NoteInput) (*models.Note, error) {
	return c.note(ctx, http.MethodPut, notePath(id), in)
}

func (c *HTTPClient) DeleteNote(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, notePath(id), nil, nil, nil)
}

func (c *HTTPClient) ArchiveNote(ctx context.Context, id string) (*models.Note, error) {
	return c.note(ctx, http.MethodPut, notePath(id)+"/archive", nil)
}

func (c *HTTPClient) UnarchiveNote(ctx context.Context, id string) (*models.Note, error) {
	return c.note(ctx, http.MethodPut, notePath(id)+"/unarchive", nil)
}

func (c *HTTPClient) ShareNote(ctx context.Context, id string, req models.ShareRequest) (*models.Note, error) {
	return c.note(ctx, http.MethodPost, notePath(id)+"/share", req)
}

func (c *HTTPClient) UpdateShare(ctx context.Context, id string, req models.UpdateShareRequest) (*models.Note, error) {
	return c.note(ctx, http.MethodPut, notePath(id)+"/share", req)
}

func (c *HTTPClient) RemoveShare(ctx context.Context, id string, userID string) (*models.Note, error) {
	return c.note(ctx, http.MethodDelete, notePath(id)+"/share/"+url.PathEscape(userID), nil)
}

func (c *HTTPClient) SearchUsers(ctx context.Context, email string) ([]models.User, error) {
	out := &envelope[[]models.User]{key: "users"}
	if err := c.do(ctx, http.MethodGet, "/users/search", url.Values{"email": {email}}, nil, out); err != nil {
		return nil, err
	}
	return out.value, nil
}

func notePath(id string) string {
	return "/notes/" + url.PathEscape(id)
}
