// Package client is the REST side of the notekeeper client.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) covering
//     auth (Login/Register/Logout/Me), the three dashboard collections,
//     note CRUD, archival, sharing and user search.
//  2. A concrete JSON-over-HTTP implementation (see HTTPClient) that injects
//     the bearer token, tags requests with an X-Request-ID, applies dial,
//     TLS and overall timeouts, and maps HTTP status codes to sentinel errors.
//
// # Error Handling
//
// Non-2xx responses are returned as *APIError, which unwraps to one of
// ErrBadRequest, ErrUnauthorized, ErrForbidden, ErrNotFound or
// ErrUnavailable so callers can match with errors.Is. Transport failures
// wrap ErrUnavailable. UserMessage turns any of these into a toast text,
// falling back to a generic message when the server sent none.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation/timeouts.
package client
