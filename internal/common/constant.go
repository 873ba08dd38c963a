// Package common contains constants shared by the notekeeper client layers:
// header names, the persisted-token key, and the navigable route paths.
package common

import "net/url"

// AuthorizationHeaderName carries the bearer token on REST and websocket
// handshakes.
const AuthorizationHeaderName = "Authorization"

// RequestIDHeaderName tags every outbound REST call for log correlation.
const RequestIDHeaderName = "X-Request-ID"

// TokenStoreKey is the fixed key the bearer token is persisted under.
const TokenStoreKey = "token"

// NewNoteID is the route identifier that denotes note creation.
const NewNoteID = "new"

const (
	RouteLogin     = "/login"
	RouteRegister  = "/register"
	RouteDashboard = "/dashboard"
)

// NotePath returns the navigable path of a note editor.
func NotePath(id string) string {
	return "/notes/" + url.PathEscape(id)
}
