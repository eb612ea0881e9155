package entity

import "time"

// Session is the server-side record behind the session cookie. The CSRF
// token is generated once at creation and returned to the client exactly
// once; it is never derivable from the session id.
type Session struct {
	ID           string
	UserID       uint64
	CSRFToken    string
	CreatedAt    time.Time
	LastAccessed time.Time
}
