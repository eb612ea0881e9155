package dto

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RegisterResponse struct {
	UserID  uint64 `json:"user_id"`
	Message string `json:"message"`
}

// SessionResponse carries the CSRF token to the client exactly once, at
// session issuance; the session id itself travels only in the cookie.
type SessionResponse struct {
	Message   string `json:"message"`
	CSRFToken string `json:"csrf_token"`
}

type UserResponse struct {
	ID                   uint64    `json:"id"`
	Username             string    `json:"username"`
	Email                string    `json:"email"`
	IsVerified           bool      `json:"is_verified"`
	ReceiveNotifications bool      `json:"receive_notifications"`
	CreatedAt            time.Time `json:"created_at"`
}
