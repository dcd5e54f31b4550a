package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered         EventType = "user_registered"
	EventLoginSucceeded         EventType = "login_succeeded"
	EventTokenRevoked           EventType = "token_revoked"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordChanged        EventType = "password_changed"
	EventEmailVerified          EventType = "email_verified"
)

// Event represents an auth event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Username          string `json:"username"`
	Email             string `json:"email"`
	VerificationToken string `json:"verification_token"`
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	Username   string `json:"username"`
	LoginCount int    `json:"login_count"`
}

// TokenRevokedPayload payload.
type TokenRevokedPayload struct {
	TokenID   string    `json:"token_id"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	Reason    string    `json:"reason"`
}

// PasswordResetRequestedPayload payload.
type PasswordResetRequestedPayload struct {
	Email      string `json:"email"`
	ResetToken string `json:"reset_token"`
}

// PasswordChangedPayload payload.
type PasswordChangedPayload struct {
	Username string `json:"username"`
}

// EmailVerifiedPayload payload.
type EmailVerifiedPayload struct {
	Email string `json:"email"`
}
