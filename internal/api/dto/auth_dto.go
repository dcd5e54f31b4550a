package dto

import (
	"time"

	"github.com/spec-kit/blog-auth/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginRequest payload for login; Login accepts username or email.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// RefreshRequest payload for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest optionally carries the session refresh token so it can be
// revoked together with the access token.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// PasswordChangeRequest payload for authenticated password change.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PasswordResetRequest payload for requesting a reset token.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload for consuming a reset token.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// EmailVerifyRequest payload for consuming a verification token.
type EmailVerifyRequest struct {
	Token string `json:"token"`
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	IsActive      bool       `json:"is_active"`
	IsAdmin       bool       `json:"is_admin"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	LoginCount    int        `json:"login_count"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewAccountResponse maps the domain model.
func NewAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:            account.ID,
		Username:      account.Username,
		Email:         account.Email,
		IsActive:      account.IsActive,
		IsAdmin:       account.IsAdmin,
		EmailVerified: account.EmailVerified,
		LastLoginAt:   account.LastLoginAt,
		LoginCount:    account.LoginCount,
		CreatedAt:     account.CreatedAt,
	}
}

// ProfileUpdateRequest payload for profile edits.
type ProfileUpdateRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}
