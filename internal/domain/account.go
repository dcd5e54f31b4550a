package domain

import "time"

// Account is the domain model for a registered blog user.
type Account struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	IsActive      bool
	IsAdmin       bool
	EmailVerified bool
	LastLoginAt   *time.Time
	LoginCount    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
