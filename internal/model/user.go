package model

import "time"

// User is an account able to obtain access tokens.
// PasswordHash never leaves the service layer.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	// LastLoginAt is nil until the first successful login.
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}
