package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role identifies the kind of principal behind a session.
type Role string

const (
	// RoleCoordinator is a logged-in coordinator account.
	RoleCoordinator Role = "coordinator"
	// RoleAnonymous is an ambient session created so that store writes
	// requiring an authenticated principal can proceed.
	RoleAnonymous Role = "anonymous"
)

// Coordinator is a login-capable account.
type Coordinator struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// LoginRequest holds credentials for authenticating a coordinator.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and account info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	IssuedAt    time.Time `json:"issued_at"`
}

// SessionResponse returns an ambient session token.
type SessionResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	Role        Role      `json:"role"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
