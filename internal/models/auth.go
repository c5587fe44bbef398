package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthType classifies which credential scheme issued a bearer token.
type AuthType string

const (
	AuthTypeCampusLegacy AuthType = "campus-legacy"
	AuthTypeClerkModern  AuthType = "clerk-modern"
	AuthTypeClerkLegacy  AuthType = "clerk-legacy"
)

// External reports whether the token came from the external identity provider.
func (t AuthType) External() bool {
	return t == AuthTypeClerkModern || t == AuthTypeClerkLegacy
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the student self-registration payload.
type RegisterRequest struct {
	Name       string   `json:"name" validate:"required"`
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=6"`
	Department string   `json:"department" validate:"required"`
	Semester   int      `json:"semester" validate:"required,min=1,max=8"`
	CGPA       float64  `json:"cgpa" validate:"min=0,max=10"`
	Skills     []string `json:"skills"`
	Phone      string   `json:"phone"`
}

// LoginResponse returns the issued legacy token and user info.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn"`
	User      *CurrentUser `json:"user"`
	IssuedAt  time.Time    `json:"issuedAt"`
}

// JWTClaims represents the payload of self-issued legacy tokens.
type JWTClaims struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
	Name  string   `json:"name"`
	jwt.RegisteredClaims
}

// SessionClaims is the verified, request-scoped view of a bearer token.
type SessionClaims struct {
	Subject   string                 `json:"sub,omitempty"`
	ID        string                 `json:"id,omitempty"`
	Email     string                 `json:"email,omitempty"`
	SessionID string                 `json:"sid,omitempty"`
	Issuer    string                 `json:"iss,omitempty"`
	Audience  []string               `json:"aud,omitempty"`
	ExpiresAt *time.Time             `json:"exp,omitempty"`
	Template  string                 `json:"template,omitempty"`
	Raw       map[string]interface{} `json:"-"`
}

// UserID returns the subject, falling back to the legacy id claim.
func (c *SessionClaims) UserID() string {
	if c == nil {
		return ""
	}
	if c.Subject != "" {
		return c.Subject
	}
	return c.ID
}

// AuthInfo describes how the current request was authenticated.
type AuthInfo struct {
	UserID    string         `json:"userId"`
	SessionID string         `json:"sessionId,omitempty"`
	Template  string         `json:"template,omitempty"`
	AuthType  AuthType       `json:"authType"`
	Claims    *SessionClaims `json:"claims,omitempty"`
}
