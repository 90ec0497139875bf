package auth

import (
	"database/sql"
	"time"

	"MessAPI/internal/meal"
)

// Role represents user permission levels
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Status represents user account status
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Provider represents OAuth providers
type Provider string

const (
	ProviderGoogle Provider = "google"
)

// User represents an authenticated student or mess administrator
type User struct {
	ID             int64         `json:"id"`
	Email          string        `json:"email"`
	DisplayName    string        `json:"displayName"`
	Role           Role          `json:"role"`
	Status         Status        `json:"status"`
	MessPreference meal.MessType `json:"messPreference"`
	MaxTokens      int           `json:"maxTokens"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// StudentID is the identifier selection documents are keyed by
func (u *User) StudentID() string {
	return formatID(u.ID)
}

// OAuthIdentity links a user to an OAuth provider
type OAuthIdentity struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	Provider     Provider  `json:"provider"`
	ProviderID   string    `json:"providerId"`
	AccessToken  *string   `json:"-"`
	RefreshToken *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session represents a server-side user session
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// OAuthState represents a CSRF protection state
type OAuthState struct {
	State     string    `json:"state"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Token represents an API token used by the mobile clients
type Token struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"userId"`
	TokenHash    string     `json:"-"`
	Label        string     `json:"label"`
	AdminCreated bool       `json:"adminCreated"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	RevokedAt    *time.Time `json:"revokedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// TokenWithRaw includes the raw token value (only returned on creation)
type TokenWithRaw struct {
	Token
	RawToken string `json:"token"`
}

// TokenCreateRequest represents the request body for creating a token
type TokenCreateRequest struct {
	Label     string     `json:"label" binding:"required"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// UserUpdateRequest represents the request body for updating a user
type UserUpdateRequest struct {
	Role           *Role          `json:"role"`
	Status         *Status        `json:"status"`
	MessPreference *meal.MessType `json:"messPreference"`
	MaxTokens      *int           `json:"maxTokens"`
}

// PreferenceUpdateRequest is sent by a student changing their own mess type
type PreferenceUpdateRequest struct {
	MessPreference meal.MessType `json:"messPreference" binding:"required"`
}

// DomainRequest adds a campus email domain
type DomainRequest struct {
	Domain string `json:"domain" binding:"required"`
}

// ValidatedToken holds the result of token validation
type ValidatedToken struct {
	Token *Token
	User  *User
}

// ScanNullableString helper for scanning nullable string
func ScanNullableString(n sql.NullString) *string {
	if n.Valid {
		return &n.String
	}
	return nil
}

// ScanNullableTime helper for scanning nullable time
func ScanNullableTime(n sql.NullTime) *time.Time {
	if n.Valid {
		return &n.Time
	}
	return nil
}
