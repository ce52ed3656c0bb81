package models

import (
	"time"

	"github.com/google/uuid"
)

// AppMode selects which check-in rule set applies to a tenant
type AppMode string

const (
	ModeMembership AppMode = "MEMBERSHIP"
	ModeEmployee   AppMode = "EMPLOYEE"
)

// Valid reports whether m is a known mode
func (m AppMode) Valid() bool {
	return m == ModeMembership || m == ModeEmployee
}

// Organization is a tenant: one operator account per front desk
type Organization struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	Email              string    `json:"email" db:"email"`
	PasswordHash       string    `json:"-" db:"password_hash"`
	GymName            string    `json:"gym_name" db:"gym_name"`
	Mode               AppMode   `json:"mode" db:"mode"`
	PINHash            string    `json:"-" db:"pin_hash"`
	SubscriptionStatus string    `json:"subscription_status" db:"subscription_status"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// RefreshToken represents a JWT refresh token
type RefreshToken struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	TokenHash      string     `json:"-" db:"token_hash"` // Never expose
	DeviceType     NullString `json:"device_type,omitempty" db:"device_type"`
	IPAddress      NullString `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent      NullString `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt      time.Time  `json:"expires_at" db:"expires_at"`
	LastUsedAt     NullTime   `json:"last_used_at,omitempty" db:"last_used_at"`
	Revoked        bool       `json:"revoked" db:"revoked"`
	RevokedAt      NullTime   `json:"revoked_at,omitempty" db:"revoked_at"`
}

// RegisterRequest creates a new tenant
type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	GymName  string  `json:"gym_name" binding:"required"`
	PIN      string  `json:"pin" binding:"required,len=4,numeric"`
	Mode     AppMode `json:"mode" binding:"required"`
}

// LoginRequest authenticates an operator account
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest revokes the session after PIN confirmation
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
	PIN          string `json:"pin" binding:"required"`
}

// PINRequest carries the 4-digit admin PIN
type PINRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// SessionResponse is returned on register, login and session resume
type SessionResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	ExpiresIn    int64         `json:"expires_in"`
	Organization *Organization `json:"organization"`
}

// AdminUnlockResponse carries the short-lived admin token
type AdminUnlockResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}
