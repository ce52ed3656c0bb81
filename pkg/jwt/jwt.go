package jwt

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType represents the type of JWT token
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Roles carried in access tokens
const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

const issuer = "gatekeeper-kiosk"

// Claims represents the JWT claims structure
type Claims struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	Email          string    `json:"email"`
	GymName        string    `json:"gym_name"`
	Mode           string    `json:"mode"`
	Roles          []string  `json:"roles"`
	TokenType      TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims carry role
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// Identity is what a token says about the tenant
type Identity struct {
	OrganizationID uuid.UUID
	Email          string
	GymName        string
	Mode           string
}

// Service handles JWT operations
type Service struct {
	accessSecret       string
	refreshSecret      string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	adminTokenExpiry   time.Duration
}

// NewService creates a new JWT service
func NewService(accessSecret, refreshSecret string, accessExpiry, refreshExpiry, adminExpiry time.Duration) *Service {
	return &Service{
		accessSecret:       accessSecret,
		refreshSecret:      refreshSecret,
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
		adminTokenExpiry:   adminExpiry,
	}
}

// AccessTokenExpiry returns the operator access token lifetime
func (s *Service) AccessTokenExpiry() time.Duration { return s.accessTokenExpiry }

// RefreshTokenExpiry returns the refresh token lifetime
func (s *Service) RefreshTokenExpiry() time.Duration { return s.refreshTokenExpiry }

// AdminTokenExpiry returns the PIN-elevated token lifetime
func (s *Service) AdminTokenExpiry() time.Duration { return s.adminTokenExpiry }

// GenerateAccessToken generates an operator access token
func (s *Service) GenerateAccessToken(id Identity) (string, error) {
	return s.sign(id, []string{RoleOperator}, AccessToken, s.accessTokenExpiry, s.accessSecret)
}

// GenerateAdminToken generates a short-lived access token that also carries
// the admin role. Issued only after the PIN has been checked.
func (s *Service) GenerateAdminToken(id Identity) (string, error) {
	return s.sign(id, []string{RoleOperator, RoleAdmin}, AccessToken, s.adminTokenExpiry, s.accessSecret)
}

// GenerateRefreshToken generates a new refresh token
func (s *Service) GenerateRefreshToken(id Identity) (string, error) {
	return s.sign(id, nil, RefreshToken, s.refreshTokenExpiry, s.refreshSecret)
}

func (s *Service) sign(id Identity, roles []string, tokenType TokenType, expiry time.Duration, secret string) (string, error) {
	now := time.Now()
	claims := Claims{
		OrganizationID: id.OrganizationID,
		Email:          id.Email,
		GymName:        id.GymName,
		Mode:           id.Mode,
		Roles:          roles,
		TokenType:      tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   id.OrganizationID.String(),
			// unique per token so two refresh tokens issued in the same second differ
			ID: uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return tokenString, nil
}

// ValidateAccessToken validates and parses an access token
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validateToken(tokenString, s.accessSecret, AccessToken)
}

// ValidateRefreshToken validates and parses a refresh token
func (s *Service) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validateToken(tokenString, s.refreshSecret, RefreshToken)
}

// validateToken validates a token with the given secret and type
func (s *Service) validateToken(tokenString, secret string, expectedType TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims.TokenType != expectedType {
		return nil, fmt.Errorf("invalid token type: expected %s, got %s", expectedType, claims.TokenType)
	}

	if claims.OrganizationID == uuid.Nil {
		return nil, fmt.Errorf("token carries no organization")
	}

	return claims, nil
}

// IsExpired reports whether err came from an expired token
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
