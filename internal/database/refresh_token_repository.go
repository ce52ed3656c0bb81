package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/gatekeeper/kiosk-backend/internal/apperror"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/google/uuid"
)

// RefreshTokenRepository handles refresh token database operations. Tokens
// are stored only as SHA-256 hashes.
type RefreshTokenRepository struct {
	db DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// hashToken creates a SHA-256 hash of the token for storage
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// DeviceInfo describes the client a session was opened from
type DeviceInfo struct {
	DeviceType string
	IPAddress  string
	UserAgent  string
}

// Store saves a refresh token for the organization
func (r *RefreshTokenRepository) Store(ctx context.Context, orgID uuid.UUID, token string, device DeviceInfo, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (
			organization_id, token_hash, device_type, ip_address, user_agent, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		orgID,
		hashToken(token),
		models.NewNullString(device.DeviceType),
		models.NewNullString(device.IPAddress),
		models.NewNullString(device.UserAgent),
		expiresAt,
	)
	if err != nil {
		return storeError("failed to store refresh token", err)
	}
	return nil
}

// Get retrieves a refresh token by its plaintext value; nil when unknown
func (r *RefreshTokenRepository) Get(ctx context.Context, token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	query := `
		SELECT id, organization_id, token_hash, device_type, ip_address, user_agent,
		       created_at, expires_at, last_used_at, revoked, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1`

	if err := r.db.GetContext(ctx, &refreshToken, query, hashToken(token)); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, storeError("failed to get refresh token", err)
	}
	return &refreshToken, nil
}

// Touch updates last_used_at
func (r *RefreshTokenRepository) Touch(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET last_used_at = NOW() WHERE token_hash = $1`, hashToken(token))
	if err != nil {
		return storeError("failed to update last used timestamp", err)
	}
	return nil
}

// Revoke revokes one of the organization's tokens
func (r *RefreshTokenRepository) Revoke(ctx context.Context, orgID uuid.UUID, token string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = NOW()
		WHERE token_hash = $1 AND organization_id = $2 AND revoked = FALSE`

	result, err := r.db.ExecContext(ctx, query, hashToken(token), orgID)
	if err != nil {
		return storeError("failed to revoke token", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storeError("failed to get rows affected", err)
	}
	if rows == 0 {
		return apperror.ErrNotAuthenticated
	}
	return nil
}

// Cleanup removes expired tokens and tokens revoked before revokedBefore
func (r *RefreshTokenRepository) Cleanup(ctx context.Context, revokedBefore time.Time) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < NOW()
		   OR (revoked = TRUE AND revoked_at < $1)`

	result, err := r.db.ExecContext(ctx, query, revokedBefore)
	if err != nil {
		return 0, storeError("failed to clean up refresh tokens", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, storeError("failed to get rows affected", err)
	}
	return rows, nil
}
