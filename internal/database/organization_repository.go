package database

import (
	"context"
	"strings"

	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/google/uuid"
)

const organizationColumns = `
	id, email, password_hash, gym_name, mode, pin_hash, subscription_status,
	created_at, updated_at`

// OrganizationRepository handles tenant account database operations
type OrganizationRepository struct {
	db DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create inserts the organization together with its default settings.
// Returns ErrEmailTaken on a duplicate email.
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization, settings *models.Settings) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	org.Email = strings.ToLower(strings.TrimSpace(org.Email))

	query := `
		INSERT INTO organizations (id, email, password_hash, gym_name, mode, pin_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING subscription_status, created_at, updated_at`

	err = tx.QueryRowxContext(ctx, query,
		org.ID, org.Email, org.PasswordHash, org.GymName, org.Mode, org.PINHash,
	).Scan(&org.SubscriptionStatus, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return storeError("failed to create organization", err)
	}

	settings.OrganizationID = org.ID
	if err := upsertSettings(ctx, tx, settings); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeError("failed to commit organization", err)
	}
	return nil
}

// FindByEmail returns the organization for email, or nil
func (r *OrganizationRepository) FindByEmail(ctx context.Context, email string) (*models.Organization, error) {
	var org models.Organization
	query := `SELECT` + organizationColumns + ` FROM organizations WHERE email = $1`

	if err := r.db.GetContext(ctx, &org, query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, storeError("failed to find organization", err)
	}
	return &org, nil
}

// FindByID returns the organization, or nil
func (r *OrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	query := `SELECT` + organizationColumns + ` FROM organizations WHERE id = $1`

	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, storeError("failed to find organization", err)
	}
	return &org, nil
}
