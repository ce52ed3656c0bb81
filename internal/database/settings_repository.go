package database

import (
	"context"

	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SettingsRepository handles per-tenant kiosk settings
type SettingsRepository struct {
	db DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored settings, or nil when the tenant has none
func (r *SettingsRepository) Get(ctx context.Context, orgID uuid.UUID) (*models.Settings, error) {
	var settings models.Settings
	query := `
		SELECT organization_id, waiver_text, waiver_image, departments, updated_at
		FROM organization_settings
		WHERE organization_id = $1`

	if err := r.db.GetContext(ctx, &settings, query, orgID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, storeError("failed to get settings", err)
	}
	return &settings, nil
}

// Save inserts or replaces the tenant's settings
func (r *SettingsRepository) Save(ctx context.Context, settings *models.Settings) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := upsertSettings(ctx, tx, settings); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeError("failed to commit settings", err)
	}
	return nil
}

func upsertSettings(ctx context.Context, tx *sqlx.Tx, settings *models.Settings) error {
	query := `
		INSERT INTO organization_settings (organization_id, waiver_text, waiver_image, departments)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (organization_id) DO UPDATE
		SET waiver_text = EXCLUDED.waiver_text,
		    waiver_image = EXCLUDED.waiver_image,
		    departments = EXCLUDED.departments,
		    updated_at = NOW()
		RETURNING updated_at`

	err := tx.QueryRowxContext(ctx, query,
		settings.OrganizationID, settings.WaiverText, settings.WaiverImage, settings.Departments,
	).Scan(&settings.UpdatedAt)
	if err != nil {
		return storeError("failed to save settings", err)
	}
	return nil
}
