package services

import (
	"context"
	"time"

	"github.com/gatekeeper/kiosk-backend/internal/database"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/google/uuid"
)

// MemberStore is the member persistence the admin services need.
// Implemented by database.MemberRepository.
type MemberStore interface {
	FindByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*models.Member, error)
	ActiveCodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error)
	ListCodes(ctx context.Context, orgID uuid.UUID) ([]string, error)
	Create(ctx context.Context, m *models.Member, adminUser string) error
	Update(ctx context.Context, m *models.Member, audits []database.AuditEntry, adminUser string) error
	Archive(ctx context.Context, orgID uuid.UUID, id uuid.UUID, adminUser string) error
	Restore(ctx context.Context, orgID uuid.UUID, id uuid.UUID, adminUser string) error
	List(ctx context.Context, orgID uuid.UUID, filter models.MemberFilter) ([]models.Member, error)
	ListAuditLogs(ctx context.Context, orgID uuid.UUID, memberID uuid.UUID) ([]models.MemberAuditLog, error)
}

// TimeLogStore is implemented by database.TimeLogRepository
type TimeLogStore interface {
	AddManual(ctx context.Context, orgID, memberID uuid.UUID, action models.ClockAction, at time.Time, adminUser string) (*models.TimeLog, error)
	Edit(ctx context.Context, orgID, logID uuid.UUID, action models.ClockAction, at time.Time, adminUser string) (*models.TimeLog, error)
	ListForMember(ctx context.Context, orgID, memberID uuid.UUID) ([]models.TimeLog, error)
	ListAll(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]models.TimeLog, error)
}

// SettingsStore is implemented by database.SettingsRepository
type SettingsStore interface {
	Get(ctx context.Context, orgID uuid.UUID) (*models.Settings, error)
	Save(ctx context.Context, settings *models.Settings) error
}

// OrganizationStore is implemented by database.OrganizationRepository
type OrganizationStore interface {
	Create(ctx context.Context, org *models.Organization, settings *models.Settings) error
	FindByEmail(ctx context.Context, email string) (*models.Organization, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

// RefreshTokenStore is implemented by database.RefreshTokenRepository
type RefreshTokenStore interface {
	Store(ctx context.Context, orgID uuid.UUID, token string, device database.DeviceInfo, expiresAt time.Time) error
	Get(ctx context.Context, token string) (*models.RefreshToken, error)
	Touch(ctx context.Context, token string) error
	Revoke(ctx context.Context, orgID uuid.UUID, token string) error
	Cleanup(ctx context.Context, revokedBefore time.Time) (int64, error)
}
