package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SettingsService manages the per-tenant waiver document and department list
type SettingsService struct {
	store SettingsStore
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(store SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

// Get returns the tenant's settings, or the defaults when none are stored
func (s *SettingsService) Get(ctx context.Context, orgID uuid.UUID) (*models.Settings, error) {
	settings, err := s.store.Get(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings == nil {
		return models.DefaultSettings(orgID), nil
	}
	return settings, nil
}

// Save replaces the tenant's settings. Blank and duplicate departments are
// dropped; an empty image clears it.
func (s *SettingsService) Save(ctx context.Context, orgID uuid.UUID, req models.UpdateSettingsRequest) (*models.Settings, error) {
	settings := &models.Settings{
		OrganizationID: orgID,
		WaiverText:     strings.TrimSpace(req.WaiverText),
		Departments:    normalizeDepartments(req.Departments),
	}
	if req.WaiverImage != nil {
		settings.WaiverImage = models.NewNullString(strings.TrimSpace(*req.WaiverImage))
	}

	if err := s.store.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return settings, nil
}

func normalizeDepartments(in []string) pq.StringArray {
	out := pq.StringArray{}
	seen := make(map[string]bool, len(in))
	for _, d := range in {
		d = strings.TrimSpace(d)
		key := strings.ToLower(d)
		if d == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}
