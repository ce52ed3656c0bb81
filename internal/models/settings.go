package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DefaultWaiverText is shown until a tenant writes its own waiver
const DefaultWaiverText = "I hereby assume all risks associated with my participation in activities at this facility. I release the business, its owners, and employees from all liability for injury, death, or property loss."

// DefaultDepartments seeds the department picker for new tenants
var DefaultDepartments = []string{"Sales", "Operations", "Management", "Trainer", "Front Desk"}

// Settings is the per-tenant kiosk configuration
type Settings struct {
	OrganizationID uuid.UUID      `json:"organization_id" db:"organization_id"`
	WaiverText     string         `json:"waiver_text" db:"waiver_text"`
	WaiverImage    NullString     `json:"waiver_image,omitempty" db:"waiver_image"`
	Departments    pq.StringArray `json:"departments" db:"departments"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// DefaultSettings returns the settings used when a tenant has none stored
func DefaultSettings(orgID uuid.UUID) *Settings {
	departments := make(pq.StringArray, len(DefaultDepartments))
	copy(departments, DefaultDepartments)
	return &Settings{
		OrganizationID: orgID,
		WaiverText:     DefaultWaiverText,
		Departments:    departments,
	}
}

// HasWaiver reports whether a waiver document (text or image) is configured
func (s *Settings) HasWaiver() bool {
	return s.WaiverText != "" || (s.WaiverImage.Valid && s.WaiverImage.String != "")
}

// UpdateSettingsRequest replaces the tenant settings
type UpdateSettingsRequest struct {
	WaiverText  string   `json:"waiver_text"`
	WaiverImage *string  `json:"waiver_image"`
	Departments []string `json:"departments"`
}
