package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gatekeeper/kiosk-backend/internal/apperror"
	"github.com/gatekeeper/kiosk-backend/internal/checkin"
	"github.com/gatekeeper/kiosk-backend/internal/database"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/gatekeeper/kiosk-backend/pkg/validator"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DirectoryService handles member administration: creation with automatic or
// manual short codes, profile edits, archive and restore.
type DirectoryService struct {
	members     MemberStore
	timeLogs    TimeLogStore
	settings    *SettingsService
	validator   *validator.ContactValidator
	logger      *logrus.Logger
	defaultDays int
	now         func() time.Time
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(
	members MemberStore,
	timeLogs TimeLogStore,
	settings *SettingsService,
	logger *logrus.Logger,
	membershipDefaultDays int,
) *DirectoryService {
	return &DirectoryService{
		members:     members,
		timeLogs:    timeLogs,
		settings:    settings,
		validator:   validator.NewContactValidator(),
		logger:      logger,
		defaultDays: membershipDefaultDays,
		now:         time.Now,
	}
}

// NextShortCode returns the code the next auto-assigned member would get
func (s *DirectoryService) NextShortCode(ctx context.Context, tenant checkin.Tenant) (string, error) {
	codes, err := s.members.ListCodes(ctx, tenant.OrganizationID)
	if err != nil {
		return "", fmt.Errorf("failed to list codes: %w", err)
	}
	return checkin.NextShortCode(codes), nil
}

// Create adds a member. An empty code is auto-assigned; a manual code must
// not be held by another active member.
func (s *DirectoryService) Create(ctx context.Context, tenant checkin.Tenant, req models.CreateMemberRequest, adminUser string) (*models.Member, error) {
	if tenant.Mode == models.ModeMembership {
		settings, err := s.settings.Get(ctx, tenant.OrganizationID)
		if err != nil {
			return nil, err
		}
		if !settings.HasWaiver() {
			return nil, apperror.ErrWaiverNotConfigured
		}
	}

	contact, err := s.validator.Validate(validator.Contact{
		Email:   req.Email,
		Address: req.Address,
		Phone:   req.PhoneNumber,
	})
	if err != nil {
		return nil, apperror.Invalid(err.Error())
	}

	code := strings.TrimSpace(req.MemberNumber)
	if code == "" {
		if code, err = s.NextShortCode(ctx, tenant); err != nil {
			return nil, err
		}
	} else {
		taken, err := s.members.ActiveCodeExists(ctx, tenant.OrganizationID, code)
		if err != nil {
			return nil, fmt.Errorf("failed to check code: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("%w: %s", apperror.ErrDuplicateShortCode, code)
		}
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Unknown"
	}

	member := &models.Member{
		OrganizationID: tenant.OrganizationID,
		MemberNumber:   code,
		Name:           name,
		PhoneNumber:    contact.Phone,
		Email:          models.NewNullString(contact.Email),
		Address:        models.NewNullString(contact.Address),
		Department:     models.NewNullString(strings.TrimSpace(req.Department)),
		ExpirationDate: s.now().AddDate(0, 0, s.defaultDays),
		Status:         models.MemberStatusActive,
	}

	// a waiver signed at the desk during registration counts
	if tenant.Mode == models.ModeMembership && strings.TrimSpace(req.WaiverSignature) != "" {
		member.HasWaiver = true
		member.WaiverSignature = models.NewNullString(req.WaiverSignature)
	}

	if err := s.members.Create(ctx, member, adminUser); err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": tenant.OrganizationID,
		"member_id":       member.ID,
		"member_number":   member.MemberNumber,
	}).Info("Member created")

	return member, nil
}

// Get returns a member with its audit trail, and its time logs in EMPLOYEE mode
func (s *DirectoryService) Get(ctx context.Context, tenant checkin.Tenant, id uuid.UUID) (*models.MemberDetail, error) {
	member, err := s.find(ctx, tenant, id)
	if err != nil {
		return nil, err
	}

	audits, err := s.members.ListAuditLogs(ctx, tenant.OrganizationID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit logs: %w", err)
	}

	detail := &models.MemberDetail{Member: member, AuditLogs: audits}
	if tenant.Mode == models.ModeEmployee {
		if detail.TimeLogs, err = s.timeLogs.ListForMember(ctx, tenant.OrganizationID, id); err != nil {
			return nil, fmt.Errorf("failed to load time logs: %w", err)
		}
	}
	return detail, nil
}

// Update applies a profile edit. A changed expiration date is audited.
func (s *DirectoryService) Update(ctx context.Context, tenant checkin.Tenant, id uuid.UUID, req models.UpdateMemberRequest, adminUser string) (*models.Member, error) {
	member, err := s.find(ctx, tenant, id)
	if err != nil {
		return nil, err
	}

	var audits []database.AuditEntry
	var changed []string

	if req.Name != nil && strings.TrimSpace(*req.Name) != member.Name {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Invalid("name cannot be empty")
		}
		member.Name = name
		changed = append(changed, "name")
	}

	contact, err := s.validator.Validate(validator.Contact{
		Email:   deref(req.Email, member.Email.String),
		Address: deref(req.Address, member.Address.String),
		Phone:   deref(req.PhoneNumber, member.PhoneNumber),
	})
	if err != nil {
		return nil, apperror.Invalid(err.Error())
	}
	if contact.Email != member.Email.String {
		member.Email = models.NewNullString(contact.Email)
		changed = append(changed, "email")
	}
	if contact.Address != member.Address.String {
		member.Address = models.NewNullString(contact.Address)
		changed = append(changed, "address")
	}
	if contact.Phone != member.PhoneNumber {
		member.PhoneNumber = contact.Phone
		changed = append(changed, "phone")
	}
	if req.Department != nil && strings.TrimSpace(*req.Department) != member.Department.String {
		member.Department = models.NewNullString(strings.TrimSpace(*req.Department))
		changed = append(changed, "department")
	}

	if req.ExpirationDate != nil && !req.ExpirationDate.Equal(member.ExpirationDate) {
		audits = append(audits, database.AuditEntry{
			Action: models.AuditActionUpdateExpiration,
			Details: fmt.Sprintf("Expiration changed from %s to %s",
				member.ExpirationDate.Format("2006-01-02"), req.ExpirationDate.Format("2006-01-02")),
		})
		member.ExpirationDate = *req.ExpirationDate
	}

	if len(changed) > 0 {
		audits = append(audits, database.AuditEntry{
			Action:  models.AuditActionUpdateProfile,
			Details: "Updated " + strings.Join(changed, ", "),
		})
	}

	if len(audits) == 0 {
		return member, nil
	}

	if err := s.members.Update(ctx, member, audits, adminUser); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	return member, nil
}

// Archive retires a member; its code becomes free for reuse
func (s *DirectoryService) Archive(ctx context.Context, tenant checkin.Tenant, id uuid.UUID, adminUser string) error {
	if err := s.members.Archive(ctx, tenant.OrganizationID, id, adminUser); err != nil {
		return fmt.Errorf("failed to archive member: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": tenant.OrganizationID,
		"member_id":       id,
	}).Info("Member archived")
	return nil
}

// Restore reactivates an archived member. Refused when its code has been
// reassigned in the meantime.
func (s *DirectoryService) Restore(ctx context.Context, tenant checkin.Tenant, id uuid.UUID, adminUser string) error {
	member, err := s.find(ctx, tenant, id)
	if err != nil {
		return err
	}
	if !member.IsArchived() {
		return nil
	}

	taken, err := s.members.ActiveCodeExists(ctx, tenant.OrganizationID, member.MemberNumber)
	if err != nil {
		return fmt.Errorf("failed to check code: %w", err)
	}
	if taken {
		return fmt.Errorf("%w: %s was reassigned", apperror.ErrDuplicateShortCode, member.MemberNumber)
	}

	if err := s.members.Restore(ctx, tenant.OrganizationID, id, adminUser); err != nil {
		return fmt.Errorf("failed to restore member: %w", err)
	}
	return nil
}

// List returns active or archived members matching the filter
func (s *DirectoryService) List(ctx context.Context, tenant checkin.Tenant, filter models.MemberFilter) ([]models.Member, error) {
	members, err := s.members.List(ctx, tenant.OrganizationID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

func (s *DirectoryService) find(ctx context.Context, tenant checkin.Tenant, id uuid.UUID) (*models.Member, error) {
	member, err := s.members.FindByID(ctx, tenant.OrganizationID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	if member == nil {
		return nil, apperror.ErrMemberNotFound
	}
	return member, nil
}

func deref(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
