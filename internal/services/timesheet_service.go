package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gatekeeper/kiosk-backend/internal/apperror"
	"github.com/gatekeeper/kiosk-backend/internal/checkin"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TimesheetService handles administrative corrections to employee clock logs
type TimesheetService struct {
	members  MemberStore
	timeLogs TimeLogStore
	logger   *logrus.Logger
	now      func() time.Time
}

// NewTimesheetService creates a new TimesheetService
func NewTimesheetService(members MemberStore, timeLogs TimeLogStore, logger *logrus.Logger) *TimesheetService {
	return &TimesheetService{
		members:  members,
		timeLogs: timeLogs,
		logger:   logger,
		now:      time.Now,
	}
}

// ListForMember returns one employee's logs, newest first
func (s *TimesheetService) ListForMember(ctx context.Context, tenant checkin.Tenant, memberID uuid.UUID) ([]models.TimeLog, error) {
	if tenant.Mode != models.ModeEmployee {
		return nil, apperror.ErrWrongMode
	}
	logs, err := s.timeLogs.ListForMember(ctx, tenant.OrganizationID, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time logs: %w", err)
	}
	return logs, nil
}

// ListAll returns the tenant's logs in [from, to), newest first
func (s *TimesheetService) ListAll(ctx context.Context, tenant checkin.Tenant, from, to time.Time) ([]models.TimeLog, error) {
	if tenant.Mode != models.ModeEmployee {
		return nil, apperror.ErrWrongMode
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return nil, apperror.Invalid("from must be before to")
	}
	logs, err := s.timeLogs.ListAll(ctx, tenant.OrganizationID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list time logs: %w", err)
	}
	return logs, nil
}

// AddManual backfills a clock event. The entry is marked edited and the
// member's current clock state is recomputed.
func (s *TimesheetService) AddManual(ctx context.Context, tenant checkin.Tenant, memberID uuid.UUID, req models.AddTimeLogRequest, adminUser string) (*models.TimeLog, error) {
	if err := s.validateLogChange(tenant, req.Action, req.Timestamp); err != nil {
		return nil, err
	}

	member, err := s.members.FindByID(ctx, tenant.OrganizationID, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	if member == nil {
		return nil, apperror.ErrMemberNotFound
	}

	entry, err := s.timeLogs.AddManual(ctx, tenant.OrganizationID, memberID, req.Action, req.Timestamp, adminUser)
	if err != nil {
		return nil, fmt.Errorf("failed to add time log: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": tenant.OrganizationID,
		"member_id":       memberID,
		"action":          req.Action,
		"admin":           adminUser,
	}).Info("Manual time log added")

	return entry, nil
}

// Edit corrects a log entry. The original timestamp is kept from the first
// edit on.
func (s *TimesheetService) Edit(ctx context.Context, tenant checkin.Tenant, logID uuid.UUID, req models.EditTimeLogRequest, adminUser string) (*models.TimeLog, error) {
	if err := s.validateLogChange(tenant, req.Action, req.Timestamp); err != nil {
		return nil, err
	}

	entry, err := s.timeLogs.Edit(ctx, tenant.OrganizationID, logID, req.Action, req.Timestamp, adminUser)
	if err != nil {
		return nil, fmt.Errorf("failed to edit time log: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": tenant.OrganizationID,
		"log_id":          logID,
		"admin":           adminUser,
	}).Info("Time log edited")

	return entry, nil
}

// Future entries are refused: a kiosk action committed before them would not
// become the member's current state.
func (s *TimesheetService) validateLogChange(tenant checkin.Tenant, action models.ClockAction, at time.Time) error {
	if tenant.Mode != models.ModeEmployee {
		return apperror.ErrWrongMode
	}
	if !action.Valid() {
		return apperror.Invalid(fmt.Sprintf("unknown clock action %q", action))
	}
	if at.IsZero() {
		return apperror.Invalid("timestamp is required")
	}
	if at.After(s.now()) {
		return apperror.Invalid("timestamp cannot be in the future")
	}
	return nil
}
