package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gatekeeper/kiosk-backend/internal/apperror"
	"github.com/gatekeeper/kiosk-backend/internal/database"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/gatekeeper/kiosk-backend/pkg/jwt"
	"github.com/gatekeeper/kiosk-backend/pkg/validator"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AccountService handles tenant registration, operator sessions and the
// PIN-gated admin elevation
type AccountService struct {
	orgs          OrganizationStore
	refreshTokens RefreshTokenStore
	jwtService    *jwt.Service
	validator     *validator.ContactValidator
	logger        *logrus.Logger
	bcryptCost    int
}

// NewAccountService creates a new AccountService
func NewAccountService(
	orgs OrganizationStore,
	refreshTokens RefreshTokenStore,
	jwtService *jwt.Service,
	logger *logrus.Logger,
	bcryptCost int,
) *AccountService {
	return &AccountService{
		orgs:          orgs,
		refreshTokens: refreshTokens,
		jwtService:    jwtService,
		validator:     validator.NewContactValidator(),
		logger:        logger,
		bcryptCost:    bcryptCost,
	}
}

// Register creates a tenant with default settings and opens a session. The
// mode is fixed here for the life of the account.
func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest, device database.DeviceInfo) (*models.SessionResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !s.validator.IsValidEmail(email) {
		return nil, apperror.Invalid(validator.ErrInvalidEmail.Error())
	}
	if err := s.validator.ValidatePIN(req.PIN); err != nil {
		return nil, apperror.Invalid(err.Error())
	}
	if !req.Mode.Valid() {
		return nil, apperror.Invalid("mode must be MEMBERSHIP or EMPLOYEE")
	}
	gymName := strings.TrimSpace(req.GymName)
	if gymName == "" {
		return nil, apperror.Invalid("gym name is required")
	}

	existing, err := s.orgs.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, apperror.ErrEmailTaken
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	pinHash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash PIN: %w", err)
	}

	org := &models.Organization{
		Email:        email,
		PasswordHash: string(passwordHash),
		GymName:      gymName,
		Mode:         req.Mode,
		PINHash:      string(pinHash),
	}
	if err := s.orgs.Create(ctx, org, models.DefaultSettings(uuid.Nil)); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": org.ID,
		"mode":            org.Mode,
	}).Info("Organization registered")

	return s.openSession(ctx, org, device)
}

// Login authenticates the operator account and opens a session
func (s *AccountService) Login(ctx context.Context, email, password string, device database.DeviceInfo) (*models.SessionResponse, error) {
	org, err := s.orgs.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	if org == nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(org.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	return s.openSession(ctx, org, device)
}

// ResumeSession is the reconciliation step a kiosk runs at start-up. A
// locally cached session is only honoured when the refresh token verifies,
// is stored, unrevoked and unexpired, and the organization still exists.
func (s *AccountService) ResumeSession(ctx context.Context, refreshToken string) (*models.SessionResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrNotAuthenticated, err)
	}

	stored, err := s.refreshTokens.Get(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}
	if stored == nil || stored.Revoked || time.Now().After(stored.ExpiresAt) || stored.OrganizationID != claims.OrganizationID {
		return nil, apperror.ErrNotAuthenticated
	}

	org, err := s.orgs.FindByID(ctx, claims.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}
	if org == nil {
		return nil, apperror.ErrNotAuthenticated
	}

	accessToken, err := s.jwtService.GenerateAccessToken(identityOf(org))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	if err := s.refreshTokens.Touch(ctx, refreshToken); err != nil {
		s.logger.WithError(err).Warn("Failed to update refresh token last use")
	}

	return &models.SessionResponse{
		AccessToken:  accessToken,
		ExpiresIn:    int64(s.jwtService.AccessTokenExpiry().Seconds()),
		Organization: org,
	}, nil
}

// UnlockAdmin checks the admin PIN and issues a short-lived admin token
func (s *AccountService) UnlockAdmin(ctx context.Context, orgID uuid.UUID, pin string) (*models.AdminUnlockResponse, error) {
	org, err := s.verifyPIN(ctx, orgID, pin)
	if err != nil {
		return nil, err
	}

	token, err := s.jwtService.GenerateAdminToken(identityOf(org))
	if err != nil {
		return nil, fmt.Errorf("failed to generate admin token: %w", err)
	}

	s.logger.WithField("organization_id", orgID).Info("Admin unlocked")

	return &models.AdminUnlockResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.jwtService.AdminTokenExpiry().Seconds()),
	}, nil
}

// Logout revokes the session's refresh token after PIN confirmation
func (s *AccountService) Logout(ctx context.Context, orgID uuid.UUID, refreshToken, pin string) error {
	if _, err := s.verifyPIN(ctx, orgID, pin); err != nil {
		return err
	}

	if err := s.refreshTokens.Revoke(ctx, orgID, refreshToken); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	s.logger.WithField("organization_id", orgID).Info("Kiosk logged out")
	return nil
}

// PurgeTokens removes expired tokens and tokens revoked longer than maxAge ago
func (s *AccountService) PurgeTokens(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := s.refreshTokens.Cleanup(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to purge tokens: %w", err)
	}
	return n, nil
}

func (s *AccountService) verifyPIN(ctx context.Context, orgID uuid.UUID, pin string) (*models.Organization, error) {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}
	if org == nil {
		return nil, apperror.ErrNotAuthenticated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(org.PINHash), []byte(pin)); err != nil {
		return nil, apperror.ErrInvalidPIN
	}
	return org, nil
}

func (s *AccountService) openSession(ctx context.Context, org *models.Organization, device database.DeviceInfo) (*models.SessionResponse, error) {
	id := identityOf(org)

	accessToken, err := s.jwtService.GenerateAccessToken(id)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(id)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.jwtService.RefreshTokenExpiry())
	if err := s.refreshTokens.Store(ctx, org.ID, refreshToken, device, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtService.AccessTokenExpiry().Seconds()),
		Organization: org,
	}, nil
}

func identityOf(org *models.Organization) jwt.Identity {
	return jwt.Identity{
		OrganizationID: org.ID,
		Email:          org.Email,
		GymName:        org.GymName,
		Mode:           string(org.Mode),
	}
}
