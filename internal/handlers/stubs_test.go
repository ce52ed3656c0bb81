package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gatekeeper/kiosk-backend/internal/checkin"
	"github.com/gatekeeper/kiosk-backend/internal/database"
	"github.com/gatekeeper/kiosk-backend/internal/middleware"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/gatekeeper/kiosk-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testTenant(mode models.AppMode) middleware.TenantContext {
	return middleware.TenantContext{
		OrganizationID: uuid.New(),
		Email:          "desk@irongym.example",
		GymName:        "Iron Gym",
		Mode:           mode,
		Roles:          []string{jwt.RoleOperator, jwt.RoleAdmin},
	}
}

// withTenant stands in for AuthMiddleware
func withTenant(tenant middleware.TenantContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.TenantContextKey, tenant)
		c.Next()
	}
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

type stubEngine struct {
	outcome checkin.Outcome
	err     error

	gotCode   string
	gotTenant checkin.Tenant
	gotAction models.ClockAction
}

func (s *stubEngine) Evaluate(_ context.Context, tenant checkin.Tenant, code string) (checkin.Outcome, error) {
	s.gotTenant, s.gotCode = tenant, code
	return s.outcome, s.err
}

func (s *stubEngine) RecordWaiverAcceptance(_ context.Context, tenant checkin.Tenant, _ uuid.UUID, _ string) (checkin.Outcome, error) {
	s.gotTenant = tenant
	return s.outcome, s.err
}

func (s *stubEngine) CommitClockAction(_ context.Context, tenant checkin.Tenant, _ uuid.UUID, action models.ClockAction) (checkin.Outcome, error) {
	s.gotTenant, s.gotAction = tenant, action
	return s.outcome, s.err
}

type stubSettings struct {
	settings *models.Settings
	saved    *models.UpdateSettingsRequest
	err      error
}

func (s *stubSettings) Get(_ context.Context, orgID uuid.UUID) (*models.Settings, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.settings == nil {
		return models.DefaultSettings(orgID), nil
	}
	return s.settings, nil
}

func (s *stubSettings) Save(_ context.Context, orgID uuid.UUID, req models.UpdateSettingsRequest) (*models.Settings, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.saved = &req
	out := models.DefaultSettings(orgID)
	out.WaiverText = req.WaiverText
	return out, nil
}

type stubDirectory struct {
	members   []models.Member
	filter    models.MemberFilter
	created   *models.CreateMemberRequest
	adminUser string
	archived  uuid.UUID
	err       error
}

func (s *stubDirectory) NextShortCode(context.Context, checkin.Tenant) (string, error) {
	return "00042", s.err
}

func (s *stubDirectory) Create(_ context.Context, tenant checkin.Tenant, req models.CreateMemberRequest, adminUser string) (*models.Member, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created, s.adminUser = &req, adminUser
	return &models.Member{ID: uuid.New(), OrganizationID: tenant.OrganizationID, Name: req.Name, MemberNumber: "00001"}, nil
}

func (s *stubDirectory) Get(_ context.Context, _ checkin.Tenant, id uuid.UUID) (*models.MemberDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.MemberDetail{Member: &models.Member{ID: id}}, nil
}

func (s *stubDirectory) Update(_ context.Context, _ checkin.Tenant, id uuid.UUID, req models.UpdateMemberRequest, _ string) (*models.Member, error) {
	if s.err != nil {
		return nil, s.err
	}
	m := &models.Member{ID: id}
	if req.Name != nil {
		m.Name = *req.Name
	}
	return m, nil
}

func (s *stubDirectory) Archive(_ context.Context, _ checkin.Tenant, id uuid.UUID, _ string) error {
	s.archived = id
	return s.err
}

func (s *stubDirectory) Restore(context.Context, checkin.Tenant, uuid.UUID, string) error {
	return s.err
}

func (s *stubDirectory) List(_ context.Context, _ checkin.Tenant, filter models.MemberFilter) ([]models.Member, error) {
	s.filter = filter
	return s.members, s.err
}

type stubTimesheet struct {
	from, to time.Time
	added    *models.AddTimeLogRequest
	err      error
}

func (s *stubTimesheet) ListForMember(_ context.Context, _ checkin.Tenant, memberID uuid.UUID) ([]models.TimeLog, error) {
	return []models.TimeLog{{ID: uuid.New(), MemberID: memberID, Action: models.ClockIn}}, s.err
}

func (s *stubTimesheet) ListAll(_ context.Context, _ checkin.Tenant, from, to time.Time) ([]models.TimeLog, error) {
	s.from, s.to = from, to
	return []models.TimeLog{}, s.err
}

func (s *stubTimesheet) AddManual(_ context.Context, _ checkin.Tenant, memberID uuid.UUID, req models.AddTimeLogRequest, _ string) (*models.TimeLog, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.added = &req
	return &models.TimeLog{ID: uuid.New(), MemberID: memberID, Action: req.Action, Timestamp: req.Timestamp}, nil
}

func (s *stubTimesheet) Edit(_ context.Context, _ checkin.Tenant, logID uuid.UUID, req models.EditTimeLogRequest, _ string) (*models.TimeLog, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.TimeLog{ID: logID, Action: req.Action, Timestamp: req.Timestamp, IsEdited: true}, nil
}

type stubAccounts struct {
	device    database.DeviceInfo
	loginErr  error
	resumeErr error
	unlockErr error
	logoutErr error
	loggedOut string
}

func (s *stubAccounts) Register(_ context.Context, req models.RegisterRequest, device database.DeviceInfo) (*models.SessionResponse, error) {
	s.device = device
	return &models.SessionResponse{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresIn:    3600,
		Organization: &models.Organization{ID: uuid.New(), Email: req.Email, GymName: req.GymName, Mode: req.Mode},
	}, nil
}

func (s *stubAccounts) Login(_ context.Context, email, _ string, device database.DeviceInfo) (*models.SessionResponse, error) {
	s.device = device
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &models.SessionResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 3600, Organization: &models.Organization{Email: email}}, nil
}

func (s *stubAccounts) ResumeSession(context.Context, string) (*models.SessionResponse, error) {
	if s.resumeErr != nil {
		return nil, s.resumeErr
	}
	return &models.SessionResponse{AccessToken: "fresh", ExpiresIn: 3600}, nil
}

func (s *stubAccounts) UnlockAdmin(context.Context, uuid.UUID, string) (*models.AdminUnlockResponse, error) {
	if s.unlockErr != nil {
		return nil, s.unlockErr
	}
	return &models.AdminUnlockResponse{AccessToken: "admin", ExpiresIn: 900}, nil
}

func (s *stubAccounts) Logout(_ context.Context, _ uuid.UUID, refreshToken, _ string) error {
	s.loggedOut = refreshToken
	return s.logoutErr
}
