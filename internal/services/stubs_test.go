package services

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gatekeeper/kiosk-backend/internal/apperror"
	"github.com/gatekeeper/kiosk-backend/internal/database"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type auditRecord struct {
	memberID uuid.UUID
	action   string
	details  string
	admin    string
}

type stubMemberStore struct {
	mu      sync.Mutex
	members map[uuid.UUID]*models.Member
	audits  []auditRecord
	err     error
}

func newStubMemberStore() *stubMemberStore {
	return &stubMemberStore{members: make(map[uuid.UUID]*models.Member)}
}

func (s *stubMemberStore) put(m models.Member) *models.Member {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = models.MemberStatusActive
	}
	s.members[m.ID] = &m
	return &m
}

func (s *stubMemberStore) FindByID(_ context.Context, orgID, id uuid.UUID) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	m, ok := s.members[id]
	if !ok || m.OrganizationID != orgID {
		return nil, nil
	}
	c := *m
	return &c, nil
}

func (s *stubMemberStore) ActiveCodeExists(_ context.Context, orgID uuid.UUID, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.OrganizationID == orgID && m.MemberNumber == code && m.Status == models.MemberStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubMemberStore) ListCodes(_ context.Context, orgID uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var codes []string
	for _, m := range s.members {
		if m.OrganizationID == orgID {
			codes = append(codes, m.MemberNumber)
		}
	}
	return codes, nil
}

func (s *stubMemberStore) Create(_ context.Context, m *models.Member, admin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	c := *m
	s.members[m.ID] = &c
	s.audits = append(s.audits, auditRecord{m.ID, models.AuditActionCreate, "", admin})
	return nil
}

func (s *stubMemberStore) Update(_ context.Context, m *models.Member, audits []database.AuditEntry, admin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.ID]; !ok {
		return apperror.ErrMemberNotFound
	}
	c := *m
	s.members[m.ID] = &c
	for _, a := range audits {
		s.audits = append(s.audits, auditRecord{m.ID, a.Action, a.Details, admin})
	}
	return nil
}

func (s *stubMemberStore) setStatus(orgID, id uuid.UUID, from, to models.MemberStatus, action, admin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok || m.OrganizationID != orgID || m.Status != from {
		return apperror.ErrMemberNotFound
	}
	m.Status = to
	s.audits = append(s.audits, auditRecord{id, action, "", admin})
	return nil
}

func (s *stubMemberStore) Archive(_ context.Context, orgID, id uuid.UUID, admin string) error {
	return s.setStatus(orgID, id, models.MemberStatusActive, models.MemberStatusArchived, models.AuditActionArchive, admin)
}

func (s *stubMemberStore) Restore(_ context.Context, orgID, id uuid.UUID, admin string) error {
	return s.setStatus(orgID, id, models.MemberStatusArchived, models.MemberStatusActive, models.AuditActionRestore, admin)
}

func (s *stubMemberStore) List(_ context.Context, orgID uuid.UUID, filter models.MemberFilter) ([]models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := models.MemberStatusActive
	if filter.Archived {
		want = models.MemberStatusArchived
	}
	search := strings.ToLower(filter.Search)
	out := []models.Member{}
	for _, m := range s.members {
		if m.OrganizationID != orgID || m.Status != want {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.Name), search) &&
			!strings.Contains(m.MemberNumber, search) && !strings.Contains(m.PhoneNumber, search) {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberNumber < out[j].MemberNumber })
	return out, nil
}

func (s *stubMemberStore) ListAuditLogs(_ context.Context, orgID, memberID uuid.UUID) ([]models.MemberAuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.MemberAuditLog{}
	for _, a := range s.audits {
		if a.memberID == memberID {
			out = append(out, models.MemberAuditLog{OrganizationID: orgID, MemberID: memberID, Action: a.action, Details: a.details})
		}
	}
	return out, nil
}

type stubTimeLogStore struct {
	logs  []models.TimeLog
	calls []string
}

func (s *stubTimeLogStore) AddManual(_ context.Context, orgID, memberID uuid.UUID, action models.ClockAction, at time.Time, _ string) (*models.TimeLog, error) {
	s.calls = append(s.calls, "add")
	entry := models.TimeLog{ID: uuid.New(), OrganizationID: orgID, MemberID: memberID, Action: action, Timestamp: at, IsEdited: true}
	s.logs = append(s.logs, entry)
	return &entry, nil
}

func (s *stubTimeLogStore) Edit(_ context.Context, _ uuid.UUID, logID uuid.UUID, action models.ClockAction, at time.Time, _ string) (*models.TimeLog, error) {
	s.calls = append(s.calls, "edit")
	for i := range s.logs {
		if s.logs[i].ID == logID {
			if s.logs[i].OriginalTimestamp == nil {
				orig := s.logs[i].Timestamp
				s.logs[i].OriginalTimestamp = &orig
			}
			s.logs[i].Action, s.logs[i].Timestamp, s.logs[i].IsEdited = action, at, true
			entry := s.logs[i]
			return &entry, nil
		}
	}
	return nil, apperror.ErrTimeLogNotFound
}

func (s *stubTimeLogStore) ListForMember(_ context.Context, _ uuid.UUID, memberID uuid.UUID) ([]models.TimeLog, error) {
	out := []models.TimeLog{}
	for _, l := range s.logs {
		if l.MemberID == memberID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubTimeLogStore) ListAll(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]models.TimeLog, error) {
	return s.logs, nil
}

type stubSettingsStore struct {
	settings map[uuid.UUID]*models.Settings
}

func newStubSettingsStore() *stubSettingsStore {
	return &stubSettingsStore{settings: make(map[uuid.UUID]*models.Settings)}
}

func (s *stubSettingsStore) Get(_ context.Context, orgID uuid.UUID) (*models.Settings, error) {
	return s.settings[orgID], nil
}

func (s *stubSettingsStore) Save(_ context.Context, settings *models.Settings) error {
	c := *settings
	s.settings[settings.OrganizationID] = &c
	return nil
}

type stubOrganizationStore struct {
	orgs map[uuid.UUID]*models.Organization
}

func newStubOrganizationStore() *stubOrganizationStore {
	return &stubOrganizationStore{orgs: make(map[uuid.UUID]*models.Organization)}
}

func (s *stubOrganizationStore) Create(_ context.Context, org *models.Organization, settings *models.Settings) error {
	for _, o := range s.orgs {
		if o.Email == org.Email {
			return apperror.ErrEmailTaken
		}
	}
	org.ID = uuid.New()
	settings.OrganizationID = org.ID
	c := *org
	s.orgs[org.ID] = &c
	return nil
}

func (s *stubOrganizationStore) FindByEmail(_ context.Context, email string) (*models.Organization, error) {
	for _, o := range s.orgs {
		if o.Email == strings.ToLower(strings.TrimSpace(email)) {
			c := *o
			return &c, nil
		}
	}
	return nil, nil
}

func (s *stubOrganizationStore) FindByID(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	o, ok := s.orgs[id]
	if !ok {
		return nil, nil
	}
	c := *o
	return &c, nil
}

type stubRefreshTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
	purged int
}

func newStubRefreshTokenStore() *stubRefreshTokenStore {
	return &stubRefreshTokenStore{tokens: make(map[string]*models.RefreshToken)}
}

func (s *stubRefreshTokenStore) Store(_ context.Context, orgID uuid.UUID, token string, _ database.DeviceInfo, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = &models.RefreshToken{ID: uuid.New(), OrganizationID: orgID, ExpiresAt: expiresAt}
	return nil
}

func (s *stubRefreshTokenStore) Get(_ context.Context, token string) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (s *stubRefreshTokenStore) Touch(context.Context, string) error { return nil }

func (s *stubRefreshTokenStore) Revoke(_ context.Context, orgID uuid.UUID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok || t.OrganizationID != orgID || t.Revoked {
		return apperror.ErrNotAuthenticated
	}
	t.Revoked = true
	return nil
}

func (s *stubRefreshTokenStore) Cleanup(context.Context, time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purged++
	return 2, nil
}
