package checkin

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gatekeeper/kiosk-backend/internal/apperror"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/google/uuid"
)

// memStore is an in-memory Directory and LogStore with the same semantics as
// the Postgres repositories.
type memStore struct {
	mu      sync.Mutex
	members map[uuid.UUID]*models.Member
	logs    map[uuid.UUID][]models.TimeLog
	seq     int
	failErr error
}

func newMemStore() *memStore {
	return &memStore{
		members: make(map[uuid.UUID]*models.Member),
		logs:    make(map[uuid.UUID][]models.TimeLog),
	}
}

func (s *memStore) add(m models.Member) *models.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = models.MemberStatusActive
	}
	s.members[m.ID] = &m
	return &m
}

func (s *memStore) get(id uuid.UUID) models.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.members[id]
}

func (s *memStore) FindByCode(_ context.Context, orgID uuid.UUID, code string) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	for _, m := range s.members {
		if m.OrganizationID == orgID && m.MemberNumber == code && m.Status == models.MemberStatusActive {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindByID(_ context.Context, orgID uuid.UUID, id uuid.UUID) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	m, ok := s.members[id]
	if !ok || m.OrganizationID != orgID {
		return nil, nil
	}
	c := *m
	return &c, nil
}

func (s *memStore) RecordWaiver(_ context.Context, orgID uuid.UUID, id uuid.UUID, signature string) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok || m.OrganizationID != orgID {
		return nil, apperror.ErrMemberNotFound
	}
	m.HasWaiver = true
	m.WaiverSignature = models.NewNullString(signature)
	c := *m
	return &c, nil
}

func (s *memStore) AppendClockAction(_ context.Context, orgID, memberID uuid.UUID, action models.ClockAction, at time.Time, expectedLast *models.ClockAction) (*models.TimeLog, models.ClockState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, models.ClockState{}, s.failErr
	}
	m := s.members[memberID]
	if !sameAction(m.LastAction, expectedLast) {
		return nil, models.ClockState{}, apperror.ErrStaleClockState
	}
	entry := s.insert(orgID, memberID, action, at, false)
	s.recompute(memberID)
	return &entry, models.ClockState{LastAction: m.LastAction, LastActionTime: m.LastActionTime}, nil
}

// addLog mirrors TimeLogRepository.AddManual
func (s *memStore) addLog(orgID, memberID uuid.UUID, action models.ClockAction, at time.Time) models.TimeLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.insert(orgID, memberID, action, at, true)
	s.recompute(memberID)
	return entry
}

// editLog mirrors TimeLogRepository.Edit
func (s *memStore) editLog(memberID, logID uuid.UUID, action models.ClockAction, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logs := s.logs[memberID]
	for i := range logs {
		if logs[i].ID != logID {
			continue
		}
		if logs[i].OriginalTimestamp == nil {
			orig := logs[i].Timestamp
			logs[i].OriginalTimestamp = &orig
		}
		logs[i].Action = action
		logs[i].Timestamp = at
		logs[i].IsEdited = true
	}
	s.recompute(memberID)
}

func (s *memStore) insert(orgID, memberID uuid.UUID, action models.ClockAction, at time.Time, edited bool) models.TimeLog {
	s.seq++
	entry := models.TimeLog{
		ID:             uuid.New(),
		OrganizationID: orgID,
		MemberID:       memberID,
		Action:         action,
		Timestamp:      at,
		IsEdited:       edited,
		CreatedAt:      time.Unix(int64(s.seq), 0),
	}
	s.logs[memberID] = append(s.logs[memberID], entry)
	return entry
}

// recompute sets the denormalized fields from the chronologically latest log
func (s *memStore) recompute(memberID uuid.UUID) {
	logs := append([]models.TimeLog(nil), s.logs[memberID]...)
	m := s.members[memberID]
	if len(logs) == 0 {
		m.LastAction, m.LastActionTime = nil, nil
		return
	}
	sort.Slice(logs, func(i, j int) bool {
		if !logs[i].Timestamp.Equal(logs[j].Timestamp) {
			return logs[i].Timestamp.After(logs[j].Timestamp)
		}
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})
	action, at := logs[0].Action, logs[0].Timestamp
	m.LastAction, m.LastActionTime = &action, &at
}

func sameAction(a, b *models.ClockAction) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type countingRecorder struct {
	outcomes map[Kind]int
	actions  map[models.ClockAction]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{outcomes: map[Kind]int{}, actions: map[models.ClockAction]int{}}
}

func (r *countingRecorder) ObserveOutcome(_ models.AppMode, kind Kind) { r.outcomes[kind]++ }
func (r *countingRecorder) ObserveClockAction(a models.ClockAction)    { r.actions[a]++ }
