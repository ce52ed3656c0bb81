package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gatekeeper/kiosk-backend/internal/apperror"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expectRecompute matches recomputeLastActionQuery by text only; the ordering
// semantics are covered by the in-memory store in the checkin tests.
func expectRecompute(mock sqlmock.Sqlmock, memberID uuid.UUID, last interface{}, at interface{}) {
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY timestamp DESC, created_at DESC`)).
		WithArgs(memberID).
		WillReturnRows(sqlmock.NewRows([]string{"last_action", "last_action_time"}).AddRow(last, at))
}

func TestTimeLogRepository_AppendClockAction(t *testing.T) {
	ctx := context.Background()
	orgID, memberID := uuid.New(), uuid.New()
	at := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	t.Run("First clock in", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTimeLogRepository(db)
		logID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT last_action FROM members .* AND status = 'ACTIVE' FOR UPDATE`).
			WithArgs(orgID, memberID).
			WillReturnRows(sqlmock.NewRows([]string{"last_action"}).AddRow(nil))
		mock.ExpectQuery(`INSERT INTO time_logs`).
			WithArgs(sqlmock.AnyArg(), orgID, memberID, models.ClockIn, at, false).
			WillReturnRows(sqlmock.NewRows(timeLogRowColumns).
				AddRow(logID.String(), orgID.String(), memberID.String(), "CLOCK_IN", at, false, nil, at))
		expectRecompute(mock, memberID, "CLOCK_IN", at)
		mock.ExpectCommit()

		entry, state, err := repo.AppendClockAction(ctx, orgID, memberID, models.ClockIn, at, nil)
		require.NoError(t, err)
		assert.Equal(t, logID, entry.ID)
		assert.Equal(t, models.ClockIn, entry.Action)
		assert.Nil(t, entry.OriginalTimestamp)
		require.NotNil(t, state.LastAction)
		assert.Equal(t, models.ClockIn, *state.LastAction)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Reports recomputed state when a later entry exists", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTimeLogRepository(db)
		last := models.ClockIn
		later := at.Add(2 * time.Hour)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT last_action FROM members`).
			WillReturnRows(sqlmock.NewRows([]string{"last_action"}).AddRow("CLOCK_IN"))
		mock.ExpectQuery(`INSERT INTO time_logs`).
			WillReturnRows(sqlmock.NewRows(timeLogRowColumns).
				AddRow(uuid.NewString(), orgID.String(), memberID.String(), "BREAK_START", at, false, nil, at))
		expectRecompute(mock, memberID, "CLOCK_IN", later)
		mock.ExpectCommit()

		entry, state, err := repo.AppendClockAction(ctx, orgID, memberID, models.BreakStart, at, &last)
		require.NoError(t, err)
		assert.Equal(t, models.BreakStart, entry.Action)
		require.NotNil(t, state.LastAction)
		assert.Equal(t, models.ClockIn, *state.LastAction)
		require.NotNil(t, state.LastActionTime)
		assert.Equal(t, later, *state.LastActionTime)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("State changed since read", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTimeLogRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT last_action FROM members`).
			WillReturnRows(sqlmock.NewRows([]string{"last_action"}).AddRow("CLOCK_IN"))
		mock.ExpectRollback()

		entry, _, err := repo.AppendClockAction(ctx, orgID, memberID, models.ClockIn, at, nil)
		assert.Nil(t, entry)
		assert.ErrorIs(t, err, apperror.ErrStaleClockState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Archived member", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTimeLogRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT last_action FROM members`).
			WillReturnRows(sqlmock.NewRows([]string{"last_action"}))
		mock.ExpectRollback()

		_, _, err := repo.AppendClockAction(ctx, orgID, memberID, models.ClockIn, at, nil)
		assert.ErrorIs(t, err, apperror.ErrMemberNotFound)
	})

	t.Run("Recompute failure rolls back the insert", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTimeLogRepository(db)
		last := models.ClockIn

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT last_action FROM members`).
			WillReturnRows(sqlmock.NewRows([]string{"last_action"}).AddRow("CLOCK_IN"))
		mock.ExpectQuery(`INSERT INTO time_logs`).
			WillReturnRows(sqlmock.NewRows(timeLogRowColumns).
				AddRow(uuid.NewString(), orgID.String(), memberID.String(), "CLOCK_OUT", at, false, nil, at))
		mock.ExpectQuery(`UPDATE members`).WillReturnError(assert.AnError)
		mock.ExpectRollback()

		_, _, err := repo.AppendClockAction(ctx, orgID, memberID, models.ClockOut, at, &last)
		assert.ErrorIs(t, err, apperror.ErrStoreUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTimeLogRepository_Edit(t *testing.T) {
	ctx := context.Background()
	orgID, memberID, logID := uuid.New(), uuid.New(), uuid.New()
	original := time.Date(2025, 3, 14, 17, 0, 0, 0, time.UTC)
	backdated := time.Date(2025, 3, 14, 7, 0, 0, 0, time.UTC)

	t.Run("Backdating preserves original and recomputes", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTimeLogRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT member_id FROM time_logs`).
			WithArgs(orgID, logID).
			WillReturnRows(sqlmock.NewRows([]string{"member_id"}).AddRow(memberID.String()))
		mock.ExpectQuery(`SELECT last_action FROM members WHERE organization_id = \$1 AND id = \$2 FOR UPDATE`).
			WithArgs(orgID, memberID).
			WillReturnRows(sqlmock.NewRows([]string{"last_action"}).AddRow("CLOCK_OUT"))
		mock.ExpectQuery(regexp.QuoteMeta(`original_timestamp = COALESCE(original_timestamp, timestamp)`)).
			WithArgs(models.ClockOut, backdated, orgID, logID).
			WillReturnRows(sqlmock.NewRows(timeLogRowColumns).
				AddRow(logID.String(), orgID.String(), memberID.String(), "CLOCK_OUT", backdated, true, original, original))
		expectRecompute(mock, memberID, "CLOCK_OUT", backdated)
		mock.ExpectExec(`INSERT INTO member_audit_logs`).
			WithArgs(orgID, memberID, models.AuditActionEditTimeLog, sqlmock.AnyArg(), "owner").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		entry, err := repo.Edit(ctx, orgID, logID, models.ClockOut, backdated, "owner")
		require.NoError(t, err)
		assert.True(t, entry.IsEdited)
		assert.Equal(t, backdated, entry.Timestamp)
		require.NotNil(t, entry.OriginalTimestamp)
		assert.Equal(t, original, *entry.OriginalTimestamp)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown log", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTimeLogRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT member_id FROM time_logs`).
			WillReturnRows(sqlmock.NewRows([]string{"member_id"}))
		mock.ExpectRollback()

		_, err := repo.Edit(ctx, orgID, logID, models.ClockIn, backdated, "owner")
		assert.ErrorIs(t, err, apperror.ErrTimeLogNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTimeLogRepository_AddManual(t *testing.T) {
	ctx := context.Background()
	orgID, memberID := uuid.New(), uuid.New()
	at := time.Date(2025, 3, 13, 8, 0, 0, 0, time.UTC)
	db, mock := newMockDB(t)
	repo := NewTimeLogRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT last_action FROM members`).
		WillReturnRows(sqlmock.NewRows([]string{"last_action"}).AddRow("CLOCK_OUT"))
	mock.ExpectQuery(`INSERT INTO time_logs`).
		WithArgs(sqlmock.AnyArg(), orgID, memberID, models.ClockIn, at, true).
		WillReturnRows(sqlmock.NewRows(timeLogRowColumns).
			AddRow(uuid.NewString(), orgID.String(), memberID.String(), "CLOCK_IN", at, true, nil, at))
	expectRecompute(mock, memberID, "CLOCK_IN", at)
	mock.ExpectExec(`INSERT INTO member_audit_logs`).
		WithArgs(orgID, memberID, models.AuditActionAddTimeLog, "Manually added CLOCK_IN for 2025-03-13T08:00:00Z", "owner").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entry, err := repo.AddManual(ctx, orgID, memberID, models.ClockIn, at, "owner")
	require.NoError(t, err)
	assert.True(t, entry.IsEdited)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeLogRepository_ListAll(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimeLogRepository(db)
	orgID := uuid.New()
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE organization_id = \$1 AND timestamp >= \$2 ORDER BY timestamp DESC`).
		WithArgs(orgID, from).
		WillReturnRows(sqlmock.NewRows(timeLogRowColumns))

	logs, err := repo.ListAll(context.Background(), orgID, from, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
