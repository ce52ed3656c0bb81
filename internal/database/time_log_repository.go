package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gatekeeper/kiosk-backend/internal/apperror"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const timeLogColumns = `
	id, organization_id, member_id, action, timestamp, is_edited,
	original_timestamp, created_at`

// recomputeLastActionQuery points the denormalized clock fields at the
// chronologically latest log. Ties on timestamp go to the later insert.
const recomputeLastActionQuery = `
	UPDATE members
	SET (last_action, last_action_time) = (
	        SELECT action, timestamp
	        FROM time_logs
	        WHERE member_id = $1
	        ORDER BY timestamp DESC, created_at DESC
	        LIMIT 1
	    ),
	    updated_at = NOW()
	WHERE id = $1
	RETURNING last_action, last_action_time`

// TimeLogRepository handles employee clock log database operations. Every
// write locks the member row and recomputes last_action in the same
// transaction.
type TimeLogRepository struct {
	db DB
}

// NewTimeLogRepository creates a new time log repository
func NewTimeLogRepository(db DB) *TimeLogRepository {
	return &TimeLogRepository{db: db}
}

// AppendClockAction records a kiosk clock action and returns the member's
// clock state as recomputed from the log. It fails with ErrStaleClockState
// when the member's last action is no longer expectedLast.
func (r *TimeLogRepository) AppendClockAction(ctx context.Context, orgID, memberID uuid.UUID, action models.ClockAction, at time.Time, expectedLast *models.ClockAction) (*models.TimeLog, models.ClockState, error) {
	var state models.ClockState

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, state, storeError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	current, err := lockMember(ctx, tx, orgID, memberID, true)
	if err != nil {
		return nil, state, err
	}
	if !sameAction(current, expectedLast) {
		return nil, state, apperror.ErrStaleClockState
	}

	entry, err := insertTimeLog(ctx, tx, orgID, memberID, action, at, false)
	if err != nil {
		return nil, state, err
	}

	state, err = recomputeLastAction(ctx, tx, memberID)
	if err != nil {
		return nil, state, err
	}

	if err := tx.Commit(); err != nil {
		return nil, models.ClockState{}, storeError("failed to commit clock action", err)
	}
	return entry, state, nil
}

// AddManual backfills a clock event on behalf of an administrator
func (r *TimeLogRepository) AddManual(ctx context.Context, orgID, memberID uuid.UUID, action models.ClockAction, at time.Time, adminUser string) (*models.TimeLog, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storeError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := lockMember(ctx, tx, orgID, memberID, false); err != nil {
		return nil, err
	}

	entry, err := insertTimeLog(ctx, tx, orgID, memberID, action, at, true)
	if err != nil {
		return nil, err
	}

	if _, err := recomputeLastAction(ctx, tx, memberID); err != nil {
		return nil, err
	}

	details := fmt.Sprintf("Manually added %s for %s", action, at.UTC().Format(time.RFC3339))
	if err := insertAudit(ctx, tx, orgID, memberID, models.AuditActionAddTimeLog, details, adminUser); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError("failed to commit manual time log", err)
	}
	return entry, nil
}

// Edit corrects a log entry's action and timestamp. The first edit preserves
// the original timestamp; later edits leave it alone.
func (r *TimeLogRepository) Edit(ctx context.Context, orgID, logID uuid.UUID, action models.ClockAction, at time.Time, adminUser string) (*models.TimeLog, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storeError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var memberID uuid.UUID
	err = tx.GetContext(ctx, &memberID,
		`SELECT member_id FROM time_logs WHERE organization_id = $1 AND id = $2`, orgID, logID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrTimeLogNotFound
		}
		return nil, storeError("failed to find time log", err)
	}

	if _, err := lockMember(ctx, tx, orgID, memberID, false); err != nil {
		return nil, err
	}

	var entry models.TimeLog
	query := `
		UPDATE time_logs
		SET action = $1,
		    timestamp = $2,
		    is_edited = TRUE,
		    original_timestamp = COALESCE(original_timestamp, timestamp)
		WHERE organization_id = $3 AND id = $4
		RETURNING` + timeLogColumns

	if err := tx.GetContext(ctx, &entry, query, action, at, orgID, logID); err != nil {
		return nil, storeError("failed to edit time log", err)
	}

	if _, err := recomputeLastAction(ctx, tx, memberID); err != nil {
		return nil, err
	}

	details := fmt.Sprintf("Edited log %s to %s at %s", logID, action, at.UTC().Format(time.RFC3339))
	if err := insertAudit(ctx, tx, orgID, memberID, models.AuditActionEditTimeLog, details, adminUser); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError("failed to commit time log edit", err)
	}
	return &entry, nil
}

// ListForMember returns a member's logs, newest first
func (r *TimeLogRepository) ListForMember(ctx context.Context, orgID, memberID uuid.UUID) ([]models.TimeLog, error) {
	logs := []models.TimeLog{}
	query := `SELECT` + timeLogColumns + `
		FROM time_logs
		WHERE organization_id = $1 AND member_id = $2
		ORDER BY timestamp DESC, created_at DESC`

	if err := r.db.SelectContext(ctx, &logs, query, orgID, memberID); err != nil {
		return nil, storeError("failed to list time logs", err)
	}
	return logs, nil
}

// ListAll returns the tenant's logs within [from, to), newest first. Zero
// bounds are open.
func (r *TimeLogRepository) ListAll(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]models.TimeLog, error) {
	query := `SELECT` + timeLogColumns + `
		FROM time_logs
		WHERE organization_id = $1`
	args := []interface{}{orgID}

	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND timestamp < $%d", len(args))
	}
	query += " ORDER BY timestamp DESC, created_at DESC"

	logs := []models.TimeLog{}
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, storeError("failed to list time logs", err)
	}
	return logs, nil
}

// lockMember takes the row lock that serializes clock writes for one member
// and returns its current last action. Administrators may still correct the
// logs of archived members; the kiosk may not.
func lockMember(ctx context.Context, tx *sqlx.Tx, orgID, memberID uuid.UUID, activeOnly bool) (*models.ClockAction, error) {
	query := `SELECT last_action FROM members WHERE organization_id = $1 AND id = $2`
	if activeOnly {
		query += ` AND status = 'ACTIVE'`
	}
	query += ` FOR UPDATE`

	var last *models.ClockAction
	err := tx.GetContext(ctx, &last, query, orgID, memberID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrMemberNotFound
		}
		return nil, storeError("failed to lock member", err)
	}
	return last, nil
}

func insertTimeLog(ctx context.Context, tx *sqlx.Tx, orgID, memberID uuid.UUID, action models.ClockAction, at time.Time, edited bool) (*models.TimeLog, error) {
	var entry models.TimeLog
	query := `
		INSERT INTO time_logs (id, organization_id, member_id, action, timestamp, is_edited)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING` + timeLogColumns

	if err := tx.GetContext(ctx, &entry, query, uuid.New(), orgID, memberID, action, at, edited); err != nil {
		return nil, storeError("failed to insert time log", err)
	}
	return &entry, nil
}

func recomputeLastAction(ctx context.Context, tx *sqlx.Tx, memberID uuid.UUID) (models.ClockState, error) {
	var state models.ClockState
	if err := tx.GetContext(ctx, &state, recomputeLastActionQuery, memberID); err != nil {
		return models.ClockState{}, storeError("failed to recompute last action", err)
	}
	return state, nil
}

func sameAction(a, b *models.ClockAction) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
