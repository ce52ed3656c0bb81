package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &PostgresDB{DB: sqlx.NewDb(db, "sqlmock")}, mock
}

var memberRowColumns = []string{
	"id", "organization_id", "member_number", "name", "phone_number", "email", "address",
	"department", "expiration_date", "has_waiver", "waiver_signature", "status",
	"last_action", "last_action_time", "joined_date", "created_at", "updated_at",
}

func memberRow(rows *sqlmock.Rows, id, orgID uuid.UUID, code string, lastAction interface{}) *sqlmock.Rows {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id.String(), orgID.String(), code, "Ana Silva", "0771234567", "ana@example.com", nil,
		nil, now.AddDate(0, 0, 30), true, nil, "ACTIVE",
		lastAction, nil, now, now, now,
	)
}

var timeLogRowColumns = []string{
	"id", "organization_id", "member_id", "action", "timestamp", "is_edited",
	"original_timestamp", "created_at",
}
