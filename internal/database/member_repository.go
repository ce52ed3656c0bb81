package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/gatekeeper/kiosk-backend/internal/apperror"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const memberColumns = `
	id, organization_id, member_number, name, phone_number, email, address,
	department, expiration_date, has_waiver, waiver_signature, status,
	last_action, last_action_time, joined_date, created_at, updated_at`

// MemberRepository handles member and member audit log database operations
type MemberRepository struct {
	db DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// FindByCode returns the ACTIVE member carrying code, or nil when none does
func (r *MemberRepository) FindByCode(ctx context.Context, orgID uuid.UUID, code string) (*models.Member, error) {
	var member models.Member
	query := `SELECT` + memberColumns + `
		FROM members
		WHERE organization_id = $1 AND member_number = $2 AND status = 'ACTIVE'`

	if err := r.db.GetContext(ctx, &member, query, orgID, code); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, storeError("failed to find member by code", err)
	}
	return &member, nil
}

// FindByID returns the member regardless of status, or nil when absent
func (r *MemberRepository) FindByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	query := `SELECT` + memberColumns + `
		FROM members
		WHERE organization_id = $1 AND id = $2`

	if err := r.db.GetContext(ctx, &member, query, orgID, id); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, storeError("failed to find member", err)
	}
	return &member, nil
}

// ActiveCodeExists reports whether an ACTIVE member already uses code
func (r *MemberRepository) ActiveCodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM members
			WHERE organization_id = $1 AND member_number = $2 AND status = 'ACTIVE'
		)`

	if err := r.db.GetContext(ctx, &exists, query, orgID, code); err != nil {
		return false, storeError("failed to check member code", err)
	}
	return exists, nil
}

// ListCodes returns every short code of the tenant, archived included
func (r *MemberRepository) ListCodes(ctx context.Context, orgID uuid.UUID) ([]string, error) {
	var codes []string
	query := `SELECT member_number FROM members WHERE organization_id = $1`

	if err := r.db.SelectContext(ctx, &codes, query, orgID); err != nil {
		return nil, storeError("failed to list member codes", err)
	}
	return codes, nil
}

// Create inserts the member and its CREATE audit entry in one transaction.
// ID and timestamps are filled in on m.
func (r *MemberRepository) Create(ctx context.Context, m *models.Member, adminUser string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = models.MemberStatusActive
	}

	query := `
		INSERT INTO members (
			id, organization_id, member_number, name, phone_number, email, address,
			department, expiration_date, has_waiver, waiver_signature, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING joined_date, created_at, updated_at`

	err = tx.QueryRowxContext(ctx, query,
		m.ID, m.OrganizationID, m.MemberNumber, m.Name, m.PhoneNumber, m.Email, m.Address,
		m.Department, m.ExpirationDate, m.HasWaiver, m.WaiverSignature, m.Status,
	).Scan(&m.JoinedDate, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return storeError("failed to create member", err)
	}

	if err := insertAudit(ctx, tx, m.OrganizationID, m.ID, models.AuditActionCreate,
		fmt.Sprintf("Created %s (%s)", m.Name, m.MemberNumber), adminUser); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeError("failed to commit member", err)
	}
	return nil
}

// AuditEntry is an audit row to append alongside an update
type AuditEntry struct {
	Action  string
	Details string
}

// Update writes the editable profile fields of m and appends audits in the
// same transaction. The short code, waiver and clock fields are never written.
func (r *MemberRepository) Update(ctx context.Context, m *models.Member, audits []AuditEntry, adminUser string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE members
		SET name = $1, phone_number = $2, email = $3, address = $4,
		    department = $5, expiration_date = $6, updated_at = NOW()
		WHERE organization_id = $7 AND id = $8
		RETURNING updated_at`

	err = tx.QueryRowxContext(ctx, query,
		m.Name, m.PhoneNumber, m.Email, m.Address, m.Department, m.ExpirationDate,
		m.OrganizationID, m.ID,
	).Scan(&m.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return apperror.ErrMemberNotFound
		}
		return storeError("failed to update member", err)
	}

	for _, a := range audits {
		if err := insertAudit(ctx, tx, m.OrganizationID, m.ID, a.Action, a.Details, adminUser); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError("failed to commit member update", err)
	}
	return nil
}

// RecordWaiver stores the signature and sets has_waiver on an ACTIVE member
func (r *MemberRepository) RecordWaiver(ctx context.Context, orgID uuid.UUID, id uuid.UUID, signature string) (*models.Member, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storeError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var member models.Member
	query := `
		UPDATE members
		SET has_waiver = TRUE, waiver_signature = $1, updated_at = NOW()
		WHERE organization_id = $2 AND id = $3 AND status = 'ACTIVE'
		RETURNING` + memberColumns

	if err := tx.GetContext(ctx, &member, query, signature, orgID, id); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrMemberNotFound
		}
		return nil, storeError("failed to record waiver", err)
	}

	if err := insertAudit(ctx, tx, orgID, id, models.AuditActionWaiverSigned, "Waiver signed at kiosk", ""); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError("failed to commit waiver", err)
	}
	return &member, nil
}

// Archive retires an ACTIVE member
func (r *MemberRepository) Archive(ctx context.Context, orgID uuid.UUID, id uuid.UUID, adminUser string) error {
	return r.setStatus(ctx, orgID, id, models.MemberStatusActive, models.MemberStatusArchived,
		models.AuditActionArchive, "Member archived", adminUser)
}

// Restore reactivates an ARCHIVED member. Fails with ErrDuplicateShortCode
// when the code has since been given to an active member.
func (r *MemberRepository) Restore(ctx context.Context, orgID uuid.UUID, id uuid.UUID, adminUser string) error {
	return r.setStatus(ctx, orgID, id, models.MemberStatusArchived, models.MemberStatusActive,
		models.AuditActionRestore, "Member restored", adminUser)
}

func (r *MemberRepository) setStatus(ctx context.Context, orgID, id uuid.UUID, from, to models.MemberStatus, action, details, adminUser string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE members
		SET status = $1, updated_at = NOW()
		WHERE organization_id = $2 AND id = $3 AND status = $4`,
		to, orgID, id, from)
	if err != nil {
		return storeError("failed to change member status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storeError("failed to get rows affected", err)
	}
	if rows == 0 {
		return apperror.ErrMemberNotFound
	}

	if err := insertAudit(ctx, tx, orgID, id, action, details, adminUser); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeError("failed to commit status change", err)
	}
	return nil
}

// List returns members with the filter's status, newest first. Search matches
// the name case-insensitively and the code or phone by substring.
func (r *MemberRepository) List(ctx context.Context, orgID uuid.UUID, filter models.MemberFilter) ([]models.Member, error) {
	status := models.MemberStatusActive
	if filter.Archived {
		status = models.MemberStatusArchived
	}

	query := `SELECT` + memberColumns + `
		FROM members
		WHERE organization_id = $1 AND status = $2`
	args := []interface{}{orgID, status}

	if search := strings.TrimSpace(filter.Search); search != "" {
		query += `
		  AND (name ILIKE $3 ESCAPE '\' OR member_number LIKE $3 ESCAPE '\' OR phone_number LIKE $3 ESCAPE '\')`
		args = append(args, "%"+escapeLike(search)+"%")
	}
	query += `
		ORDER BY created_at DESC`

	members := []models.Member{}
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, storeError("failed to list members", err)
	}
	return members, nil
}

// ListAuditLogs returns a member's audit trail in insertion order
func (r *MemberRepository) ListAuditLogs(ctx context.Context, orgID uuid.UUID, memberID uuid.UUID) ([]models.MemberAuditLog, error) {
	logs := []models.MemberAuditLog{}
	query := `
		SELECT id, organization_id, member_id, action, details, admin_user, created_at
		FROM member_audit_logs
		WHERE organization_id = $1 AND member_id = $2
		ORDER BY created_at ASC`

	if err := r.db.SelectContext(ctx, &logs, query, orgID, memberID); err != nil {
		return nil, storeError("failed to list audit logs", err)
	}
	return logs, nil
}

func insertAudit(ctx context.Context, tx *sqlx.Tx, orgID, memberID uuid.UUID, action, details, adminUser string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO member_audit_logs (organization_id, member_id, action, details, admin_user)
		VALUES ($1, $2, $3, $4, $5)`,
		orgID, memberID, action, details, models.NewNullString(adminUser))
	if err != nil {
		return storeError("failed to append audit log", err)
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
