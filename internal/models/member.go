package models

import (
	"time"

	"github.com/google/uuid"
)

// MemberStatus is the lifecycle status of a person record
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "ACTIVE"
	MemberStatusArchived MemberStatus = "ARCHIVED"
)

// Member is a person checking in at the kiosk: a gym member in MEMBERSHIP
// mode or an employee in EMPLOYEE mode. Same shape for both.
type Member struct {
	ID              uuid.UUID    `json:"id" db:"id"`
	OrganizationID  uuid.UUID    `json:"organization_id" db:"organization_id"`
	MemberNumber    string       `json:"member_number" db:"member_number"`
	Name            string       `json:"name" db:"name"`
	PhoneNumber     string       `json:"phone_number" db:"phone_number"`
	Email           NullString   `json:"email,omitempty" db:"email"`
	Address         NullString   `json:"address,omitempty" db:"address"`
	Department      NullString   `json:"department,omitempty" db:"department"`
	ExpirationDate  time.Time    `json:"expiration_date" db:"expiration_date"`
	HasWaiver       bool         `json:"has_waiver" db:"has_waiver"`
	WaiverSignature NullString   `json:"waiver_signature,omitempty" db:"waiver_signature"`
	Status          MemberStatus `json:"status" db:"status"`
	LastAction      *ClockAction `json:"last_action,omitempty" db:"last_action"`
	LastActionTime  *time.Time   `json:"last_action_time,omitempty" db:"last_action_time"`
	JoinedDate      time.Time    `json:"joined_date" db:"joined_date"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at" db:"updated_at"`
}

// IsExpired reports whether the membership lapsed strictly before now.
func (m *Member) IsExpired(now time.Time) bool {
	return m.ExpirationDate.Before(now)
}

// IsArchived reports whether the record has been retired
func (m *Member) IsArchived() bool {
	return m.Status == MemberStatusArchived
}

// MemberAuditLog is one entry of a member's append-only change history
type MemberAuditLog struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	MemberID       uuid.UUID  `json:"member_id" db:"member_id"`
	Action         string     `json:"action" db:"action"`
	Details        string     `json:"details" db:"details"`
	AdminUser      NullString `json:"admin_user,omitempty" db:"admin_user"`
	CreatedAt      time.Time  `json:"timestamp" db:"created_at"`
}

// Audit actions recorded against members
const (
	AuditActionCreate           = "CREATE"
	AuditActionUpdateExpiration = "UPDATE_EXPIRATION"
	AuditActionUpdateProfile    = "UPDATE_PROFILE"
	AuditActionArchive          = "ARCHIVE"
	AuditActionRestore          = "RESTORE"
	AuditActionWaiverSigned     = "WAIVER_SIGNED"
	AuditActionAddTimeLog       = "ADD_TIME_LOG"
	AuditActionEditTimeLog      = "EDIT_TIME_LOG"
)

// MemberFilter narrows the admin listing
type MemberFilter struct {
	Search   string
	Archived bool
}

// CreateMemberRequest is the admin request body for adding a person.
// An empty MemberNumber asks for the next available code.
type CreateMemberRequest struct {
	Name            string `json:"name" binding:"required"`
	MemberNumber    string `json:"member_number"`
	PhoneNumber     string `json:"phone_number"`
	Email           string `json:"email"`
	Address         string `json:"address"`
	Department      string `json:"department"`
	WaiverSignature string `json:"waiver_signature"`
}

// UpdateMemberRequest carries the editable profile fields. The short code and
// the waiver flag are deliberately absent.
type UpdateMemberRequest struct {
	Name           *string    `json:"name"`
	PhoneNumber    *string    `json:"phone_number"`
	Email          *string    `json:"email"`
	Address        *string    `json:"address"`
	Department     *string    `json:"department"`
	ExpirationDate *time.Time `json:"expiration_date"`
}

// MemberDetail is the admin detail view of one person
type MemberDetail struct {
	Member    *Member          `json:"member"`
	AuditLogs []MemberAuditLog `json:"audit_logs"`
	TimeLogs  []TimeLog        `json:"time_logs,omitempty"`
}
