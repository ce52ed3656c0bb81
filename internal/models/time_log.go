package models

import (
	"time"

	"github.com/google/uuid"
)

// ClockAction is one of the four employee clock events
type ClockAction string

const (
	ClockIn    ClockAction = "CLOCK_IN"
	ClockOut   ClockAction = "CLOCK_OUT"
	BreakStart ClockAction = "BREAK_START"
	BreakEnd   ClockAction = "BREAK_END"
)

// Valid reports whether a is one of the known clock actions
func (a ClockAction) Valid() bool {
	switch a {
	case ClockIn, ClockOut, BreakStart, BreakEnd:
		return true
	}
	return false
}

// TimeLog is a single clock event for an employee
type TimeLog struct {
	ID                uuid.UUID   `json:"id" db:"id"`
	OrganizationID    uuid.UUID   `json:"organization_id" db:"organization_id"`
	MemberID          uuid.UUID   `json:"member_id" db:"member_id"`
	Action            ClockAction `json:"action" db:"action"`
	Timestamp         time.Time   `json:"timestamp" db:"timestamp"`
	IsEdited          bool        `json:"is_edited" db:"is_edited"`
	OriginalTimestamp *time.Time  `json:"original_timestamp,omitempty" db:"original_timestamp"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
}

// AddTimeLogRequest is the admin request to backfill a clock event
type AddTimeLogRequest struct {
	Action    ClockAction `json:"action" binding:"required"`
	Timestamp time.Time   `json:"timestamp" binding:"required"`
}

// EditTimeLogRequest is the admin request to correct a clock event
type EditTimeLogRequest struct {
	Action    ClockAction `json:"action" binding:"required"`
	Timestamp time.Time   `json:"timestamp" binding:"required"`
}

// ClockState is a member's denormalized clock position as stored after a write
type ClockState struct {
	LastAction     *ClockAction `json:"last_action,omitempty" db:"last_action"`
	LastActionTime *time.Time   `json:"last_action_time,omitempty" db:"last_action_time"`
}
