package checkin

import "github.com/gatekeeper/kiosk-backend/internal/models"

// Kind names an outcome variant on the wire and in metrics
type Kind string

const (
	KindSuccess        Kind = "SUCCESS"
	KindExpired        Kind = "EXPIRED"
	KindWaiverRequired Kind = "NO_WAIVER"
	KindNotFound       Kind = "NOT_FOUND"
	KindAwaitingAction Kind = "AWAITING_ACTION"
)

// Outcome is the closed set of results a check-in can produce. The
// unexported method keeps other packages from adding variants, so a type
// switch over the five types below is exhaustive.
type Outcome interface {
	Kind() Kind
	outcome()
}

// Success grants access or confirms a recorded clock action
type Success struct {
	Member  *models.Member
	Title   string
	Message string
	// Log is the time log written by a clock commit, nil otherwise.
	Log *models.TimeLog
}

// Expired means the membership lapsed; nothing was written
type Expired struct {
	Member *models.Member
}

// WaiverRequired means the member must sign the waiver before entry
type WaiverRequired struct {
	Member *models.Member
}

// NotFound means no active record carries the code
type NotFound struct {
	Code string
}

// AwaitingAction hands an employee over to the clock controls
type AwaitingAction struct {
	Member  *models.Member
	State   State
	Allowed []models.ClockAction
}

func (Success) Kind() Kind        { return KindSuccess }
func (Expired) Kind() Kind        { return KindExpired }
func (WaiverRequired) Kind() Kind { return KindWaiverRequired }
func (NotFound) Kind() Kind       { return KindNotFound }
func (AwaitingAction) Kind() Kind { return KindAwaitingAction }

func (Success) outcome()        {}
func (Expired) outcome()        {}
func (WaiverRequired) outcome() {}
func (NotFound) outcome()       {}
func (AwaitingAction) outcome() {}

// MemberOf returns the member carried by o, or nil for NotFound
func MemberOf(o Outcome) *models.Member {
	switch v := o.(type) {
	case Success:
		return v.Member
	case Expired:
		return v.Member
	case WaiverRequired:
		return v.Member
	case AwaitingAction:
		return v.Member
	}
	return nil
}
