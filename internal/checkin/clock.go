package checkin

import (
	"fmt"

	"github.com/gatekeeper/kiosk-backend/internal/apperror"
	"github.com/gatekeeper/kiosk-backend/internal/models"
)

// State is the employee clock state, inferred from the last recorded action.
// It is never stored.
type State string

const (
	StateOut     State = "OUT"
	StateWorking State = "WORKING"
	StateOnBreak State = "ON_BREAK"
)

var legalActions = map[State][]models.ClockAction{
	StateOut:     {models.ClockIn},
	StateWorking: {models.ClockOut, models.BreakStart},
	StateOnBreak: {models.BreakEnd},
}

// StateOf infers the clock state from the last recorded action. A nil action
// means the person has never clocked and is OUT.
func StateOf(last *models.ClockAction) State {
	if last == nil {
		return StateOut
	}
	return stateAfter(*last)
}

func stateAfter(action models.ClockAction) State {
	switch action {
	case models.ClockIn, models.BreakEnd:
		return StateWorking
	case models.BreakStart:
		return StateOnBreak
	default:
		return StateOut
	}
}

// Allowed returns the actions legal in state s, in display order
func Allowed(s State) []models.ClockAction {
	actions := legalActions[s]
	out := make([]models.ClockAction, len(actions))
	copy(out, actions)
	return out
}

// Allows reports whether action is legal in state s
func Allows(s State, action models.ClockAction) bool {
	for _, a := range legalActions[s] {
		if a == action {
			return true
		}
	}
	return false
}

// Transition applies action to s and returns the resulting state. Illegal
// actions return ErrIllegalClockAction and leave the caller's state as it was.
func Transition(s State, action models.ClockAction) (State, error) {
	if !action.Valid() {
		return s, apperror.Invalid(fmt.Sprintf("unknown clock action %q", action))
	}
	if !Allows(s, action) {
		return s, fmt.Errorf("%w: %s while %s", apperror.ErrIllegalClockAction, action, s)
	}
	return stateAfter(action), nil
}

// ActionDisplay returns the title and greeting the kiosk shows after action
// is recorded. The greeting is followed by the person's name on screen.
func ActionDisplay(action models.ClockAction) (title, message string) {
	switch action {
	case models.ClockIn:
		return "CLOCKED IN", "Have a great shift,"
	case models.ClockOut:
		return "CLOCKED OUT", "See you next time,"
	case models.BreakStart:
		return "ON BREAK", "Enjoy your break,"
	case models.BreakEnd:
		return "BACK TO WORK", "Welcome back,"
	}
	return "SUCCESS", "Action Recorded"
}
