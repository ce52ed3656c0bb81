// Package checkin decides what the kiosk shows when a code is entered and
// commits the two mutations a check-in can cause: waiver acceptance and
// employee clock actions.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gatekeeper/kiosk-backend/internal/apperror"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Tenant is the resolved session scope passed into every call
type Tenant struct {
	OrganizationID uuid.UUID
	Mode           models.AppMode
}

// Directory is the member lookup the engine needs. Lookups return (nil, nil)
// when no record matches.
type Directory interface {
	FindByCode(ctx context.Context, orgID uuid.UUID, code string) (*models.Member, error)
	FindByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*models.Member, error)
	RecordWaiver(ctx context.Context, orgID uuid.UUID, id uuid.UUID, signature string) (*models.Member, error)
}

// LogStore appends clock actions. The log row and the member's denormalized
// last action must be written together, and only if the member's last action
// still equals expectedLast; otherwise ErrStaleClockState. The returned state
// is what the store holds after recomputing from the log.
type LogStore interface {
	AppendClockAction(ctx context.Context, orgID, memberID uuid.UUID, action models.ClockAction, at time.Time, expectedLast *models.ClockAction) (*models.TimeLog, models.ClockState, error)
}

// Recorder observes engine results
type Recorder interface {
	ObserveOutcome(mode models.AppMode, kind Kind)
	ObserveClockAction(action models.ClockAction)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOutcome(models.AppMode, Kind)   {}
func (nopRecorder) ObserveClockAction(models.ClockAction) {}

// Engine is the check-in decision engine. It holds no mutable state.
type Engine struct {
	directory Directory
	logs      LogStore
	recorder  Recorder
	logger    *logrus.Logger
	now       func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// NewEngine creates a new Engine
func NewEngine(directory Directory, logs LogStore, logger *logrus.Logger, opts ...Option) *Engine {
	e := &Engine{
		directory: directory,
		logs:      logs,
		recorder:  nopRecorder{},
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate looks up code and applies the tenant's rule set. Business results
// are returned as an Outcome; only infrastructure failures are errors.
func (e *Engine) Evaluate(ctx context.Context, tenant Tenant, code string) (Outcome, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperror.Invalid("code is required")
	}
	if !tenant.Mode.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %q", apperror.ErrWrongMode, tenant.Mode)
	}

	member, err := e.directory.FindByCode(ctx, tenant.OrganizationID, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up code: %w", err)
	}

	var out Outcome
	switch {
	case member == nil || member.IsArchived():
		out = NotFound{Code: code}
	case tenant.Mode == models.ModeEmployee:
		state := StateOf(member.LastAction)
		out = AwaitingAction{Member: member, State: state, Allowed: Allowed(state)}
	case member.IsExpired(e.now()):
		out = Expired{Member: member}
	case !member.HasWaiver:
		out = WaiverRequired{Member: member}
	default:
		out = Success{Member: member, Title: "ACCESS GRANTED", Message: "Welcome back,"}
	}

	e.recorder.ObserveOutcome(tenant.Mode, out.Kind())
	return out, nil
}

// RecordWaiverAcceptance stores the signature, sets has_waiver and returns
// Success for the member.
func (e *Engine) RecordWaiverAcceptance(ctx context.Context, tenant Tenant, memberID uuid.UUID, signature string) (Outcome, error) {
	if tenant.Mode != models.ModeMembership {
		return nil, apperror.ErrWrongMode
	}
	if strings.TrimSpace(signature) == "" {
		return nil, apperror.Invalid("signature is required")
	}

	member, err := e.activeMember(ctx, tenant, memberID)
	if err != nil {
		return nil, err
	}

	updated, err := e.directory.RecordWaiver(ctx, tenant.OrganizationID, member.ID, signature)
	if err != nil {
		return nil, fmt.Errorf("failed to record waiver: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"organization_id": tenant.OrganizationID,
		"member_id":       member.ID,
	}).Info("Waiver signed at kiosk")

	out := Success{Member: updated, Title: "ACCESS GRANTED", Message: "Welcome back,"}
	e.recorder.ObserveOutcome(tenant.Mode, out.Kind())
	return out, nil
}

// CommitClockAction records action for an employee at the current time. The
// action must be legal for the state inferred from the stored last action.
func (e *Engine) CommitClockAction(ctx context.Context, tenant Tenant, memberID uuid.UUID, action models.ClockAction) (Outcome, error) {
	if tenant.Mode != models.ModeEmployee {
		return nil, apperror.ErrWrongMode
	}

	member, err := e.activeMember(ctx, tenant, memberID)
	if err != nil {
		return nil, err
	}

	if _, err := Transition(StateOf(member.LastAction), action); err != nil {
		return nil, err
	}

	at := e.now()
	entry, state, err := e.logs.AppendClockAction(ctx, tenant.OrganizationID, member.ID, action, at, member.LastAction)
	if err != nil {
		if !errors.Is(err, apperror.ErrStaleClockState) {
			e.logger.WithError(err).WithField("member_id", member.ID).Error("Failed to commit clock action")
		}
		return nil, fmt.Errorf("failed to commit clock action: %w", err)
	}

	committed := *member
	committed.LastAction = state.LastAction
	committed.LastActionTime = state.LastActionTime
	if state.LastAction == nil || *state.LastAction != action {
		e.logger.WithFields(logrus.Fields{
			"member_id":   member.ID,
			"action":      action,
			"last_action": state.LastAction,
		}).Warn("Clock action is not the latest log entry")
	}

	e.recorder.ObserveClockAction(action)

	title, message := ActionDisplay(action)
	out := Success{Member: &committed, Title: title, Message: message, Log: entry}
	e.recorder.ObserveOutcome(tenant.Mode, out.Kind())
	return out, nil
}

func (e *Engine) activeMember(ctx context.Context, tenant Tenant, id uuid.UUID) (*models.Member, error) {
	member, err := e.directory.FindByID(ctx, tenant.OrganizationID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	if member == nil || member.IsArchived() {
		return nil, apperror.ErrMemberNotFound
	}
	return member, nil
}
