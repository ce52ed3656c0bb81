package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gatekeeper/kiosk-backend/internal/checkin"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Screen colours the kiosk paints for each outcome
const (
	ColorGreen  = "green"
	ColorRed    = "red"
	ColorOrange = "orange"
	ColorSlate  = "slate"
	ColorBlue   = "blue"
)

// CheckInEngine is the part of checkin.Engine the kiosk endpoints drive
type CheckInEngine interface {
	Evaluate(ctx context.Context, tenant checkin.Tenant, code string) (checkin.Outcome, error)
	RecordWaiverAcceptance(ctx context.Context, tenant checkin.Tenant, memberID uuid.UUID, signature string) (checkin.Outcome, error)
	CommitClockAction(ctx context.Context, tenant checkin.Tenant, memberID uuid.UUID, action models.ClockAction) (checkin.Outcome, error)
}

// SettingsReader loads the tenant's kiosk settings
type SettingsReader interface {
	Get(ctx context.Context, orgID uuid.UUID) (*models.Settings, error)
}

// KioskHandler serves the front-desk screen
type KioskHandler struct {
	engine   CheckInEngine
	settings SettingsReader
	dwell    time.Duration
	logger   *logrus.Logger
}

// NewKioskHandler creates a new kiosk handler
func NewKioskHandler(engine CheckInEngine, settings SettingsReader, dwell time.Duration, logger *logrus.Logger) *KioskHandler {
	return &KioskHandler{engine: engine, settings: settings, dwell: dwell, logger: logger}
}

// CheckInRequest is the code typed on the keypad
type CheckInRequest struct {
	Code string `json:"code" binding:"required"`
}

// ClockRequest commits an employee clock action
type ClockRequest struct {
	MemberID string             `json:"member_id" binding:"required"`
	Action   models.ClockAction `json:"action" binding:"required"`
}

// WaiverRequest carries the captured signature image
type WaiverRequest struct {
	MemberID  string `json:"member_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// MemberSummary is what the kiosk may show about a person
type MemberSummary struct {
	ID             uuid.UUID           `json:"id"`
	Name           string              `json:"name"`
	MemberNumber   string              `json:"member_number"`
	Department     string              `json:"department,omitempty"`
	ExpirationDate time.Time           `json:"expiration_date"`
	LastAction     *models.ClockAction `json:"last_action,omitempty"`
	LastActionTime *time.Time          `json:"last_action_time,omitempty"`
}

// OutcomeResponse is the rendered result of a check-in step
type OutcomeResponse struct {
	Status         checkin.Kind         `json:"status"`
	Title          string               `json:"title"`
	Message        string               `json:"message"`
	Color          string               `json:"color"`
	DwellSeconds   int                  `json:"dwell_seconds"`
	Member         *MemberSummary       `json:"member,omitempty"`
	ClockState     checkin.State        `json:"clock_state,omitempty"`
	AllowedActions []models.ClockAction `json:"allowed_actions,omitempty"`
	TimeLog        *models.TimeLog      `json:"time_log,omitempty"`
}

// KioskSettingsResponse is what the waiver capture screen needs
type KioskSettingsResponse struct {
	WaiverText  string `json:"waiver_text"`
	WaiverImage string `json:"waiver_image,omitempty"`
}

// CheckIn handles POST /api/v1/kiosk/check-in
func (h *KioskHandler) CheckIn(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req CheckInRequest
	if !bindJSON(c, &req) {
		return
	}

	out, err := h.engine.Evaluate(c.Request.Context(), tenant.Tenant(), req.Code)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, h.render(out))
}

// Clock handles POST /api/v1/kiosk/clock
func (h *KioskHandler) Clock(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req ClockRequest
	if !bindJSON(c, &req) {
		return
	}
	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		badRequest(c, "Invalid member_id format")
		return
	}

	out, err := h.engine.CommitClockAction(c.Request.Context(), tenant.Tenant(), memberID, req.Action)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, h.render(out))
}

// Waiver handles POST /api/v1/kiosk/waiver
func (h *KioskHandler) Waiver(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req WaiverRequest
	if !bindJSON(c, &req) {
		return
	}
	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		badRequest(c, "Invalid member_id format")
		return
	}

	out, err := h.engine.RecordWaiverAcceptance(c.Request.Context(), tenant.Tenant(), memberID, req.Signature)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, h.render(out))
}

// Settings handles GET /api/v1/kiosk/settings
func (h *KioskHandler) Settings(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}

	settings, err := h.settings.Get(c.Request.Context(), tenant.OrganizationID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, KioskSettingsResponse{
		WaiverText:  settings.WaiverText,
		WaiverImage: settings.WaiverImage.String,
	})
}

func (h *KioskHandler) render(out checkin.Outcome) OutcomeResponse {
	resp := OutcomeResponse{
		Status:       out.Kind(),
		DwellSeconds: int(h.dwell / time.Second),
		Member:       summarize(checkin.MemberOf(out)),
	}

	switch o := out.(type) {
	case checkin.Success:
		resp.Title, resp.Message, resp.Color = o.Title, o.Message, ColorGreen
		resp.TimeLog = o.Log
	case checkin.Expired:
		resp.Title, resp.Message, resp.Color = "MEMBERSHIP EXPIRED", "Please see the front desk.", ColorRed
	case checkin.WaiverRequired:
		resp.Title, resp.Message, resp.Color = "WAIVER REQUIRED", "Please sign the digital waiver.", ColorOrange
	case checkin.NotFound:
		resp.Title, resp.Message, resp.Color = "NOT FOUND", "Please try again or register.", ColorSlate
	case checkin.AwaitingAction:
		resp.Title, resp.Message, resp.Color = "SELECT ACTION", "Hello,", ColorBlue
		resp.ClockState = o.State
		resp.AllowedActions = o.Allowed
		// the controls stay up until an action is picked
		resp.DwellSeconds = 0
	default:
		panic(fmt.Sprintf("unhandled check-in outcome %T", out))
	}

	return resp
}

func summarize(m *models.Member) *MemberSummary {
	if m == nil {
		return nil
	}
	return &MemberSummary{
		ID:             m.ID,
		Name:           m.Name,
		MemberNumber:   m.MemberNumber,
		Department:     m.Department.String,
		ExpirationDate: m.ExpirationDate,
		LastAction:     m.LastAction,
		LastActionTime: m.LastActionTime,
	}
}
