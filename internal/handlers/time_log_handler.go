package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gatekeeper/kiosk-backend/internal/checkin"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Timesheet is the admin view of employee clock logs
type Timesheet interface {
	ListForMember(ctx context.Context, tenant checkin.Tenant, memberID uuid.UUID) ([]models.TimeLog, error)
	ListAll(ctx context.Context, tenant checkin.Tenant, from, to time.Time) ([]models.TimeLog, error)
	AddManual(ctx context.Context, tenant checkin.Tenant, memberID uuid.UUID, req models.AddTimeLogRequest, adminUser string) (*models.TimeLog, error)
	Edit(ctx context.Context, tenant checkin.Tenant, logID uuid.UUID, req models.EditTimeLogRequest, adminUser string) (*models.TimeLog, error)
}

// TimeLogHandler handles timesheet administration
type TimeLogHandler struct {
	timesheet Timesheet
	logger    *logrus.Logger
}

// NewTimeLogHandler creates a new time log handler
func NewTimeLogHandler(timesheet Timesheet, logger *logrus.Logger) *TimeLogHandler {
	return &TimeLogHandler{timesheet: timesheet, logger: logger}
}

// ListForMember handles GET /api/v1/admin/members/:id/time-logs
func (h *TimeLogHandler) ListForMember(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}
	memberID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	logs, err := h.timesheet.ListForMember(c.Request.Context(), tenant.Tenant(), memberID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"time_logs": logs})
}

// ListAll handles GET /api/v1/admin/time-logs?from=&to= (RFC 3339, both optional)
func (h *TimeLogHandler) ListAll(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}

	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}

	logs, err := h.timesheet.ListAll(c.Request.Context(), tenant.Tenant(), from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"time_logs": logs})
}

// Add handles POST /api/v1/admin/members/:id/time-logs
func (h *TimeLogHandler) Add(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}
	memberID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req models.AddTimeLogRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.timesheet.AddManual(c.Request.Context(), tenant.Tenant(), memberID, req, tenant.Email)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// Edit handles PUT /api/v1/admin/time-logs/:id
func (h *TimeLogHandler) Edit(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}
	logID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req models.EditTimeLogRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.timesheet.Edit(c.Request.Context(), tenant.Tenant(), logID, req, tenant.Email)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func queryTime(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		badRequest(c, name+" must be an RFC 3339 timestamp")
		return time.Time{}, false
	}
	return t, true
}
