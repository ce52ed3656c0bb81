package handlers

import (
	"context"
	"net/http"

	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SettingsStore reads and replaces the tenant's kiosk settings
type SettingsStore interface {
	SettingsReader
	Save(ctx context.Context, orgID uuid.UUID, req models.UpdateSettingsRequest) (*models.Settings, error)
}

// SettingsHandler handles waiver and department administration
type SettingsHandler struct {
	settings SettingsStore
	logger   *logrus.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings SettingsStore, logger *logrus.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

// Get handles GET /api/v1/admin/settings
func (h *SettingsHandler) Get(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}

	settings, err := h.settings.Get(c.Request.Context(), tenant.OrganizationID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// Save handles PUT /api/v1/admin/settings
func (h *SettingsHandler) Save(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req models.UpdateSettingsRequest
	if !bindJSON(c, &req) {
		return
	}

	settings, err := h.settings.Save(c.Request.Context(), tenant.OrganizationID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithField("organization_id", tenant.OrganizationID).Info("Kiosk settings updated")
	c.JSON(http.StatusOK, settings)
}
