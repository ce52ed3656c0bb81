package handlers

import (
	"context"
	"net/http"

	"github.com/gatekeeper/kiosk-backend/internal/database"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/gatekeeper/kiosk-backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Accounts is the operator identity provider
type Accounts interface {
	Register(ctx context.Context, req models.RegisterRequest, device database.DeviceInfo) (*models.SessionResponse, error)
	Login(ctx context.Context, email, password string, device database.DeviceInfo) (*models.SessionResponse, error)
	ResumeSession(ctx context.Context, refreshToken string) (*models.SessionResponse, error)
	UnlockAdmin(ctx context.Context, orgID uuid.UUID, pin string) (*models.AdminUnlockResponse, error)
	Logout(ctx context.Context, orgID uuid.UUID, refreshToken, pin string) error
}

// AccountHandler handles registration, sessions and admin elevation
type AccountHandler struct {
	accounts Accounts
	logger   *logrus.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts Accounts, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// Register handles POST /api/v1/auth/register
func (h *AccountHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.accounts.Register(c.Request.Context(), req, utils.DeviceFromRequest(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// Login handles POST /api/v1/auth/login
func (h *AccountHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password, utils.DeviceFromRequest(c))
	if err != nil {
		h.logger.WithField("client_ip", c.ClientIP()).Info("Login rejected")
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// ResumeSession handles POST /api/v1/auth/session. The kiosk calls it on
// start-up; a 401 means the stored session is gone and the operator must log in.
func (h *AccountHandler) ResumeSession(c *gin.Context) {
	var req models.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.accounts.ResumeSession(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Logout handles POST /api/v1/auth/logout
func (h *AccountHandler) Logout(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req models.LogoutRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.accounts.Logout(c.Request.Context(), tenant.OrganizationID, req.RefreshToken, req.PIN); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Unlock handles POST /api/v1/admin/unlock
func (h *AccountHandler) Unlock(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req models.PINRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.accounts.UnlockAdmin(c.Request.Context(), tenant.OrganizationID, req.PIN)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
