package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gatekeeper/kiosk-backend/internal/checkin"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MemberDirectory is the admin view of person records
type MemberDirectory interface {
	NextShortCode(ctx context.Context, tenant checkin.Tenant) (string, error)
	Create(ctx context.Context, tenant checkin.Tenant, req models.CreateMemberRequest, adminUser string) (*models.Member, error)
	Get(ctx context.Context, tenant checkin.Tenant, id uuid.UUID) (*models.MemberDetail, error)
	Update(ctx context.Context, tenant checkin.Tenant, id uuid.UUID, req models.UpdateMemberRequest, adminUser string) (*models.Member, error)
	Archive(ctx context.Context, tenant checkin.Tenant, id uuid.UUID, adminUser string) error
	Restore(ctx context.Context, tenant checkin.Tenant, id uuid.UUID, adminUser string) error
	List(ctx context.Context, tenant checkin.Tenant, filter models.MemberFilter) ([]models.Member, error)
}

// MemberHandler handles member administration
type MemberHandler struct {
	directory MemberDirectory
	logger    *logrus.Logger
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(directory MemberDirectory, logger *logrus.Logger) *MemberHandler {
	return &MemberHandler{directory: directory, logger: logger}
}

// List handles GET /api/v1/admin/members?search=&archived=
func (h *MemberHandler) List(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}

	filter := models.MemberFilter{Search: c.Query("search")}
	if raw := c.Query("archived"); raw != "" {
		archived, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "archived must be true or false")
			return
		}
		filter.Archived = archived
	}

	members, err := h.directory.List(c.Request.Context(), tenant.Tenant(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members, "count": len(members)})
}

// NextCode handles GET /api/v1/admin/members/next-code
func (h *MemberHandler) NextCode(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}

	code, err := h.directory.NextShortCode(c.Request.Context(), tenant.Tenant())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"member_number": code})
}

// Create handles POST /api/v1/admin/members
func (h *MemberHandler) Create(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req models.CreateMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.directory.Create(c.Request.Context(), tenant.Tenant(), req, tenant.Email)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, member)
}

// Get handles GET /api/v1/admin/members/:id
func (h *MemberHandler) Get(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.directory.Get(c.Request.Context(), tenant.Tenant(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Update handles PUT /api/v1/admin/members/:id
func (h *MemberHandler) Update(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.directory.Update(c.Request.Context(), tenant.Tenant(), id, req, tenant.Email)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, member)
}

// Archive handles POST /api/v1/admin/members/:id/archive
func (h *MemberHandler) Archive(c *gin.Context) {
	h.changeStatus(c, h.directory.Archive)
}

// Restore handles POST /api/v1/admin/members/:id/restore
func (h *MemberHandler) Restore(c *gin.Context) {
	h.changeStatus(c, h.directory.Restore)
}

func (h *MemberHandler) changeStatus(c *gin.Context, apply func(context.Context, checkin.Tenant, uuid.UUID, string) error) {
	tenant, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := apply(c.Request.Context(), tenant.Tenant(), id, tenant.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}
