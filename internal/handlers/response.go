package handlers

import (
	"net/http"

	"github.com/gatekeeper/kiosk-backend/internal/apperror"
	"github.com/gatekeeper/kiosk-backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrorResponse represents an error response
type ErrorResponse = apperror.Response

// respondError renders err through the shared error envelope. Anything that
// maps to a 5xx is logged with the request path.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	status, resp := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: message,
		Code:    "INVALID_INPUT",
	})
}

// bindJSON binds the body into req and answers 400 on failure
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// tenantFrom returns the session set by AuthMiddleware
func tenantFrom(c *gin.Context) (middleware.TenantContext, bool) {
	tenant, ok := middleware.GetTenant(c)
	if !ok {
		status, resp := apperror.HTTPStatus(apperror.ErrNotAuthenticated)
		c.JSON(status, resp)
	}
	return tenant, ok
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}
