package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gatekeeper/kiosk-backend/internal/checkin"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/gatekeeper/kiosk-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TenantContextKey is the key used to store the session scope in Gin context
const TenantContextKey = "tenant"

// TenantContext is the resolved session: which organization the kiosk is
// bound to, in which mode, and with which roles.
type TenantContext struct {
	OrganizationID uuid.UUID      `json:"organization_id"`
	Email          string         `json:"email"`
	GymName        string         `json:"gym_name"`
	Mode           models.AppMode `json:"mode"`
	Roles          []string       `json:"roles"`
}

// Tenant narrows the context to what the check-in engine needs
func (t TenantContext) Tenant() checkin.Tenant {
	return checkin.Tenant{OrganizationID: t.OrganizationID, Mode: t.Mode}
}

// IsAdmin reports whether the session was elevated with the PIN
func (t TenantContext) IsAdmin() bool {
	return slices.Contains(t.Roles, jwt.RoleAdmin)
}

// Identity converts the context back into token claims input
func (t TenantContext) Identity() jwt.Identity {
	return jwt.Identity{
		OrganizationID: t.OrganizationID,
		Email:          t.Email,
		GymName:        t.GymName,
		Mode:           string(t.Mode),
	}
}

// AuthMiddleware validates the bearer access token and stores the tenant
func AuthMiddleware(jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := logrus.Fields{"path": c.Request.URL.Path, "client_ip": c.ClientIP()}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.WithFields(fields).Warn("Auth failed: missing authorization header")
			abortUnauthorized(c, "unauthorized", "Authorization header is required", "MISSING_AUTH_HEADER")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			logger.WithFields(fields).Warn("Auth failed: invalid authorization format")
			abortUnauthorized(c, "unauthorized", "Invalid authorization header format. Expected: Bearer <token>", "INVALID_AUTH_FORMAT")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			logger.WithFields(fields).Warn("Auth failed: empty token")
			abortUnauthorized(c, "unauthorized", "Token cannot be empty", "INVALID_AUTH_FORMAT")
			return
		}

		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			if jwt.IsExpired(err) {
				logger.WithFields(fields).Info("Auth failed: token expired")
				abortUnauthorized(c, "token_expired", "Access token has expired. Please refresh your session.", "TOKEN_EXPIRED")
			} else {
				logger.WithFields(fields).WithError(err).Warn("Auth failed: invalid token")
				abortUnauthorized(c, "invalid_token", "Invalid access token", "INVALID_TOKEN")
			}
			return
		}

		mode := models.AppMode(claims.Mode)
		if !mode.Valid() {
			logger.WithFields(fields).WithField("mode", claims.Mode).Warn("Auth failed: token carries unknown mode")
			abortUnauthorized(c, "invalid_token", "Invalid access token", "INVALID_TOKEN")
			return
		}

		c.Set(TenantContextKey, TenantContext{
			OrganizationID: claims.OrganizationID,
			Email:          claims.Email,
			GymName:        claims.GymName,
			Mode:           mode,
			Roles:          claims.Roles,
		})

		c.Next()
	}
}

// RequireRole rejects sessions that carry none of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, exists := GetTenant(c)
		if !exists {
			abortUnauthorized(c, "unauthorized", "Session not found. Auth middleware may not be applied.", "MISSING_TENANT_CONTEXT")
			return
		}

		for _, role := range roles {
			if slices.Contains(tenant.Roles, role) {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "Admin PIN is required for this action",
			"code":    "INSUFFICIENT_PERMISSIONS",
		})
		c.Abort()
	}
}

// GetTenant retrieves the tenant context from Gin context
func GetTenant(c *gin.Context) (TenantContext, bool) {
	value, exists := c.Get(TenantContextKey)
	if !exists {
		return TenantContext{}, false
	}

	tenant, ok := value.(TenantContext)
	if !ok {
		return TenantContext{}, false
	}

	return tenant, true
}

func abortUnauthorized(c *gin.Context, kind, message, code string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error":   kind,
		"message": message,
		"code":    code,
	})
	c.Abort()
}
