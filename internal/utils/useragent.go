package utils

import (
	"strings"

	"github.com/gatekeeper/kiosk-backend/internal/database"
	"github.com/gin-gonic/gin"
	ua "github.com/mssola/user_agent"
)

// Device types recorded against a refresh token
const (
	DeviceTablet  = "tablet"
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"
)

var tabletIndicators = []string{"ipad", "tablet", "kindle", "playbook", "nexus 7", "nexus 9", "nexus 10", "xoom", "sm-t"}

// DeviceType classifies a User-Agent string. Front desks are mostly tablets.
func DeviceType(userAgent string) string {
	if userAgent == "" {
		return DeviceUnknown
	}

	parser := ua.New(userAgent)
	switch {
	case parser.Bot():
		return DeviceBot
	case isTablet(userAgent):
		// iPadOS reports a desktop Safari UA; the "ipad" token only shows up on older builds
		return DeviceTablet
	case parser.Mobile():
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

// DeviceFromRequest describes the client a session is being opened from
func DeviceFromRequest(c *gin.Context) database.DeviceInfo {
	userAgent := c.Request.UserAgent()
	return database.DeviceInfo{
		DeviceType: DeviceType(userAgent),
		IPAddress:  c.ClientIP(),
		UserAgent:  userAgent,
	}
}

func isTablet(userAgent string) bool {
	lower := strings.ToLower(userAgent)
	for _, indicator := range tabletIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
