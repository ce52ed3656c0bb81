package utils

import (
	"github.com/gin-gonic/gin"
)

// TrustProxies sets which direct peers may report the client address through
// X-Forwarded-For or X-Real-IP. With no proxies the headers are ignored and
// c.ClientIP() is the socket peer, so clients cannot pick their own address.
func TrustProxies(router *gin.Engine, proxies []string) error {
	router.ForwardedByClientIP = len(proxies) > 0
	router.RemoteIPHeaders = []string{"X-Forwarded-For", "X-Real-IP"}
	return router.SetTrustedProxies(proxies)
}
