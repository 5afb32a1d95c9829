package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AllowPrivateIP returns an AllowFunc that accepts requests whose resolved
// client address (see RealIP) is loopback or in a private range.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		return isPrivate(ipFromCtx(c))
	}
}

// RequirePrivateIP rejects requests that AllowPrivateIP would not accept.
func RequirePrivateIP() gin.HandlerFunc {
	allow := AllowPrivateIP()
	return func(c *gin.Context) {
		if !allow(c) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.Next()
	}
}

func isPrivate(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	// 10.0.0.0/8, 172.16/12, 192.168/16, fc00::/7, loopback
	return parsed.IsLoopback() || parsed.IsPrivate()
}
