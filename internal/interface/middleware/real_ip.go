package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// RealIP sets the real client IP into Gin context (key: "real_ip").
// Forwarding headers are honoured only when the direct peer is itself a
// private address (a proxy we run). Priority:
// 1) CF-Connecting-IP, only when trustCloudflare is set
// 2) X-Forwarded-For (right-most, the hop our proxy appended)
// 3) the TCP peer address
func RealIP(trustCloudflare bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("real_ip", resolveIP(c, trustCloudflare))
		c.Next()
	}
}

func resolveIP(c *gin.Context, trustCloudflare bool) string {
	peer := c.RemoteIP()
	if !isPrivate(peer) {
		return peer
	}
	if trustCloudflare {
		if cf := strings.TrimSpace(c.GetHeader("CF-Connecting-IP")); cf != "" {
			if ip := net.ParseIP(cf); ip != nil {
				return ip.String()
			}
		}
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		last := strings.TrimSpace(parts[len(parts)-1])
		if ip := net.ParseIP(last); ip != nil {
			return ip.String()
		}
	}
	return peer
}
