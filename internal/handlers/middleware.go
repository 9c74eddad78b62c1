package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"router_dashboard/internal/metrics"
)

const ctxUsername = "username"

func (h *Handler) userIdentity(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		respondError(c, http.StatusUnauthorized, codeUnauthorized, "missing Authorization header")
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		respondError(c, http.StatusUnauthorized, codeUnauthorized, "invalid Authorization header format")
		return
	}

	username, err := h.services.ParseToken(parts[1])
	if err != nil {
		respondError(c, http.StatusUnauthorized, codeUnauthorized, "invalid or expired token")
		return
	}

	// store in Gin context
	c.Set(ctxUsername, username)
	c.Next()
}

// metricsMiddleware records request counts and latencies by route template.
func metricsMiddleware(c *gin.Context) {
	start := time.Now()
	c.Next()

	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	metrics.HTTPRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
}
