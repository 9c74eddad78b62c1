package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes returned in the error descriptor.
const (
	codeInvalidRequest      = "invalid_request"
	codeUpstreamUnreachable = "upstream_unreachable"
	codeUnauthorized        = "unauthorized"
	codeRateLimited         = "rate_limited"
	codeInternal            = "internal_error"
)

// APIError is the error descriptor of a failed call.
type APIError struct {
	Code    string `json:"code" example:"invalid_request"`
	Message string `json:"message" example:"invalid body"`
}

// APIResponse wraps every /api/v1 and /auth reply.
type APIResponse struct {
	Success bool      `json:"success"`
	Result  any       `json:"result,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

func respondOK(c *gin.Context, result any) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Result: result})
}

func respondError(c *gin.Context, httpCode int, code, msg string) {
	c.AbortWithStatusJSON(httpCode, APIResponse{Error: &APIError{Code: code, Message: msg}})
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, code, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	respondError(c, httpCode, code, userMsg)
}
