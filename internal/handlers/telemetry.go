package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errNoTelemetry   = "no telemetry received from the device yet"
	errDeviceVersion = "device did not report its version"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Current telemetry
// @Description  Latest normalized system and connection readings with the derived history.
// @Tags         telemetry
// @Produce      json
// @Success      200  {object}  APIResponse{result=service.TelemetryState}
// @Failure      401  {object}  APIResponse
// @Failure      502  {object}  APIResponse
// @Router       /api/v1/telemetry [get]
// @Security     BearerAuth
func (h *Handler) getTelemetry(c *gin.Context) {
	st := h.services.Telemetry.Current()
	if st.UpdatedAt == nil {
		msg := errNoTelemetry
		if st.LastError != "" {
			msg += ": " + st.LastError
		}
		respondError(c, http.StatusBadGateway, codeUpstreamUnreachable, msg)
		return
	}
	respondOK(c, st)
}

// @Summary      Device version
// @Tags         telemetry
// @Produce      json
// @Success      200  {object}  APIResponse{result=models.DeviceVersion}
// @Failure      401  {object}  APIResponse
// @Failure      502  {object}  APIResponse
// @Router       /api/v1/device [get]
// @Security     BearerAuth
func (h *Handler) getDevice(c *gin.Context) {
	v, err := h.services.Telemetry.DeviceInfo(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, codeUpstreamUnreachable, errDeviceVersion, "device_version_failed", err)
		return
	}
	respondOK(c, v)
}
