package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"router_dashboard/internal/device"
	"router_dashboard/internal/models"
	"router_dashboard/internal/service"
)

const (
	statusRebooting = "rebooting"

	errReboot        = "failed to reboot device"
	errRebootLimited = "a reboot was requested too recently"
)

// ScheduleView is the schedule plus the state of its trigger.
type ScheduleView struct {
	models.RebootSchedule
	Trigger service.TriggerStatus `json:"trigger"`
}

// UpdateScheduleRequest documents the PUT /schedule body; omitted fields keep their value.
type UpdateScheduleRequest struct {
	Enabled *bool   `json:"enabled,omitempty" example:"true"`
	Days    *[]int  `json:"days,omitempty"`
	Time    *string `json:"time,omitempty" example:"04:00"`
}

func (h *Handler) scheduleView(s models.RebootSchedule) ScheduleView {
	return ScheduleView{RebootSchedule: s, Trigger: h.services.Scheduler.TriggerStatus()}
}

// @Summary      Get reboot schedule
// @Tags         schedule
// @Produce      json
// @Success      200  {object}  APIResponse{result=ScheduleView}
// @Failure      401  {object}  APIResponse
// @Router       /api/v1/schedule [get]
// @Security     BearerAuth
func (h *Handler) getSchedule(c *gin.Context) {
	s := h.services.Scheduler.GetSchedule(c.Request.Context())
	respondOK(c, h.scheduleView(s))
}

// @Summary      Update reboot schedule
// @Description  Merges the given fields over the current schedule. A schedule that cannot be
// @Description  turned into a trigger is still saved; see trigger.last_error.
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Param        body  body      UpdateScheduleRequest  true  "Partial schedule"
// @Success      200   {object}  APIResponse{result=ScheduleView}
// @Failure      400   {object}  APIResponse
// @Failure      401   {object}  APIResponse
// @Router       /api/v1/schedule [put]
// @Security     BearerAuth
func (h *Handler) updateSchedule(c *gin.Context) {
	var req UpdateScheduleRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	s := h.services.Scheduler.UpdateSchedule(c.Request.Context(), models.SchedulePatch{
		Enabled: req.Enabled,
		Days:    req.Days,
		Time:    req.Time,
	})
	respondOK(c, h.scheduleView(s))
}

// @Summary      Reboot now
// @Tags         schedule
// @Produce      json
// @Success      200  {object}  APIResponse
// @Failure      401  {object}  APIResponse
// @Failure      429  {object}  APIResponse
// @Failure      502  {object}  APIResponse
// @Router       /api/v1/reboot [post]
// @Security     BearerAuth
func (h *Handler) rebootNow(c *gin.Context) {
	if !h.rebootLimiter.Allow() {
		respondError(c, http.StatusTooManyRequests, codeRateLimited, errRebootLimited)
		return
	}
	if err := h.services.Scheduler.RebootNow(c.Request.Context()); err != nil {
		if errors.Is(err, device.ErrUnreachable) || errors.Is(err, device.ErrAPI) {
			h.logAndJSONError(c, http.StatusBadGateway, codeUpstreamUnreachable, errReboot, "reboot_failed", err)
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, codeInternal, errReboot, "reboot_failed", err)
		return
	}
	respondOK(c, gin.H{"status": statusRebooting})
}
