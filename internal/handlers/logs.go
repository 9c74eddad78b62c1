package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"router_dashboard/internal/models"
	"router_dashboard/internal/service"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
	errLoadLogs    = "failed to load logs"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// LogsResult is the body of GET /logs.
type LogsResult struct {
	Count  int                  `json:"count"`
	Events []models.RouterEvent `json:"events"`
}

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      List router events
// @Description  Filter events by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). If 'to' is date-only, it is treated as end-of-day inclusive.
// @Tags         logs
// @Produce      json
// @Param        from  query   string  false  "Start of range"  example(2025-08-01)
// @Param        to    query   string  false  "End of range. Date-only treated as end of day."  example(2025-08-31)
// @Param        type  query   string  false  "Event type"  Enums(SCHEDULE_UPDATED,TRIGGER_INVALID,REBOOT_SCHEDULED_RUN,REBOOT_MANUAL,REBOOT_FAILED)
// @Success      200   {object}  APIResponse{result=LogsResult}
// @Failure      400   {object}  APIResponse
// @Failure      401   {object}  APIResponse
// @Failure      500   {object}  APIResponse
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		from      time.Time
		to        time.Time
		eventType = strings.ToUpper(strings.TrimSpace(c.Query("type")))
		err       error
	)
	if qs := c.Query("from"); qs != "" {
		from, err = parseQueryTime(qs)
		if err != nil {
			respondError(c, http.StatusBadRequest, codeInvalidRequest, errFromInvalid)
			return
		}
	}
	// If only a date is provided, make it end-of-day inclusive.
	if qs := c.Query("to"); qs != "" {
		to, err = parseQueryTime(qs)
		if err != nil {
			respondError(c, http.StatusBadRequest, codeInvalidRequest, errToInvalid)
			return
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}

	events, err := h.services.EventLog.List(ctx, service.LogFilter{
		From: from,
		To:   to,
		Type: eventType,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidTimeRange) {
			respondError(c, http.StatusBadRequest, codeInvalidRequest, "'from' must be <= 'to'")
			return
		}
		if errors.Is(err, service.ErrUnknownEventType) {
			respondError(c, http.StatusBadRequest, codeInvalidRequest, err.Error())
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, codeInternal, errLoadLogs, "logs_list_failed", err,
			"from", from, "to", to, "type", eventType)
		return
	}
	if events == nil {
		events = []models.RouterEvent{}
	}
	respondOK(c, LogsResult{Count: len(events), Events: events})
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2025-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
