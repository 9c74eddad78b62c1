package service

import (
	"time"

	"router_dashboard/internal/models"
)

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "SCHEDULE_UPDATED", "REBOOT_MANUAL", ...
}

// TriggerStatus describes the installed recurring reboot job.
type TriggerStatus struct {
	Active    bool       `json:"active"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// History holds the derived points kept at the source.
type History struct {
	System     []models.SystemPoint     `json:"system"`
	Connection []models.ConnectionPoint `json:"connection"`
}

// TelemetryState is what GET /telemetry returns. UpdatedAt is nil until the
// first successful fetch.
type TelemetryState struct {
	System     models.Telemetry      `json:"system,omitempty"`
	Connection models.Telemetry      `json:"connection,omitempty"`
	Version    *models.DeviceVersion `json:"version,omitempty"`
	History    History               `json:"history"`
	UpdatedAt  *time.Time            `json:"updated_at,omitempty"`
	LastError  string                `json:"last_error,omitempty"`
}
