package models

import "time"

// Router event types.
const (
	EventScheduleUpdated = "SCHEDULE_UPDATED"
	EventTriggerInvalid  = "TRIGGER_INVALID"
	EventRebootScheduled = "REBOOT_SCHEDULED_RUN"
	EventRebootManual    = "REBOOT_MANUAL"
	EventRebootFailed    = "REBOOT_FAILED"
)

// EventTypes lists every type the scheduler records.
var EventTypes = []string{
	EventScheduleUpdated,
	EventTriggerInvalid,
	EventRebootScheduled,
	EventRebootManual,
	EventRebootFailed,
}

// IsEventType reports whether t is one of EventTypes.
func IsEventType(t string) bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// RouterEvent is a single log entry.
type RouterEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
