package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"router_dashboard/internal/models"
	"router_dashboard/internal/repository"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range: from must not be after to")
	ErrUnknownEventType = errors.New("unknown event type")
)

// EventLogService answers queries over the router event history written by
// the reboot scheduler.
type EventLogService struct {
	events repository.EventRepo
}

func NewEventLogService(events repository.EventRepo) *EventLogService {
	return &EventLogService{events: events}
}

// List returns router events matching f. Both bounds are inclusive.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.RouterEvent, error) {
	q, err := resolveFilter(f)
	if err != nil {
		return nil, err
	}
	return s.events.List(ctx, q.From, q.To, q.Type)
}

// resolveFilter moves both bounds to UTC (the store keeps UTC timestamps)
// and canonicalizes the event type. An empty type matches every event.
func resolveFilter(f LogFilter) (LogFilter, error) {
	q := LogFilter{
		From: inUTC(f.From),
		To:   inUTC(f.To),
		Type: canonicalEventType(f.Type),
	}
	if q.Type != "" && !models.IsEventType(q.Type) {
		return LogFilter{}, fmt.Errorf("%w %q; expected one of %s",
			ErrUnknownEventType, f.Type, strings.Join(models.EventTypes, ", "))
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return LogFilter{}, ErrInvalidTimeRange
	}
	return q, nil
}

func inUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// canonicalEventType accepts "reboot-failed", " Reboot_Failed " and the like.
func canonicalEventType(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
}
