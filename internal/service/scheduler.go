package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"router_dashboard/internal/logger"
	"router_dashboard/internal/metrics"
	"router_dashboard/internal/models"
	"router_dashboard/internal/repository"
)

// RebootAction restarts the device.
type RebootAction interface {
	Reboot(ctx context.Context) error
}

const (
	defaultRebootTimeout = 30 * time.Second
	eventWriteTimeout    = 5 * time.Second

	originScheduled = "scheduled"
	originManual    = "manual"
)

var (
	errInvalidTime = errors.New("invalid time: expected HH:MM")
	errInvalidDay  = errors.New("invalid day: expected 0 (Sunday) to 6 (Saturday)")
)

type SchedulerOptions struct {
	Location      *time.Location
	RebootTimeout time.Duration
}

// RebootScheduler keeps the current schedule and at most one cron entry
// derived from it. Every change goes through rebuildLocked, which removes the
// old entry before adding a new one.
type RebootScheduler struct {
	store   repository.ScheduleStore
	events  repository.EventRepo
	action  RebootAction
	log     *logger.Logger
	timeout time.Duration

	mu       sync.Mutex
	cron     *cron.Cron
	schedule models.RebootSchedule
	entry    cron.EntryID
	lastErr  string
}

func NewRebootScheduler(
	store repository.ScheduleStore,
	events repository.EventRepo,
	action RebootAction,
	log *logger.Logger,
	opts SchedulerOptions,
) *RebootScheduler {
	if log == nil {
		log = logger.Nop()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	timeout := opts.RebootTimeout
	if timeout <= 0 {
		timeout = defaultRebootTimeout
	}
	return &RebootScheduler{
		store:    store,
		events:   events,
		action:   action,
		log:      log,
		timeout:  timeout,
		cron:     cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cronLogger{log}))),
		schedule: models.DefaultRebootSchedule(),
	}
}

// Start loads the persisted schedule, installs its trigger and starts the
// cron loop. A record saved just before a crash gets its trigger here.
func (s *RebootScheduler) Start(ctx context.Context) {
	loaded, found, err := s.store.Load(ctx)
	if err != nil {
		s.log.Errorw("schedule_load_failed", "err", err)
		loaded = models.DefaultRebootSchedule()
	}
	loaded = copySchedule(loaded)

	s.mu.Lock()
	s.schedule = loaded
	s.rebuildLocked(ctx)
	s.mu.Unlock()

	s.cron.Start()
	s.log.Infow("reboot_scheduler_started", "found", found, "enabled", loaded.Enabled, "days", loaded.Days, "time", loaded.Time)
}

// Stop halts the cron loop and waits for a running reboot job to return.
func (s *RebootScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Infow("reboot_scheduler_stopped")
}

func (s *RebootScheduler) GetSchedule(_ context.Context) models.RebootSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySchedule(s.schedule)
}

// UpdateSchedule merges patch over the current schedule, persists the result
// and rebuilds the trigger. Neither a failed write nor an unusable schedule
// is reported to the caller; both are logged and counted.
func (s *RebootScheduler) UpdateSchedule(ctx context.Context, patch models.SchedulePatch) models.RebootSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := patch.Apply(s.schedule)
	s.schedule = merged

	if err := s.store.Save(ctx, merged); err != nil {
		metrics.SchedulePersistFailures.Inc()
		s.log.Errorw("schedule_persist_failed", "err", err)
	}

	s.rebuildLocked(ctx)
	s.record(ctx, models.EventScheduleUpdated, "reboot schedule updated", map[string]any{
		"enabled": merged.Enabled,
		"days":    merged.Days,
		"time":    merged.Time,
	})
	return copySchedule(merged)
}

// RebootNow runs the reboot action immediately. Unlike scheduled runs, the
// error goes back to the caller.
func (s *RebootScheduler) RebootNow(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.action.Reboot(ctx); err != nil {
		metrics.RebootRuns.WithLabelValues(originManual, metrics.ResultError).Inc()
		s.log.Errorw("manual_reboot_failed", "err", err)
		s.record(context.Background(), models.EventRebootFailed, "manual reboot failed", map[string]any{
			"origin": originManual,
			"error":  err.Error(),
		})
		return fmt.Errorf("reboot: %w", err)
	}

	metrics.RebootRuns.WithLabelValues(originManual, metrics.ResultOK).Inc()
	s.log.Infow("manual_reboot_sent")
	s.record(context.Background(), models.EventRebootManual, "manual reboot requested", map[string]any{"origin": originManual})
	return nil
}

func (s *RebootScheduler) TriggerStatus() TriggerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := TriggerStatus{LastError: s.lastErr}
	if s.entry == 0 {
		return st
	}
	st.Active = true
	if e := s.cron.Entry(s.entry); e.Valid() {
		next := e.Next
		if next.IsZero() {
			next = e.Schedule.Next(time.Now().In(s.cron.Location()))
		}
		st.NextRun = &next
	}
	return st
}

// rebuildLocked removes the current entry and installs one for s.schedule
// when it is enabled and has days. Caller holds s.mu.
func (s *RebootScheduler) rebuildLocked(ctx context.Context) {
	if s.entry != 0 {
		s.cron.Remove(s.entry)
		s.entry = 0
	}
	s.lastErr = ""
	metrics.TriggerActive.Set(0)

	if !s.schedule.Enabled || len(s.schedule.Days) == 0 {
		return
	}

	spec, err := cronSpec(s.schedule)
	if err == nil {
		s.entry, err = s.cron.AddFunc(spec, s.fire)
	}
	if err != nil {
		s.entry = 0
		s.lastErr = err.Error()
		metrics.TriggerBuildFailures.Inc()
		s.log.Errorw("reboot_trigger_invalid", "err", err, "days", s.schedule.Days, "time", s.schedule.Time)
		s.record(ctx, models.EventTriggerInvalid, "schedule saved without an active trigger", map[string]any{
			"error": err.Error(),
			"days":  s.schedule.Days,
			"time":  s.schedule.Time,
		})
		return
	}

	metrics.TriggerActive.Set(1)
	s.log.Infow("reboot_trigger_installed", "spec", spec)
}

// fire runs on the cron goroutine. Failures never touch the schedule.
func (s *RebootScheduler) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.log.Infow("scheduled_reboot_started")
	if err := s.action.Reboot(ctx); err != nil {
		metrics.RebootRuns.WithLabelValues(originScheduled, metrics.ResultError).Inc()
		s.log.Errorw("scheduled_reboot_failed", "err", err)
		s.record(context.Background(), models.EventRebootFailed, "scheduled reboot failed", map[string]any{
			"origin": originScheduled,
			"error":  err.Error(),
		})
		return
	}
	metrics.RebootRuns.WithLabelValues(originScheduled, metrics.ResultOK).Inc()
	s.record(context.Background(), models.EventRebootScheduled, "scheduled reboot sent", map[string]any{"origin": originScheduled})
}

func (s *RebootScheduler) record(ctx context.Context, typ, desc string, meta map[string]any) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
	defer cancel()
	if err := s.events.Append(ctx, models.RouterEvent{Type: typ, Description: desc, Metadata: meta}); err != nil {
		s.log.Warnw("event_append_failed", "type", typ, "err", err)
	}
}

// cronSpec turns a schedule into a standard 5-field cron expression.
func cronSpec(sch models.RebootSchedule) (string, error) {
	hour, minute, err := parseClock(sch.Time)
	if err != nil {
		return "", err
	}
	days, err := normalizeDays(sch.Days)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	spec := fmt.Sprintf("%d %d * * %s", minute, hour, strings.Join(parts, ","))
	if _, err := cron.ParseStandard(spec); err != nil {
		return "", fmt.Errorf("invalid recurrence %q: %w", spec, err)
	}
	return spec, nil
}

// parseClock accepts "H:MM" or "HH:MM".
func parseClock(v string) (int, int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(v), ":")
	if !ok || len(h) < 1 || len(h) > 2 || len(m) != 2 || !allDigits(h) || !allDigits(m) {
		return 0, 0, fmt.Errorf("%w: %q", errInvalidTime, v)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", errInvalidTime, v)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", errInvalidTime, v)
	}
	return hour, minute, nil
}

// allDigits reports whether s holds only ASCII digits. Atoi alone accepts a sign.
func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// normalizeDays sorts and deduplicates weekday numbers.
func normalizeDays(days []int) ([]int, error) {
	seen := make(map[int]bool, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("%w: %d", errInvalidDay, d)
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out, nil
}

func copySchedule(s models.RebootSchedule) models.RebootSchedule {
	s.Days = append([]int{}, s.Days...)
	return s
}

// cronLogger routes cron's own messages (mostly recovered panics) to zap.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("cron_"+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw("cron_"+msg, append([]interface{}{"err", err}, keysAndValues...)...)
}
