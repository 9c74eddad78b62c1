package service

import (
	"context"
	"time"

	"router_dashboard/internal/config"
	"router_dashboard/internal/hub"
	"router_dashboard/internal/logger"
	"router_dashboard/internal/models"
	"router_dashboard/internal/repository"
)

type Authorization interface {
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (string, error)
}

// Scheduler owns the reboot schedule and its single recurring trigger.
type Scheduler interface {
	GetSchedule(ctx context.Context) models.RebootSchedule
	UpdateSchedule(ctx context.Context, patch models.SchedulePatch) models.RebootSchedule
	RebootNow(ctx context.Context) error
	TriggerStatus() TriggerStatus
}

// Telemetry exposes the latest device readings and the push subscription.
type Telemetry interface {
	Current() TelemetryState
	DeviceInfo(ctx context.Context) (models.DeviceVersion, error)
	Attach() *hub.Subscriber
	Detach(sub *hub.Subscriber)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.RouterEvent, error)
}

// Poller runs the background acquisition loop.
// Stop via context cancellation in main() for graceful shutdown.
type Poller interface {
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	Scheduler
	Telemetry
	EventLog
	Poller
	Authorization
}

// Deps are the collaborators built in main.
type Deps struct {
	Repos    *repository.Repository
	Device   Device
	Hub      *hub.Hub
	Log      *logger.Logger
	Location *time.Location
}

// NewService wires repositories and the device into concrete services. The
// returned scheduler still has to be started by the caller.
func NewService(cfg *config.Config, d Deps) (*Service, *RebootScheduler) {
	sched := NewRebootScheduler(d.Repos.ScheduleStore, d.Repos.EventRepo, d.Device, d.Log, SchedulerOptions{
		Location:      d.Location,
		RebootTimeout: cfg.Reboot.Timeout,
	})
	tel := NewTelemetryService(d.Device, d.Hub, d.Log, cfg.Telemetry.HistorySize, cfg.Device.Timeout)

	return &Service{
		Scheduler:     sched,
		Telemetry:     tel,
		EventLog:      NewEventLogService(d.Repos.EventRepo),
		Poller:        tel,
		Authorization: NewAuthService(cfg.Auth, d.Log),
	}, sched
}
