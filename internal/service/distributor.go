package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"router_dashboard/internal/hub"
	"router_dashboard/internal/logger"
	"router_dashboard/internal/metrics"
	"router_dashboard/internal/models"
	"router_dashboard/internal/telemetry"
)

// TelemetrySource fetches raw readings from the device. Each call may fail
// on its own.
type TelemetrySource interface {
	FetchSystem(ctx context.Context) (models.Telemetry, error)
	FetchConnection(ctx context.Context) (models.Telemetry, error)
	FetchVersion(ctx context.Context) (models.DeviceVersion, error)
}

// Device is everything the services need from the router.
type Device interface {
	TelemetrySource
	RebootAction
}

const (
	defaultFetchTimeout = 5 * time.Second
	defaultPollInterval = 2 * time.Second

	kindSystem     = "system"
	kindConnection = "connection"
	kindVersion    = "version"
)

// TelemetryService polls the device, normalizes what it gets and publishes
// it to the hub. mu serializes "update latest and publish" against "read
// latest and subscribe", so a new subscriber sees the newest snapshot first
// and then only later messages.
type TelemetryService struct {
	src          TelemetrySource
	hub          *hub.Hub
	log          *logger.Logger
	fetchTimeout time.Duration

	system     *telemetry.Reducer[models.SystemPoint]
	connection *telemetry.Reducer[models.ConnectionPoint]

	mu         sync.Mutex
	latestSys  models.Telemetry
	latestConn models.Telemetry
	version    *models.DeviceVersion
	updatedAt  time.Time
	lastErr    string

	now func() time.Time
}

func NewTelemetryService(src TelemetrySource, h *hub.Hub, log *logger.Logger, historySize int, fetchTimeout time.Duration) *TelemetryService {
	if log == nil {
		log = logger.Nop()
	}
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	return &TelemetryService{
		src:          src,
		hub:          h,
		log:          log,
		fetchTimeout: fetchTimeout,
		system:       telemetry.NewSystemReducer(historySize),
		connection:   telemetry.NewConnectionReducer(historySize),
		now:          time.Now,
	}
}

// Run polls at the given interval until ctx is canceled. The first poll
// happens immediately.
func (s *TelemetryService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		s.log.Warnw("telemetry_poll_interval_invalid", "interval", tick.String(), "using", defaultPollInterval.String())
		tick = defaultPollInterval
	}
	s.log.Infow("telemetry_poller_started", "interval", tick.String())
	s.poll(ctx)

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Infow("telemetry_poller_stopped")
			return
		case <-t.C:
			s.poll(ctx)
		}
	}
}

// poll runs one acquisition cycle. A failed fetch means no update this cycle
// for that kind; the previous snapshot stays.
func (s *TelemetryService) poll(ctx context.Context) {
	if raw, err := s.fetch(ctx, kindSystem, s.src.FetchSystem); err == nil {
		s.publishSystem(telemetry.Normalize(raw))
	}
	if raw, err := s.fetch(ctx, kindConnection, s.src.FetchConnection); err == nil {
		s.publishConnection(raw)
	}

	s.mu.Lock()
	known := s.version != nil
	s.mu.Unlock()
	if !known {
		_, _ = s.refreshVersion(ctx)
	}
}

func (s *TelemetryService) fetch(
	ctx context.Context,
	kind string,
	fn func(context.Context) (models.Telemetry, error),
) (models.Telemetry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	start := time.Now()
	raw, err := fn(ctx)
	metrics.UpstreamPollDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamPolls.WithLabelValues(kind, metrics.ResultError).Inc()
		s.log.Warnw("upstream_fetch_failed", "kind", kind, "err", err)
		s.mu.Lock()
		s.lastErr = fmt.Sprintf("%s: %v", kind, err)
		s.mu.Unlock()
		return nil, err
	}
	metrics.UpstreamPolls.WithLabelValues(kind, metrics.ResultOK).Inc()
	return raw, nil
}

func (s *TelemetryService) refreshVersion(ctx context.Context) (models.DeviceVersion, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	v, err := s.src.FetchVersion(ctx)
	if err != nil {
		metrics.UpstreamPolls.WithLabelValues(kindVersion, metrics.ResultError).Inc()
		s.log.Warnw("upstream_fetch_failed", "kind", kindVersion, "err", err)
		return models.DeviceVersion{}, err
	}
	metrics.UpstreamPolls.WithLabelValues(kindVersion, metrics.ResultOK).Inc()

	s.mu.Lock()
	s.version = &v
	s.mu.Unlock()
	s.log.Infow("device_version", "model", v.Model, "api_version", v.APIVersion)
	return v, nil
}

func (s *TelemetryService) publishSystem(t models.Telemetry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.system.Apply(t)
	s.latestSys = t
	s.updatedAt = s.now().UTC()
	s.lastErr = ""
	s.hub.Publish(hub.Message{Type: hub.TypeSystemStatus, Data: t})
}

func (s *TelemetryService) publishConnection(t models.Telemetry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connection.Apply(t)
	s.latestConn = t
	s.updatedAt = s.now().UTC()
	s.hub.Publish(hub.Message{Type: hub.TypeConnectionStatus, Data: t})
}

// Attach registers a subscriber whose queue starts with the latest known
// snapshots.
func (s *TelemetryService) Attach() *hub.Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()

	var initial []hub.Message
	if s.latestSys != nil {
		initial = append(initial, hub.Message{Type: hub.TypeSystemStatus, Data: s.latestSys})
	}
	if s.latestConn != nil {
		initial = append(initial, hub.Message{Type: hub.TypeConnectionStatus, Data: s.latestConn})
	}
	return s.hub.Subscribe(initial...)
}

// Detach unregisters sub; it gets nothing after this returns.
func (s *TelemetryService) Detach(sub *hub.Subscriber) {
	s.hub.Unsubscribe(sub)
}

func (s *TelemetryService) Current() TelemetryState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := TelemetryState{
		System:     copyTelemetry(s.latestSys),
		Connection: copyTelemetry(s.latestConn),
		History: History{
			System:     s.system.History(),
			Connection: s.connection.History(),
		},
		LastError: s.lastErr,
	}
	if s.version != nil {
		v := *s.version
		st.Version = &v
	}
	if !s.updatedAt.IsZero() {
		at := s.updatedAt
		st.UpdatedAt = &at
	}
	return st
}

// DeviceInfo returns the cached version descriptor, fetching it if the
// poller has not managed to yet.
func (s *TelemetryService) DeviceInfo(ctx context.Context) (models.DeviceVersion, error) {
	s.mu.Lock()
	v := s.version
	s.mu.Unlock()
	if v != nil {
		return *v, nil
	}
	return s.refreshVersion(ctx)
}

func copyTelemetry(t models.Telemetry) models.Telemetry {
	if t == nil {
		return nil
	}
	out := make(models.Telemetry, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
