package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"router_dashboard/internal/hub"
	"router_dashboard/internal/models"
	"router_dashboard/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	genTokenToken string
	genTokenErr   error
	parseUser     string
	parseErr      error

	lastGenUsername string
	lastGenPassword string
	lastParseToken  string
}

func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseUser, m.parseErr
}

type mockScheduler struct {
	mu        sync.Mutex
	schedule  models.RebootSchedule
	status    service.TriggerStatus
	rebootErr error

	lastPatch   models.SchedulePatch
	updateCalls int
	rebootCalls int
}

func (m *mockScheduler) GetSchedule(ctx context.Context) models.RebootSchedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schedule
}
func (m *mockScheduler) UpdateSchedule(ctx context.Context, p models.SchedulePatch) models.RebootSchedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	m.lastPatch = p
	m.schedule = p.Apply(m.schedule)
	return m.schedule
}
func (m *mockScheduler) RebootNow(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rebootCalls++
	return m.rebootErr
}
func (m *mockScheduler) TriggerStatus() service.TriggerStatus {
	return m.status
}

// mockTelemetry serves a fixed state and attaches subscribers to a real hub.
type mockTelemetry struct {
	state      service.TelemetryState
	version    models.DeviceVersion
	versionErr error
	initial    []hub.Message

	hub      *hub.Hub
	attached chan *hub.Subscriber
	detached chan *hub.Subscriber
}

func newMockTelemetry() *mockTelemetry {
	return &mockTelemetry{
		hub:      hub.New(8),
		attached: make(chan *hub.Subscriber, 8),
		detached: make(chan *hub.Subscriber, 8),
	}
}

func (m *mockTelemetry) Current() service.TelemetryState { return m.state }
func (m *mockTelemetry) DeviceInfo(ctx context.Context) (models.DeviceVersion, error) {
	return m.version, m.versionErr
}
func (m *mockTelemetry) Attach() *hub.Subscriber {
	s := m.hub.Subscribe(m.initial...)
	m.attached <- s
	return s
}
func (m *mockTelemetry) Detach(s *hub.Subscriber) {
	m.hub.Unsubscribe(s)
	m.detached <- s
}

type mockEventLog struct {
	resp       []models.RouterEvent
	err        error
	lastFilter service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.RouterEvent, error) {
	m.lastFilter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, 0)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
