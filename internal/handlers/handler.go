package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"router_dashboard/internal/logger"
	"router_dashboard/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services      *service.Service
	log           *logger.Logger
	rebootLimiter *rate.Limiter
}

// NewHandler constructs a new HTTP handler with dependencies. Manual reboots
// are accepted at most once per rebootEvery; zero disables the limit.
func NewHandler(services *service.Service, log *logger.Logger, rebootEvery time.Duration) *Handler {
	limit := rate.Inf
	if rebootEvery > 0 {
		limit = rate.Every(rebootEvery)
	}
	return &Handler{
		services:      services,
		log:           log,
		rebootLimiter: rate.NewLimiter(limit, 1),
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), metricsMiddleware)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Push channel (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdentity)
	{
		api.GET("/telemetry", h.getTelemetry)
		api.GET("/device", h.getDevice)
		h.registerScheduleRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerScheduleRoutes(api *gin.RouterGroup) {
	api.GET("/schedule", h.getSchedule)
	// Body example: {"enabled":true,"days":[1,3],"time":"04:00"}; every field optional
	api.PUT("/schedule", h.updateSchedule)
	api.POST("/reboot", h.rebootNow)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("", h.getLogs)
		logs.GET("/", h.getLogs)
	}
}
