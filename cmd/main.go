package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"router_dashboard/internal/config"
	"router_dashboard/internal/device"
	"router_dashboard/internal/handlers"
	"router_dashboard/internal/hub"
	"router_dashboard/internal/logger"
	"router_dashboard/internal/repository"
	"router_dashboard/internal/repository/db"
	"router_dashboard/internal/server"
	"router_dashboard/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title                       Router Dashboard API
// @version                     1.0
// @description                 Normalized router telemetry, reboot scheduling and a WebSocket push channel.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load configs/config.yml
	cfg, err := config.Load("configs")
	if err != nil {
		logger.Get().Fatalw("error reading config", "err", err)
	}

	log := logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	defer func() { _ = log.Sync() }()

	// open DB
	sqlDB, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		log.Warnw("unknown schedule timezone; using local time", "timezone", cfg.Schedule.Timezone, "err", err)
		loc = time.Local
	}

	// wire dependencies
	repos := repository.NewRepository(sqlDB, cfg.Schedule.Store, cfg.Schedule.Path)
	box := device.NewClient(cfg.Device.BaseURL, cfg.Device.SessionToken, cfg.Device.Timeout)
	pushHub := hub.New(cfg.Telemetry.SubscriberBuffer)
	services, scheduler := service.NewService(cfg, service.Deps{
		Repos:    repos,
		Device:   box,
		Hub:      pushHub,
		Log:      log,
		Location: loc,
	})
	apiHandler := handlers.NewHandler(services, log, cfg.Reboot.MinInterval)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler.Start(ctx)
	go services.Poller.Run(ctx, cfg.Telemetry.PollInterval)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, scheduler, pushHub, log)
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	path := cfg.DB.Path
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "dashboard.db")
		path = "dashboard.db"
	}
	return db.InitDB(path)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("http_server_listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, scheduler *service.RebootScheduler, pushHub *hub.Hub, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()
	scheduler.Stop()
	// ends every /ws writer loop
	pushHub.Close()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
