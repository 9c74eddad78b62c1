// Command dashwatch follows the dashboard push channel and prints every
// telemetry update as it arrives.
//
// Usage:
//
//	dashwatch [flags]
//
// The flags are:
//
//	-url
//		WebSocket endpoint of the dashboard (default ws://localhost:8080/ws)
//	-reconnect
//		Delay before redialing after the connection drops
//	-history
//		Number of points kept per history series
//	-log-level
//		debug, info, warn or error
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"router_dashboard/internal/client"
	"router_dashboard/internal/hub"
	"router_dashboard/internal/logger"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "WebSocket endpoint of the dashboard")
	reconnect := flag.Duration("reconnect", client.DefaultReconnectDelay, "Delay before redialing")
	history := flag.Int("history", client.DefaultCapacity, "Points kept per history series")
	level := flag.String("log-level", logger.InfoLevel, "Log level")
	flag.Parse()

	log := logger.Init(logger.Options{Level: *level})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := client.NewWatcher(client.Options{
		URL:            *url,
		ReconnectDelay: *reconnect,
		Capacity:       *history,
		OnUpdate:       printUpdate,
	}, log)

	log.Infow("dashwatch_started", "url", *url)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalw("dashwatch_stopped", "err", err)
	}
	log.Infow("dashwatch_stopped")
}

func printUpdate(u client.Update) {
	switch u.Type {
	case hub.TypeSystemStatus:
		p := u.System
		fmt.Printf("%s system     cpu=%s box=%s switch=%s\n",
			p.Time, orDash(p.CPUMain), orDash(p.CPUBox), orDash(p.SwitchTemp))
	case hub.TypeConnectionStatus:
		p := u.Connection
		fmt.Printf("%s connection down=%.1fKB/s up=%.1fKB/s\n", p.Time, p.DownloadRateKBs, p.UploadRateKBs)
	}
}

func orDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f°C", *v)
}
