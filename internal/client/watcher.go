// Package client consumes the dashboard push channel and keeps the same
// snapshot and history the server keeps.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"router_dashboard/internal/hub"
	"router_dashboard/internal/logger"
	"router_dashboard/internal/models"
	"router_dashboard/internal/telemetry"
)

const (
	DefaultReconnectDelay = 3 * time.Second
	DefaultCapacity       = telemetry.DefaultHistorySize
	// DefaultReadTimeout matches the server's pong wait; the server pings
	// more often than that.
	DefaultReadTimeout = 60 * time.Second
	handshakeTimeout   = 10 * time.Second
	writeWait          = 10 * time.Second
)

var ErrMalformedMessage = errors.New("malformed push message")

// Options configures a Watcher. Zero values fall back to the defaults above.
type Options struct {
	URL            string
	Header         http.Header
	ReconnectDelay time.Duration
	// ReadTimeout ends a session that receives neither data nor pings for
	// this long, so a half-open connection gets redialed.
	ReadTimeout time.Duration
	Capacity    int
	// OnUpdate is called from the read loop after each applied message.
	OnUpdate func(Update)
}

// Update describes one applied push message. Exactly one of System and
// Connection is set, matching Type.
type Update struct {
	Type       string
	Snapshot   models.Telemetry
	System     *models.SystemPoint
	Connection *models.ConnectionPoint
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Watcher struct {
	opts       Options
	dialer     *websocket.Dialer
	system     *telemetry.Reducer[models.SystemPoint]
	connection *telemetry.Reducer[models.ConnectionPoint]
	log        *logger.Logger
}

func NewWatcher(opts Options, log *logger.Logger) *Watcher {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Watcher{
		opts:       opts,
		dialer:     &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		system:     telemetry.NewSystemReducer(opts.Capacity),
		connection: telemetry.NewConnectionReducer(opts.Capacity),
		log:        log,
	}
}

// System returns the reducer fed by system_status messages.
func (w *Watcher) System() *telemetry.Reducer[models.SystemPoint] { return w.system }

// Connection returns the reducer fed by connection_status messages.
func (w *Watcher) Connection() *telemetry.Reducer[models.ConnectionPoint] { return w.connection }

// Run keeps a session open until ctx is done, redialing after
// ReconnectDelay whenever the transport fails. It returns ctx.Err().
func (w *Watcher) Run(ctx context.Context) error {
	for {
		err := w.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.log.Warnw("watch_session_ended", "url", w.opts.URL, "err", err, "retry_in", w.opts.ReconnectDelay)

		timer := time.NewTimer(w.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (w *Watcher) session(ctx context.Context) error {
	conn, _, err := w.dialer.DialContext(ctx, w.opts.URL, w.opts.Header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", w.opts.URL, err)
	}
	defer func() { _ = conn.Close() }()
	w.log.Infow("watch_connected", "url", w.opts.URL)

	// Unblock ReadMessage on cancellation.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	extend := func() { _ = conn.SetReadDeadline(time.Now().Add(w.opts.ReadTimeout)) }
	extend()
	conn.SetPingHandler(func(data string) error {
		extend()
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		extend()
		upd, ok, err := w.Handle(raw)
		if err != nil {
			w.log.Warnw("watch_message_dropped", "err", err)
			continue
		}
		if ok && w.opts.OnUpdate != nil {
			w.opts.OnUpdate(upd)
		}
	}
}

// Handle decodes one push frame and applies it to the matching reducer.
// Unknown message types are ignored and report ok=false.
func (w *Watcher) Handle(raw []byte) (Update, bool, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Update{}, false, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if env.Type != hub.TypeSystemStatus && env.Type != hub.TypeConnectionStatus {
		return Update{}, false, nil
	}

	data := models.Telemetry{}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return Update{}, false, fmt.Errorf("%w: %s data: %v", ErrMalformedMessage, env.Type, err)
		}
	}

	upd := Update{Type: env.Type}
	switch env.Type {
	case hub.TypeSystemStatus:
		p := w.system.Apply(data)
		upd.System = &p
		upd.Snapshot = w.system.Snapshot()
	case hub.TypeConnectionStatus:
		p := w.connection.Apply(data)
		upd.Connection = &p
		upd.Snapshot = w.connection.Snapshot()
	}
	return upd, true, nil
}
