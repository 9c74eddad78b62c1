package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"router_dashboard/internal/hub"
)

var testUpgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// pushServer upgrades every request and lets frames decide what each session sends.
func pushServer(t *testing.T, frames func(session int64) []string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var sessions atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := sessions.Add(1)
		for _, f := range frames(n) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		if n == 1 {
			// First session drops right away.
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &sessions
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestHandle(t *testing.T) {
	w := NewWatcher(Options{}, nil)

	upd, ok, err := w.Handle([]byte(`{"type":"system_status","data":{"temp_cpu0":50,"temp_cpu1":53,"temp_sw":41}}`))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, hub.TypeSystemStatus, upd.Type)
	require.NotNil(t, upd.System)
	require.NotNil(t, upd.System.CPUMain)
	assert.Equal(t, 52.0, *upd.System.CPUMain)
	require.NotNil(t, upd.System.SwitchTemp)
	assert.Equal(t, 41.0, *upd.System.SwitchTemp)
	assert.Nil(t, upd.Connection)

	upd, ok, err = w.Handle([]byte(`{"type":"connection_status","data":{"rate_down":2048,"rate_up":512}}`))
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, upd.Connection)
	assert.Equal(t, 2.0, upd.Connection.DownloadRateKBs)
	assert.Equal(t, 0.5, upd.Connection.UploadRateKBs)

	_, ok, err = w.Handle([]byte(`{"type":"firmware_notice","data":{}}`))
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = w.Handle([]byte(`not json`))
	assert.True(t, errors.Is(err, ErrMalformedMessage))

	_, _, err = w.Handle([]byte(`{"type":"system_status","data":[1,2]}`))
	assert.True(t, errors.Is(err, ErrMalformedMessage))

	assert.Len(t, w.System().History(), 1)
	assert.Len(t, w.Connection().History(), 1)
}

func TestHandle_PartialMessageKeepsPreviousFields(t *testing.T) {
	w := NewWatcher(Options{}, nil)

	_, _, err := w.Handle([]byte(`{"type":"system_status","data":{"temp_cpum":60,"temp_sw":40}}`))
	require.NoError(t, err)
	upd, _, err := w.Handle([]byte(`{"type":"system_status","data":{"temp_cpum":62}}`))
	require.NoError(t, err)

	assert.Equal(t, 62.0, upd.Snapshot["temp_cpum"])
	assert.Equal(t, 40.0, upd.Snapshot["temp_sw"])
	// The point is derived from the message alone.
	assert.Nil(t, upd.System.SwitchTemp)
}

func TestHandle_HistoryIsBounded(t *testing.T) {
	w := NewWatcher(Options{Capacity: 3}, nil)
	for i := 0; i < 5; i++ {
		_, _, err := w.Handle([]byte(`{"type":"connection_status","data":{"rate_down":1024}}`))
		require.NoError(t, err)
	}
	assert.Len(t, w.Connection().History(), 3)
}

func TestRun_AppliesPushedMessagesAndReconnects(t *testing.T) {
	srv, sessions := pushServer(t, func(n int64) []string {
		if n == 1 {
			return []string{
				`{"type":"system_status","data":{"temp_cpum":55}}`,
				`{"type":"unknown","data":{}}`,
				`garbage`,
			}
		}
		return []string{`{"type":"connection_status","data":{"rate_down":10240,"rate_up":0}}`}
	})

	updates := make(chan Update, 8)
	w := NewWatcher(Options{
		URL:            wsURL(srv),
		ReconnectDelay: 10 * time.Millisecond,
		OnUpdate:       func(u Update) { updates <- u },
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	first := receive(t, updates)
	assert.Equal(t, hub.TypeSystemStatus, first.Type)

	second := receive(t, updates)
	assert.Equal(t, hub.TypeConnectionStatus, second.Type)
	assert.Equal(t, 10.0, second.Connection.DownloadRateKBs)
	assert.GreaterOrEqual(t, sessions.Load(), int64(2))

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_StopsWhileWaitingToRedial(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	w := NewWatcher(Options{URL: url, ReconnectDelay: time.Hour}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func receive(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u := <-ch:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("no update received")
		return Update{}
	}
}

func TestRun_SilentConnectionIsRedialed(t *testing.T) {
	var sessions atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		sessions.Add(1)
		// Stay connected but never send anything.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	w := NewWatcher(Options{
		URL:            wsURL(srv),
		ReadTimeout:    50 * time.Millisecond,
		ReconnectDelay: 10 * time.Millisecond,
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return sessions.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_PingsKeepSessionOpen(t *testing.T) {
	var sessions atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		sessions.Add(1)
		// Pings alone span several read timeouts before the first frame.
		for i := 0; i < 8; i++ {
			if err := conn.WriteControl(websocket.PingMessage, []byte("hb"), time.Now().Add(time.Second)); err != nil {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"system_status","data":{"temp_cpum":48}}`)); err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	updates := make(chan Update, 4)
	w := NewWatcher(Options{
		URL:            wsURL(srv),
		ReadTimeout:    60 * time.Millisecond,
		ReconnectDelay: time.Hour,
		OnUpdate:       func(u Update) { updates <- u },
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	u := receive(t, updates)
	assert.Equal(t, hub.TypeSystemStatus, u.Type)
	assert.Equal(t, int64(1), sessions.Load())

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
