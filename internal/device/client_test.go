package device

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"router_dashboard/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/v8/", "tok", time.Second)
}

func TestFetchSystem_UnwrapsEnvelopeAndSendsToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v8/system/", r.URL.Path)
		assert.Equal(t, "tok", r.Header.Get(AuthHeader))
		_, _ = w.Write([]byte(`{"success":true,"result":{"temp_cpum":61,"fan_rpm":1200}}`))
	})

	got, err := c.FetchSystem(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 61.0, got[models.FieldCPUMain])
	assert.Equal(t, 1200.0, got[models.FieldFanRPM])
}

func TestFetchConnection_EmptyResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	got, err := c.FetchConnection(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFetchVersion_BareDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v8/api_version", r.URL.Path)
		_, _ = w.Write([]byte(`{"box_model_name":"Server Mini","api_version":"8.0","device_name":"Freebox Server"}`))
	})

	got, err := c.FetchVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DeviceVersion{Model: "Server Mini", APIVersion: "8.0", DeviceName: "Freebox Server"}, got)
}

func TestReboot_PostsToRebootPath(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v8/system/reboot/", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	require.NoError(t, c.Reboot(context.Background()))
	assert.True(t, called)
}

func TestCall_Errors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"api rejected", http.StatusOK, `{"success":false,"msg":"Acces refuse","error_code":"insufficient_rights"}`, ErrAPI},
		{"forbidden with envelope", http.StatusForbidden, `{"success":false,"msg":"auth required","error_code":"auth_required"}`, ErrAPI},
		{"bad gateway", http.StatusBadGateway, `oops`, ErrUnreachable},
		{"garbage body", http.StatusOK, `<html>`, ErrAPI},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.FetchSystem(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
		})
	}
}

func TestCall_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewClient(url, "", 200*time.Millisecond).Reboot(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachable)
}
