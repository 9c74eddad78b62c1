// Package device talks to the router's management API.
package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"router_dashboard/internal/models"
)

// AuthHeader carries the session token obtained when the app was paired.
const AuthHeader = "X-Fbx-App-Auth"

const defaultTimeout = 5 * time.Second

var (
	// ErrUnreachable covers transport failures and non-2xx statuses.
	ErrUnreachable = errors.New("device unreachable")
	// ErrAPI is returned when the device answers with success=false.
	ErrAPI = errors.New("device api error")
)

// envelope is the vendor response wrapper.
type envelope struct {
	Success   *bool           `json:"success"`
	Result    json.RawMessage `json:"result"`
	Msg       string          `json:"msg"`
	ErrorCode string          `json:"error_code"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchSystem returns the raw system payload (temperatures, fans, uptime).
func (c *Client) FetchSystem(ctx context.Context) (models.Telemetry, error) {
	var t models.Telemetry
	if err := c.call(ctx, http.MethodGet, "/system/", &t); err != nil {
		return nil, err
	}
	if t == nil {
		t = models.Telemetry{}
	}
	return t, nil
}

// FetchConnection returns the raw connection payload (rates, state, media).
func (c *Client) FetchConnection(ctx context.Context) (models.Telemetry, error) {
	var t models.Telemetry
	if err := c.call(ctx, http.MethodGet, "/connection/", &t); err != nil {
		return nil, err
	}
	if t == nil {
		t = models.Telemetry{}
	}
	return t, nil
}

// FetchVersion reads the API version descriptor. Some firmware serve it
// bare instead of inside the usual envelope; both are accepted.
func (c *Client) FetchVersion(ctx context.Context) (models.DeviceVersion, error) {
	var v models.DeviceVersion
	err := c.call(ctx, http.MethodGet, "/api_version", &v)
	return v, err
}

// Reboot asks the device to restart.
func (c *Client) Reboot(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/system/reboot/", nil)
}

func (c *Client) call(ctx context.Context, method, path string, out any) error {
	var body io.Reader
	if method == http.MethodPost {
		body = bytes.NewReader([]byte("{}"))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(AuthHeader, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrUnreachable, path, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && env.Success != nil && !*env.Success {
			return apiError(path, env)
		}
		return fmt.Errorf("%w: %s got %d", ErrUnreachable, path, resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrAPI, path, decodeErr)
	}

	if env.Success == nil {
		// bare document
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: decode %s: %v", ErrAPI, path, err)
		}
		return nil
	}
	if !*env.Success {
		return apiError(path, env)
	}
	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("%w: decode %s result: %v", ErrAPI, path, err)
	}
	return nil
}

func apiError(path string, env envelope) error {
	msg := env.Msg
	if msg == "" {
		msg = "request rejected"
	}
	if env.ErrorCode != "" {
		return fmt.Errorf("%w: %s: %s (%s)", ErrAPI, path, msg, env.ErrorCode)
	}
	return fmt.Errorf("%w: %s: %s", ErrAPI, path, msg)
}
