// Package client talks to the control service: it sends commands over REST
// and follows the live actor list over server-sent events.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/shadepanel/pkg/api/types"
	"github.com/urmzd/shadepanel/pkg/device"
)

// Client is a REST and SSE client for the control service.
type Client struct {
	baseURL    string
	http       *http.Client
	stream     *http.Client
	backoff    time.Duration
	maxBackoff time.Duration
	onConn     func(bool)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the client used for REST calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBackoff sets the initial and maximum delay between stream reconnects.
func WithBackoff(initial, maxDelay time.Duration) Option {
	return func(c *Client) {
		if initial > 0 {
			c.backoff = initial
		}
		if maxDelay >= c.backoff {
			c.maxBackoff = maxDelay
		}
	}
}

// WithConnectionHandler is called whenever the event stream connects or drops.
func WithConnectionHandler(fn func(connected bool)) Option {
	return func(c *Client) { c.onConn = fn }
}

// New creates a client for the service at baseURL (e.g. http://localhost:3000).
func New(baseURL string, opts ...Option) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: 30 * time.Second},
		stream:     &http.Client{},
		backoff:    time.Second,
		maxBackoff: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, strings.TrimSpace(e.Body))
}

// Unwrap maps well-known statuses onto device errors.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return device.ErrNotFound
	case http.StatusBadRequest:
		return device.ErrValidation
	case http.StatusServiceUnavailable:
		return device.ErrNotConnected
	case http.StatusGatewayTimeout:
		return device.ErrTimeout
	}
	return nil
}

// Send posts cmd to the endpoint matching its scope and kind.
func (c *Client) Send(ctx context.Context, cmd device.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	var resp types.CommandResponse
	if err := c.do(ctx, http.MethodPost, CommandPath(cmd), types.PositionRequest{Position: cmd.Value}, &resp); err != nil {
		return err
	}
	log.Debug().Str("command", cmd.String()).Int("count", resp.Count).Msg("Command accepted")
	return nil
}

// CommandPath returns the REST path a command is posted to.
func CommandPath(cmd device.Command) string {
	switch cmd.Scope {
	case device.ScopeAll:
		return "/api/actors/" + device.TargetAll + "/" + string(cmd.Kind)
	case device.ScopeGroup:
		return "/api/groups/" + url.PathEscape(cmd.Target) + "/" + string(cmd.Kind)
	default:
		return "/api/actors/" + url.PathEscape(cmd.Target) + "/" + string(cmd.Kind)
	}
}

// Actors fetches the actor list.
func (c *Client) Actors(ctx context.Context) ([]device.ActorStatus, error) {
	var actors []device.ActorStatus
	if err := c.do(ctx, http.MethodGet, "/api/actors", nil, &actors); err != nil {
		return nil, err
	}
	return actors, nil
}

// Groups fetches the group list.
func (c *Client) Groups(ctx context.Context) ([]device.GroupInfo, error) {
	var groups []device.GroupInfo
	if err := c.do(ctx, http.MethodGet, "/api/groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Settings fetches the panel settings. userAgent selects the safe-mode
// default the service derives when none is saved.
func (c *Client) Settings(ctx context.Context, userAgent string) (*types.SettingsResponse, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/settings", nil)
	if err != nil {
		return nil, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	var settings types.SettingsResponse
	if err := c.roundTrip(req, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Health fetches the service health.
func (c *Client) Health(ctx context.Context) (*types.HealthResponse, error) {
	var health types.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return c.roundTrip(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) roundTrip(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
