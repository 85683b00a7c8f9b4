package light

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/oshokin/presence-light/internal/config"
	"github.com/oshokin/presence-light/internal/domain/presence"
	"github.com/oshokin/presence-light/internal/metrics"
)

// Client sends turn_on/turn_off commands to one light.
type Client struct {
	// base is the light's URL, e.g. http://10.0.80.21/light/living_room_1.
	base *url.URL
	// http performs the requests.
	http *http.Client
	// callTimeout bounds each command.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets the timeout applied to every command.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// StatusError is returned when the light answers with a non-2xx status.
type StatusError struct {
	// Code is the HTTP status code received.
	Code int
	// URL is the request target.
	URL string
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("light responded %d %s for %s", e.Code, http.StatusText(e.Code), e.URL)
}

var (
	errAddressRequired  = errors.New("device address must be provided")
	errDeviceIDRequired = errors.New("device id must be provided")
)

// New creates a client for the light deviceID served at address (host or host:port).
func New(address, deviceID string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	if deviceID == "" {
		return nil, errDeviceIDRequired
	}

	base, err := url.Parse("http://" + address)
	if err != nil {
		return nil, fmt.Errorf("parse device address: %w", err)
	}

	base.Path = "/light/" + deviceID

	client := &Client{
		base:        base,
		http:        &http.Client{},
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// TurnOn switches the light on with the given color.
func (c *Client) TurnOn(ctx context.Context, color presence.Color) error {
	query := "r=" + strconv.Itoa(int(color.Red)) +
		"&g=" + strconv.Itoa(int(color.Green)) +
		"&b=" + strconv.Itoa(int(color.Blue)) +
		"&brightness=" + strconv.Itoa(int(color.Brightness))

	err := c.post(ctx, "turn_on", query)
	metrics.ObserveCommand(metrics.CommandTurnOn, err)

	return err
}

// TurnOff switches the light off.
func (c *Client) TurnOff(ctx context.Context) error {
	err := c.post(ctx, "turn_off", "")
	metrics.ObserveCommand(metrics.CommandTurnOff, err)

	return err
}

// BaseURL returns the device's light endpoint without an action.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// URL returns the endpoint for action with the raw query attached.
func (c *Client) URL(action, rawQuery string) string {
	u := *c.base
	u.Path += "/" + action
	u.RawQuery = rawQuery

	return u.String()
}

// post issues a body-less POST and discards the response.
func (c *Client) post(ctx context.Context, action, rawQuery string) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	target := c.URL(action, rawQuery)

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, target, http.NoBody)
	if err != nil {
		return fmt.Errorf("build %s request: %w", action, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{Code: resp.StatusCode, URL: target}
	}

	return nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
