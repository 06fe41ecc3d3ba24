// Package gateway is the HTTP client for the remote controller. The
// controller authorizes scans, optionally serves configuration and accepts
// findings:
//
//	GET  /scan-status    -> {"should_run": bool}
//	GET  /config         -> configuration document
//	POST /data           <- types.Report
//	POST /scan-complete
//
// Every request is rate limited, bounded by a timeout and retried with
// exponential backoff on transport errors and 5xx responses.
package gateway

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

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/redactyl/dlpagent/internal/config"
	"github.com/redactyl/dlpagent/internal/logging"
	"github.com/redactyl/dlpagent/internal/types"
)

const (
	PathScanStatus   = "/scan-status"
	PathConfig       = "/config"
	PathData         = "/data"
	PathScanComplete = "/scan-complete"
)

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

// ErrStatus is wrapped by every *StatusError.
var ErrStatus = errors.New("unexpected controller status")

// StatusError reports a non-2xx controller response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Options tunes the client. Zero values fall back to the config defaults.
type Options struct {
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	UserAgent         string
	// HTTPClient replaces the default client, mainly for tests.
	HTTPClient *http.Client
	// InitialBackoff is the first retry delay. Defaults to 500ms.
	InitialBackoff time.Duration
}

// OptionsFromConfig maps the agent configuration onto client options.
func OptionsFromConfig(c config.Config, userAgent string) Options {
	return Options{
		Timeout:           c.RequestTimeout,
		MaxRetries:        c.MaxRetries,
		RequestsPerSecond: c.RequestsPerSecond,
		UserAgent:         userAgent,
	}
}

// Client talks to one controller endpoint. It is safe for concurrent use.
type Client struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
	opts    Options
	log     zerolog.Logger
}

// New returns a client for endpoint, e.g. "http://10.0.0.5:8080".
func New(endpoint string, opts Options, logger zerolog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultRequestTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = config.DefaultRequestsPerSecond
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 500 * time.Millisecond
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "dlpagent"
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		base:    strings.TrimRight(endpoint, "/"),
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		opts:    opts,
		log:     logging.Component(logger, "gateway").With().Str("endpoint", endpoint).Logger(),
	}
}

// Endpoint returns the controller base URL.
func (c *Client) Endpoint() string { return c.base }

// ShouldRun asks the controller whether a scan is authorized. A response
// without the should_run field means no.
func (c *Client) ShouldRun(ctx context.Context) (bool, error) {
	var status struct {
		ShouldRun *bool `json:"should_run"`
	}
	body, err := c.do(ctx, http.MethodGet, PathScanStatus, nil)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return false, fmt.Errorf("decode scan status: %w", err)
	}
	return status.ShouldRun != nil && *status.ShouldRun, nil
}

// FetchConfig downloads the controller-side configuration. The result is
// not validated; callers merge it over the local file first.
func (c *Client) FetchConfig(ctx context.Context) (config.FileConfig, error) {
	body, err := c.do(ctx, http.MethodGet, PathConfig, nil)
	if err != nil {
		return config.FileConfig{}, err
	}
	fc, err := config.Decode(body)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("decode remote config: %w", err)
	}
	return fc, nil
}

// SendData delivers one cycle's findings.
func (c *Client) SendData(ctx context.Context, report types.Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, PathData, body)
	return err
}

// SignalComplete tells the controller the current scan has finished.
func (c *Client) SignalComplete(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, PathScanComplete, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var out []byte
	attempt := 0
	op := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		b, err := c.once(ctx, method, path, payload)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) && se.Code < 500 && se.Code != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		out = b
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.opts.InitialBackoff
	eb.MaxElapsedTime = 0
	var b backoff.BackOff = backoff.WithMaxRetries(eb, uint64(c.opts.MaxRetries))
	b = backoff.WithContext(b, ctx)

	notify := func(err error, wait time.Duration) {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).
			Int("attempt", attempt).Dur("retry_in", wait).Msg("Controller request failed, retrying")
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	c.log.Debug().Str("method", method).Str("path", path).Int("attempts", attempt).Msg("Controller request succeeded")
	return out, nil
}

func (c *Client) once(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	rctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(rctx, method, c.base+path, body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: snippet(b)}
	}
	return b, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
