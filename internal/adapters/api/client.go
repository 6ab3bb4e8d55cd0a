// Package api is the HTTP client of the external EDT Pro REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"edtpro/internal/adapters/http/perf"
)

// DefaultTimeout bounds one API call when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Transport-level errors
var (
	// ErrUnauthorized is returned when an authenticated call answers 401.
	ErrUnauthorized = errors.New("session expired or revoked")
	// ErrUnavailable wraps network failures and undecodable success bodies.
	ErrUnavailable = errors.New("service indisponible")
)

// Error is a non-success answer of the API.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// Client calls the API. It is safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	collector *perf.Collector
}

// NewClient creates a client for baseURL.
// PRE: baseURL has no trailing slash
func NewClient(baseURL string, timeout time.Duration, collector *perf.Collector) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		collector: collector,
	}
}

// request describes one call.
type request struct {
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(method, path, token string, payload any) (request, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return request{}, err
	}
	return request{method: method, path: path, token: token, body: bytes.NewReader(b), contentType: "application/json"}, nil
}

// do sends req and decodes a 2xx body into out (when non-nil).
// POST: 401 on an authenticated call yields ErrUnauthorized; other non-2xx yield *Error
func (c *Client) do(ctx context.Context, req request, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, req.body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	c.collector.Record(perf.Entry{
		Kind:       perf.KindUpstream,
		Path:       req.method + " " + routeOf(req.path),
		StatusCode: status,
		DurationMs: durationMs,
		Timestamp:  start,
	})
	if err != nil {
		slog.WarnContext(ctx, "api_call_failed", "method", req.method, "path", req.path, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	slog.DebugContext(ctx, "api_call", "method", req.method, "path", req.path, "status", status, "duration_ms", durationMs)

	if status == http.StatusUnauthorized && req.token != "" {
		return ErrUnauthorized
	}
	if status < 200 || status > 299 {
		return &Error{Status: status, Message: readMessage(resp.Body)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUnavailable, req.path, err)
	}
	return nil
}

// readMessage extracts `message` from an error body. It may be a string or a list of strings.
func readMessage(r io.Reader) string {
	var body struct {
		Message json.RawMessage `json:"message"`
	}
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || json.Unmarshal(raw, &body) != nil || len(body.Message) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(body.Message, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(body.Message, &list) == nil {
		return strings.Join(list, ", ")
	}
	return ""
}

// routeOf collapses numeric path segments so timings group by endpoint.
func routeOf(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p != "" && strings.Trim(p, "0123456789") == "" {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}
