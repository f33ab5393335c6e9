package service

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
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/hashicorp/go-retryablehttp"

	"datve-cli/logger"
)

const (
	DefaultBaseURL      = "https://be-web-datve-1.onrender.com/api"
	DefaultTimeout      = 20 * time.Second
	defaultUserAgent    = "datve-cli"
	defaultRetryMax     = 2
	defaultRetryWaitMin = 200 * time.Millisecond
	defaultRetryWaitMax = 1200 * time.Millisecond

	// PublicPrefix marks endpoints that never carry the bearer token.
	PublicPrefix = "/public/"
)

// AuthFailure describes a 401 or 403 seen by the client.
type AuthFailure struct {
	Status   int
	Token    string // token that was sent with the failing request
	Endpoint string
	ReturnTo string
}

// Session supplies the bearer token and recovers from auth failures.
type Session interface {
	Token() string
	HandleAuthFailure(AuthFailure)
}

// Client wraps HTTP access to the ticketing API.
type Client struct {
	http      *retryablehttp.Client
	baseURL   string
	userAgent string
	log       *slog.Logger

	mu      sync.RWMutex
	session Session
}

// APIError is returned when the API responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "datve api error"
	}
	return fmt.Sprintf("datve api error: %s: %s", e.Status, e.Message())
}

// Message is the server's human-readable reason when it sent one.
func (e *APIError) Message() string {
	if e == nil {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(e.Body), &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return e.Body
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

func IsUnauthorized(err error) bool {
	return statusOf(err) == http.StatusUnauthorized
}

func IsForbidden(err error) bool {
	return statusOf(err) == http.StatusForbidden
}

// ErrorMessage extracts the best message for display.
func ErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg := strings.TrimSpace(apiErr.Message()); msg != "" {
			return msg
		}
		return apiErr.Status
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client; its transport is still
// wrapped with request logging.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http.HTTPClient = hc
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.HTTPClient.Timeout = timeout
		}
	}
}

func WithRetry(max int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		if max >= 0 {
			c.http.RetryMax = max
		}
		if waitMin > 0 {
			c.http.RetryWaitMin = waitMin
		}
		if waitMax > 0 {
			c.http.RetryWaitMax = waitMax
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates a new API client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = defaultRetryMax
	rc.RetryWaitMin = defaultRetryWaitMin
	rc.RetryWaitMax = defaultRetryWaitMax
	rc.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		http:      rc,
		baseURL:   baseURL,
		userAgent: defaultUserAgent,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.http.HTTPClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.http.HTTPClient.Transport = NewLoggingRoundTripper(base, c.log)
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetSession attaches the token source and auth failure handler.
func (c *Client) SetSession(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

func (c *Client) currentSession() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

type ctxKey uint8

const (
	ctxKeyIdempotent ctxKey = iota
	ctxKeyReturnPath
	ctxKeyToken
)

// WithReturnPath records where the user should land after signing in again if
// a request made with ctx fails with 401.
func WithReturnPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, ctxKeyReturnPath, path)
}

func returnPath(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyReturnPath).(string)
	return v
}

// WithToken makes requests made with ctx carry token instead of the
// session's, e.g. to look up the user a fresh token belongs to.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyToken, token)
}

func tokenOverride(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyToken).(string)
	return v, ok && v != ""
}

// checkRetry only retries requests flagged idempotent; writes are sent once.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if idempotent, _ := ctx.Value(ctxKeyIdempotent).(bool); !idempotent {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

type requestOptions struct {
	// skipRecovery leaves 401/403 handling to the caller.
	skipRecovery bool
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, requestOptions{})
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, opts requestOptions) error {
	endpoint := c.baseURL + path

	var payload any
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = encoded
	}

	if method == http.MethodGet || method == http.MethodHead {
		ctx = context.WithValue(ctx, ctxKeyIdempotent, true)
	}
	if logger.RequestID(ctx) == "" {
		ctx = logger.SetRequestID(ctx, uuid.Must(uuid.NewV4()).String())
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	session := c.currentSession()
	var token string
	if !strings.HasPrefix(path, PublicPrefix) {
		if override, ok := tokenOverride(ctx); ok {
			token = override
		} else if session != nil {
			token = session.Token()
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
		apiErr := &APIError{
			StatusCode: res.StatusCode,
			Status:     res.Status,
			Endpoint:   endpoint,
			Body:       strings.TrimSpace(string(snippet)),
		}
		if session != nil && !opts.skipRecovery &&
			(res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden) {
			session.HandleAuthFailure(AuthFailure{
				Status:   res.StatusCode,
				Token:    token,
				Endpoint: path,
				ReturnTo: returnPath(ctx),
			})
		}
		return apiErr
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response from %s: %w", endpoint, err)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := decodePayload(data, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", endpoint, err)
	}
	return nil
}

// decodePayload unwraps a top-level {"data": ...} envelope so callers always
// receive the payload itself.
func decodePayload(data []byte, out any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err == nil {
			if inner, ok := envelope["data"]; ok {
				return json.Unmarshal(inner, out)
			}
		}
	}
	return json.Unmarshal(trimmed, out)
}
