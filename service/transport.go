package service

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"

	"datve-cli/logger"
)

// LoggingRoundTripper stamps X-Request-Id on outgoing requests and logs each
// round trip. The id comes from the context so retries share it.
type LoggingRoundTripper struct {
	Transport http.RoundTripper
	Log       *slog.Logger
}

func NewLoggingRoundTripper(transport http.RoundTripper, log *slog.Logger) *LoggingRoundTripper {
	return &LoggingRoundTripper{Transport: transport, Log: log}
}

func (l *LoggingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	reqID := logger.RequestID(ctx)
	if reqID == "" {
		reqID = uuid.Must(uuid.NewV4()).String()
		ctx = logger.SetRequestID(ctx, reqID)
	}
	r = r.Clone(ctx)
	r.Header.Set("X-Request-Id", reqID)

	started := time.Now()
	l.Log.DebugContext(ctx, "outgoing request", "request", fmt.Sprintf("%s %s", r.Method, r.URL.Redacted()))

	resp, err := l.Transport.RoundTrip(r)
	if err != nil {
		l.Log.WarnContext(ctx, "request failed", "request", fmt.Sprintf("%s %s", r.Method, r.URL.Redacted()), "error", err)
		return nil, fmt.Errorf("round trip: %w", err)
	}

	l.Log.InfoContext(ctx, "incoming response",
		"request", fmt.Sprintf("%s %s", r.Method, r.URL.Redacted()),
		"status", resp.StatusCode,
		"duration", time.Since(started),
	)
	return resp, nil
}
