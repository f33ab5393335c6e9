package service

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datve-cli/logger"
)

func TestLoggingRoundTripper_PropagatesRequestID(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	buf := new(bytes.Buffer)
	client := &http.Client{
		Timeout:   10 * time.Second,
		Transport: NewLoggingRoundTripper(http.DefaultTransport, logger.New(buf, slog.LevelDebug)),
	}

	ctx := logger.SetRequestID(context.Background(), "req-42")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/phim", nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-42", got)
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
	assert.Contains(t, buf.String(), "incoming response")
}

func TestLoggingRoundTripper_GeneratesRequestID(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-Id")
	}))
	t.Cleanup(server.Close)

	client := &http.Client{Transport: NewLoggingRoundTripper(http.DefaultTransport, logger.Discard())}
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Len(t, got, 36)
}
