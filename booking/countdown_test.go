package booking

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (m *manualTicker) Chan() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()                  { m.stopped.Store(true) }

func newManualCountdown(seconds int, onTick func(int), onExpire func()) (*Countdown, *manualTicker) {
	ticker := &manualTicker{ch: make(chan time.Time)}
	c := NewCountdown(seconds, onTick, onExpire, WithTicker(func(time.Duration) Ticker { return ticker }))
	return c, ticker
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "2:55", FormatRemaining(HoldSeconds))
	assert.Equal(t, "0:09", FormatRemaining(9))
	assert.Equal(t, "1:00", FormatRemaining(60))
	assert.Equal(t, "0:00", FormatRemaining(-3))
}

func TestCountdown_ExpiresExactlyOnce(t *testing.T) {
	var expiries atomic.Int32
	ticks := make(chan int, HoldSeconds)
	c, ticker := newManualCountdown(HoldSeconds, func(r int) { ticks <- r }, func() { expiries.Add(1) })
	c.Start(context.Background())
	c.Start(context.Background())

	for i := 0; i < HoldSeconds; i++ {
		ticker.ch <- time.Now()
		assert.Equal(t, HoldSeconds-i-1, <-ticks)
	}

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("countdown did not finish")
	}
	assert.Equal(t, int32(1), expiries.Load())
	assert.Equal(t, 0, c.Remaining())
	assert.True(t, c.Expired())
	assert.True(t, ticker.stopped.Load())

	select {
	case ticker.ch <- time.Now():
		t.Fatal("expired countdown still reading ticks")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCountdown_CancelStopsCallbacks(t *testing.T) {
	var expired atomic.Bool
	ticks := make(chan int, 4)
	c, ticker := newManualCountdown(3, func(r int) { ticks <- r }, func() { expired.Store(true) })
	c.Start(context.Background())

	ticker.ch <- time.Now()
	require.Equal(t, 2, <-ticks)

	c.Cancel()
	c.Cancel()
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("countdown did not stop")
	}
	assert.False(t, expired.Load())
	assert.Empty(t, ticks)
	assert.Equal(t, 2, c.Remaining())
}

func TestCountdown_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c, _ := newManualCountdown(3, nil, nil)
	c.Start(ctx)
	cancel()
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("countdown did not stop on context cancel")
	}
}

func TestCountdown_CancelBeforeStart(t *testing.T) {
	c, _ := newManualCountdown(3, nil, func() { t.Fatal("unexpected expiry") })
	c.Cancel()
	c.Start(context.Background())
	assert.Equal(t, 3, c.Remaining())
}
