package booking

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// HoldSeconds is how long a selection is presumed held on the confirmation
// screen. The hold is local only; the backend does not reserve seats.
const HoldSeconds = 175

// Ticker is the subset of time.Ticker the countdown uses.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) Chan() <-chan time.Time { return t.C }

type CountdownOption func(*Countdown)

// WithTicker replaces the wall-clock ticker.
func WithTicker(newTicker func(time.Duration) Ticker) CountdownOption {
	return func(c *Countdown) {
		c.newTicker = newTicker
	}
}

// Countdown ticks once a second from a start value and fires onExpire exactly
// once on reaching zero. After Cancel returns no new callback starts.
type Countdown struct {
	onTick    func(remaining int)
	onExpire  func()
	newTicker func(time.Duration) Ticker

	mu        sync.Mutex
	remaining int
	started   bool
	stopped   bool
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewCountdown(seconds int, onTick func(remaining int), onExpire func(), opts ...CountdownOption) *Countdown {
	c := &Countdown{
		onTick:    onTick,
		onExpire:  onExpire,
		remaining: seconds,
		newTicker: func(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} },
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start runs the countdown until it expires, ctx ends, or Cancel is called.
// Starting twice is a no-op.
func (c *Countdown) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.started = true
	ctx, c.cancel = context.WithCancel(ctx)
	ticker := c.newTicker(time.Second)
	c.mu.Unlock()

	go c.run(ctx, ticker)
}

func (c *Countdown) run(ctx context.Context, ticker Ticker) {
	defer close(c.done)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.stop()
			return
		case <-ticker.Chan():
			remaining, expired, ok := c.step()
			if !ok {
				return
			}
			if c.onTick != nil {
				c.onTick(remaining)
			}
			if expired {
				if c.onExpire != nil {
					c.onExpire()
				}
				return
			}
		}
	}
}

func (c *Countdown) step() (remaining int, expired bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return 0, false, false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 {
		c.stopped = true
		return 0, true, true
	}
	return c.remaining, false, true
}

func (c *Countdown) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
}

// Cancel stops the countdown. It is safe to call at any time and more than
// once, including from inside a callback.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	c.stopped = true
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Done is closed once the countdown goroutine has exited. It never closes
// for a countdown that was not started.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started && c.remaining == 0
}

// FormatRemaining renders seconds as m:ss.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
