// Package clock provides the shared ticking time source used to render
// elapsed time of running entries.
package clock

import (
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/timesflying/internal/domain"
)

// DefaultInterval is the tick period of Default.
const DefaultInterval = time.Second

// Clock ticks only while at least one consumer holds it. The first Acquire
// starts the ticker, the last release stops it.
type Clock struct {
	interval time.Duration
	nowFn    func() time.Time

	mu     sync.Mutex
	now    time.Time
	refs   int
	stop   chan struct{}
	subs   map[uint64]func(time.Time)
	nextID uint64
}

// Option configures a Clock.
type Option func(*Clock)

// WithInterval sets the tick period. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(c *Clock) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithNow replaces time.Now as the time source.
func WithNow(fn func() time.Time) Option {
	return func(c *Clock) { c.nowFn = fn }
}

// New creates a stopped clock.
func New(opts ...Option) *Clock {
	c := &Clock{
		interval: DefaultInterval,
		nowFn:    time.Now,
		subs:     make(map[uint64]func(time.Time)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.now = c.nowFn()
	return c
}

var (
	defaultOnce  sync.Once
	defaultClock *Clock
)

// Default returns the process-wide clock.
func Default() *Clock {
	defaultOnce.Do(func() { defaultClock = New() })
	return defaultClock
}

// Acquire registers a consumer and returns its release function.
// Release is idempotent.
func (c *Clock) Acquire() (release func()) {
	c.mu.Lock()
	c.refs++
	if c.refs == 1 {
		c.now = c.nowFn()
		c.stop = make(chan struct{})
		go c.run(c.stop)
	}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(c.release)
	}
}

func (c *Clock) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refs--
	if c.refs == 0 {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Clock) run(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.tick(stop)
		}
	}
}

func (c *Clock) tick(stop chan struct{}) {
	c.mu.Lock()
	if c.stop != stop {
		c.mu.Unlock()
		return
	}
	now := c.nowFn()
	c.now = now
	subs := make([]func(time.Time), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(now)
	}
}

// Running reports whether the ticker is active.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refs > 0
}

// Now returns the time of the last tick while running, the current time otherwise.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs > 0 {
		return c.now
	}
	return c.nowFn()
}

// Subscribe calls fn on every tick until dispose is called. Subscribing
// does not start the ticker; use Acquire for that.
func (c *Clock) Subscribe(fn func(time.Time)) (dispose func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Elapsed is the duration of entry at now: (EndTime or now) - StartTime,
// never negative.
func Elapsed(entry *domain.TimeEntry, now time.Time) time.Duration {
	if entry == nil {
		return 0
	}
	return entry.Elapsed(now)
}

// FormatDuration renders d as HH:MM, or HH:MM:SS when showSeconds is set.
// Components are truncated, not rounded; hours are not wrapped at 24.
func FormatDuration(d time.Duration, showSeconds bool) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := total % 3600 / 60
	if !showSeconds {
		return fmt.Sprintf("%02d:%02d", h, m)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, total%60)
}
