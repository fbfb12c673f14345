// Package fps counts events in a trailing one-second window.
package fps

import (
	"sync"
	"time"
)

const window = time.Second

// Counter reports how many ticks were recorded during the last second.
type Counter struct {
	mu    sync.Mutex
	now   func() time.Time
	stamp []time.Time
}

// New returns a counter reading time from now, or time.Now when nil.
func New(now func() time.Time) *Counter {
	if now == nil {
		now = time.Now
	}
	return &Counter{now: now}
}

// Tick records one event and returns the rate including it.
func (c *Counter) Tick() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now()
	c.stamp = append(c.stamp, t)
	c.expire(t)
	return len(c.stamp)
}

// Rate returns the number of events in the last second.
func (c *Counter) Rate() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expire(c.now())
	return len(c.stamp)
}

func (c *Counter) expire(now time.Time) {
	cut := 0
	for cut < len(c.stamp) && now.Sub(c.stamp[cut]) >= window {
		cut++
	}
	if cut == 0 {
		return
	}
	n := copy(c.stamp, c.stamp[cut:])
	c.stamp = c.stamp[:n]
}
