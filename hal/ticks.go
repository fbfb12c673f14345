package hal

import (
	"sync/atomic"
	"time"
)

const (
	tickPeriod = time.Millisecond
	tickBuffer = 1024
)

// tickSource turns elapsed wall time into the 1 ms tick stream. Ticks that
// find the channel full are counted and discarded.
type tickSource struct {
	ch      chan uint64
	seq     uint64
	dropped atomic.Uint64

	now   func() time.Time
	last  time.Time
	carry time.Duration
}

func newTickSource() *tickSource {
	return &tickSource{ch: make(chan uint64, tickBuffer), now: time.Now}
}

func (t *tickSource) Ticks() <-chan uint64 { return t.ch }

// Dropped returns how many ticks were discarded so far.
func (t *tickSource) Dropped() uint64 { return t.dropped.Load() }

// advance emits one tick per whole millisecond since the previous call. The
// first call only starts the clock and emits a single tick.
func (t *tickSource) advance() {
	now := t.now()
	if t.last.IsZero() {
		t.last = now
		t.emit(1)
		return
	}

	t.carry += now.Sub(t.last)
	t.last = now
	if t.carry < tickPeriod {
		return
	}

	n := uint64(t.carry / tickPeriod)
	t.carry %= tickPeriod
	t.emit(n)
}

func (t *tickSource) emit(n uint64) {
	// A long stall (window drag, debugger) would otherwise spin here for
	// every missed millisecond; anything past the buffer is lost anyway.
	if n > tickBuffer {
		t.seq += n - tickBuffer
		t.dropped.Add(n - tickBuffer)
		n = tickBuffer
	}
	for ; n > 0; n-- {
		t.seq++
		select {
		case t.ch <- t.seq:
		default:
			t.dropped.Add(1)
		}
	}
}
