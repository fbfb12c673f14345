// Package gate provides the pause switch that sits between the tick source
// and the counter engine.
package gate

import "sync/atomic"

// Gate is safe to flip from input handlers while the tick loop reads it.
// Only eventual visibility is required: a tick more or less around a toggle
// is acceptable.
type Gate struct {
	paused atomic.Bool
}

// Paused reports whether ticks should be withheld.
func (g *Gate) Paused() bool { return g.paused.Load() }

// Pause withholds ticks.
func (g *Gate) Pause() { g.paused.Store(true) }

// Resume lets ticks through again.
func (g *Gate) Resume() { g.paused.Store(false) }

// Toggle flips the gate and returns the new paused state.
func (g *Gate) Toggle() bool {
	for {
		old := g.paused.Load()
		if g.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}
