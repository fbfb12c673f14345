// Package engine holds the doubling counter: an arbitrary-precision value, the
// power of two it represents and the modulus used to throttle redraws.
package engine

import (
	"math/big"
	"sync"
)

// Config controls a new Engine.
type Config struct {
	// Modulus is the initial gating modulus. Values below 1 become 1.
	Modulus int

	// MaxBits caps the value width. When a doubling would need more bits the
	// engine resets value and power to 1. Zero or less means unbounded.
	MaxBits int
}

// State is a consistent copy of the engine state.
type State struct {
	Value   *big.Int
	Power   *big.Int
	Modulus int
	Resets  uint64
}

// Engine is the counter state machine.
//
// After k ticks without a reset Power is k+1 and Value is 2^k, so
// Value == 2^(Power-1) holds between calls.
type Engine struct {
	mu sync.Mutex

	value   *big.Int
	power   *big.Int
	modulus int
	maxBits int
	resets  uint64

	m   big.Int
	rem big.Int
}

// New returns an engine at value 1, power 1.
func New(cfg Config) *Engine {
	mod := cfg.Modulus
	if mod < 1 {
		mod = 1
	}
	maxBits := cfg.MaxBits
	if maxBits < 0 {
		maxBits = 0
	}
	return &Engine{
		value:   big.NewInt(1),
		power:   big.NewInt(1),
		modulus: mod,
		maxBits: maxBits,
	}
}

// Tick advances the counter by one doubling and reports whether the new
// power is a multiple of the modulus.
func (e *Engine) Tick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.power.Add(e.power, one)
	if e.overflows() {
		e.value.SetInt64(1)
		e.power.SetInt64(1)
		e.resets++
	} else {
		e.value.Lsh(e.value, 1)
	}
	return e.gated()
}

// overflows reports whether doubling the value would exceed MaxBits.
func (e *Engine) overflows() bool {
	return e.maxBits > 0 && e.value.BitLen()+1 > e.maxBits
}

func (e *Engine) gated() bool {
	if e.modulus == 1 {
		return true
	}
	e.m.SetInt64(int64(e.modulus))
	e.rem.Mod(e.power, &e.m)
	return e.rem.Sign() == 0
}

// SetModulus replaces the gating modulus. It returns ErrInvalidModulus for
// n < 1 and leaves the engine unchanged in that case.
func (e *Engine) SetModulus(n int) error {
	if n < 1 {
		return invalidModulus(n)
	}
	e.mu.Lock()
	e.modulus = n
	e.mu.Unlock()
	return nil
}

// Modulus returns the current gating modulus.
func (e *Engine) Modulus() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modulus
}

// MaxBits returns the configured width cap, 0 when unbounded.
func (e *Engine) MaxBits() int { return e.maxBits }

// Resets returns how many times the width cap forced a reset.
func (e *Engine) Resets() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resets
}

// Snapshot copies the current state. The returned integers are not shared
// with the engine.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Value:   new(big.Int).Set(e.value),
		Power:   new(big.Int).Set(e.power),
		Modulus: e.modulus,
		Resets:  e.resets,
	}
}

var one = big.NewInt(1)
