package hal

import (
	"context"
	"fmt"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Width  int
	Height int
	// Hz is the step rate. Zero means 60.
	Hz int
	// Ticks stops the run after that many steps. Zero runs until cancelled.
	Ticks uint64
}

// RunHeadless drives the app from a ticker instead of a window. It returns
// nil after cfg.Ticks steps or when the step returns ErrStop, and ctx.Err()
// when ctx is cancelled. The tick stream still follows wall time, so the
// counter advances at the same pace as in a window.
func RunHeadless(ctx context.Context, newApp func(HAL) func() error, cfg HeadlessConfig) error {
	if cfg.Hz == 0 {
		cfg.Hz = 60
	}
	if cfg.Hz < 0 || cfg.Hz > int(time.Second) {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	h := newHost(cfg.Width, cfg.Height)
	step := newApp(h)

	ticker := time.NewTicker(time.Second / time.Duration(cfg.Hz))
	defer ticker.Stop()

	for steps := uint64(0); cfg.Ticks == 0 || steps < cfg.Ticks; steps++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		h.ticks.advance()
		if stop, err := runStep(step); stop {
			return err
		}
	}
	return nil
}
