//go:build !cgo

package hal

import "errors"

// WindowConfig controls the desktop window.
type WindowConfig struct {
	Width  int
	Height int
	Title  string
	Scale  int
	TPS    int
}

// RunWindow needs ebiten, which needs cgo on desktop platforms.
func RunWindow(WindowConfig, func(HAL) func() error) error {
	return errors.New("window mode requires cgo (build with CGO_ENABLED=1), or pass -headless")
}

// hostKeyboard never produces events without a window.
type hostKeyboard struct {
	ch chan KeyEvent
}

func newHostKeyboard() *hostKeyboard {
	return &hostKeyboard{ch: make(chan KeyEvent)}
}

func (k *hostKeyboard) Events() <-chan KeyEvent { return k.ch }
func (k *hostKeyboard) poll()                   {}
