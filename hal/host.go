package hal

import "errors"

// Default framebuffer size in pixels.
const (
	DefaultWidth  = 480
	DefaultHeight = 320
)

// host is the desktop HAL shared by the window and headless runners.
type host struct {
	fb    *memFramebuffer
	kbd   *hostKeyboard
	ticks *tickSource
}

// New returns a host HAL with a width x height framebuffer. Non-positive
// sizes fall back to the defaults. Nothing drives its tick stream or
// keyboard; use RunWindow or RunHeadless for that.
func New(width, height int) HAL {
	return newHost(width, height)
}

func newHost(width, height int) *host {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &host{
		fb:    newMemFramebuffer(width, height),
		kbd:   newHostKeyboard(),
		ticks: newTickSource(),
	}
}

func (h *host) Display() Display { return h }
func (h *host) Input() Input     { return h }
func (h *host) Time() Time       { return h.ticks }

func (h *host) Framebuffer() Framebuffer { return h.fb }
func (h *host) Keyboard() Keyboard       { return h.kbd }

// runStep calls step once. ErrStop is reported as stop with a nil error.
func runStep(step func() error) (stop bool, err error) {
	if step == nil {
		return false, nil
	}
	err = step()
	if errors.Is(err, ErrStop) {
		return true, nil
	}
	return err != nil, err
}
