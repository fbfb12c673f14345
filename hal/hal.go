package hal

import "errors"

// ErrStop may be returned by an app step to end a run without error.
var ErrStop = errors.New("hal: stop requested")

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyHome
	KeyEnd
)

// KeyEvent is a keyboard event. Text input arrives with Code == KeyUnknown
// and a non-zero Rune.
type KeyEvent struct {
	Code  KeyCode
	Press bool
	Rune  rune
}

// Keyboard provides key events (best-effort on each platform).
type Keyboard interface {
	Events() <-chan KeyEvent
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Input provides access to input devices (if available).
type Input interface {
	Keyboard() Keyboard
}

// Time provides a base tick stream.
//
// Each value is a sequence number; one tick stands for one millisecond of
// wall time. Delivery is best-effort and ticks are dropped when the consumer
// falls behind.
type Time interface {
	Ticks() <-chan uint64
}

// DropCounter is implemented by tick sources that can report how many ticks
// they discarded because the consumer fell behind.
type DropCounter interface {
	Dropped() uint64
}

// HAL is the only contact point between the demo and the outside world.
type HAL interface {
	Display() Display
	Input() Input
	Time() Time
}
