//go:build cgo

package hal

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// WindowConfig controls the desktop window.
type WindowConfig struct {
	Width  int
	Height int
	Title  string
	// Scale multiplies the framebuffer size for the initial window size.
	Scale int
	// TPS is the ebiten update rate; the app step runs once per update.
	TPS int
}

// RunWindow opens a desktop window showing the framebuffer and forwarding
// keyboard input. It blocks until the window closes or the app step returns
// ErrStop.
func RunWindow(cfg WindowConfig, newApp func(HAL) func() error) error {
	if cfg.Scale <= 0 {
		cfg.Scale = 2
	}
	if cfg.TPS <= 0 {
		cfg.TPS = 60
	}

	h := newHost(cfg.Width, cfg.Height)
	w := &window{
		h:    h,
		step: newApp(h),
		rgba: image.NewRGBA(image.Rect(0, 0, h.fb.w, h.fb.h)),
		raw:  make([]byte, len(h.fb.front)),
	}

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(h.fb.w*cfg.Scale, h.fb.h*cfg.Scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.TPS)
	return ebiten.RunGame(w)
}

// window implements ebiten.Game on top of the host HAL.
type window struct {
	h    *host
	step func() error

	rgba  *image.RGBA
	raw   []byte
	img   *ebiten.Image
	shown uint64
}

func (w *window) Update() error {
	w.h.kbd.poll()
	w.h.ticks.advance()
	stop, err := runStep(w.step)
	if err != nil {
		return err
	}
	if stop {
		return ebiten.Termination
	}
	return nil
}

// Draw uploads the framebuffer only when a new frame was presented.
func (w *window) Draw(screen *ebiten.Image) {
	if w.img == nil {
		w.img = ebiten.NewImage(w.h.fb.w, w.h.fb.h)
	}
	if n := w.h.fb.latest(w.raw); n != w.shown {
		w.shown = n
		toRGBA(w.rgba.Pix, w.raw)
		w.img.WritePixels(w.rgba.Pix)
	}
	screen.DrawImage(w.img, nil)
}

func (w *window) Layout(int, int) (int, int) {
	return w.h.fb.w, w.h.fb.h
}
