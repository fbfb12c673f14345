package app

import (
	"fmt"
	"image/color"
	"strings"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfont/proggy"

	"powdemo/engine"
	"powdemo/hal"
)

var (
	colorBG      = color.RGBA{R: 0x10, G: 0x12, B: 0x18, A: 0xFF}
	colorText    = color.RGBA{R: 0xE0, G: 0xE8, B: 0xFF, A: 0xFF}
	colorDim     = color.RGBA{R: 0x90, G: 0xA0, B: 0xB8, A: 0xFF}
	colorAccent  = color.RGBA{R: 0xFF, G: 0x99, B: 0x33, A: 0xFF}
	colorWarn    = color.RGBA{R: 0xFF, G: 0x55, B: 0x55, A: 0xFF}
	colorTrack   = color.RGBA{R: 0x40, G: 0x48, B: 0x58, A: 0xFF}
	colorPaused  = color.RGBA{R: 0xFF, G: 0xD0, B: 0x40, A: 0xFF}
	colorRunning = color.RGBA{R: 0x60, G: 0xE0, B: 0x80, A: 0xFF}
)

const (
	margin      = 8
	valueRows   = 8
	sliderH     = 6
	knobW       = 6
	captionText = "Displaying on current modulus (lower is smoother, but less performant). Currently: %d"
	helpText    = "space pause  arrows/+/- modulus  digits+enter set  esc clear"
)

// frame is what one redraw shows.
type frame struct {
	State  engine.State
	FPS    int
	Paused bool
	Typed  string
	Note   string
}

type view struct {
	fb hal.Framebuffer
	d  *fbDisplayer

	small      tinyfont.Fonter
	smallW     int16
	smallH     int16
	large      tinyfont.Fonter
	largeH     int16
	cols       int
	valueChars int
}

func newView(fb hal.Framebuffer) *view {
	if fb == nil || fb.Format() != hal.PixelFormatRGB565 {
		return nil
	}
	v := &view{
		fb:     fb,
		d:      &fbDisplayer{fb: fb},
		small:  &proggy.TinySZ8pt7b,
		smallH: int16(proggy.TinySZ8pt7b.YAdvance),
		large:  &freemono.Bold12pt7b,
		largeH: int16(freemono.Bold12pt7b.YAdvance),
	}
	_, outboxWidth := tinyfont.LineWidth(v.small, "0")
	v.smallW = int16(outboxWidth)
	if v.smallW <= 0 || v.smallH <= 0 || v.largeH <= 0 {
		return nil
	}
	v.cols = (fb.Width() - 2*margin) / int(v.smallW)
	if v.cols < 8 {
		return nil
	}
	v.valueChars = v.cols * valueRows
	return v
}

func (v *view) render(f frame) {
	v.fb.ClearRGB(colorBG.R, colorBG.G, colorBG.B)

	y := int16(margin)
	v.text(v.large, margin, y+v.largeH, colorText, fmt.Sprintf("FPS: %03d", f.FPS))
	state, stateColor := "running", colorRunning
	if f.Paused {
		state, stateColor = "PAUSED", colorPaused
	}
	sw, _ := tinyfont.LineWidth(v.small, state)
	v.text(v.small, int16(v.fb.Width()-margin)-int16(sw), y+v.smallH, stateColor, state)
	y += v.largeH + 2

	v.text(v.large, margin, y+v.largeH, colorAccent, "2^"+f.State.Power.String())
	y += v.largeH + 4

	for _, line := range v.valueLines(f.State) {
		v.text(v.small, margin, y+v.smallH, colorText, line)
		y += v.smallH
	}
	y += v.smallH

	for _, line := range wrap(fmt.Sprintf(captionText, f.State.Modulus), v.cols) {
		v.text(v.small, margin, y+v.smallH, colorDim, line)
		y += v.smallH
	}
	y += 4
	v.slider(y, f.State.Modulus)
	y += sliderH + 6

	prompt := "modulus> " + f.Typed + "_"
	v.text(v.small, margin, y+v.smallH, colorText, prompt)
	y += v.smallH
	if f.Note != "" {
		v.text(v.small, margin, y+v.smallH, colorWarn, truncate(f.Note, v.cols))
	}

	v.text(v.small, margin, int16(v.fb.Height()-margin), colorDim, truncate(helpText, v.cols))

	_ = v.fb.Present()
}

// valueLines lays the value out over at most valueRows lines.
func (v *view) valueLines(st engine.State) []string {
	s := engine.Summarize(st.Value, v.valueChars-2*v.cols)
	if s.Full != "" {
		return wrap(s.Full, v.cols)
	}
	lines := wrap(s.Head+"...", v.cols)
	lines = append(lines, wrap("..."+s.Tail, v.cols)...)
	lines = append(lines, fmt.Sprintf("(%d digits)", s.Digits))
	if len(lines) > valueRows {
		lines = lines[:valueRows]
	}
	return lines
}

func (v *view) slider(y int16, modulus int) {
	x0 := margin
	w := v.fb.Width() - 2*margin
	fillRect(v.fb, x0, int(y), w, sliderH, colorTrack)

	pos := engine.ClampModulus(modulus) - engine.MinModulus
	span := engine.MaxModulus - engine.MinModulus
	kx := x0 + pos*(w-knobW)/span
	fillRect(v.fb, kx, int(y)-2, knobW, sliderH+4, colorAccent)
}

func (v *view) text(font tinyfont.Fonter, x, y int16, c color.RGBA, s string) {
	tinyfont.WriteLine(v.d, font, x, y, s, c)
}

func wrap(s string, cols int) []string {
	if cols <= 0 {
		return nil
	}
	var out []string
	for len(s) > cols {
		cut := cols
		if i := strings.LastIndexByte(s[:cols], ' '); i > 0 {
			cut = i
		}
		out = append(out, strings.TrimRight(s[:cut], " "))
		s = strings.TrimLeft(s[cut:], " ")
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func truncate(s string, cols int) string {
	if len(s) <= cols {
		return s
	}
	if cols <= 3 {
		return s[:cols]
	}
	return s[:cols-3] + "..."
}

func fillRect(fb hal.Framebuffer, x, y, w, h int, c color.RGBA) {
	buf := fb.Buffer()
	if buf == nil {
		return
	}
	pixel := hal.RGB565(c.R, c.G, c.B)
	fw, fh := fb.Width(), fb.Height()
	for yy := y; yy < y+h; yy++ {
		if yy < 0 || yy >= fh {
			continue
		}
		for xx := x; xx < x+w; xx++ {
			if xx < 0 || xx >= fw {
				continue
			}
			off := yy*fb.StrideBytes() + xx*2
			if off+1 >= len(buf) {
				continue
			}
			buf[off] = byte(pixel)
			buf[off+1] = byte(pixel >> 8)
		}
	}
}

var _ drivers.Displayer = (*fbDisplayer)(nil)

type fbDisplayer struct {
	fb hal.Framebuffer
}

func (d *fbDisplayer) Size() (x, y int16) {
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d *fbDisplayer) SetPixel(x, y int16, c color.RGBA) {
	buf := d.fb.Buffer()
	ix, iy := int(x), int(y)
	if buf == nil || ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return
	}
	pixel := hal.RGB565(c.R, c.G, c.B)
	off := iy*d.fb.StrideBytes() + ix*2
	if off+1 >= len(buf) {
		return
	}
	buf[off] = byte(pixel)
	buf[off+1] = byte(pixel >> 8)
}

func (d *fbDisplayer) Display() error { return nil }
