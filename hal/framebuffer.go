package hal

import "sync"

// RGB565 packs an 8-bit-per-channel color into the framebuffer encoding.
func RGB565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// unpack565 widens p back to 8 bits per channel, mapping full scale to 255.
func unpack565(p uint16) (r, g, b uint8) {
	r = uint8(uint32(p>>11&0x1F) * 255 / 31)
	g = uint8(uint32(p>>5&0x3F) * 255 / 63)
	b = uint8(uint32(p&0x1F) * 255 / 31)
	return r, g, b
}

// toRGBA converts little-endian RGB565 pixels in src into opaque RGBA in dst.
func toRGBA(dst, src []byte) {
	for i, j := 0, 0; i+1 < len(src) && j+3 < len(dst); i, j = i+2, j+4 {
		dst[j], dst[j+1], dst[j+2] = unpack565(uint16(src[i]) | uint16(src[i+1])<<8)
		dst[j+3] = 0xFF
	}
}

// memFramebuffer is drawn into by the app and read by the window. Present
// copies the back buffer to the front buffer under the lock, so the draw
// callback never sees a half-rendered frame.
type memFramebuffer struct {
	w, h int
	back []byte

	mu       sync.Mutex
	front    []byte
	presents uint64
}

func newMemFramebuffer(w, h int) *memFramebuffer {
	n := w * h * 2
	return &memFramebuffer{w: w, h: h, back: make([]byte, n), front: make([]byte, n)}
}

func (f *memFramebuffer) Width() int          { return f.w }
func (f *memFramebuffer) Height() int         { return f.h }
func (f *memFramebuffer) Format() PixelFormat { return PixelFormatRGB565 }
func (f *memFramebuffer) StrideBytes() int    { return f.w * 2 }
func (f *memFramebuffer) Buffer() []byte      { return f.back }

func (f *memFramebuffer) ClearRGB(r, g, b uint8) {
	p := RGB565(r, g, b)
	if len(f.back) < 2 {
		return
	}
	f.back[0], f.back[1] = byte(p), byte(p>>8)
	for filled := 2; filled < len(f.back); filled *= 2 {
		copy(f.back[filled:], f.back[:filled])
	}
}

func (f *memFramebuffer) Present() error {
	f.mu.Lock()
	copy(f.front, f.back)
	f.presents++
	f.mu.Unlock()
	return nil
}

// latest copies the last presented frame into dst and returns the number of
// frames presented so far.
func (f *memFramebuffer) latest(dst []byte) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy(dst, f.front)
	return f.presents
}
