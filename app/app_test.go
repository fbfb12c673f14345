package app

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"powdemo/engine"
	"powdemo/gate"
	"powdemo/hal"
	"powdemo/recorder"
)

type testFB struct {
	w, h     int
	buf      []byte
	presents int
}

func newTestFB(w, h int) *testFB {
	return &testFB{w: w, h: h, buf: make([]byte, w*h*2)}
}

func (f *testFB) Width() int              { return f.w }
func (f *testFB) Height() int             { return f.h }
func (f *testFB) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *testFB) StrideBytes() int        { return f.w * 2 }
func (f *testFB) Buffer() []byte          { return f.buf }
func (f *testFB) Present() error          { f.presents++; return nil }
func (f *testFB) ClearRGB(r, g, b uint8) {
	p := hal.RGB565(r, g, b)
	for i := 0; i+1 < len(f.buf); i += 2 {
		f.buf[i] = byte(p)
		f.buf[i+1] = byte(p >> 8)
	}
}

type testHAL struct {
	fb      *testFB
	keys    chan hal.KeyEvent
	ticks   chan uint64
	dropped uint64
}

func newTestHAL() *testHAL {
	return &testHAL{
		fb:    newTestFB(hal.DefaultWidth, hal.DefaultHeight),
		keys:  make(chan hal.KeyEvent, 64),
		ticks: make(chan uint64, 1024),
	}
}

func (h *testHAL) Display() hal.Display { return h }
func (h *testHAL) Input() hal.Input     { return h }
func (h *testHAL) Time() hal.Time       { return h }

func (h *testHAL) Framebuffer() hal.Framebuffer { return h.fb }
func (h *testHAL) Keyboard() hal.Keyboard       { return h }
func (h *testHAL) Events() <-chan hal.KeyEvent  { return h.keys }
func (h *testHAL) Ticks() <-chan uint64         { return h.ticks }
func (h *testHAL) Dropped() uint64              { return h.dropped }

func (h *testHAL) pushTicks(n int) {
	for i := 0; i < n; i++ {
		h.ticks <- uint64(i + 1)
	}
}

func (h *testHAL) press(r rune) {
	h.keys <- hal.KeyEvent{Press: true, Rune: r}
}

func (h *testHAL) pressKey(code hal.KeyCode) {
	h.keys <- hal.KeyEvent{Code: code, Press: true}
}

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

func newTestApp(t *testing.T, modulus int) (*App, *testHAL, *testClock) {
	t.Helper()
	h := newTestHAL()
	clk := &testClock{t: time.Unix(1700000000, 0)}
	a := New(h, Config{
		Engine: engine.New(engine.Config{Modulus: modulus}),
		Gate:   &gate.Gate{},
		Log:    zerolog.Nop(),
		Now:    clk.now,
	})
	require.NotNil(t, a.view, "view should initialise on the default framebuffer")
	return a, h, clk
}

func TestStepDeliversTicks(t *testing.T) {
	a, h, _ := newTestApp(t, 1)

	h.pushTicks(5)
	require.NoError(t, a.Step())

	st := a.eng.Snapshot()
	assert.Equal(t, int64(6), st.Power.Int64())
	assert.Equal(t, int64(32), st.Value.Int64())
	assert.Equal(t, 5, a.fps.Rate())
	assert.Empty(t, h.ticks)
}

func TestStepPausedDiscardsTicks(t *testing.T) {
	a, h, _ := newTestApp(t, 1)
	a.gate.Pause()

	h.pushTicks(5)
	require.NoError(t, a.Step())

	st := a.eng.Snapshot()
	assert.Equal(t, int64(1), st.Power.Int64())
	assert.Equal(t, 0, a.fps.Rate())
	assert.Empty(t, h.ticks)

	a.gate.Resume()
	h.pushTicks(2)
	require.NoError(t, a.Step())
	assert.Equal(t, int64(3), a.eng.Snapshot().Power.Int64())
}

func TestRenderOnlyWhenGated(t *testing.T) {
	a, h, _ := newTestApp(t, 3)

	require.NoError(t, a.Step())
	assert.Equal(t, uint64(1), a.Frames(), "first step draws")
	assert.Equal(t, 1, h.fb.presents)

	h.pushTicks(1) // power 2
	require.NoError(t, a.Step())
	assert.Equal(t, uint64(1), a.Frames())

	h.pushTicks(1) // power 3
	require.NoError(t, a.Step())
	assert.Equal(t, uint64(2), a.Frames())
	assert.Equal(t, 2, h.fb.presents)

	require.NoError(t, a.Step())
	assert.Equal(t, uint64(2), a.Frames(), "idle step does not draw")
}

func TestRenderWritesPixels(t *testing.T) {
	a, h, _ := newTestApp(t, 1)
	require.NoError(t, a.Step())

	bg := hal.RGB565(colorBG.R, colorBG.G, colorBG.B)
	differs := 0
	for i := 0; i+1 < len(h.fb.buf); i += 2 {
		if uint16(h.fb.buf[i])|uint16(h.fb.buf[i+1])<<8 != bg {
			differs++
		}
	}
	assert.Positive(t, differs)
}

func TestSpaceTogglesPause(t *testing.T) {
	a, h, _ := newTestApp(t, 1)
	require.NoError(t, a.Step())

	h.press(' ')
	require.NoError(t, a.Step())
	assert.True(t, a.gate.Paused())
	assert.Equal(t, uint64(2), a.Frames(), "pausing redraws")

	h.press('p')
	require.NoError(t, a.Step())
	assert.False(t, a.gate.Paused())
}

func TestKeyReleaseIgnored(t *testing.T) {
	a, h, _ := newTestApp(t, 1)

	h.keys <- hal.KeyEvent{Rune: ' ', Press: false}
	h.keys <- hal.KeyEvent{Code: hal.KeyRight, Press: false}
	require.NoError(t, a.Step())

	assert.False(t, a.gate.Paused())
	assert.Equal(t, 1, a.eng.Modulus())
}

func TestTypedModulus(t *testing.T) {
	a, h, _ := newTestApp(t, 1)

	h.press('1')
	h.press('2')
	h.pressKey(hal.KeyEnter)
	require.NoError(t, a.Step())

	assert.Equal(t, 12, a.eng.Modulus())
	assert.Empty(t, a.typed)
	assert.Empty(t, a.note)
}

func TestTypedModulusRejectsZero(t *testing.T) {
	a, h, _ := newTestApp(t, 7)

	h.press('0')
	h.pressKey(hal.KeyEnter)
	require.NoError(t, a.Step())

	assert.Equal(t, 7, a.eng.Modulus())
	assert.NotEmpty(t, a.note)

	h.pressKey(hal.KeyEscape)
	require.NoError(t, a.Step())
	assert.Empty(t, a.note)

	h.pushTicks(3)
	assert.NotPanics(t, func() { _ = a.Step() })
}

func TestTypedModulusClampsToSlider(t *testing.T) {
	a, h, _ := newTestApp(t, 1)

	for _, r := range "9999" {
		h.press(r)
	}
	h.pressKey(hal.KeyEnter)
	require.NoError(t, a.Step())

	assert.Equal(t, engine.MaxModulus, a.eng.Modulus())
}

func TestTypedBufferEditing(t *testing.T) {
	a, h, _ := newTestApp(t, 1)

	for _, r := range "1234567" {
		h.press(r)
	}
	require.NoError(t, a.Step())
	assert.Equal(t, "123456", string(a.typed))

	h.pressKey(hal.KeyBackspace)
	h.pressKey(hal.KeyBackspace)
	require.NoError(t, a.Step())
	assert.Equal(t, "1234", string(a.typed))

	h.pressKey(hal.KeyEscape)
	require.NoError(t, a.Step())
	assert.Empty(t, a.typed)
}

func TestArrowKeysFollowSliderRange(t *testing.T) {
	a, h, _ := newTestApp(t, 1)

	h.pressKey(hal.KeyRight)
	require.NoError(t, a.Step())
	assert.Equal(t, 2, a.eng.Modulus())

	h.pressKey(hal.KeyLeft)
	h.pressKey(hal.KeyDown)
	require.NoError(t, a.Step())
	assert.Equal(t, 1, a.eng.Modulus())

	h.pressKey(hal.KeyEnd)
	h.pressKey(hal.KeyUp)
	h.press('+')
	require.NoError(t, a.Step())
	assert.Equal(t, engine.MaxModulus, a.eng.Modulus())

	h.press('-')
	require.NoError(t, a.Step())
	assert.Equal(t, engine.MaxModulus-1, a.eng.Modulus())

	h.pressKey(hal.KeyHome)
	require.NoError(t, a.Step())
	assert.Equal(t, engine.MinModulus, a.eng.Modulus())
}

func TestModulusChangeKeepsValue(t *testing.T) {
	a, h, _ := newTestApp(t, 1)
	h.pushTicks(4)
	require.NoError(t, a.Step())
	before := a.eng.Snapshot()

	h.pressKey(hal.KeyEnd)
	require.NoError(t, a.Step())

	after := a.eng.Snapshot()
	assert.Zero(t, before.Value.Cmp(after.Value))
	assert.Zero(t, before.Power.Cmp(after.Power))
}

func TestStatusRecordsSample(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)

	h := newTestHAL()
	clk := &testClock{t: time.Unix(1700000000, 0)}
	a := New(h, Config{
		Engine:         engine.New(engine.Config{Modulus: 1}),
		Sink:           sink,
		Log:            zerolog.Nop(),
		Session:        "abc",
		StatusInterval: time.Second,
		Now:            clk.now,
	})

	require.NoError(t, a.Step())

	clk.t = clk.t.Add(time.Second)
	h.pushTicks(3)
	sink.EXPECT().Record(gomock.Any()).DoAndReturn(func(s recorder.Sample) error {
		assert.Equal(t, "abc", s.Session)
		assert.Equal(t, "4", s.Power)
		assert.Equal(t, 4, s.Bits)
		assert.Equal(t, 1, s.Modulus)
		assert.Equal(t, 3, s.FPS)
		assert.False(t, s.Paused)
		assert.True(t, s.At.Equal(clk.t))
		return nil
	})
	require.NoError(t, a.Step())

	// Not due again yet.
	clk.t = clk.t.Add(500 * time.Millisecond)
	require.NoError(t, a.Step())
}

func TestStatusSinkErrorIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)

	clk := &testClock{t: time.Unix(1700000000, 0)}
	a := New(newTestHAL(), Config{
		Sink:           sink,
		Log:            zerolog.Nop(),
		StatusInterval: time.Second,
		Now:            clk.now,
	})

	clk.t = clk.t.Add(2 * time.Second)
	sink.EXPECT().Record(gomock.Any()).Return(errors.New("disk full"))
	assert.NoError(t, a.Step())
}

func TestStatusLogsDroppedTicks(t *testing.T) {
	var buf bytes.Buffer
	h := newTestHAL()
	h.dropped = 7
	clk := &testClock{t: time.Unix(1700000000, 0)}
	a := New(h, Config{
		Log:            zerolog.New(&buf),
		StatusInterval: time.Second,
		Now:            clk.now,
	})

	clk.t = clk.t.Add(time.Second)
	require.NoError(t, a.Step())

	assert.Contains(t, buf.String(), `"message":"status"`)
	assert.Contains(t, buf.String(), `"dropped_ticks":7`)
}

func TestStatusDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)

	clk := &testClock{t: time.Unix(1700000000, 0)}
	a := New(newTestHAL(), Config{Sink: sink, Log: zerolog.Nop(), Now: clk.now})

	clk.t = clk.t.Add(time.Hour)
	assert.NoError(t, a.Step())
}

func TestNewWithoutHAL(t *testing.T) {
	a := New(nil, Config{Log: zerolog.Nop()})
	assert.NoError(t, a.Step())
	assert.Equal(t, uint64(0), a.Frames())
}

func TestNewStep(t *testing.T) {
	h := newTestHAL()
	step := NewStep(h, Config{Log: zerolog.Nop()})
	h.pushTicks(2)
	require.NoError(t, step())
	assert.Empty(t, h.ticks)
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"abc", "def", "g"}, wrap("abcdefg", 3))
	assert.Equal(t, []string{"lower is", "smoother"}, wrap("lower is smoother", 10))
	assert.Nil(t, wrap("", 4))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
}
