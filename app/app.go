// Package app wires the counter engine to the host: it delivers ticks through
// the pause gate, turns key presses into pause and modulus changes, and
// redraws the screen when a tick passes the modulus check.
package app

import (
	"time"

	"github.com/rs/zerolog"

	"powdemo/engine"
	"powdemo/fps"
	"powdemo/gate"
	"powdemo/hal"
	"powdemo/recorder"
)

//go:generate go run go.uber.org/mock/mockgen -destination "mock_sink_test.go" -package $GOPACKAGE -write_package_comment=false powdemo/app Sink

// Sink receives periodic samples.
type Sink interface {
	Record(recorder.Sample) error
}

// Config carries the shared pieces of the demo. Nil fields get defaults.
type Config struct {
	Engine *engine.Engine
	Gate   *gate.Gate
	FPS    *fps.Counter
	Sink   Sink
	Log    zerolog.Logger

	Session        string
	StatusInterval time.Duration
	Now            func() time.Time
}

// App is one running demo bound to a HAL.
type App struct {
	eng  *engine.Engine
	gate *gate.Gate
	fps  *fps.Counter
	sink Sink
	log  zerolog.Logger
	now  func() time.Time

	session        string
	statusInterval time.Duration
	lastStatus     time.Time
	lastResets     uint64

	ticks  <-chan uint64
	drops  hal.DropCounter
	events <-chan hal.KeyEvent
	view   *view

	typed  []byte
	note   string
	drawn  bool
	frames uint64
}

// New binds cfg to h.
func New(h hal.HAL, cfg Config) *App {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Engine == nil {
		cfg.Engine = engine.New(engine.Config{})
	}
	if cfg.Gate == nil {
		cfg.Gate = &gate.Gate{}
	}
	if cfg.FPS == nil {
		cfg.FPS = fps.New(cfg.Now)
	}

	a := &App{
		eng:            cfg.Engine,
		gate:           cfg.Gate,
		fps:            cfg.FPS,
		sink:           cfg.Sink,
		log:            cfg.Log,
		now:            cfg.Now,
		session:        cfg.Session,
		statusInterval: cfg.StatusInterval,
	}
	a.lastStatus = a.now()

	if h == nil {
		return a
	}
	if ht := h.Time(); ht != nil {
		a.ticks = ht.Ticks()
		a.drops, _ = ht.(hal.DropCounter)
	}
	if in := h.Input(); in != nil {
		if kbd := in.Keyboard(); kbd != nil {
			a.events = kbd.Events()
		}
	}
	if d := h.Display(); d != nil {
		a.view = newView(d.Framebuffer())
	}
	return a
}

// NewStep returns a step function for hal.RunWindow and hal.RunHeadless.
func NewStep(h hal.HAL, cfg Config) func() error {
	return New(h, cfg).Step
}

// Step runs one host frame: input, pending ticks, status and drawing.
func (a *App) Step() error {
	dirty := a.drainInput()
	if a.drainTicks() {
		dirty = true
	}
	a.checkResets()
	a.status()

	if dirty || !a.drawn {
		a.render()
	}
	return nil
}

// Frames returns how many times the screen was redrawn.
func (a *App) Frames() uint64 { return a.frames }

// drainTicks delivers every pending tick to the engine unless paused and
// reports whether any of them passed the modulus check.
func (a *App) drainTicks() bool {
	if a.ticks == nil {
		return false
	}
	gated := false
	for {
		select {
		case _, ok := <-a.ticks:
			if !ok {
				a.ticks = nil
				return gated
			}
			if a.gate.Paused() {
				continue
			}
			a.fps.Tick()
			if a.eng.Tick() {
				gated = true
			}
		default:
			return gated
		}
	}
}

func (a *App) checkResets() {
	r := a.eng.Resets()
	if r == a.lastResets {
		return
	}
	a.log.Debug().Uint64("resets", r).Int("max_bits", a.eng.MaxBits()).Msg("counter reset on width cap")
	a.lastResets = r
}

func (a *App) status() {
	if a.statusInterval <= 0 {
		return
	}
	now := a.now()
	if now.Sub(a.lastStatus) < a.statusInterval {
		return
	}
	a.lastStatus = now

	st := a.eng.Snapshot()
	s := recorder.Sample{
		Session: a.session,
		At:      now,
		Power:   st.Power.String(),
		Bits:    st.Value.BitLen(),
		Modulus: st.Modulus,
		FPS:     a.fps.Rate(),
		Paused:  a.gate.Paused(),
		Resets:  st.Resets,
	}
	ev := a.log.Info().
		Str("power", s.Power).
		Int("bits", s.Bits).
		Int("modulus", s.Modulus).
		Int("fps", s.FPS).
		Bool("paused", s.Paused)
	if a.drops != nil {
		ev = ev.Uint64("dropped_ticks", a.drops.Dropped())
	}
	ev.Msg("status")

	if a.sink == nil {
		return
	}
	if err := a.sink.Record(s); err != nil {
		a.log.Warn().Err(err).Msg("record sample")
	}
}

func (a *App) render() {
	a.drawn = true
	if a.view == nil {
		return
	}
	a.view.render(frame{
		State:  a.eng.Snapshot(),
		FPS:    a.fps.Rate(),
		Paused: a.gate.Paused(),
		Typed:  string(a.typed),
		Note:   a.note,
	})
	a.frames++
}
