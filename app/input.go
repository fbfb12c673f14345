package app

import (
	"powdemo/engine"
	"powdemo/hal"
)

const maxTyped = 6

// drainInput applies every pending key event and reports whether anything
// visible changed.
func (a *App) drainInput() bool {
	if a.events == nil {
		return false
	}
	dirty := false
	for {
		select {
		case ev, ok := <-a.events:
			if !ok {
				a.events = nil
				return dirty
			}
			if a.handleKey(ev) {
				dirty = true
			}
		default:
			return dirty
		}
	}
}

func (a *App) handleKey(ev hal.KeyEvent) bool {
	if !ev.Press {
		return false
	}

	switch ev.Code {
	case hal.KeyLeft, hal.KeyDown:
		return a.stepModulus(-1)
	case hal.KeyRight, hal.KeyUp:
		return a.stepModulus(+1)
	case hal.KeyHome:
		return a.setModulus(engine.MinModulus)
	case hal.KeyEnd:
		return a.setModulus(engine.MaxModulus)
	case hal.KeyEnter:
		return a.applyTyped()
	case hal.KeyBackspace:
		if len(a.typed) == 0 {
			return false
		}
		a.typed = a.typed[:len(a.typed)-1]
		return true
	case hal.KeyEscape:
		if len(a.typed) == 0 && a.note == "" {
			return false
		}
		a.typed = a.typed[:0]
		a.note = ""
		return true
	}

	switch r := ev.Rune; {
	case r == ' ' || r == 'p' || r == 'P':
		paused := a.gate.Toggle()
		a.log.Info().Bool("paused", paused).Msg("pause toggled")
		return true
	case r == '+' || r == '=':
		return a.stepModulus(+1)
	case r == '-' || r == '_':
		return a.stepModulus(-1)
	case r >= '0' && r <= '9':
		if len(a.typed) >= maxTyped {
			return false
		}
		a.typed = append(a.typed, byte(r))
		return true
	}
	return false
}

func (a *App) stepModulus(delta int) bool {
	return a.setModulus(engine.ClampModulus(a.eng.Modulus() + delta))
}

// setModulus changes the modulus from the keyboard. The keyboard stands in
// for the slider, so callers clamp to the slider range first.
func (a *App) setModulus(n int) bool {
	if n == a.eng.Modulus() {
		return false
	}
	if err := a.eng.SetModulus(n); err != nil {
		a.note = err.Error()
		a.log.Warn().Err(err).Msg("set modulus")
		return true
	}
	a.note = ""
	a.log.Info().Int("modulus", n).Msg("modulus changed")
	return true
}

func (a *App) applyTyped() bool {
	if len(a.typed) == 0 {
		return false
	}
	text := string(a.typed)
	a.typed = a.typed[:0]

	n, err := engine.ParseModulus(text)
	if err != nil {
		a.note = err.Error()
		a.log.Warn().Err(err).Str("input", text).Msg("rejected modulus")
		return true
	}
	if c := engine.ClampModulus(n); c != n {
		a.log.Info().Int("input", n).Int("modulus", c).Msg("modulus clamped to slider range")
		n = c
	}
	a.setModulus(n)
	return true
}
