package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/tebeka/atexit"

	"powdemo/app"
	"powdemo/engine"
	"powdemo/fps"
	"powdemo/gate"
	"powdemo/hal"
	"powdemo/internal/buildinfo"
	"powdemo/internal/config"
	"powdemo/internal/logging"
	"powdemo/monitor"
	"powdemo/recorder"
)

func main() {
	atexit.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("powdemo", flag.ContinueOnError)
	cfg, err := config.Load(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		os.Stderr.WriteString(err.Error() + "\n")
		return 2
	}

	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return 2
	}

	session := xid.New().String()
	log = log.With().Str("session", session).Logger()
	log.Info().
		Str("version", buildinfo.Short()).
		Bool("headless", cfg.Headless).
		Int("modulus", cfg.Modulus).
		Int("max_bits", cfg.MaxBits).
		Msg("starting")

	eng := engine.New(engine.Config{Modulus: cfg.Modulus, MaxBits: cfg.MaxBits})
	g := &gate.Gate{}
	counter := fps.New(nil)

	appCfg := app.Config{
		Engine:         eng,
		Gate:           g,
		FPS:            counter,
		Log:            log,
		Session:        session,
		StatusInterval: cfg.StatusInterval,
	}

	if cfg.RecordPath != "" {
		rec, err := recorder.Open(cfg.RecordPath)
		if err != nil {
			log.Error().Err(err).Str("path", cfg.RecordPath).Msg("open recording")
			return 1
		}
		defer closeRecorder(log, rec)
		appCfg.Sink = rec
		log.Info().Str("path", cfg.RecordPath).Msg("recording samples")
	}

	if cfg.MonitorAddr != "" {
		mon := monitor.New(eng, g, counter, session, log)
		if _, err := mon.Start(cfg.MonitorAddr); err != nil {
			log.Error().Err(err).Msg("start monitor")
			return 1
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := mon.Shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("stop monitor")
			}
		}()
	}

	newApp := func(h hal.HAL) func() error {
		return app.NewStep(h, appCfg)
	}

	if cfg.Headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = hal.RunHeadless(ctx, newApp, hal.HeadlessConfig{
			Width:  hal.DefaultWidth,
			Height: hal.DefaultHeight,
			Hz:     cfg.Hz,
			Ticks:  cfg.Ticks,
		})
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	} else {
		err = hal.RunWindow(hal.WindowConfig{
			Width:  hal.DefaultWidth,
			Height: hal.DefaultHeight,
			Title:  "powdemo (" + buildinfo.Short() + ")",
			Scale:  cfg.Scale,
			TPS:    cfg.Hz,
		}, newApp)
	}
	if err != nil {
		log.Error().Err(err).Msg("run")
		return 1
	}

	st := eng.Snapshot()
	log.Info().Str("power", st.Power.String()).Uint64("resets", st.Resets).Msg("stopped")
	return 0
}

func closeRecorder(log zerolog.Logger, rec *recorder.Recorder) {
	if err := rec.Close(); err != nil {
		log.Warn().Err(err).Msg("close recording")
	}
}
