// Package config loads demo settings from the environment, an optional .env
// file and command-line flags, in increasing order of precedence.
package config

import (
	"flag"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config is the full set of runtime settings.
type Config struct {
	Headless       bool          `env:"POWDEMO_HEADLESS" envDefault:"false"`
	Hz             int           `env:"POWDEMO_HZ" envDefault:"60"`
	Ticks          uint64        `env:"POWDEMO_TICKS" envDefault:"0"`
	Scale          int           `env:"POWDEMO_SCALE" envDefault:"2"`
	Modulus        int           `env:"POWDEMO_MODULUS" envDefault:"1"`
	MaxBits        int           `env:"POWDEMO_MAX_BITS" envDefault:"0"`
	MonitorAddr    string        `env:"POWDEMO_MONITOR_ADDR"`
	RecordPath     string        `env:"POWDEMO_RECORD_PATH"`
	StatusInterval time.Duration `env:"POWDEMO_STATUS_INTERVAL" envDefault:"1s"`
	LogLevel       string        `env:"POWDEMO_LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"POWDEMO_LOG_FORMAT" envDefault:"console"`
}

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}

// ParseEnv fills cfg from environment variables and their defaults.
func ParseEnv(cfg *Config) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	if err := env.Parse(cfg); err != nil {
		return errors.Wrap(err, "parse env")
	}
	return nil
}

// BindFlags registers flags on fs using the current cfg values as defaults.
func BindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Run without a window.")
	fs.IntVar(&cfg.Hz, "hz", cfg.Hz, "Step rate (window TPS or headless ticker).")
	fs.Uint64Var(&cfg.Ticks, "ticks", cfg.Ticks, "Stop after N steps in headless mode (0 = run forever).")
	fs.IntVar(&cfg.Scale, "scale", cfg.Scale, "Window pixel scale.")
	fs.IntVar(&cfg.Modulus, "modulus", cfg.Modulus, "Initial display modulus.")
	fs.IntVar(&cfg.MaxBits, "max-bits", cfg.MaxBits, "Reset the counter when the value would exceed this many bits (0 = unbounded).")
	fs.StringVar(&cfg.MonitorAddr, "monitor", cfg.MonitorAddr, "Serve the HTTP monitor on this address (empty = off).")
	fs.StringVar(&cfg.RecordPath, "record", cfg.RecordPath, "Record samples into this SQLite file (empty = off).")
	fs.DurationVar(&cfg.StatusInterval, "status", cfg.StatusInterval, "Status log and sample interval (0 = off).")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error.")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: console or json.")
}

// Load reads .env, the environment and then args.
func Load(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if fs == nil {
		return cfg, errors.New("flag parser is required")
	}
	if err := LoadDotEnv(".env"); err != nil {
		return cfg, err
	}
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	BindFlags(fs, &cfg)
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return cfg, errors.Wrap(err, "parse flags")
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the runners cannot use.
func (c Config) Validate() error {
	if c.Hz <= 0 {
		return errors.Errorf("hz must be positive, got %d", c.Hz)
	}
	if c.Modulus < 1 {
		return errors.Errorf("modulus must be at least 1, got %d", c.Modulus)
	}
	if c.MaxBits < 0 {
		return errors.Errorf("max-bits must not be negative, got %d", c.MaxBits)
	}
	if c.StatusInterval < 0 {
		return errors.Errorf("status interval must not be negative, got %s", c.StatusInterval)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return errors.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}
