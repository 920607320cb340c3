// Package config defines service configuration and its defaults.
package config

import (
	"fmt"
	"runtime"

	"github.com/clarkmail2001/mlb-betting-model/internal/domain/projection"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/weights"
	"github.com/clarkmail2001/mlb-betting-model/pkg/logger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the sqlite database file.
	DBPath string `koanf:"db_path"`

	// QueueSize bounds the in-memory prediction queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of prediction writers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many recent game keys are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string `koanf:"cors_origins"`

	// League-average inputs.
	LeagueWOBA        float64 `koanf:"league_woba"`
	LeagueXFIP        float64 `koanf:"league_xfip"`
	LeaguePAPerInning float64 `koanf:"league_pa_per_inning"`
	LeagueRunsPerGame float64 `koanf:"league_runs_per_game"`

	// Weights overrides model coefficients by name. Unset names keep defaults.
	Weights map[string]float64 `koanf:"weights"`
}

// New returns a Config holding the defaults.
func New() *Config {
	l := projection.DefaultLeague()
	return &Config{
		LogLevel:          "info",
		LogFormat:         logger.FormatText,
		Addr:              ":9080",
		DBPath:            "mlb.db",
		QueueSize:         1_024,
		WorkerCount:       runtime.NumCPU(),
		DedupeSize:        10_000,
		CORSOrigins:       []string{"*"},
		LeagueWOBA:        l.WOBA,
		LeagueXFIP:        l.XFIP,
		LeaguePAPerInning: l.PAPerInning,
		LeagueRunsPerGame: l.RunsPerGame,
	}
}

// League returns the league averages as an engine value.
func (c *Config) League() projection.League {
	return projection.League{
		WOBA:        c.LeagueWOBA,
		XFIP:        c.LeagueXFIP,
		PAPerInning: c.LeaguePAPerInning,
		RunsPerGame: c.LeagueRunsPerGame,
	}
}

// WeightSet merges configured overrides over the default coefficients.
func (c *Config) WeightSet() (weights.Set, error) {
	return weights.New(c.Weights)
}

// Validate checks every field and reports the first problem.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.LogFormat != logger.FormatText && c.LogFormat != logger.FormatJSON:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if err := c.League().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.WeightSet(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
