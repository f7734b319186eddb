// Package config loads runtime settings from PRELUDE_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/prelude/internal/provenance"
	"github.com/roach88/prelude/internal/replay"
	"github.com/roach88/prelude/internal/tracker"
)

// Prefix is prepended to every variable name.
const Prefix = "PRELUDE_"

// Config is the full set of tunables. Zero values are never used; every
// field has a default.
type Config struct {
	DBPath   string `env:"DB_PATH"   envDefault:"prelude.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	IdleThreshold time.Duration `env:"IDLE_THRESHOLD" envDefault:"60s"`
	IdleEdge      time.Duration `env:"IDLE_EDGE"      envDefault:"5s"`
	NavBuffer     time.Duration `env:"NAV_BUFFER"     envDefault:"1s"`
	BannerWindow  time.Duration `env:"BANNER_WINDOW"  envDefault:"3s"`
	DefaultSpeed  float64       `env:"DEFAULT_SPEED"  envDefault:"5"`

	SnapshotEverySteps int           `env:"SNAPSHOT_EVERY_STEPS" envDefault:"50"`
	SnapshotInterval   time.Duration `env:"SNAPSHOT_INTERVAL"    envDefault:"30s"`
	FlushBatchSize     int           `env:"FLUSH_BATCH_SIZE"     envDefault:"20"`
	FlushInterval      time.Duration `env:"FLUSH_INTERVAL"       envDefault:"2s"`

	CopyTTL        time.Duration `env:"COPY_TTL"         envDefault:"5m"`
	CopyMaxEntries int           `env:"COPY_MAX_ENTRIES" envDefault:"50"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns the built-in values, ignoring the process environment.
func Defaults() Config {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix, Environment: map[string]string{}}); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// Validate rejects values the components cannot run with.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("config: %sDB_PATH is empty", Prefix)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.IdleEdge*2 > c.IdleThreshold {
		return fmt.Errorf("config: idle edge %s leaves nothing to compress under threshold %s", c.IdleEdge, c.IdleThreshold)
	}
	if !isSpeed(c.DefaultSpeed) {
		return fmt.Errorf("config: default speed %v is not one of %v", c.DefaultSpeed, replay.Speeds)
	}
	for name, n := range map[string]int{
		"SNAPSHOT_EVERY_STEPS": c.SnapshotEverySteps,
		"FLUSH_BATCH_SIZE":     c.FlushBatchSize,
		"COPY_MAX_ENTRIES":     c.CopyMaxEntries,
	} {
		if n <= 0 {
			return fmt.Errorf("config: %s%s must be positive, got %d", Prefix, name, n)
		}
	}
	return nil
}

// SlogLevel maps LogLevel onto slog.
func (c Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
}

// Replay returns the timeline settings.
func (c Config) Replay() replay.Config {
	return replay.Config{
		IdleThreshold: c.IdleThreshold,
		IdleEdge:      c.IdleEdge,
		NavBuffer:     c.NavBuffer,
		BannerWindow:  c.BannerWindow,
		DefaultSpeed:  c.DefaultSpeed,
	}
}

// TrackerOptions returns the snapshot and flush policy.
func (c Config) TrackerOptions() []tracker.Option {
	return []tracker.Option{
		tracker.WithSnapshotPolicy(c.SnapshotEverySteps, c.SnapshotInterval),
		tracker.WithBatching(c.FlushBatchSize, c.FlushInterval),
	}
}

// ValidatorOptions returns the copy buffer limits.
func (c Config) ValidatorOptions() []provenance.Option {
	return []provenance.Option{
		provenance.WithTTL(c.CopyTTL),
		provenance.WithMaxEntries(c.CopyMaxEntries),
	}
}

func isSpeed(s float64) bool {
	for _, v := range replay.Speeds {
		if v == s {
			return true
		}
	}
	return false
}
