package replay

import "time"

// Defaults for the time axis and navigation.
const (
	DefaultIdleThreshold = 60 * time.Second
	DefaultIdleEdge      = 5 * time.Second
	DefaultNavBuffer     = time.Second
	DefaultBannerWindow  = 3 * time.Second
	DefaultSpeed         = 5.0
)

// Speeds are the selectable playback multipliers.
var Speeds = []float64{0.5, 1, 2, 5, 10}

// Config holds the tunables that shape the timeline. Tests depend on these
// values directly, so they are never inlined as literals.
type Config struct {
	IdleThreshold time.Duration // gaps strictly longer than this are idle
	IdleEdge      time.Duration // real time kept visible at each end of an idle gap
	NavBuffer     time.Duration // Prev skips events this close to the cursor, scaled by speed
	BannerWindow  time.Duration // how long a paste/submission banner stays up
	DefaultSpeed  float64
}

// DefaultConfig returns the standard replay settings.
func DefaultConfig() Config {
	return Config{
		IdleThreshold: DefaultIdleThreshold,
		IdleEdge:      DefaultIdleEdge,
		NavBuffer:     DefaultNavBuffer,
		BannerWindow:  DefaultBannerWindow,
		DefaultSpeed:  DefaultSpeed,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.IdleThreshold <= 0 {
		c.IdleThreshold = d.IdleThreshold
	}
	if c.IdleEdge <= 0 {
		c.IdleEdge = d.IdleEdge
	}
	if c.NavBuffer <= 0 {
		c.NavBuffer = d.NavBuffer
	}
	if c.BannerWindow <= 0 {
		c.BannerWindow = d.BannerWindow
	}
	if !validSpeed(c.DefaultSpeed) {
		c.DefaultSpeed = d.DefaultSpeed
	}
	return c
}
