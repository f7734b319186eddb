package testutil

import (
	"sync"
	"time"
)

// Epoch is the wall time every test clock starts at unless told otherwise.
var Epoch = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// WallClock is a manually advanced wall clock for tests.
//
// Components take a `now func() time.Time`; pass WallClock.Now so elapsed
// time is under the test's control and timestamps are reproducible.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type WallClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewWallClock creates a clock at Epoch.
func NewWallClock() *WallClock {
	return &WallClock{now: Epoch}
}

// NewWallClockAt creates a clock at the given epoch milliseconds.
func NewWallClockAt(ms int64) *WallClock {
	return &WallClock{now: time.UnixMilli(ms).UTC()}
}

// Now returns the current fake time.
func (c *WallClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// UnixMilli returns the current fake time in epoch milliseconds.
func (c *WallClock) UnixMilli() int64 {
	return c.Now().UnixMilli()
}

// Advance moves the clock forward by d.
func (c *WallClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to the given epoch milliseconds.
func (c *WallClock) Set(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.UnixMilli(ms).UTC()
}
