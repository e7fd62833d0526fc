package timesync

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is a wall clock corrected by the last network sync. Until the first
// sync it reports the base clock's time.
type Clock struct {
	base clockwork.Clock

	mu     sync.RWMutex
	offset time.Duration
	synced bool
}

// NewClock wraps a base clock. Pass nil to use the real clock.
func NewClock(base clockwork.Clock) *Clock {
	if base == nil {
		base = clockwork.NewRealClock()
	}
	return &Clock{base: base}
}

// Now returns the corrected wall-clock time in UTC.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.base.Now().Add(c.offset).UTC()
}

// Set records the network time observed at this instant.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = t.Sub(c.base.Now())
	c.synced = true
}

// Offset returns the current correction and whether a sync has happened.
func (c *Clock) Offset() (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset, c.synced
}
