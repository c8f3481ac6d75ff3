package testfixtures

import (
	"sync"
	"time"

	"github.com/example/teamboard/internal/application"
)

// Clock is a manually driven time source. Calendar helpers resolve dates in
// the clock's location, UTC unless changed with WithLocation.
type Clock struct {
	mu  sync.RWMutex
	at  time.Time
	loc *time.Location
}

// NewClock starts the clock at start, or at ReferenceTime for the zero value.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{at: start, loc: time.UTC}
}

// WithLocation changes the zone used by Date and Today and returns the clock.
func (c *Clock) WithLocation(loc *time.Location) *Clock {
	c.mu.Lock()
	defer c.mu.Unlock()
	if loc != nil {
		c.loc = loc
	}
	return c
}

func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.at
}

// NowFunc is Now as an injectable func. A nil clock yields time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = t
}

// Advance moves the clock by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
	return c.at
}

// AdvanceDays moves the clock by whole calendar days.
func (c *Clock) AdvanceDays(days int) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.AddDate(0, 0, days)
	return c.at
}

// Date is the DateLayout date days away from the clock's current day.
func (c *Clock) Date(days int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.at.In(c.loc).AddDate(0, 0, days).Format(application.DateLayout)
}

// Today is Date(0).
func (c *Clock) Today() string {
	return c.Date(0)
}
