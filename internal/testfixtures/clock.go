package testfixtures

import (
	"sync"
	"time"
)

// referenceTime is a Monday morning before the club opens.
var referenceTime = time.Date(2026, time.October, 19, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Clock is a controllable time source for services under test.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock starting at start, or at ReferenceTime when start
// is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = referenceTime
	}
	return &Clock{current: start}
}

// Now returns the clock's current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for injection into services.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// ClubTime builds a wall-clock instant in loc, defaulting to UTC.
func ClubTime(loc *time.Location, year int, month time.Month, day, hour, minute int) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}
