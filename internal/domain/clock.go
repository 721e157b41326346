package domain

import (
	"sync"
	"time"
)

// Clock is the single time source of the engines.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FakeClock is a manually driven Clock for tests and seeding.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t.UTC()
	c.mu.Unlock()
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// DayBucket is the UTC calendar day of t, e.g. "20260418".
func DayBucket(t time.Time) string {
	return t.UTC().Format("20060102")
}

// Nanos converts t to unix nanoseconds, the persisted and wire time format.
func Nanos(t time.Time) int64 { return t.UnixNano() }

// FromNanos is the inverse of Nanos.
func FromNanos(ns int64) time.Time { return time.Unix(0, ns).UTC() }
