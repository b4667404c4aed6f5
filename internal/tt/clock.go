package tt

import (
	"sync"
	"time"

	"github.com/gyre-ai/gyre"
)

// MockClock is a gyre.Clock whose time only moves when the test advances it.
// Use it to exercise time budgets without sleeping.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a MockClock starting at a fixed reference instant.
func NewMockClock() *MockClock {
	return &MockClock{
		now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Now implements gyre.Clock.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Compile-time check that MockClock implements gyre.Clock.
var _ gyre.Clock = (*MockClock)(nil)
