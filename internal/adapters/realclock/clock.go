// Package realclock implements ports.Clock using the time package.
package realclock

import (
	"time"

	"github.com/Momentum96/AreYouJ/internal/ports"
)

// Clock is the real system clock.
type Clock struct{}

// New creates a new real clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (c *Clock) Now() time.Time {
	return time.Now()
}

// Sleep pauses execution for the specified duration.
func (c *Clock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// After returns a channel that receives the current time after duration d.
func (c *Clock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Ensure Clock implements ports.Clock.
var _ ports.Clock = (*Clock)(nil)
