package clock

import "time"

// FakeClock is a manually advanced Clock for tests. Cost stamping and
// rollup date math both key off Now, so tests pin it to a fixed UTC
// instant and move it forward explicitly.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d. Not safe for concurrent use
// with readers; advance before handing the clock to goroutines.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
