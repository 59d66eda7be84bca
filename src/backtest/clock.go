package backtest

import (
	"fmt"
	"time"
)

// Clock tracks simulation time. It only moves forward: each bar advances it
// to the bar's timestamp, and a regression means the feed is out of order.
type Clock struct {
	CurrentTime time.Time
	StartTime   time.Time
	EndTime     time.Time
}

func NewClock(startTime, endTime time.Time) *Clock {
	return &Clock{
		CurrentTime: startTime,
		StartTime:   startTime,
		EndTime:     endTime,
	}
}

func (c *Clock) AdvanceTo(t time.Time) error {
	if t.Before(c.CurrentTime) {
		return fmt.Errorf("clock cannot move backwards: current %s, requested %s", c.CurrentTime, t)
	}

	c.CurrentTime = t

	return nil
}

func (c *Clock) IsExpired() bool {
	return !c.CurrentTime.Before(c.EndTime)
}
