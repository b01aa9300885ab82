package ticks

import (
	"context"
	"errors"
	"time"

	"loanshare/internal/domain/tick"
)

var _ tick.Source = (*Clock)(nil)

// Clock derives ticks from wall time: one tick per Interval since Genesis.
type Clock struct {
	Genesis  time.Time
	Interval time.Duration
	now      func() time.Time
}

func NewClock(genesis time.Time, interval time.Duration) *Clock {
	return &Clock{Genesis: genesis, Interval: interval, now: time.Now}
}

func (c *Clock) CurrentTick(context.Context) (uint64, error) {
	if c.Interval <= 0 {
		return 0, errors.New("ticks: non-positive interval")
	}
	elapsed := c.now().Sub(c.Genesis)
	if elapsed < 0 {
		return 0, nil
	}
	return uint64(elapsed / c.Interval), nil
}
