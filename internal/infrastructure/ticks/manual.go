package ticks

import (
	"context"
	"sync/atomic"

	"loanshare/internal/domain/tick"
)

var _ tick.Source = (*Manual)(nil)

// Manual is a tick source advanced explicitly, by tests or by an operator.
type Manual struct{ n atomic.Uint64 }

func NewManual(start uint64) *Manual {
	m := &Manual{}
	m.n.Store(start)
	return m
}

func (m *Manual) CurrentTick(context.Context) (uint64, error) { return m.n.Load(), nil }

func (m *Manual) Set(n uint64) { m.n.Store(n) }

// Advance moves the tick forward by d and returns the new value.
func (m *Manual) Advance(d uint64) uint64 { return m.n.Add(d) }
