package tick

import "context"

// Source reports the current logical time. Ticks never go backwards on a
// well-behaved source but callers must not rely on it.
type Source interface {
	CurrentTick(ctx context.Context) (uint64, error)
}

type SourceFunc func(ctx context.Context) (uint64, error)

func (f SourceFunc) CurrentTick(ctx context.Context) (uint64, error) { return f(ctx) }
