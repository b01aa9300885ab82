package uow

import (
	"context"
	"errors"
)

// Journal records compensating actions for effects already applied so a
// failed operation can be unwound in reverse order.
type Journal struct {
	undo []func(ctx context.Context) error
}

func (j *Journal) Record(fn func(ctx context.Context) error) {
	j.undo = append(j.undo, fn)
}

func (j *Journal) Len() int { return len(j.undo) }

// Rollback runs every recorded compensation, newest first, and clears the
// journal. All compensations run even if some fail.
func (j *Journal) Rollback(ctx context.Context) error {
	var errs []error
	for i := len(j.undo) - 1; i >= 0; i-- {
		if err := j.undo[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	j.undo = nil
	return errors.Join(errs...)
}

// Commit forgets the recorded compensations.
func (j *Journal) Commit() { j.undo = nil }
