// Package runner executes state-changing operations: one global lock, one
// transaction, events published after commit.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"loanshare/internal/domain/event"
	"loanshare/internal/domain/loan"
	"loanshare/internal/domain/uow"
	"loanshare/internal/platform/logger"

	"github.com/ethereum/go-ethereum/common"
)

// LockKey guards every mutating operation. Loans, bundles and ledgers share
// balances, so a single key keeps operations strictly serial.
const LockKey = "loanshare:state"

var ErrNoUnitOfWork = errors.New("runner: unit of work not configured")

// Recorder observes operation outcomes (metrics).
type Recorder interface {
	ObserveOp(op string, err error, elapsed time.Duration)
	ObserveEvents(n int)
}

type Runner struct {
	uow    uow.UnitOfWork
	locker uow.Locker
	sink   event.Sink
	rec    Recorder
	log    *logger.Logger
	mu     sync.Mutex
}

type Option func(*Runner)

func WithLocker(l uow.Locker) Option   { return func(r *Runner) { r.locker = l } }
func WithSink(s event.Sink) Option     { return func(r *Runner) { r.sink = s } }
func WithRecorder(rec Recorder) Option { return func(r *Runner) { r.rec = rec } }
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) { r.log = l }
}

func New(tx uow.UnitOfWork, opts ...Option) *Runner {
	r := &Runner{uow: tx, log: logger.Nop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Do runs fn under the lock inside one transaction. The events fn returns
// are published only if the transaction committed.
func (r *Runner) Do(ctx context.Context, op string, fn func(repos uow.Repos) ([]event.Event, error)) error {
	if r.uow == nil {
		return ErrNoUnitOfWork
	}
	return r.locked(ctx, op, func() ([]event.Event, error) {
		var evs []event.Event
		err := r.uow.WithinTx(ctx, func(repos uow.Repos) error {
			out, err := fn(repos)
			evs = out
			return err
		})
		return evs, err
	})
}

// DoLoan is Do with the loan row loaded and locked first.
func (r *Runner) DoLoan(ctx context.Context, op string, addr common.Address, fn func(repos uow.Repos, l *loan.Loan) ([]event.Event, error)) error {
	if r.uow == nil {
		return ErrNoUnitOfWork
	}
	return r.locked(ctx, op, func() ([]event.Event, error) {
		var evs []event.Event
		err := r.uow.WithinLoanTx(ctx, addr, func(repos uow.Repos, l *loan.Loan) error {
			out, err := fn(repos, l)
			evs = out
			return err
		})
		return evs, err
	})
}

// View runs a read-only fn in a transaction without taking the lock.
func (r *Runner) View(ctx context.Context, fn func(repos uow.Repos) error) error {
	if r.uow == nil {
		return ErrNoUnitOfWork
	}
	return r.uow.WithinTx(ctx, fn)
}

func (r *Runner) locked(ctx context.Context, op string, fn func() ([]event.Event, error)) (err error) {
	start := time.Now()
	defer func() {
		if r.rec != nil {
			r.rec.ObserveOp(op, err, time.Since(start))
		}
		if err != nil {
			r.log.Debug("operation failed", "op", op, "err", err)
		}
	}()

	unlock, err := r.acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	evs, err := fn()
	unlock()
	if err != nil {
		return err
	}
	r.publish(ctx, op, evs)
	return nil
}

func (r *Runner) acquire(ctx context.Context) (func(), error) {
	if r.locker != nil {
		return r.locker.Lock(ctx, LockKey)
	}
	r.mu.Lock()
	return r.mu.Unlock, nil
}

func (r *Runner) publish(ctx context.Context, op string, evs []event.Event) {
	if len(evs) == 0 || r.sink == nil {
		return
	}
	if err := r.sink.Publish(ctx, evs...); err != nil {
		r.log.Warn("publish events", "op", op, "count", len(evs), "err", err)
		return
	}
	if r.rec != nil {
		r.rec.ObserveEvents(len(evs))
	}
}
