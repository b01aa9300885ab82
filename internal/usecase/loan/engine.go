package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loanshare/internal/domain/collateral"
	"loanshare/internal/domain/event"
	"loanshare/internal/domain/loan"
	"loanshare/internal/domain/share"
	"loanshare/internal/domain/tick"
	"loanshare/internal/domain/uow"
	"loanshare/internal/settlement"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Engine runs the lifecycle of one loan against its ledgers and the
// collateral registry. It mutates the *loan.Loan it was opened with; the
// caller persists it. An Engine is not safe for concurrent use.
//
// Every operation applies all of its effects or none: each effect records a
// compensation in a journal and the loan snapshot is restored on failure.
// Outgoing payments are always the last effects, after state changes and
// share burns, so a payee that calls back into the engine observes the
// post-operation state.
type Engine struct {
	l       *loan.Loan
	shares  share.Ledger
	funds   share.Ledger
	custody collateral.Custody
	ticks   tick.Source
	events  []event.Event
}

func NewEngine(l *loan.Loan, ledgers share.Ledgers, custody collateral.Custody, ticks tick.Source) *Engine {
	return &Engine{
		l:       l,
		shares:  ledgers.Ledger(l.Address),
		funds:   ledgers.Ledger(share.NativeAsset),
		custody: custody,
		ticks:   ticks,
	}
}

func (e *Engine) Loan() *loan.Loan { return e.l }

func (e *Engine) Address() common.Address { return e.l.Address }

// TakeEvents returns the events emitted so far and clears the buffer.
func (e *Engine) TakeEvents() []event.Event {
	out := e.events
	e.events = nil
	return out
}

func (e *Engine) item() collateral.Item {
	return collateral.Item{Collection: e.l.CollateralAsset, TokenID: e.l.CollateralID}
}

// Fund accepts exactly the principal from caller and mints the whole share
// supply to caller.
func (e *Engine) Fund(ctx context.Context, caller common.Address, attached *uint256.Int) error {
	if e.l.State != loan.StateCreated {
		return loan.ErrAlreadyFunded
	}
	if !attached.Eq(e.l.Principal) {
		return loan.ErrWrongAmount
	}
	return e.apply(ctx, func(j *uow.Journal) error {
		if err := e.receive(ctx, j, caller, attached); err != nil {
			return err
		}
		supply := e.l.ShareSupply.Clone()
		if err := e.shares.Mint(ctx, caller, supply); err != nil {
			return fmt.Errorf("mint shares: %w", err)
		}
		j.Record(func(ctx context.Context) error { return e.shares.Burn(ctx, caller, supply) })
		if err := e.transition(loan.StateFunded); err != nil {
			return err
		}
		e.emit(event.New(event.KindFunded, e.l.Address, caller, attached))
		return nil
	})
}

// Initiate takes custody of the collateral from the borrower and pays the
// principal out to the borrower. Anyone may call it.
func (e *Engine) Initiate(ctx context.Context, caller common.Address) error {
	switch e.l.State {
	case loan.StateCreated:
		return loan.ErrUnfunded
	case loan.StateFunded:
	default:
		return loan.ErrAlreadyInitiated
	}
	return e.apply(ctx, func(j *uow.Journal) error {
		if err := e.moveCollateral(ctx, j, e.l.Borrower, e.l.Address); err != nil {
			return err
		}
		if err := e.transition(loan.StateInitiated); err != nil {
			return err
		}
		e.emit(event.New(event.KindInitiated, e.l.Address, caller, e.l.Principal))
		return e.pay(ctx, j, e.l.Borrower, e.l.Principal)
	})
}

// Repay settles the loan with at least the repayment amount and returns the
// collateral to the borrower. Only the borrower may repay; an overpayment is
// kept.
func (e *Engine) Repay(ctx context.Context, caller common.Address, attached *uint256.Int) error {
	switch e.l.State {
	case loan.StateCreated, loan.StateFunded:
		return loan.ErrNotInitiated
	case loan.StateRepaid:
		return loan.ErrAlreadyRepaid
	case loan.StateAuctionActive:
		return loan.ErrAlreadyAuctioning
	case loan.StateAuctionEnded:
		return loan.ErrAuctionEnded
	}
	if caller != e.l.Borrower {
		return loan.ErrNotBorrower
	}
	if attached.Lt(e.l.Repayment) {
		return loan.ErrWrongAmount
	}
	return e.apply(ctx, func(j *uow.Journal) error {
		if err := e.receive(ctx, j, caller, attached); err != nil {
			return err
		}
		if err := e.transition(loan.StateRepaid); err != nil {
			return err
		}
		if err := e.moveCollateral(ctx, j, e.l.Address, e.l.Borrower); err != nil {
			return err
		}
		e.emit(event.New(event.KindRepaid, e.l.Address, caller, attached))
		return nil
	})
}

// StartAuction opens the Dutch auction once the loan expired unpaid.
func (e *Engine) StartAuction(ctx context.Context, caller common.Address) error {
	now, err := e.now(ctx)
	if err != nil {
		return err
	}
	if now < e.l.ExpiryTick {
		return loan.ErrNotEnded
	}
	switch e.l.State {
	case loan.StateRepaid:
		return loan.ErrAlreadyPaid
	case loan.StateAuctionActive, loan.StateAuctionEnded:
		return loan.ErrAlreadyAuctioning
	case loan.StateCreated, loan.StateFunded:
		return loan.ErrNotInitiated
	}
	return e.apply(ctx, func(j *uow.Journal) error {
		if err := e.transition(loan.StateAuctionActive); err != nil {
			return err
		}
		e.l.AuctionStartTick = now
		ev := event.New(event.KindAuctionStarted, e.l.Address, caller, e.l.AuctionStartPrice)
		ev.Tick = now
		e.emit(ev)
		return nil
	})
}

// Price is the current auction price.
func (e *Engine) Price(ctx context.Context) (*uint256.Int, error) {
	if !e.l.AuctionStarted() {
		return nil, loan.ErrAuctionNotStarted
	}
	now, err := e.now(ctx)
	if err != nil {
		return nil, err
	}
	return PriceAt(e.l.AuctionStartPrice, e.l.AuctionDropPerTick, e.l.AuctionStartTick, now), nil
}

// Bid buys the collateral at the current price. Anything attached above the
// price is refunded to the bidder.
func (e *Engine) Bid(ctx context.Context, caller common.Address, attached *uint256.Int) error {
	if !e.l.AuctionStarted() {
		return loan.ErrAuctionNotStarted
	}
	if e.l.State == loan.StateAuctionEnded {
		return loan.ErrAuctionEnded
	}
	now, err := e.now(ctx)
	if err != nil {
		return err
	}
	price := PriceAt(e.l.AuctionStartPrice, e.l.AuctionDropPerTick, e.l.AuctionStartTick, now)
	if attached.Lt(price) {
		return loan.ErrInsufficientBid
	}
	return e.apply(ctx, func(j *uow.Journal) error {
		if err := e.receive(ctx, j, caller, attached); err != nil {
			return err
		}
		if err := e.transition(loan.StateAuctionEnded); err != nil {
			return err
		}
		e.l.ClearingPrice = price
		e.l.Buyer = caller
		if err := e.moveCollateral(ctx, j, e.l.Address, caller); err != nil {
			return err
		}
		ev := event.New(event.KindAuctionEnded, e.l.Address, caller, price)
		ev.Tick = now
		e.emit(ev)

		excess := new(uint256.Int).Sub(attached, price)
		if excess.IsZero() {
			return nil
		}
		return e.pay(ctx, j, caller, excess)
	})
}

// Claim burns caller's shares and pays out its pro-rata part of the held
// balance.
func (e *Engine) Claim(ctx context.Context, caller common.Address) (*uint256.Int, error) {
	if !e.l.Settled() {
		return nil, loan.ErrNothingToClaim
	}
	var payout *uint256.Int
	err := e.apply(ctx, func(j *uow.Journal) error {
		p, err := e.pool().Claim(ctx, j, caller)
		if err != nil {
			return err
		}
		payout = p
		e.emit(event.New(event.KindClaimed, e.l.Address, caller, p))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// Held is the engine's balance of the native asset.
func (e *Engine) Held(ctx context.Context) (*uint256.Int, error) {
	return e.funds.BalanceOf(ctx, e.l.Address)
}

func (e *Engine) SharesOf(ctx context.Context, holder common.Address) (*uint256.Int, error) {
	return e.shares.BalanceOf(ctx, holder)
}

func (e *Engine) Outstanding(ctx context.Context) (*uint256.Int, error) {
	return e.shares.TotalSupply(ctx)
}

// Drained reports a settled loan whose shares were all claimed.
func (e *Engine) Drained(ctx context.Context) (bool, error) {
	if !e.l.Settled() {
		return false, nil
	}
	out, err := e.Outstanding(ctx)
	if err != nil {
		return false, err
	}
	return out.IsZero(), nil
}

func (e *Engine) pool() settlement.Pool {
	return settlement.Pool{Address: e.l.Address, Shares: e.shares, Funds: e.funds}
}

func (e *Engine) now(ctx context.Context) (uint64, error) {
	t, err := e.ticks.CurrentTick(ctx)
	if err != nil {
		return 0, fmt.Errorf("current tick: %w", err)
	}
	return t, nil
}

func (e *Engine) apply(ctx context.Context, fn func(j *uow.Journal) error) error {
	snap := *e.l
	mark := len(e.events)
	var j uow.Journal
	if err := fn(&j); err != nil {
		if rbErr := j.Rollback(ctx); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		*e.l = snap
		e.events = e.events[:mark]
		return err
	}
	j.Commit()
	return nil
}

func (e *Engine) transition(next loan.State) error {
	if err := e.l.Transition(next); err != nil {
		return err
	}
	e.l.StateUpdatedAt = time.Now().UTC()
	return nil
}

func (e *Engine) receive(ctx context.Context, j *uow.Journal, from common.Address, amount *uint256.Int) error {
	if err := e.funds.Transfer(ctx, from, e.l.Address, amount); err != nil {
		return fmt.Errorf("receive funds: %w", err)
	}
	amt := amount.Clone()
	j.Record(func(ctx context.Context) error { return e.funds.Transfer(ctx, e.l.Address, from, amt) })
	return nil
}

func (e *Engine) pay(ctx context.Context, j *uow.Journal, to common.Address, amount *uint256.Int) error {
	if err := e.funds.Transfer(ctx, e.l.Address, to, amount); err != nil {
		return fmt.Errorf("pay out: %w", err)
	}
	amt := amount.Clone()
	j.Record(func(ctx context.Context) error { return e.funds.Transfer(ctx, to, e.l.Address, amt) })
	return nil
}

// moveCollateral transfers custody with the engine as operator. Registry
// errors are returned unwrapped.
func (e *Engine) moveCollateral(ctx context.Context, j *uow.Journal, from, to common.Address) error {
	item := e.item()
	if err := e.custody.TransferFrom(ctx, e.l.Address, from, to, item); err != nil {
		return err
	}
	// the new holder is always authorised to move its own item back
	j.Record(func(ctx context.Context) error { return e.custody.TransferFrom(ctx, to, to, from, item) })
	return nil
}

func (e *Engine) emit(ev event.Event) { e.events = append(e.events, ev) }
