package bundle

import (
	"context"
	"errors"
	"fmt"

	"loanshare/internal/domain/bundle"
	"loanshare/internal/domain/event"
	"loanshare/internal/domain/share"
	"loanshare/internal/domain/uow"
	"loanshare/internal/settlement"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Claimer is the part of a loan engine a bundle pulls from.
type Claimer interface {
	Claim(ctx context.Context, claimant common.Address) (*uint256.Int, error)
	TakeEvents() []event.Event
}

// Opener resolves a member loan to its engine.
type Opener func(ctx context.Context, loan common.Address) (Claimer, error)

// Aggregator issues shares over a fixed list of loans, pulls their payouts
// into its own held balance and redistributes that balance pro rata.
type Aggregator struct {
	b      *bundle.Bundle
	shares share.Ledger
	funds  share.Ledger
	open   Opener
	events []event.Event
}

func NewAggregator(b *bundle.Bundle, ledgers share.Ledgers, open Opener) *Aggregator {
	return &Aggregator{
		b:      b,
		shares: ledgers.Ledger(b.Address),
		funds:  ledgers.Ledger(share.NativeAsset),
		open:   open,
	}
}

func (a *Aggregator) Bundle() *bundle.Bundle { return a.b }

func (a *Aggregator) TakeEvents() []event.Event {
	out := a.events
	a.events = nil
	return out
}

// Issue mints the whole share supply to the creator. It runs once, when the
// bundle is created.
func (a *Aggregator) Issue(ctx context.Context) error {
	if err := a.shares.Mint(ctx, a.b.Creator, a.b.ShareSupply); err != nil {
		return fmt.Errorf("mint bundle shares: %w", err)
	}
	a.events = append(a.events, event.New(event.KindBundleCreated, a.b.Address, a.b.Creator, a.b.ShareSupply))
	return nil
}

// LoanAt returns the member loan at index i.
func (a *Aggregator) LoanAt(i int) (common.Address, error) {
	m, err := a.b.Member(i)
	if err != nil {
		return common.Address{}, err
	}
	return m.LoanAddress, nil
}

// ClaimFromLoan claims the bundle's shares of member loan i. The payout
// lands in the bundle's held balance.
func (a *Aggregator) ClaimFromLoan(ctx context.Context, caller common.Address, i int) (*uint256.Int, error) {
	m, err := a.b.Member(i)
	if err != nil {
		return nil, err
	}
	c, err := a.open(ctx, m.LoanAddress)
	if err != nil {
		return nil, err
	}
	payout, err := c.Claim(ctx, a.b.Address)
	if err != nil {
		return nil, err
	}
	a.events = append(a.events, c.TakeEvents()...)
	pulled := event.New(event.KindBundlePulled, a.b.Address, caller, payout)
	pulled.Ref = m.LoanAddress
	a.events = append(a.events, pulled)
	return payout, nil
}

// Pull is the outcome of one member pull within ClaimFromAll.
type Pull struct {
	Index  int
	Loan   common.Address
	Amount *uint256.Int
	Err    error
}

// ClaimFromAll pulls every member in order. Pulls are independent: failed
// ones are reported in the joined error and do not undo successful ones.
func (a *Aggregator) ClaimFromAll(ctx context.Context, caller common.Address) ([]Pull, *uint256.Int, error) {
	total := new(uint256.Int)
	pulls := make([]Pull, 0, len(a.b.Members))
	var errs []error
	for i, m := range a.b.Members {
		p, err := a.ClaimFromLoan(ctx, caller, i)
		pulls = append(pulls, Pull{Index: i, Loan: m.LoanAddress, Amount: p, Err: err})
		if err != nil {
			errs = append(errs, fmt.Errorf("loan %d (%s): %w", i, m.LoanAddress.Hex(), err))
			continue
		}
		total.Add(total, p)
	}
	return pulls, total, errors.Join(errs...)
}

// Claim burns caller's bundle shares and pays out its pro-rata part of the
// held balance.
func (a *Aggregator) Claim(ctx context.Context, caller common.Address) (*uint256.Int, error) {
	held, err := a.Held(ctx)
	if err != nil {
		return nil, err
	}
	if held.IsZero() {
		return nil, bundle.ErrNothingToClaim
	}
	var j uow.Journal
	pool := settlement.Pool{Address: a.b.Address, Shares: a.shares, Funds: a.funds}
	payout, err := pool.Claim(ctx, &j, caller)
	if err != nil {
		if rbErr := j.Rollback(ctx); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return nil, err
	}
	j.Commit()
	a.events = append(a.events, event.New(event.KindClaimed, a.b.Address, caller, payout))
	return payout, nil
}

func (a *Aggregator) Held(ctx context.Context) (*uint256.Int, error) {
	return a.funds.BalanceOf(ctx, a.b.Address)
}

func (a *Aggregator) Outstanding(ctx context.Context) (*uint256.Int, error) {
	return a.shares.TotalSupply(ctx)
}

func (a *Aggregator) SharesOf(ctx context.Context, holder common.Address) (*uint256.Int, error) {
	return a.shares.BalanceOf(ctx, holder)
}
