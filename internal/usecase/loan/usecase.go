package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loanshare/internal/domain/event"
	"loanshare/internal/domain/loan"
	"loanshare/internal/domain/tick"
	"loanshare/internal/domain/uow"
	"loanshare/internal/usecase/runner"
	"loanshare/pkg/id"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var ErrInvalidInput = errors.New("invalid input")

type Usecase struct {
	run   *runner.Runner
	ticks tick.Source
}

func NewUsecase(run *runner.Runner, ticks tick.Source) *Usecase {
	return &Usecase{run: run, ticks: ticks}
}

// Open builds an engine over the stores of one transaction.
func Open(r uow.Repos, l *loan.Loan, ticks tick.Source) *Engine {
	return NewEngine(l, r.Ledgers, r.Collateral, ticks)
}

func (u *Usecase) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	l := &loan.Loan{
		Address:            id.NewContractAddress(in.Creator, "loan"),
		Creator:            in.Creator,
		Name:               in.Name,
		Symbol:             in.Symbol,
		ShareDecimals:      in.ShareDecimals,
		ShareSupply:        in.ShareSupply.Clone(),
		CollateralAsset:    in.CollateralAsset,
		CollateralID:       in.CollateralID,
		ExpiryTick:         in.ExpiryTick,
		Borrower:           in.Borrower,
		Principal:          in.Principal.Clone(),
		Repayment:          orZero(in.Repayment),
		AuctionStartPrice:  orZero(in.AuctionStartPrice),
		AuctionDropPerTick: orZero(in.AuctionDropPerTick),
		State:              loan.StateCreated,
		ClearingPrice:      new(uint256.Int),
		StateUpdatedAt:     time.Now().UTC(),
	}
	var dto *LoanDTO
	err := u.run.Do(ctx, "loan.create", func(r uow.Repos) ([]event.Event, error) {
		if err := r.Loans.Create(ctx, l); err != nil {
			return nil, fmt.Errorf("create loan: %w", err)
		}
		var err error
		dto, err = toDTO(ctx, Open(r, l, u.ticks))
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (u *Usecase) Get(ctx context.Context, addr common.Address) (*LoanDTO, error) {
	var dto *LoanDTO
	err := u.run.View(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByAddress(ctx, addr)
		if err != nil {
			return err
		}
		dto, err = toDTO(ctx, Open(r, l, u.ticks))
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (u *Usecase) ListByBorrower(ctx context.Context, borrower common.Address) ([]LoanDTO, error) {
	var out []LoanDTO
	err := u.run.View(ctx, func(r uow.Repos) error {
		loans, err := r.Loans.ListByBorrower(ctx, borrower)
		if err != nil {
			return err
		}
		out = make([]LoanDTO, 0, len(loans))
		for i := range loans {
			dto, err := toDTO(ctx, Open(r, &loans[i], u.ticks))
			if err != nil {
				return err
			}
			out = append(out, *dto)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) Fund(ctx context.Context, addr, caller common.Address, attached *uint256.Int) (*LoanDTO, error) {
	return u.mutate(ctx, "loan.fund", addr, func(e *Engine) error { return e.Fund(ctx, caller, attached) })
}

func (u *Usecase) Initiate(ctx context.Context, addr, caller common.Address) (*LoanDTO, error) {
	return u.mutate(ctx, "loan.initiate", addr, func(e *Engine) error { return e.Initiate(ctx, caller) })
}

func (u *Usecase) Repay(ctx context.Context, addr, caller common.Address, attached *uint256.Int) (*LoanDTO, error) {
	return u.mutate(ctx, "loan.repay", addr, func(e *Engine) error { return e.Repay(ctx, caller, attached) })
}

func (u *Usecase) StartAuction(ctx context.Context, addr, caller common.Address) (*LoanDTO, error) {
	return u.mutate(ctx, "loan.start_auction", addr, func(e *Engine) error { return e.StartAuction(ctx, caller) })
}

func (u *Usecase) Bid(ctx context.Context, addr, caller common.Address, attached *uint256.Int) (*LoanDTO, error) {
	return u.mutate(ctx, "loan.bid", addr, func(e *Engine) error { return e.Bid(ctx, caller, attached) })
}

func (u *Usecase) Claim(ctx context.Context, addr, caller common.Address) (*ClaimDTO, error) {
	var payout *uint256.Int
	dto, err := u.mutate(ctx, "loan.claim", addr, func(e *Engine) error {
		p, err := e.Claim(ctx, caller)
		payout = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ClaimDTO{Loan: dto, Holder: caller, Payout: payout}, nil
}

func (u *Usecase) Price(ctx context.Context, addr common.Address) (*PriceDTO, error) {
	var out *PriceDTO
	err := u.run.View(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByAddress(ctx, addr)
		if err != nil {
			return err
		}
		if !l.AuctionStarted() {
			return loan.ErrAuctionNotStarted
		}
		now, err := u.ticks.CurrentTick(ctx)
		if err != nil {
			return fmt.Errorf("current tick: %w", err)
		}
		out = &PriceDTO{
			Address:   l.Address,
			Tick:      now,
			StartTick: l.AuctionStartTick,
			Price:     PriceAt(l.AuctionStartPrice, l.AuctionDropPerTick, l.AuctionStartTick, now),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) mutate(ctx context.Context, op string, addr common.Address, fn func(e *Engine) error) (*LoanDTO, error) {
	var dto *LoanDTO
	err := u.run.DoLoan(ctx, op, addr, func(r uow.Repos, l *loan.Loan) ([]event.Event, error) {
		e := Open(r, l, u.ticks)
		if err := fn(e); err != nil {
			return nil, err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return nil, fmt.Errorf("save loan: %w", err)
		}
		var err error
		dto, err = toDTO(ctx, e)
		return e.TakeEvents(), err
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func validateCreate(in CreateLoanInput) error {
	switch {
	case in.Creator == (common.Address{}):
		return fmt.Errorf("%w: creator is required", ErrInvalidInput)
	case in.Borrower == (common.Address{}):
		return fmt.Errorf("%w: borrower is required", ErrInvalidInput)
	case in.CollateralAsset == (common.Address{}):
		return fmt.Errorf("%w: collateral asset is required", ErrInvalidInput)
	case in.ShareSupply == nil || in.ShareSupply.IsZero():
		return fmt.Errorf("%w: share supply must be positive", ErrInvalidInput)
	case in.Principal == nil || in.Principal.IsZero():
		return fmt.Errorf("%w: principal must be positive", ErrInvalidInput)
	}
	return nil
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}

func toDTO(ctx context.Context, e *Engine) (*LoanDTO, error) {
	l := e.Loan()
	held, err := e.Held(ctx)
	if err != nil {
		return nil, err
	}
	outstanding, err := e.Outstanding(ctx)
	if err != nil {
		return nil, err
	}
	return &LoanDTO{
		Address:            l.Address,
		Creator:            l.Creator,
		Name:               l.Name,
		Symbol:             l.Symbol,
		ShareDecimals:      l.ShareDecimals,
		ShareSupply:        l.ShareSupply,
		CollateralAsset:    l.CollateralAsset,
		CollateralID:       l.CollateralID,
		ExpiryTick:         l.ExpiryTick,
		Borrower:           l.Borrower,
		Principal:          l.Principal,
		Repayment:          l.Repayment,
		AuctionStartPrice:  l.AuctionStartPrice,
		AuctionDropPerTick: l.AuctionDropPerTick,
		State:              string(l.State),
		AuctionStartTick:   l.AuctionStartTick,
		ClearingPrice:      l.ClearingPrice,
		Buyer:              l.Buyer,
		Held:               held,
		OutstandingShares:  outstanding,
		Drained:            l.Settled() && outstanding.IsZero(),
		StateUpdatedAt:     l.StateUpdatedAt,
		CreatedAt:          l.CreatedAt,
	}, nil
}
