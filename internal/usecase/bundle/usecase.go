package bundle

import (
	"context"
	"errors"
	"fmt"

	"loanshare/internal/domain/bundle"
	"loanshare/internal/domain/event"
	"loanshare/internal/domain/loan"
	"loanshare/internal/domain/tick"
	"loanshare/internal/domain/uow"
	loanuc "loanshare/internal/usecase/loan"
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

// open binds an aggregator to the stores of one transaction; member loans
// are opened as engines over the same stores.
func (u *Usecase) open(r uow.Repos, b *bundle.Bundle) *Aggregator {
	return NewAggregator(b, r.Ledgers, func(ctx context.Context, addr common.Address) (Claimer, error) {
		l, err := r.Loans.GetByAddressForUpdate(ctx, addr)
		if err != nil {
			return nil, err
		}
		return loanuc.Open(r, l, u.ticks), nil
	})
}

func (u *Usecase) Create(ctx context.Context, in CreateBundleInput) (*BundleDTO, error) {
	switch {
	case in.Creator == (common.Address{}):
		return nil, fmt.Errorf("%w: creator is required", ErrInvalidInput)
	case in.ShareSupply == nil || in.ShareSupply.IsZero():
		return nil, fmt.Errorf("%w: share supply must be positive", ErrInvalidInput)
	case len(in.Loans) == 0:
		return nil, bundle.ErrNoMembers
	}
	seen := make(map[common.Address]bool, len(in.Loans))
	members := make([]bundle.Member, 0, len(in.Loans))
	for i, addr := range in.Loans {
		if seen[addr] {
			return nil, fmt.Errorf("%w: %s", bundle.ErrDuplicateLoan, addr.Hex())
		}
		seen[addr] = true
		members = append(members, bundle.Member{Position: i, LoanAddress: addr})
	}
	b := &bundle.Bundle{
		Address:       id.NewContractAddress(in.Creator, "bundle"),
		Creator:       in.Creator,
		Name:          in.Name,
		Symbol:        in.Symbol,
		ShareDecimals: in.ShareDecimals,
		ShareSupply:   in.ShareSupply.Clone(),
		Members:       members,
	}

	var dto *BundleDTO
	err := u.run.Do(ctx, "bundle.create", func(r uow.Repos) ([]event.Event, error) {
		for _, m := range b.Members {
			if _, err := r.Loans.GetByAddress(ctx, m.LoanAddress); err != nil {
				if errors.Is(err, loan.ErrNotFound) {
					return nil, fmt.Errorf("%w: %s", bundle.ErrUnknownLoan, m.LoanAddress.Hex())
				}
				return nil, err
			}
		}
		if err := r.Bundles.Create(ctx, b); err != nil {
			return nil, fmt.Errorf("create bundle: %w", err)
		}
		agg := u.open(r, b)
		if err := agg.Issue(ctx); err != nil {
			return nil, err
		}
		var err error
		dto, err = toDTO(ctx, agg)
		return agg.TakeEvents(), err
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (u *Usecase) Get(ctx context.Context, addr common.Address) (*BundleDTO, error) {
	var dto *BundleDTO
	err := u.run.View(ctx, func(r uow.Repos) error {
		b, err := r.Bundles.GetByAddress(ctx, addr)
		if err != nil {
			return err
		}
		dto, err = toDTO(ctx, u.open(r, b))
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (u *Usecase) LoanAt(ctx context.Context, addr common.Address, i int) (*MemberDTO, error) {
	var out *MemberDTO
	err := u.run.View(ctx, func(r uow.Repos) error {
		b, err := r.Bundles.GetByAddress(ctx, addr)
		if err != nil {
			return err
		}
		loanAddr, err := u.open(r, b).LoanAt(i)
		if err != nil {
			return err
		}
		out = &MemberDTO{Index: i, Loan: loanAddr}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) ClaimFromLoan(ctx context.Context, addr, caller common.Address, i int) (*PullDTO, error) {
	var out *PullDTO
	err := u.run.Do(ctx, "bundle.pull", func(r uow.Repos) ([]event.Event, error) {
		b, err := r.Bundles.GetByAddressForUpdate(ctx, addr)
		if err != nil {
			return nil, err
		}
		agg := u.open(r, b)
		p, err := agg.ClaimFromLoan(ctx, caller, i)
		if err != nil {
			return nil, err
		}
		out = &PullDTO{Index: i, Loan: b.Members[i].LoanAddress, Amount: p}
		return agg.TakeEvents(), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ClaimFromAll commits every successful pull even when others fail; the
// returned error joins the failures.
func (u *Usecase) ClaimFromAll(ctx context.Context, addr, caller common.Address) (*PullAllDTO, error) {
	var (
		out     *PullAllDTO
		pullErr error
	)
	err := u.run.Do(ctx, "bundle.pull_all", func(r uow.Repos) ([]event.Event, error) {
		b, err := r.Bundles.GetByAddressForUpdate(ctx, addr)
		if err != nil {
			return nil, err
		}
		agg := u.open(r, b)
		pulls, total, perr := agg.ClaimFromAll(ctx, caller)
		pullErr = perr
		dto, err := toDTO(ctx, agg)
		if err != nil {
			return nil, err
		}
		out = &PullAllDTO{Bundle: dto, Total: total, Pulls: make([]PullDTO, 0, len(pulls))}
		for _, p := range pulls {
			pd := PullDTO{Index: p.Index, Loan: p.Loan, Amount: p.Amount}
			if p.Err != nil {
				pd.Error = p.Err.Error()
			}
			out.Pulls = append(out.Pulls, pd)
		}
		return agg.TakeEvents(), nil
	})
	if err != nil {
		return nil, err
	}
	return out, pullErr
}

func (u *Usecase) Claim(ctx context.Context, addr, caller common.Address) (*ClaimDTO, error) {
	var out *ClaimDTO
	err := u.run.Do(ctx, "bundle.claim", func(r uow.Repos) ([]event.Event, error) {
		b, err := r.Bundles.GetByAddressForUpdate(ctx, addr)
		if err != nil {
			return nil, err
		}
		agg := u.open(r, b)
		payout, err := agg.Claim(ctx, caller)
		if err != nil {
			return nil, err
		}
		dto, err := toDTO(ctx, agg)
		if err != nil {
			return nil, err
		}
		out = &ClaimDTO{Bundle: dto, Holder: caller, Payout: payout}
		return agg.TakeEvents(), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toDTO(ctx context.Context, a *Aggregator) (*BundleDTO, error) {
	b := a.Bundle()
	held, err := a.Held(ctx)
	if err != nil {
		return nil, err
	}
	outstanding, err := a.Outstanding(ctx)
	if err != nil {
		return nil, err
	}
	loans := make([]common.Address, len(b.Members))
	for i, m := range b.Members {
		loans[i] = m.LoanAddress
	}
	return &BundleDTO{
		Address:           b.Address,
		Creator:           b.Creator,
		Name:              b.Name,
		Symbol:            b.Symbol,
		ShareDecimals:     b.ShareDecimals,
		ShareSupply:       orZero(b.ShareSupply),
		Loans:             loans,
		Held:              held,
		OutstandingShares: outstanding,
		CreatedAt:         b.CreatedAt,
	}, nil
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
