package ledger

import (
	"context"
	"errors"
	"fmt"

	"loanshare/internal/domain/collateral"
	"loanshare/internal/domain/event"
	"loanshare/internal/domain/share"
	"loanshare/internal/domain/uow"
	"loanshare/internal/usecase/runner"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var ErrInvalidInput = errors.New("invalid input")

// Usecase exposes the ledgers and the collateral registry to parties:
// native deposits, share balances and transfers, collateral minting.
type Usecase struct {
	run *runner.Runner
}

func NewUsecase(run *runner.Runner) *Usecase { return &Usecase{run: run} }

type BalanceDTO struct {
	Asset  common.Address `json:"asset"`
	Holder common.Address `json:"holder"`
	Amount *uint256.Int   `json:"amount"`
}

type TokenDTO struct {
	Collection common.Address `json:"collection"`
	TokenID    uint64         `json:"token_id"`
	Owner      common.Address `json:"owner"`
}

// Deposit credits holder with native funds.
func (u *Usecase) Deposit(ctx context.Context, holder common.Address, amt *uint256.Int) (*BalanceDTO, error) {
	if holder == (common.Address{}) || amt == nil || amt.IsZero() {
		return nil, ErrInvalidInput
	}
	var out *BalanceDTO
	err := u.run.Do(ctx, "ledger.deposit", func(r uow.Repos) ([]event.Event, error) {
		led := r.Ledgers.Ledger(share.NativeAsset)
		if err := led.Mint(ctx, holder, amt); err != nil {
			return nil, fmt.Errorf("deposit: %w", err)
		}
		var err error
		out, err = balance(ctx, led, holder)
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Balance reports holder's balance of asset; share.NativeAsset for funds.
func (u *Usecase) Balance(ctx context.Context, asset, holder common.Address) (*BalanceDTO, error) {
	var out *BalanceDTO
	err := u.run.View(ctx, func(r uow.Repos) error {
		var err error
		out, err = balance(ctx, r.Ledgers.Ledger(asset), holder)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Transfer moves amt of asset between holders. Loan shares reach a bundle
// this way.
func (u *Usecase) Transfer(ctx context.Context, asset, from, to common.Address, amt *uint256.Int) (*BalanceDTO, error) {
	if from == (common.Address{}) || to == (common.Address{}) || amt == nil {
		return nil, ErrInvalidInput
	}
	var out *BalanceDTO
	err := u.run.Do(ctx, "ledger.transfer", func(r uow.Repos) ([]event.Event, error) {
		led := r.Ledgers.Ledger(asset)
		if err := led.Transfer(ctx, from, to, amt); err != nil {
			return nil, err
		}
		var err error
		out, err = balance(ctx, led, from)
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) MintCollateral(ctx context.Context, item collateral.Item, to common.Address) (*TokenDTO, error) {
	if item.Collection == (common.Address{}) {
		return nil, ErrInvalidInput
	}
	err := u.run.Do(ctx, "collateral.mint", func(r uow.Repos) ([]event.Event, error) {
		return nil, r.Collateral.Mint(ctx, to, item)
	})
	if err != nil {
		return nil, err
	}
	return &TokenDTO{Collection: item.Collection, TokenID: item.TokenID, Owner: to}, nil
}

func (u *Usecase) OwnerOf(ctx context.Context, item collateral.Item) (*TokenDTO, error) {
	var out *TokenDTO
	err := u.run.View(ctx, func(r uow.Repos) error {
		owner, err := r.Collateral.OwnerOf(ctx, item)
		if err != nil {
			return err
		}
		out = &TokenDTO{Collection: item.Collection, TokenID: item.TokenID, Owner: owner}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func balance(ctx context.Context, led share.Ledger, holder common.Address) (*BalanceDTO, error) {
	amt, err := led.BalanceOf(ctx, holder)
	if err != nil {
		return nil, err
	}
	return &BalanceDTO{Asset: led.Asset(), Holder: holder, Amount: amt}, nil
}
