// Package settlement implements proportional claim settlement over a pool
// that holds native funds and has issued a fixed supply of shares.
package settlement

import (
	"context"
	"fmt"

	"loanshare/internal/domain/share"
	"loanshare/internal/domain/uow"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ProRata returns held * balance / supply, truncated. A zero supply yields 0.
func ProRata(held, balance, supply *uint256.Int) *uint256.Int {
	if supply.IsZero() {
		return new(uint256.Int)
	}
	// held*balance can exceed 256 bits; MulDivOverflow keeps the 512-bit
	// intermediate. The quotient fits because balance <= supply.
	out, overflow := new(uint256.Int).MulDivOverflow(held, balance, supply)
	if overflow {
		return new(uint256.Int)
	}
	return out
}

// Pool is a claimable balance: funds held by Address, split across holders
// of Shares.
type Pool struct {
	Address common.Address
	Shares  share.Ledger
	Funds   share.Ledger
}

// Claim burns the holder's whole share balance and pays out its pro-rata
// part of the held funds. The payout transfer happens strictly after the
// burn, so a payee re-entering Claim sees a zero balance.
func (p Pool) Claim(ctx context.Context, j *uow.Journal, holder common.Address) (*uint256.Int, error) {
	bal, err := p.Shares.BalanceOf(ctx, holder)
	if err != nil {
		return nil, fmt.Errorf("share balance: %w", err)
	}
	if bal.IsZero() {
		return nil, share.ErrNoShares
	}
	supply, err := p.Shares.TotalSupply(ctx)
	if err != nil {
		return nil, fmt.Errorf("share supply: %w", err)
	}
	held, err := p.Funds.BalanceOf(ctx, p.Address)
	if err != nil {
		return nil, fmt.Errorf("held balance: %w", err)
	}
	payout := ProRata(held, bal, supply)

	if err := p.Shares.Burn(ctx, holder, bal); err != nil {
		return nil, fmt.Errorf("burn shares: %w", err)
	}
	burned := bal.Clone()
	j.Record(func(ctx context.Context) error { return p.Shares.Mint(ctx, holder, burned) })

	if !payout.IsZero() {
		if err := p.Funds.Transfer(ctx, p.Address, holder, payout); err != nil {
			return nil, fmt.Errorf("pay out: %w", err)
		}
		paid := payout.Clone()
		j.Record(func(ctx context.Context) error { return p.Funds.Transfer(ctx, holder, p.Address, paid) })
	}
	return payout, nil
}
