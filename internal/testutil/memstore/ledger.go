// Package memstore holds in-memory implementations of the domain stores for
// tests.
package memstore

import (
	"context"
	"sync"

	"loanshare/internal/domain/share"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var _ share.Ledgers = (*Ledgers)(nil)

// Ledgers keeps one in-memory ledger per asset.
type Ledgers struct {
	mu      sync.Mutex
	ledgers map[common.Address]*Ledger

	// OnTransfer, if set, runs after every successful transfer on any ledger,
	// outside the ledger lock. Tests use it to model payees that call back.
	OnTransfer func(ctx context.Context, asset, from, to common.Address, amount *uint256.Int)
	// FailTransfer, if set, is consulted before every transfer.
	FailTransfer func(asset, from, to common.Address) error
}

func NewLedgers() *Ledgers { return &Ledgers{ledgers: map[common.Address]*Ledger{}} }

func (l *Ledgers) Ledger(asset common.Address) share.Ledger { return l.get(asset) }

func (l *Ledgers) Native() *Ledger { return l.get(share.NativeAsset) }

func (l *Ledgers) get(asset common.Address) *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ledgers == nil {
		l.ledgers = map[common.Address]*Ledger{}
	}
	led, ok := l.ledgers[asset]
	if !ok {
		led = &Ledger{asset: asset, parent: l, balances: map[common.Address]*uint256.Int{}, supply: new(uint256.Int)}
		l.ledgers[asset] = led
	}
	return led
}

type Ledger struct {
	asset  common.Address
	parent *Ledgers

	mu       sync.Mutex
	balances map[common.Address]*uint256.Int
	supply   *uint256.Int
}

func (l *Ledger) Asset() common.Address { return l.asset }

func (l *Ledger) Mint(_ context.Context, to common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	supply, overflow := new(uint256.Int).AddOverflow(l.supply, amount)
	if overflow {
		return share.ErrOverflow
	}
	l.supply = supply
	l.balances[to] = new(uint256.Int).Add(l.balanceLocked(to), amount)
	return nil
}

func (l *Ledger) Burn(_ context.Context, from common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balanceLocked(from)
	if bal.Lt(amount) {
		return share.ErrInsufficientBalance
	}
	l.balances[from] = new(uint256.Int).Sub(bal, amount)
	l.supply = new(uint256.Int).Sub(l.supply, amount)
	return nil
}

func (l *Ledger) Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	if l.parent != nil && l.parent.FailTransfer != nil {
		if err := l.parent.FailTransfer(l.asset, from, to); err != nil {
			return err
		}
	}
	l.mu.Lock()
	bal := l.balanceLocked(from)
	if bal.Lt(amount) {
		l.mu.Unlock()
		return share.ErrInsufficientBalance
	}
	l.balances[from] = new(uint256.Int).Sub(bal, amount)
	l.balances[to] = new(uint256.Int).Add(l.balanceLocked(to), amount)
	l.mu.Unlock()

	if l.parent != nil && l.parent.OnTransfer != nil {
		l.parent.OnTransfer(ctx, l.asset, from, to, amount)
	}
	return nil
}

func (l *Ledger) BalanceOf(_ context.Context, holder common.Address) (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(holder).Clone(), nil
}

func (l *Ledger) TotalSupply(context.Context) (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.supply.Clone(), nil
}

// Balance is BalanceOf without the error, for assertions.
func (l *Ledger) Balance(holder common.Address) *uint256.Int {
	b, _ := l.BalanceOf(context.Background(), holder)
	return b
}

func (l *Ledger) balanceLocked(holder common.Address) *uint256.Int {
	if b, ok := l.balances[holder]; ok {
		return b
	}
	return new(uint256.Int)
}
