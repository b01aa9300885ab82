package mysql

import (
	"context"
	"errors"

	"loanshare/internal/domain/share"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	_ share.Ledgers = (*LedgerRepository)(nil)
	_ share.Ledger  = (*assetLedger)(nil)
)

// LedgerRepository stores every asset's balances in share_balances and its
// supply in share_supplies. Rows appear on first credit.
type LedgerRepository struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) *LedgerRepository { return &LedgerRepository{db: db} }

func (r *LedgerRepository) Ledger(asset common.Address) share.Ledger {
	return &assetLedger{db: r.db, asset: asset}
}

type assetLedger struct {
	db    *gorm.DB
	asset common.Address
}

func (l *assetLedger) Asset() common.Address { return l.asset }

func (l *assetLedger) Mint(ctx context.Context, to common.Address, amount *uint256.Int) error {
	sup, err := l.supplyRow(ctx, true)
	if err != nil {
		return err
	}
	total, overflow := new(uint256.Int).AddOverflow(sup.Total, amount)
	if overflow {
		return share.ErrOverflow
	}
	bal, err := l.balanceRow(ctx, to, true)
	if err != nil {
		return err
	}
	sup.Total = total
	bal.Amount = new(uint256.Int).Add(bal.Amount, amount)
	if err := l.db.WithContext(ctx).Save(sup).Error; err != nil {
		return err
	}
	return l.db.WithContext(ctx).Save(bal).Error
}

func (l *assetLedger) Burn(ctx context.Context, from common.Address, amount *uint256.Int) error {
	bal, err := l.balanceRow(ctx, from, true)
	if err != nil {
		return err
	}
	if bal.Amount.Lt(amount) {
		return share.ErrInsufficientBalance
	}
	sup, err := l.supplyRow(ctx, true)
	if err != nil {
		return err
	}
	bal.Amount = new(uint256.Int).Sub(bal.Amount, amount)
	sup.Total = new(uint256.Int).Sub(sup.Total, amount)
	if err := l.db.WithContext(ctx).Save(bal).Error; err != nil {
		return err
	}
	return l.db.WithContext(ctx).Save(sup).Error
}

func (l *assetLedger) Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	src, err := l.balanceRow(ctx, from, true)
	if err != nil {
		return err
	}
	if src.Amount.Lt(amount) {
		return share.ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	dst, err := l.balanceRow(ctx, to, true)
	if err != nil {
		return err
	}
	src.Amount = new(uint256.Int).Sub(src.Amount, amount)
	dst.Amount = new(uint256.Int).Add(dst.Amount, amount)
	if err := l.db.WithContext(ctx).Save(src).Error; err != nil {
		return err
	}
	return l.db.WithContext(ctx).Save(dst).Error
}

func (l *assetLedger) BalanceOf(ctx context.Context, holder common.Address) (*uint256.Int, error) {
	bal, err := l.balanceRow(ctx, holder, false)
	if err != nil {
		return nil, err
	}
	return bal.Amount, nil
}

func (l *assetLedger) TotalSupply(ctx context.Context) (*uint256.Int, error) {
	sup, err := l.supplyRow(ctx, false)
	if err != nil {
		return nil, err
	}
	return sup.Total, nil
}

// balanceRow returns the stored row, or an unsaved zero row when the holder
// was never credited.
func (l *assetLedger) balanceRow(ctx context.Context, holder common.Address, lock bool) (*share.Balance, error) {
	var out share.Balance
	err := l.query(ctx, lock).
		Where("asset = ? AND holder = ?", l.asset, holder).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &share.Balance{Asset: l.asset, Holder: holder, Amount: new(uint256.Int)}, nil
	}
	if err != nil {
		return nil, err
	}
	if out.Amount == nil {
		out.Amount = new(uint256.Int)
	}
	return &out, nil
}

func (l *assetLedger) supplyRow(ctx context.Context, lock bool) (*share.Supply, error) {
	var out share.Supply
	err := l.query(ctx, lock).Where("asset = ?", l.asset).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &share.Supply{Asset: l.asset, Total: new(uint256.Int)}, nil
	}
	if err != nil {
		return nil, err
	}
	if out.Total == nil {
		out.Total = new(uint256.Int)
	}
	return &out, nil
}

func (l *assetLedger) query(ctx context.Context, lock bool) *gorm.DB {
	q := l.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}
