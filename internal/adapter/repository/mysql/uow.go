package mysql

import (
	"context"

	"loanshare/internal/domain/loan"
	"loanshare/internal/domain/uow"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

var _ uow.UnitOfWork = (*GormUoW)(nil)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

// Repos binds every store to db, which may be a transaction.
func Repos(db *gorm.DB) uow.Repos {
	approvals := &ApprovalRepository{db: db}
	return uow.Repos{
		Loans:      &LoanRepository{db: db},
		Bundles:    &BundleRepository{db: db},
		Ledgers:    &LedgerRepository{db: db},
		Collateral: &CollateralRepository{db: db, approvals: approvals},
		Approvals:  approvals,
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repos(tx))
	})
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, addr common.Address, fn func(r uow.Repos, l *loan.Loan) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := Repos(tx)
		// lock the loan row up-front to prevent races
		l, err := r.Loans.GetByAddressForUpdate(ctx, addr)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}
