package mysql

import (
	"context"
	"errors"

	loanDomain "loanshare/internal/domain/loan"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ loanDomain.Repository = (*LoanRepository)(nil)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByAddress(ctx context.Context, addr common.Address) (*loanDomain.Loan, error) {
	return r.get(r.db.WithContext(ctx), addr)
}

func (r *LoanRepository) GetByAddressForUpdate(ctx context.Context, addr common.Address) (*loanDomain.Loan, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), addr)
}

func (r *LoanRepository) ListByBorrower(ctx context.Context, borrower common.Address) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("borrower = ?", borrower).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) get(q *gorm.DB, addr common.Address) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	err := q.Where("address = ?", addr).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loanDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
