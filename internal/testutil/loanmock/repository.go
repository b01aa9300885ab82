package loanmock

import (
	"context"
	domain "loanshare/internal/domain/loan"

	"github.com/ethereum/go-ethereum/common"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset lookups return domain.ErrNotFound; unset writes are no-ops.
type Repo struct {
	CreateFn                func(ctx context.Context, l *domain.Loan) error
	GetByAddressFn          func(ctx context.Context, addr common.Address) (*domain.Loan, error)
	GetByAddressForUpdateFn func(ctx context.Context, addr common.Address) (*domain.Loan, error)
	ListByBorrowerFn        func(ctx context.Context, borrower common.Address) ([]domain.Loan, error)
	SaveFn                  func(ctx context.Context, l *domain.Loan) error
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByAddress(ctx context.Context, addr common.Address) (*domain.Loan, error) {
	if m.GetByAddressFn != nil {
		return m.GetByAddressFn(ctx, addr)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByAddressForUpdate(ctx context.Context, addr common.Address) (*domain.Loan, error) {
	if m.GetByAddressForUpdateFn != nil {
		return m.GetByAddressForUpdateFn(ctx, addr)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) ListByBorrower(ctx context.Context, borrower common.Address) ([]domain.Loan, error) {
	if m.ListByBorrowerFn != nil {
		return m.ListByBorrowerFn(ctx, borrower)
	}
	return nil, nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}
