package uowmock

import (
	"context"
	"errors"

	"loanshare/internal/domain/loan"
	"loanshare/internal/domain/uow"

	"github.com/ethereum/go-ethereum/common"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn     func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLoanTxFn func(ctx context.Context, addr common.Address, fn func(r uow.Repos, l *loan.Loan) error) error
}

// Convenience fluent setters
func New() *UoW { return &UoW{} }
func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinLoanTx(fn func(context.Context, common.Address, func(uow.Repos, *loan.Loan) error) error) *UoW {
	m.WithinLoanTxFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

// WithRepos makes both methods hand out r, loading the loan from r.Loans.
func (m *UoW) WithRepos(r uow.Repos) *UoW {
	m.WithinTxFn = func(ctx context.Context, fn func(uow.Repos) error) error { return fn(r) }
	m.WithinLoanTxFn = func(ctx context.Context, addr common.Address, fn func(uow.Repos, *loan.Loan) error) error {
		l, err := r.Loans.GetByAddressForUpdate(ctx, addr)
		if err != nil {
			return err
		}
		return fn(r, l)
	}
	return m
}

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinLoanTx(ctx context.Context, addr common.Address, fn func(r uow.Repos, l *loan.Loan) error) error {
	if m.WithinLoanTxFn != nil {
		return m.WithinLoanTxFn(ctx, addr, fn)
	}
	return errUnimplemented
}
