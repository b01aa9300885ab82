package memstore

import (
	"context"
	"sync"

	"loanshare/internal/domain/bundle"
	"loanshare/internal/domain/loan"
	"loanshare/internal/domain/uow"

	"github.com/ethereum/go-ethereum/common"
)

var (
	_ loan.Repository   = (*Loans)(nil)
	_ bundle.Repository = (*Bundles)(nil)
	_ uow.UnitOfWork    = (*Store)(nil)
)

type Loans struct {
	mu    sync.Mutex
	loans map[common.Address]*loan.Loan
	seq   uint64
}

func (r *Loans) Create(_ context.Context, l *loan.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loans == nil {
		r.loans = map[common.Address]*loan.Loan{}
	}
	r.seq++
	l.ID = r.seq
	cp := *l
	r.loans[l.Address] = &cp
	return nil
}

func (r *Loans) GetByAddress(_ context.Context, addr common.Address) (*loan.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[addr]
	if !ok {
		return nil, loan.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *Loans) GetByAddressForUpdate(ctx context.Context, addr common.Address) (*loan.Loan, error) {
	return r.GetByAddress(ctx, addr)
}

func (r *Loans) ListByBorrower(_ context.Context, borrower common.Address) ([]loan.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []loan.Loan
	for _, l := range r.loans {
		if l.Borrower == borrower {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *Loans) Save(_ context.Context, l *loan.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loans[l.Address]; !ok {
		return loan.ErrNotFound
	}
	cp := *l
	r.loans[l.Address] = &cp
	return nil
}

type Bundles struct {
	mu      sync.Mutex
	bundles map[common.Address]*bundle.Bundle
	seq     uint64
}

func (r *Bundles) Create(_ context.Context, b *bundle.Bundle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bundles == nil {
		r.bundles = map[common.Address]*bundle.Bundle{}
	}
	r.seq++
	b.ID = r.seq
	cp := *b
	cp.Members = append([]bundle.Member(nil), b.Members...)
	r.bundles[b.Address] = &cp
	return nil
}

func (r *Bundles) GetByAddress(_ context.Context, addr common.Address) (*bundle.Bundle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bundles[addr]
	if !ok {
		return nil, bundle.ErrNotFound
	}
	cp := *b
	cp.Members = append([]bundle.Member(nil), b.Members...)
	return &cp, nil
}

func (r *Bundles) GetByAddressForUpdate(ctx context.Context, addr common.Address) (*bundle.Bundle, error) {
	return r.GetByAddress(ctx, addr)
}

// Store wires every in-memory repository together and acts as a unit of
// work without rollback; callers rely on their own compensation.
type Store struct {
	Loans    *Loans
	Bundles  *Bundles
	Ledgers  *Ledgers
	Registry *Registry
}

func New() *Store {
	return &Store{
		Loans:    &Loans{},
		Bundles:  &Bundles{},
		Ledgers:  NewLedgers(),
		Registry: NewRegistry(),
	}
}

func (s *Store) Repos() uow.Repos {
	return uow.Repos{
		Loans:      s.Loans,
		Bundles:    s.Bundles,
		Ledgers:    s.Ledgers,
		Collateral: s.Registry,
		Approvals:  s.Registry,
	}
}

func (s *Store) WithinTx(_ context.Context, fn func(r uow.Repos) error) error {
	return fn(s.Repos())
}

func (s *Store) WithinLoanTx(ctx context.Context, addr common.Address, fn func(r uow.Repos, l *loan.Loan) error) error {
	l, err := s.Loans.GetByAddressForUpdate(ctx, addr)
	if err != nil {
		return err
	}
	return fn(s.Repos(), l)
}
