package bundlemock

import (
	"context"
	domain "loanshare/internal/domain/bundle"

	"github.com/ethereum/go-ethereum/common"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn                func(ctx context.Context, b *domain.Bundle) error
	GetByAddressFn          func(ctx context.Context, addr common.Address) (*domain.Bundle, error)
	GetByAddressForUpdateFn func(ctx context.Context, addr common.Address) (*domain.Bundle, error)
}

func (m *Repo) Create(ctx context.Context, b *domain.Bundle) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, b)
	}
	return nil
}

func (m *Repo) GetByAddress(ctx context.Context, addr common.Address) (*domain.Bundle, error) {
	if m.GetByAddressFn != nil {
		return m.GetByAddressFn(ctx, addr)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByAddressForUpdate(ctx context.Context, addr common.Address) (*domain.Bundle, error) {
	if m.GetByAddressForUpdateFn != nil {
		return m.GetByAddressForUpdateFn(ctx, addr)
	}
	return nil, domain.ErrNotFound
}
