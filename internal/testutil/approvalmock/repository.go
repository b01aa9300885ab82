package approvalmock

import (
	"context"
	domain "loanshare/internal/domain/approval"

	"github.com/ethereum/go-ethereum/common"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	UpsertFn      func(ctx context.Context, a *domain.Approval) error
	GetFn         func(ctx context.Context, collection, owner, operator common.Address) (*domain.Approval, error)
	ListByOwnerFn func(ctx context.Context, collection, owner common.Address) ([]domain.Approval, error)
}

func (m *Repo) Upsert(ctx context.Context, a *domain.Approval) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, a)
	}
	return nil
}

func (m *Repo) Get(ctx context.Context, collection, owner, operator common.Address) (*domain.Approval, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, collection, owner, operator)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) ListByOwner(ctx context.Context, collection, owner common.Address) ([]domain.Approval, error) {
	if m.ListByOwnerFn != nil {
		return m.ListByOwnerFn(ctx, collection, owner)
	}
	return nil, nil
}
