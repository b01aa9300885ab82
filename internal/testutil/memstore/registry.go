package memstore

import (
	"context"
	"sync"

	"loanshare/internal/domain/approval"
	"loanshare/internal/domain/collateral"

	"github.com/ethereum/go-ethereum/common"
)

var (
	_ collateral.Registry = (*Registry)(nil)
	_ approval.Repository = (*Registry)(nil)
)

// Registry is an in-memory collateral registry; it also serves as the
// approval repository it reads grants from.
type Registry struct {
	mu        sync.Mutex
	owners    map[collateral.Item]common.Address
	approvals map[[3]common.Address]approval.Approval
}

func NewRegistry() *Registry {
	return &Registry{
		owners:    map[collateral.Item]common.Address{},
		approvals: map[[3]common.Address]approval.Approval{},
	}
}

func (r *Registry) Mint(_ context.Context, to common.Address, item collateral.Item) error {
	if to == (common.Address{}) {
		return collateral.ErrZeroAddress
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owners[item]; ok {
		return collateral.ErrAlreadyMinted
	}
	r.owners[item] = to
	return nil
}

func (r *Registry) OwnerOf(_ context.Context, item collateral.Item) (common.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[item]
	if !ok {
		return common.Address{}, collateral.ErrNotMinted
	}
	return owner, nil
}

func (r *Registry) TransferFrom(_ context.Context, operator, from, to common.Address, item collateral.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[item]
	if !ok {
		return collateral.ErrNotMinted
	}
	if operator != owner && !r.approvals[[3]common.Address{item.Collection, owner, operator}].Approved {
		return collateral.ErrNotAuthorized
	}
	if from != owner {
		return collateral.ErrWrongOwner
	}
	if to == (common.Address{}) {
		return collateral.ErrZeroAddress
	}
	r.owners[item] = to
	return nil
}

func (r *Registry) SetApprovalForAll(ctx context.Context, collection, owner, operator common.Address, approved bool) error {
	if owner == operator {
		return approval.ErrSelfApproval
	}
	return r.Upsert(ctx, &approval.Approval{Collection: collection, Owner: owner, Operator: operator, Approved: approved})
}

func (r *Registry) IsApprovedForAll(_ context.Context, collection, owner, operator common.Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.approvals[[3]common.Address{collection, owner, operator}].Approved, nil
}

func (r *Registry) Upsert(_ context.Context, a *approval.Approval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.approvals[[3]common.Address{a.Collection, a.Owner, a.Operator}] = *a
	return nil
}

func (r *Registry) Get(_ context.Context, collection, owner, operator common.Address) (*approval.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.approvals[[3]common.Address{collection, owner, operator}]
	if !ok {
		return nil, approval.ErrNotFound
	}
	return &a, nil
}

func (r *Registry) ListByOwner(_ context.Context, collection, owner common.Address) ([]approval.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []approval.Approval
	for k, a := range r.approvals {
		if k[0] == collection && k[1] == owner {
			out = append(out, a)
		}
	}
	return out, nil
}
