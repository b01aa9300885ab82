package approval

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

type Repository interface {
	// Upsert creates or flips the grant for (collection, owner, operator).
	Upsert(ctx context.Context, a *Approval) error

	// Get returns ErrNotFound when no grant was ever recorded.
	Get(ctx context.Context, collection, owner, operator common.Address) (*Approval, error)

	ListByOwner(ctx context.Context, collection, owner common.Address) ([]Approval, error)
}
