package bundle

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

type Repository interface {
	// Create stores the bundle together with its members.
	Create(ctx context.Context, b *Bundle) error
	GetByAddress(ctx context.Context, addr common.Address) (*Bundle, error)
	GetByAddressForUpdate(ctx context.Context, addr common.Address) (*Bundle, error)
}
