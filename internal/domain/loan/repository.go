package loan

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByAddress(ctx context.Context, addr common.Address) (*Loan, error)
	// GetByAddressForUpdate locks the row for the rest of the transaction.
	GetByAddressForUpdate(ctx context.Context, addr common.Address) (*Loan, error)
	ListByBorrower(ctx context.Context, borrower common.Address) ([]Loan, error)
	Save(ctx context.Context, l *Loan) error
}
