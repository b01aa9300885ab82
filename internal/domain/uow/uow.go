package uow

import (
	"context"

	"loanshare/internal/domain/approval"
	"loanshare/internal/domain/bundle"
	"loanshare/internal/domain/collateral"
	"loanshare/internal/domain/loan"
	"loanshare/internal/domain/share"

	"github.com/ethereum/go-ethereum/common"
)

// Repos is the set of stores bound to one transaction.
type Repos struct {
	Loans      loan.Repository
	Bundles    bundle.Repository
	Ledgers    share.Ledgers
	Collateral collateral.Registry
	Approvals  approval.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, addr common.Address, fn func(r Repos, l *loan.Loan) error) error
}

// Locker serialises operations across goroutines (and processes, for the
// redis implementation). unlock is always non-nil when err is nil.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
