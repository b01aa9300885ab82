// Package mysql holds the gorm-backed stores. Column types are portable, so
// the same models also run on postgres and sqlite.
package mysql

import (
	"loanshare/internal/domain/approval"
	"loanshare/internal/domain/bundle"
	"loanshare/internal/domain/collateral"
	"loanshare/internal/domain/loan"
	"loanshare/internal/domain/share"
)

// Models lists every persisted type, in migration order.
func Models() []any {
	return []any{
		&loan.Loan{},
		&bundle.Bundle{},
		&bundle.Member{},
		&share.Balance{},
		&share.Supply{},
		&collateral.Token{},
		&approval.Approval{},
	}
}
