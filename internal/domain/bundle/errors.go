package bundle

import (
	"errors"

	"loanshare/internal/domain/loan"
	"loanshare/internal/domain/share"
)

var (
	ErrNotFound            = errors.New("bundle not found")
	ErrLoanIndexOutOfRange = errors.New("loan index out of range")
	ErrUnknownLoan         = errors.New("unknown loan")
	ErrNoMembers           = errors.New("bundle has no loans")
	ErrDuplicateLoan       = errors.New("loan listed twice")

	ErrNothingToClaim = loan.ErrNothingToClaim
	ErrNoShares       = share.ErrNoShares
)
