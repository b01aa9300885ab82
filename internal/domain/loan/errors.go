package loan

import (
	"errors"

	"loanshare/internal/domain/collateral"
	"loanshare/internal/domain/share"
)

var (
	ErrNotFound          = errors.New("loan not found")
	ErrInvalidTransition = errors.New("invalid state transition")

	ErrAlreadyFunded     = errors.New("loan already funded")
	ErrWrongAmount       = errors.New("wrong amount")
	ErrUnfunded          = errors.New("loan not funded")
	ErrAlreadyInitiated  = errors.New("loan already initiated")
	ErrNotInitiated      = errors.New("loan not initiated")
	ErrAlreadyRepaid     = errors.New("loan already repaid")
	ErrNotEnded          = errors.New("loan not expired")
	ErrAlreadyPaid       = errors.New("loan already paid")
	ErrAlreadyAuctioning = errors.New("auction already started")
	ErrAuctionNotStarted = errors.New("auction not started")
	ErrAuctionEnded      = errors.New("auction ended")
	ErrInsufficientBid   = errors.New("bid below current price")
	ErrNothingToClaim    = errors.New("nothing to claim")
	ErrNotBorrower       = errors.New("caller is not the borrower")

	// ErrCustodyNotAuthorized is the registry's own refusal, surfaced unchanged.
	ErrCustodyNotAuthorized = collateral.ErrNotAuthorized
	ErrNoShares             = share.ErrNoShares
)
