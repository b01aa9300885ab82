package http

import (
	"errors"
	"net/http"

	"loanshare/internal/domain/approval"
	"loanshare/internal/domain/bundle"
	"loanshare/internal/domain/collateral"
	"loanshare/internal/domain/loan"
	"loanshare/internal/domain/share"
	ucApproval "loanshare/internal/usecase/approval"
	ucBundle "loanshare/internal/usecase/bundle"
	ucLedger "loanshare/internal/usecase/ledger"
	ucLoan "loanshare/internal/usecase/loan"
	"loanshare/pkg/amount"

	"github.com/labstack/echo/v4"
)

var statusTable = []struct {
	status int
	errs   []error
}{
	{http.StatusNotFound, []error{
		loan.ErrNotFound, bundle.ErrNotFound, bundle.ErrLoanIndexOutOfRange,
		collateral.ErrNotMinted, approval.ErrNotFound,
	}},
	{http.StatusForbidden, []error{
		collateral.ErrNotAuthorized, collateral.ErrWrongOwner, loan.ErrNotBorrower,
	}},
	{http.StatusConflict, []error{
		loan.ErrInvalidTransition, loan.ErrAlreadyFunded, loan.ErrUnfunded,
		loan.ErrAlreadyInitiated, loan.ErrNotInitiated, loan.ErrAlreadyRepaid,
		loan.ErrNotEnded, loan.ErrAlreadyPaid, loan.ErrAlreadyAuctioning,
		loan.ErrAuctionNotStarted, loan.ErrAuctionEnded, collateral.ErrAlreadyMinted,
	}},
	{http.StatusUnprocessableEntity, []error{
		ucLoan.ErrInvalidInput, ucBundle.ErrInvalidInput, ucLedger.ErrInvalidInput, ucApproval.ErrInvalidInput,
		loan.ErrWrongAmount, loan.ErrInsufficientBid, loan.ErrNothingToClaim,
		share.ErrInsufficientBalance, share.ErrNoShares, share.ErrOverflow,
		bundle.ErrNoMembers, bundle.ErrDuplicateLoan, bundle.ErrUnknownLoan,
		approval.ErrSelfApproval, collateral.ErrZeroAddress,
		amount.ErrInvalid, amount.ErrNegative, amount.ErrTooPrecise, amount.ErrOutOfRange,
	}},
}

// statusFor maps domain errors to HTTP codes; anything unknown is a 500.
func statusFor(err error) int {
	for _, row := range statusTable {
		for _, target := range row.errs {
			if errors.Is(err, target) {
				return row.status
			}
		}
	}
	return http.StatusInternalServerError
}

func writeError(c echo.Context, err error) error {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		c.Logger().Error(err)
		msg = "internal error"
	}
	return c.JSON(code, ErrorResponse{Error: msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// bindValid binds the JSON body into req and validates it. When ok is false
// the error response has already been written.
func bindValid(c echo.Context, req any) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, badRequest(c, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
