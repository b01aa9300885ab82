package http

import (
	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Base    *Handler
	Loans   *LoanHandler
	Bundles *BundleHandler
	Ledger  *LedgerHandler
}

// Register mounts every route on e. Mutating routes share whatever
// route middleware (idempotency) is passed as mutating.
func Register(e *echo.Echo, h Handlers, mutating ...echo.MiddlewareFunc) {
	e.GET("/health", h.Base.Health)
	e.GET("/tick", h.Base.Tick)

	post := func(path string, fn echo.HandlerFunc) { e.POST(path, fn, mutating...) }
	post("/tick/advance", h.Base.AdvanceTick)

	e.GET("/loans/:address", h.Loans.GetLoan)
	e.GET("/loans/:address/price", h.Loans.Price)
	e.GET("/borrowers/:borrower/loans", h.Loans.ListByBorrower)
	post("/loans", h.Loans.CreateLoan)
	post("/loans/:address/fund", h.Loans.Fund)
	post("/loans/:address/initiate", h.Loans.Initiate)
	post("/loans/:address/repay", h.Loans.Repay)
	post("/loans/:address/auction", h.Loans.StartAuction)
	post("/loans/:address/bid", h.Loans.Bid)
	post("/loans/:address/claim", h.Loans.Claim)

	e.GET("/bundles/:address", h.Bundles.GetBundle)
	e.GET("/bundles/:address/loans/:index", h.Bundles.LoanAt)
	post("/bundles", h.Bundles.CreateBundle)
	post("/bundles/:address/pull/:index", h.Bundles.ClaimFromLoan)
	post("/bundles/:address/pull", h.Bundles.ClaimFromAll)
	post("/bundles/:address/claim", h.Bundles.Claim)

	e.GET("/accounts/:holder", h.Ledger.Account)
	post("/accounts/deposit", h.Ledger.Deposit)
	e.GET("/shares/:asset/:holder", h.Ledger.ShareBalance)
	post("/shares/:asset/transfer", h.Ledger.TransferShares)
	e.GET("/collateral/:collection/:token", h.Ledger.OwnerOf)
	e.GET("/collateral/:collection/approvals/:owner/:operator", h.Ledger.GetApproval)
	post("/collateral/:collection/mint", h.Ledger.MintCollateral)
	post("/collateral/:collection/approval", h.Ledger.SetApproval)
}
