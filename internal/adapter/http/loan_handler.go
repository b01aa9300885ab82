package http

import (
	"context"
	"net/http"
	"time"

	"loanshare/internal/usecase/loan"
	"loanshare/pkg/amount"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/labstack/echo/v4"
)

type LoanHandler struct {
	uc     *loan.Usecase
	native uint8
}

// NewLoanHandler formats native amounts with nativeDecimals.
func NewLoanHandler(uc *loan.Usecase, nativeDecimals uint8) *LoanHandler {
	return &LoanHandler{uc: uc, native: nativeDecimals}
}

type createLoanReq struct {
	Name               string `json:"name"                  validate:"required,max=64"`
	Symbol             string `json:"symbol"                validate:"required,max=16"`
	ShareDecimals      uint8  `json:"share_decimals"        validate:"lte=77"`
	ShareSupply        string `json:"share_supply"          validate:"required,decamount"`
	CollateralAsset    string `json:"collateral_asset"      validate:"required,eth_addr"`
	CollateralID       uint64 `json:"collateral_id"`
	ExpiryTick         uint64 `json:"expiry_tick"`
	Borrower           string `json:"borrower"              validate:"required,eth_addr"`
	Principal          string `json:"principal"             validate:"required,decamount"`
	Repayment          string `json:"repayment"             validate:"required,decamount"`
	AuctionStartPrice  string `json:"auction_start_price"   validate:"required,decamount"`
	AuctionDropPerTick string `json:"auction_drop_per_tick" validate:"required,decamount"`
}

// valueReq carries the native value attached to fund, repay and bid.
type valueReq struct {
	Value string `json:"value" validate:"required,decamount"`
}

type LoanView struct {
	Address            common.Address `json:"address"`
	Creator            common.Address `json:"creator"`
	Name               string         `json:"name"`
	Symbol             string         `json:"symbol"`
	ShareDecimals      uint8          `json:"share_decimals"`
	ShareSupply        string         `json:"share_supply"`
	CollateralAsset    common.Address `json:"collateral_asset"`
	CollateralID       uint64         `json:"collateral_id"`
	ExpiryTick         uint64         `json:"expiry_tick"`
	Borrower           common.Address `json:"borrower"`
	Principal          string         `json:"principal"`
	Repayment          string         `json:"repayment"`
	AuctionStartPrice  string         `json:"auction_start_price"`
	AuctionDropPerTick string         `json:"auction_drop_per_tick"`
	State              string         `json:"state"`
	AuctionStartTick   uint64         `json:"auction_start_tick,omitempty"`
	ClearingPrice      string         `json:"clearing_price"`
	Buyer              common.Address `json:"buyer"`
	Held               string         `json:"held"`
	OutstandingShares  string         `json:"outstanding_shares"`
	Drained            bool           `json:"drained"`
	StateUpdatedAt     time.Time      `json:"state_updated_at"`
	CreatedAt          time.Time      `json:"created_at"`
}

type ClaimView struct {
	Holder common.Address `json:"holder"`
	Payout string         `json:"payout"`
	Loan   *LoanView      `json:"loan,omitempty"`
	Bundle *BundleView    `json:"bundle,omitempty"`
}

func (h *LoanHandler) view(d *loan.LoanDTO) *LoanView {
	n, s := h.native, d.ShareDecimals
	return &LoanView{
		Address:            d.Address,
		Creator:            d.Creator,
		Name:               d.Name,
		Symbol:             d.Symbol,
		ShareDecimals:      s,
		ShareSupply:        amount.Format(d.ShareSupply, s),
		CollateralAsset:    d.CollateralAsset,
		CollateralID:       d.CollateralID,
		ExpiryTick:         d.ExpiryTick,
		Borrower:           d.Borrower,
		Principal:          amount.Format(d.Principal, n),
		Repayment:          amount.Format(d.Repayment, n),
		AuctionStartPrice:  amount.Format(d.AuctionStartPrice, n),
		AuctionDropPerTick: amount.Format(d.AuctionDropPerTick, n),
		State:              d.State,
		AuctionStartTick:   d.AuctionStartTick,
		ClearingPrice:      amount.Format(d.ClearingPrice, n),
		Buyer:              d.Buyer,
		Held:               amount.Format(d.Held, n),
		OutstandingShares:  amount.Format(d.OutstandingShares, s),
		Drained:            d.Drained,
		StateUpdatedAt:     d.StateUpdatedAt,
		CreatedAt:          d.CreatedAt,
	}
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	creator, err := callerFrom(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req createLoanReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	in := loan.CreateLoanInput{
		Creator:         creator,
		Name:            req.Name,
		Symbol:          req.Symbol,
		ShareDecimals:   req.ShareDecimals,
		CollateralAsset: common.HexToAddress(req.CollateralAsset),
		CollateralID:    req.CollateralID,
		ExpiryTick:      req.ExpiryTick,
		Borrower:        common.HexToAddress(req.Borrower),
	}
	for _, f := range []struct {
		dst  **uint256.Int
		raw  string
		decs uint8
	}{
		{&in.ShareSupply, req.ShareSupply, req.ShareDecimals},
		{&in.Principal, req.Principal, h.native},
		{&in.Repayment, req.Repayment, h.native},
		{&in.AuctionStartPrice, req.AuctionStartPrice, h.native},
		{&in.AuctionDropPerTick, req.AuctionDropPerTick, h.native},
	} {
		v, err := amount.Parse(f.raw, f.decs)
		if err != nil {
			return writeError(c, err)
		}
		*f.dst = v
	}

	dto, err := h.uc.Create(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, h.view(dto))
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	addr, err := addrParam(c, "address")
	if err != nil {
		return badRequest(c, err.Error())
	}
	dto, err := h.uc.Get(c.Request().Context(), addr)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, h.view(dto))
}

func (h *LoanHandler) ListByBorrower(c echo.Context) error {
	addr, err := addrParam(c, "borrower")
	if err != nil {
		return badRequest(c, err.Error())
	}
	list, err := h.uc.ListByBorrower(c.Request().Context(), addr)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]*LoanView, 0, len(list))
	for i := range list {
		out = append(out, h.view(&list[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) Price(c echo.Context) error {
	addr, err := addrParam(c, "address")
	if err != nil {
		return badRequest(c, err.Error())
	}
	p, err := h.uc.Price(c.Request().Context(), addr)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"address":    p.Address,
		"tick":       p.Tick,
		"start_tick": p.StartTick,
		"price":      amount.Format(p.Price, h.native),
	})
}

func (h *LoanHandler) Fund(c echo.Context) error  { return h.withValue(c, h.uc.Fund) }
func (h *LoanHandler) Repay(c echo.Context) error { return h.withValue(c, h.uc.Repay) }
func (h *LoanHandler) Bid(c echo.Context) error   { return h.withValue(c, h.uc.Bid) }
func (h *LoanHandler) Initiate(c echo.Context) error {
	return h.bare(c, h.uc.Initiate)
}
func (h *LoanHandler) StartAuction(c echo.Context) error {
	return h.bare(c, h.uc.StartAuction)
}

func (h *LoanHandler) Claim(c echo.Context) error {
	addr, caller, ok, err := h.target(c)
	if !ok {
		return err
	}
	dto, err := h.uc.Claim(c.Request().Context(), addr, caller)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ClaimView{
		Holder: dto.Holder,
		Payout: amount.Format(dto.Payout, h.native),
		Loan:   h.view(dto.Loan),
	})
}

type valueOp func(ctx context.Context, addr, caller common.Address, attached *uint256.Int) (*loan.LoanDTO, error)
type bareOp func(ctx context.Context, addr, caller common.Address) (*loan.LoanDTO, error)

func (h *LoanHandler) withValue(c echo.Context, op valueOp) error {
	addr, caller, ok, err := h.target(c)
	if !ok {
		return err
	}
	var req valueReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	v, err := amount.Parse(req.Value, h.native)
	if err != nil {
		return writeError(c, err)
	}
	dto, err := op(c.Request().Context(), addr, caller, v)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, h.view(dto))
}

func (h *LoanHandler) bare(c echo.Context, op bareOp) error {
	addr, caller, ok, err := h.target(c)
	if !ok {
		return err
	}
	dto, err := op(c.Request().Context(), addr, caller)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, h.view(dto))
}

// target resolves the loan path param and the caller header.
func (h *LoanHandler) target(c echo.Context) (addr, caller common.Address, ok bool, err error) {
	addr, perr := addrParam(c, "address")
	if perr != nil {
		return addr, caller, false, badRequest(c, perr.Error())
	}
	caller, cerr := callerFrom(c)
	if cerr != nil {
		return addr, caller, false, badRequest(c, cerr.Error())
	}
	return addr, caller, true, nil
}
