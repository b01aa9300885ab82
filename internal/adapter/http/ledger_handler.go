package http

import (
	"net/http"

	"loanshare/internal/domain/collateral"
	"loanshare/internal/domain/share"
	"loanshare/internal/usecase/approval"
	"loanshare/internal/usecase/ledger"
	"loanshare/pkg/amount"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
)

// LedgerHandler serves native accounts, raw share balances and the
// collateral registry. Share amounts are base units.
type LedgerHandler struct {
	uc        *ledger.Usecase
	approvals *approval.Usecase
	native    uint8
}

func NewLedgerHandler(uc *ledger.Usecase, approvals *approval.Usecase, nativeDecimals uint8) *LedgerHandler {
	return &LedgerHandler{uc: uc, approvals: approvals, native: nativeDecimals}
}

type depositReq struct {
	Value string `json:"value" validate:"required,decamount"`
}

type transferReq struct {
	To     string `json:"to"     validate:"required,eth_addr"`
	Amount string `json:"amount" validate:"required,decamount"`
}

type mintReq struct {
	TokenID uint64 `json:"token_id"`
	To      string `json:"to"       validate:"required,eth_addr"`
}

type approvalReq struct {
	Operator string `json:"operator" validate:"required,eth_addr"`
	Approved *bool  `json:"approved" validate:"required"`
}

type BalanceView struct {
	Asset  common.Address `json:"asset"`
	Holder common.Address `json:"holder"`
	Amount string         `json:"amount"`
}

func (h *LedgerHandler) Deposit(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req depositReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	v, err := amount.Parse(req.Value, h.native)
	if err != nil {
		return writeError(c, err)
	}
	b, err := h.uc.Deposit(c.Request().Context(), caller, v)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, BalanceView{Asset: b.Asset, Holder: b.Holder, Amount: amount.Format(b.Amount, h.native)})
}

func (h *LedgerHandler) Account(c echo.Context) error {
	holder, err := addrParam(c, "holder")
	if err != nil {
		return badRequest(c, err.Error())
	}
	b, err := h.uc.Balance(c.Request().Context(), share.NativeAsset, holder)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, BalanceView{Asset: b.Asset, Holder: b.Holder, Amount: amount.Format(b.Amount, h.native)})
}

func (h *LedgerHandler) ShareBalance(c echo.Context) error {
	asset, err := addrParam(c, "asset")
	if err != nil {
		return badRequest(c, err.Error())
	}
	holder, err := addrParam(c, "holder")
	if err != nil {
		return badRequest(c, err.Error())
	}
	b, err := h.uc.Balance(c.Request().Context(), asset, holder)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, BalanceView{Asset: b.Asset, Holder: b.Holder, Amount: b.Amount.Dec()})
}

func (h *LedgerHandler) TransferShares(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	asset, err := addrParam(c, "asset")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if asset == share.NativeAsset {
		return badRequest(c, "use the loan or bundle address as asset")
	}
	var req transferReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	v, err := amount.Parse(req.Amount, 0)
	if err != nil {
		return writeError(c, err)
	}
	b, err := h.uc.Transfer(c.Request().Context(), asset, caller, common.HexToAddress(req.To), v)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, BalanceView{Asset: b.Asset, Holder: b.Holder, Amount: b.Amount.Dec()})
}

func (h *LedgerHandler) MintCollateral(c echo.Context) error {
	if _, err := callerFrom(c); err != nil {
		return badRequest(c, err.Error())
	}
	collection, err := addrParam(c, "collection")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req mintReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	tok, err := h.uc.MintCollateral(c.Request().Context(),
		collateral.Item{Collection: collection, TokenID: req.TokenID}, common.HexToAddress(req.To))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, tok)
}

func (h *LedgerHandler) OwnerOf(c echo.Context) error {
	collection, err := addrParam(c, "collection")
	if err != nil {
		return badRequest(c, err.Error())
	}
	tokenID, err := uintParam(c, "token")
	if err != nil {
		return badRequest(c, "invalid token id")
	}
	tok, err := h.uc.OwnerOf(c.Request().Context(), collateral.Item{Collection: collection, TokenID: tokenID})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tok)
}

// SetApproval grants or revokes an operator over all of the caller's items
// in the collection.
func (h *LedgerHandler) SetApproval(c echo.Context) error {
	owner, err := callerFrom(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	collection, err := addrParam(c, "collection")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req approvalReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.approvals.SetApprovalForAll(c.Request().Context(), approval.ApproveInput{
		Collection: collection,
		Owner:      owner,
		Operator:   common.HexToAddress(req.Operator),
		Approved:   *req.Approved,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LedgerHandler) GetApproval(c echo.Context) error {
	collection, err := addrParam(c, "collection")
	if err != nil {
		return badRequest(c, err.Error())
	}
	owner, err := addrParam(c, "owner")
	if err != nil {
		return badRequest(c, err.Error())
	}
	operator, err := addrParam(c, "operator")
	if err != nil {
		return badRequest(c, err.Error())
	}
	dto, err := h.approvals.Get(c.Request().Context(), collection, owner, operator)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
