package http

import (
	"net/http"
	"strconv"
	"time"

	"loanshare/internal/usecase/bundle"
	"loanshare/pkg/amount"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
)

type BundleHandler struct {
	uc     *bundle.Usecase
	native uint8
}

func NewBundleHandler(uc *bundle.Usecase, nativeDecimals uint8) *BundleHandler {
	return &BundleHandler{uc: uc, native: nativeDecimals}
}

type createBundleReq struct {
	Name          string   `json:"name"           validate:"required,max=64"`
	Symbol        string   `json:"symbol"         validate:"required,max=16"`
	ShareDecimals uint8    `json:"share_decimals" validate:"lte=77"`
	ShareSupply   string   `json:"share_supply"   validate:"required,decamount"`
	Loans         []string `json:"loans"          validate:"required,min=1,dive,eth_addr"`
}

type BundleView struct {
	Address           common.Address   `json:"address"`
	Creator           common.Address   `json:"creator"`
	Name              string           `json:"name"`
	Symbol            string           `json:"symbol"`
	ShareDecimals     uint8            `json:"share_decimals"`
	ShareSupply       string           `json:"share_supply"`
	Loans             []common.Address `json:"loans"`
	Held              string           `json:"held"`
	OutstandingShares string           `json:"outstanding_shares"`
	CreatedAt         time.Time        `json:"created_at"`
}

type PullView struct {
	Index  int            `json:"index"`
	Loan   common.Address `json:"loan"`
	Amount string         `json:"amount"`
	Error  string         `json:"error,omitempty"`
}

type PullAllView struct {
	Bundle *BundleView `json:"bundle"`
	Total  string      `json:"total"`
	Pulls  []PullView  `json:"pulls"`
}

func (h *BundleHandler) view(d *bundle.BundleDTO) *BundleView {
	return &BundleView{
		Address:           d.Address,
		Creator:           d.Creator,
		Name:              d.Name,
		Symbol:            d.Symbol,
		ShareDecimals:     d.ShareDecimals,
		ShareSupply:       amount.Format(d.ShareSupply, d.ShareDecimals),
		Loans:             d.Loans,
		Held:              amount.Format(d.Held, h.native),
		OutstandingShares: amount.Format(d.OutstandingShares, d.ShareDecimals),
		CreatedAt:         d.CreatedAt,
	}
}

func (h *BundleHandler) pull(p bundle.PullDTO) PullView {
	return PullView{Index: p.Index, Loan: p.Loan, Amount: amount.Format(p.Amount, h.native), Error: p.Error}
}

func (h *BundleHandler) CreateBundle(c echo.Context) error {
	creator, err := callerFrom(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req createBundleReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	supply, err := amount.Parse(req.ShareSupply, req.ShareDecimals)
	if err != nil {
		return writeError(c, err)
	}
	in := bundle.CreateBundleInput{
		Creator:       creator,
		Name:          req.Name,
		Symbol:        req.Symbol,
		ShareDecimals: req.ShareDecimals,
		ShareSupply:   supply,
		Loans:         make([]common.Address, 0, len(req.Loans)),
	}
	for _, l := range req.Loans {
		in.Loans = append(in.Loans, common.HexToAddress(l))
	}
	dto, err := h.uc.Create(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, h.view(dto))
}

func (h *BundleHandler) GetBundle(c echo.Context) error {
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

func (h *BundleHandler) LoanAt(c echo.Context) error {
	addr, err := addrParam(c, "address")
	if err != nil {
		return badRequest(c, err.Error())
	}
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return badRequest(c, "invalid index")
	}
	m, err := h.uc.LoanAt(c.Request().Context(), addr, i)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *BundleHandler) ClaimFromLoan(c echo.Context) error {
	addr, caller, ok, err := h.target(c)
	if !ok {
		return err
	}
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return badRequest(c, "invalid index")
	}
	p, err := h.uc.ClaimFromLoan(c.Request().Context(), addr, caller, i)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, h.pull(*p))
}

// ClaimFromAll answers 207 when some pulls failed and others committed.
func (h *BundleHandler) ClaimFromAll(c echo.Context) error {
	addr, caller, ok, err := h.target(c)
	if !ok {
		return err
	}
	dto, err := h.uc.ClaimFromAll(c.Request().Context(), addr, caller)
	if dto == nil {
		return writeError(c, err)
	}
	out := PullAllView{
		Bundle: h.view(dto.Bundle),
		Total:  amount.Format(dto.Total, h.native),
		Pulls:  make([]PullView, 0, len(dto.Pulls)),
	}
	for _, p := range dto.Pulls {
		out.Pulls = append(out.Pulls, h.pull(p))
	}
	code := http.StatusOK
	if err != nil {
		code = http.StatusMultiStatus
	}
	return c.JSON(code, out)
}

func (h *BundleHandler) Claim(c echo.Context) error {
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
		Bundle: h.view(dto.Bundle),
	})
}

func (h *BundleHandler) target(c echo.Context) (addr, caller common.Address, ok bool, err error) {
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
