package bundle

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type CreateBundleInput struct {
	Creator       common.Address
	Name          string
	Symbol        string
	ShareDecimals uint8
	ShareSupply   *uint256.Int
	Loans         []common.Address
}

type BundleDTO struct {
	Address           common.Address   `json:"address"`
	Creator           common.Address   `json:"creator"`
	Name              string           `json:"name"`
	Symbol            string           `json:"symbol"`
	ShareDecimals     uint8            `json:"share_decimals"`
	ShareSupply       *uint256.Int     `json:"share_supply"`
	Loans             []common.Address `json:"loans"`
	Held              *uint256.Int     `json:"held"`
	OutstandingShares *uint256.Int     `json:"outstanding_shares"`
	CreatedAt         time.Time        `json:"created_at"`
}

type MemberDTO struct {
	Index int            `json:"index"`
	Loan  common.Address `json:"loan"`
}

type PullDTO struct {
	Index  int            `json:"index"`
	Loan   common.Address `json:"loan"`
	Amount *uint256.Int   `json:"amount,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type PullAllDTO struct {
	Bundle *BundleDTO   `json:"bundle"`
	Total  *uint256.Int `json:"total"`
	Pulls  []PullDTO    `json:"pulls"`
}

type ClaimDTO struct {
	Bundle *BundleDTO     `json:"bundle"`
	Holder common.Address `json:"holder"`
	Payout *uint256.Int   `json:"payout"`
}
