package loan

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type CreateLoanInput struct {
	Creator            common.Address
	Name               string
	Symbol             string
	ShareDecimals      uint8
	ShareSupply        *uint256.Int
	CollateralAsset    common.Address
	CollateralID       uint64
	ExpiryTick         uint64
	Borrower           common.Address
	Principal          *uint256.Int
	Repayment          *uint256.Int
	AuctionStartPrice  *uint256.Int
	AuctionDropPerTick *uint256.Int
}

// LoanDTO amounts are in base units.
type LoanDTO struct {
	Address            common.Address `json:"address"`
	Creator            common.Address `json:"creator"`
	Name               string         `json:"name"`
	Symbol             string         `json:"symbol"`
	ShareDecimals      uint8          `json:"share_decimals"`
	ShareSupply        *uint256.Int   `json:"share_supply"`
	CollateralAsset    common.Address `json:"collateral_asset"`
	CollateralID       uint64         `json:"collateral_id"`
	ExpiryTick         uint64         `json:"expiry_tick"`
	Borrower           common.Address `json:"borrower"`
	Principal          *uint256.Int   `json:"principal"`
	Repayment          *uint256.Int   `json:"repayment"`
	AuctionStartPrice  *uint256.Int   `json:"auction_start_price"`
	AuctionDropPerTick *uint256.Int   `json:"auction_drop_per_tick"`
	State              string         `json:"state"`
	AuctionStartTick   uint64         `json:"auction_start_tick"`
	ClearingPrice      *uint256.Int   `json:"clearing_price"`
	Buyer              common.Address `json:"buyer"`
	Held               *uint256.Int   `json:"held"`
	OutstandingShares  *uint256.Int   `json:"outstanding_shares"`
	Drained            bool           `json:"drained"`
	StateUpdatedAt     time.Time      `json:"state_updated_at"`
	CreatedAt          time.Time      `json:"created_at"`
}

type PriceDTO struct {
	Address   common.Address `json:"address"`
	Tick      uint64         `json:"tick"`
	StartTick uint64         `json:"start_tick"`
	Price     *uint256.Int   `json:"price"`
}

type ClaimDTO struct {
	Loan   *LoanDTO       `json:"loan"`
	Holder common.Address `json:"holder"`
	Payout *uint256.Int   `json:"payout"`
}
