package loan

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gorm.io/gorm"
)

// Loan is the persisted state of one loan engine. Address doubles as the
// engine's party identity and as the asset id of its share ledger.
type Loan struct {
	ID      uint64         `gorm:"primaryKey;column:id" json:"-"`
	Address common.Address `gorm:"size:20;uniqueIndex:ux_loans_address" json:"address"`
	Creator common.Address `gorm:"size:20;index:idx_loans_creator" json:"creator"`

	Name          string       `gorm:"size:64" json:"name"`
	Symbol        string       `gorm:"size:16" json:"symbol"`
	ShareDecimals uint8        `json:"share_decimals"`
	ShareSupply   *uint256.Int `gorm:"size:78;not null" json:"share_supply"`

	CollateralAsset common.Address `gorm:"size:20;index:idx_loans_collateral" json:"collateral_asset"`
	CollateralID    uint64         `gorm:"index:idx_loans_collateral" json:"collateral_id"`

	ExpiryTick uint64         `json:"expiry_tick"`
	Borrower   common.Address `gorm:"size:20;index:idx_loans_borrower" json:"borrower"`
	Principal  *uint256.Int   `gorm:"size:78;not null" json:"principal"`
	Repayment  *uint256.Int   `gorm:"size:78;not null" json:"repayment"`

	AuctionStartPrice  *uint256.Int `gorm:"size:78;not null" json:"auction_start_price"`
	AuctionDropPerTick *uint256.Int `gorm:"size:78;not null" json:"auction_drop_per_tick"`

	State            State          `gorm:"size:16;default:'created'" json:"state"`
	AuctionStartTick uint64         `json:"auction_start_tick"`
	ClearingPrice    *uint256.Int   `gorm:"size:78;not null" json:"clearing_price"`
	Buyer            common.Address `gorm:"size:20" json:"buyer"`

	StateUpdatedAt time.Time      `gorm:"autoCreateTime" json:"state_updated_at"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// AuctionStarted reports whether the Dutch auction has begun (running or over).
func (l *Loan) AuctionStarted() bool {
	return l.State == StateAuctionActive || l.State == StateAuctionEnded
}

// Settled reports whether the held balance is final and claimable.
func (l *Loan) Settled() bool {
	return l.State == StateRepaid || l.State == StateAuctionEnded
}
