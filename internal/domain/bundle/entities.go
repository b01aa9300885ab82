package bundle

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gorm.io/gorm"
)

type Bundle struct {
	ID            uint64         `gorm:"primaryKey;column:id" json:"-"`
	Address       common.Address `gorm:"size:20;uniqueIndex:ux_bundles_address" json:"address"`
	Creator       common.Address `gorm:"size:20;index:idx_bundles_creator" json:"creator"`
	Name          string         `gorm:"size:64" json:"name"`
	Symbol        string         `gorm:"size:16" json:"symbol"`
	ShareDecimals uint8          `json:"share_decimals"`
	ShareSupply   *uint256.Int   `gorm:"size:78;not null" json:"share_supply"`
	Members       []Member       `gorm:"foreignKey:BundleID;constraint:OnDelete:CASCADE" json:"members"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Bundle) TableName() string { return "bundles" }

// Member is one underlying loan. Position is the fixed index in the bundle.
type Member struct {
	ID          uint64         `gorm:"primaryKey;column:id" json:"-"`
	BundleID    uint64         `gorm:"not null;uniqueIndex:ux_bundle_members_position" json:"-"`
	Position    int            `gorm:"not null;uniqueIndex:ux_bundle_members_position" json:"position"`
	LoanAddress common.Address `gorm:"size:20;not null;index:idx_bundle_members_loan" json:"loan_address"`
}

func (Member) TableName() string { return "bundle_members" }

// Member returns the loan at index i or ErrLoanIndexOutOfRange.
func (b *Bundle) Member(i int) (Member, error) {
	if i < 0 || i >= len(b.Members) {
		return Member{}, ErrLoanIndexOutOfRange
	}
	return b.Members[i], nil
}
