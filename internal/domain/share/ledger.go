package share

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// NativeAsset is the asset id of the value asset that funds move in.
var NativeAsset = common.Address{}

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrOverflow            = errors.New("amount overflow")
	ErrNoShares            = errors.New("no shares")
)

// Ledger is a fungible balance book for a single asset.
type Ledger interface {
	Asset() common.Address
	Mint(ctx context.Context, to common.Address, amount *uint256.Int) error
	Burn(ctx context.Context, from common.Address, amount *uint256.Int) error
	Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error
	BalanceOf(ctx context.Context, holder common.Address) (*uint256.Int, error)
	TotalSupply(ctx context.Context) (*uint256.Int, error)
}

// Ledgers hands out the ledger of any asset, creating it lazily.
type Ledgers interface {
	Ledger(asset common.Address) Ledger
}

type Balance struct {
	ID     uint64         `gorm:"primaryKey;column:id" json:"-"`
	Asset  common.Address `gorm:"size:20;not null;uniqueIndex:ux_balances_asset_holder" json:"asset"`
	Holder common.Address `gorm:"size:20;not null;uniqueIndex:ux_balances_asset_holder;index:idx_balances_holder" json:"holder"`
	Amount *uint256.Int   `gorm:"size:78;not null" json:"amount"`
}

func (Balance) TableName() string { return "share_balances" }

type Supply struct {
	ID    uint64         `gorm:"primaryKey;column:id" json:"-"`
	Asset common.Address `gorm:"size:20;not null;uniqueIndex:ux_supplies_asset" json:"asset"`
	Total *uint256.Int   `gorm:"size:78;not null" json:"total"`
}

func (Supply) TableName() string { return "share_supplies" }
