package collateral

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNotAuthorized = errors.New("transfer caller is not owner nor approved")
	ErrWrongOwner    = errors.New("transfer from incorrect owner")
	ErrNotMinted     = errors.New("token not minted")
	ErrAlreadyMinted = errors.New("token already minted")
	ErrZeroAddress   = errors.New("zero address")
)

// Item identifies one unique collateral token inside a collection.
type Item struct {
	Collection common.Address `json:"collection"`
	TokenID    uint64         `json:"token_id"`
}

type Token struct {
	ID         uint64         `gorm:"primaryKey;column:id" json:"-"`
	Collection common.Address `gorm:"size:20;not null;uniqueIndex:ux_tokens_collection_token" json:"collection"`
	TokenID    uint64         `gorm:"not null;uniqueIndex:ux_tokens_collection_token" json:"token_id"`
	Owner      common.Address `gorm:"size:20;not null;index:idx_tokens_owner" json:"owner"`
}

func (Token) TableName() string { return "collateral_tokens" }

func (t Token) Item() Item { return Item{Collection: t.Collection, TokenID: t.TokenID} }

// Custody is the capability a loan engine needs from the registry.
type Custody interface {
	OwnerOf(ctx context.Context, item Item) (common.Address, error)
	// TransferFrom moves item from -> to. operator must be the holder or one
	// of its approved operators.
	TransferFrom(ctx context.Context, operator, from, to common.Address, item Item) error
}

type Registry interface {
	Custody
	Mint(ctx context.Context, to common.Address, item Item) error
	SetApprovalForAll(ctx context.Context, collection, owner, operator common.Address, approved bool) error
	IsApprovedForAll(ctx context.Context, collection, owner, operator common.Address) (bool, error)
}
