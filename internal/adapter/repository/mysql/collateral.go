package mysql

import (
	"context"
	"errors"

	"loanshare/internal/domain/approval"
	"loanshare/internal/domain/collateral"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ collateral.Registry = (*CollateralRepository)(nil)

// CollateralRepository is the collateral registry over collateral_tokens,
// reading operator grants from the approvals table.
type CollateralRepository struct {
	db        *gorm.DB
	approvals approval.Repository
}

func NewCollateralRepository(db *gorm.DB) *CollateralRepository {
	return &CollateralRepository{db: db, approvals: NewApprovalRepository(db)}
}

func (r *CollateralRepository) Mint(ctx context.Context, to common.Address, item collateral.Item) error {
	if to == (common.Address{}) {
		return collateral.ErrZeroAddress
	}
	_, err := r.token(ctx, item, false)
	switch {
	case err == nil:
		return collateral.ErrAlreadyMinted
	case !errors.Is(err, collateral.ErrNotMinted):
		return err
	}
	return r.db.WithContext(ctx).Create(&collateral.Token{
		Collection: item.Collection,
		TokenID:    item.TokenID,
		Owner:      to,
	}).Error
}

func (r *CollateralRepository) OwnerOf(ctx context.Context, item collateral.Item) (common.Address, error) {
	t, err := r.token(ctx, item, false)
	if err != nil {
		return common.Address{}, err
	}
	return t.Owner, nil
}

func (r *CollateralRepository) TransferFrom(ctx context.Context, operator, from, to common.Address, item collateral.Item) error {
	t, err := r.token(ctx, item, true)
	if err != nil {
		return err
	}
	if operator != t.Owner {
		ok, err := r.IsApprovedForAll(ctx, item.Collection, t.Owner, operator)
		if err != nil {
			return err
		}
		if !ok {
			return collateral.ErrNotAuthorized
		}
	}
	if from != t.Owner {
		return collateral.ErrWrongOwner
	}
	if to == (common.Address{}) {
		return collateral.ErrZeroAddress
	}
	return r.db.WithContext(ctx).
		Model(&collateral.Token{}).
		Where("id = ?", t.ID).
		Update("owner", to).Error
}

func (r *CollateralRepository) SetApprovalForAll(ctx context.Context, collection, owner, operator common.Address, approved bool) error {
	if owner == operator {
		return approval.ErrSelfApproval
	}
	return r.approvals.Upsert(ctx, &approval.Approval{
		Collection: collection,
		Owner:      owner,
		Operator:   operator,
		Approved:   approved,
	})
}

func (r *CollateralRepository) IsApprovedForAll(ctx context.Context, collection, owner, operator common.Address) (bool, error) {
	a, err := r.approvals.Get(ctx, collection, owner, operator)
	if errors.Is(err, approval.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.Approved, nil
}

func (r *CollateralRepository) token(ctx context.Context, item collateral.Item, lock bool) (*collateral.Token, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out collateral.Token
	err := q.Where("collection = ? AND token_id = ?", item.Collection, item.TokenID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, collateral.ErrNotMinted
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
