package mysql

import (
	"context"
	"errors"

	bundleDomain "loanshare/internal/domain/bundle"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ bundleDomain.Repository = (*BundleRepository)(nil)

type BundleRepository struct{ db *gorm.DB }

func NewBundleRepository(db *gorm.DB) *BundleRepository { return &BundleRepository{db: db} }

// Create inserts the bundle row and its members in one statement batch.
func (r *BundleRepository) Create(ctx context.Context, b *bundleDomain.Bundle) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BundleRepository) GetByAddress(ctx context.Context, addr common.Address) (*bundleDomain.Bundle, error) {
	return r.get(r.db.WithContext(ctx), addr)
}

func (r *BundleRepository) GetByAddressForUpdate(ctx context.Context, addr common.Address) (*bundleDomain.Bundle, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), addr)
}

func (r *BundleRepository) get(q *gorm.DB, addr common.Address) (*bundleDomain.Bundle, error) {
	var out bundleDomain.Bundle
	err := q.Preload("Members", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("address = ?", addr).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, bundleDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
