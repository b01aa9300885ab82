package mysql

import (
	"context"
	"errors"

	approvalDomain "loanshare/internal/domain/approval"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ approvalDomain.Repository = (*ApprovalRepository)(nil)

type ApprovalRepository struct{ db *gorm.DB }

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository { return &ApprovalRepository{db: db} }

func (r *ApprovalRepository) Upsert(ctx context.Context, a *approvalDomain.Approval) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "owner"}, {Name: "operator"}},
		DoUpdates: clause.AssignmentColumns([]string{"approved", "updated_at"}),
	}).Create(a).Error
}

func (r *ApprovalRepository) Get(ctx context.Context, collection, owner, operator common.Address) (*approvalDomain.Approval, error) {
	var out approvalDomain.Approval
	err := r.db.WithContext(ctx).
		Where("collection = ? AND owner = ? AND operator = ?", collection, owner, operator).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, approvalDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ApprovalRepository) ListByOwner(ctx context.Context, collection, owner common.Address) ([]approvalDomain.Approval, error) {
	var out []approvalDomain.Approval
	err := r.db.WithContext(ctx).
		Where("collection = ? AND owner = ?", collection, owner).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
