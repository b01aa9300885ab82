package approval

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNotFound     = errors.New("approval not found")
	ErrSelfApproval = errors.New("approve to caller")
)

// Approval is a blanket operator grant: Operator may move any token that
// Owner holds in Collection.
type Approval struct {
	ID         uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Collection common.Address `gorm:"column:collection;size:20;not null;uniqueIndex:ux_approvals_grant" json:"collection"`
	Owner      common.Address `gorm:"column:owner;size:20;not null;uniqueIndex:ux_approvals_grant" json:"owner"`
	Operator   common.Address `gorm:"column:operator;size:20;not null;uniqueIndex:ux_approvals_grant" json:"operator"`
	Approved   bool           `gorm:"column:approved;not null" json:"approved"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Approval) TableName() string { return "approvals" }
