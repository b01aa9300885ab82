package approval

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type ApproveInput struct {
	Collection common.Address
	Owner      common.Address
	Operator   common.Address
	Approved   bool
}

type ApprovalDTO struct {
	Collection common.Address `json:"collection"`
	Owner      common.Address `json:"owner"`
	Operator   common.Address `json:"operator"`
	Approved   bool           `json:"approved"`
	UpdatedAt  time.Time      `json:"updated_at,omitempty"`
}
