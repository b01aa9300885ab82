package mysql

import (
	"testing"

	"loanshare/internal/domain/loan"
	"loanshare/pkg/id"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	alice    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob      = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	borrower = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	nft      = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

// openTestDB creates an in-memory sqlite DB with the full schema. A single
// connection keeps every query on the same in-memory database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func makeLoan(addr common.Address) *loan.Loan {
	return &loan.Loan{
		Address:            addr,
		Creator:            borrower,
		Name:               "Loan Share",
		Symbol:             "LS",
		ShareDecimals:      18,
		ShareSupply:        uint256.NewInt(1_000_000),
		CollateralAsset:    nft,
		CollateralID:       7,
		ExpiryTick:         100,
		Borrower:           borrower,
		Principal:          uint256.NewInt(100),
		Repayment:          uint256.NewInt(110),
		AuctionStartPrice:  uint256.NewInt(200),
		AuctionDropPerTick: uint256.NewInt(1),
		State:              loan.StateCreated,
		ClearingPrice:      new(uint256.Int),
	}
}

func newAddr() common.Address { return id.NewContractAddress(alice, "test") }
