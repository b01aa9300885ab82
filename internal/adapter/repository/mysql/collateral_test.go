package mysql

import (
	"context"
	"errors"
	"testing"

	"loanshare/internal/domain/approval"
	"loanshare/internal/domain/collateral"

	"github.com/ethereum/go-ethereum/common"
)

func TestCollateral_MintAndTransfer(t *testing.T) {
	db := openTestDB(t)
	reg := NewCollateralRepository(db)
	ctx := context.Background()
	item := collateral.Item{Collection: nft, TokenID: 7}
	engine := common.HexToAddress("0x1000000000000000000000000000000000000001")

	if _, err := reg.OwnerOf(ctx, item); !errors.Is(err, collateral.ErrNotMinted) {
		t.Fatalf("OwnerOf before mint: %v", err)
	}
	if err := reg.Mint(ctx, borrower, item); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := reg.Mint(ctx, alice, item); !errors.Is(err, collateral.ErrAlreadyMinted) {
		t.Fatalf("double mint: %v", err)
	}

	// engine has no grant yet
	if err := reg.TransferFrom(ctx, engine, borrower, engine, item); !errors.Is(err, collateral.ErrNotAuthorized) {
		t.Fatalf("want ErrNotAuthorized, got %v", err)
	}
	if err := reg.SetApprovalForAll(ctx, nft, borrower, engine, true); err != nil {
		t.Fatalf("SetApprovalForAll: %v", err)
	}
	if err := reg.TransferFrom(ctx, engine, alice, engine, item); !errors.Is(err, collateral.ErrWrongOwner) {
		t.Fatalf("want ErrWrongOwner, got %v", err)
	}
	if err := reg.TransferFrom(ctx, engine, borrower, engine, item); err != nil {
		t.Fatalf("TransferFrom: %v", err)
	}
	owner, err := reg.OwnerOf(ctx, item)
	if err != nil || owner != engine {
		t.Fatalf("OwnerOf = %s, %v", owner, err)
	}

	// the holder itself needs no grant
	if err := reg.TransferFrom(ctx, engine, engine, borrower, item); err != nil {
		t.Fatalf("TransferFrom by holder: %v", err)
	}
	if err := reg.TransferFrom(ctx, borrower, borrower, common.Address{}, item); !errors.Is(err, collateral.ErrZeroAddress) {
		t.Fatalf("want ErrZeroAddress, got %v", err)
	}
}

func TestApproval_UpsertFlips(t *testing.T) {
	db := openTestDB(t)
	reg := NewCollateralRepository(db)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	if err := reg.SetApprovalForAll(ctx, nft, alice, alice, true); !errors.Is(err, approval.ErrSelfApproval) {
		t.Fatalf("want ErrSelfApproval, got %v", err)
	}
	if _, err := repo.Get(ctx, nft, alice, bob); !errors.Is(err, approval.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	for _, approved := range []bool{true, false, true} {
		if err := reg.SetApprovalForAll(ctx, nft, alice, bob, approved); err != nil {
			t.Fatalf("SetApprovalForAll(%v): %v", approved, err)
		}
		ok, err := reg.IsApprovedForAll(ctx, nft, alice, bob)
		if err != nil || ok != approved {
			t.Fatalf("IsApprovedForAll = %v, %v; want %v", ok, err, approved)
		}
	}
	list, err := repo.ListByOwner(ctx, nft, alice)
	if err != nil || len(list) != 1 || !list[0].Approved {
		t.Fatalf("ListByOwner = %+v, %v", list, err)
	}
}
