package approvalmock

import (
	"context"
	"errors"
	"testing"

	domain "loanshare/internal/domain/approval"

	"github.com/ethereum/go-ethereum/common"
)

func TestRepo_Defaults(t *testing.T) {
	ctx := context.Background()
	m := &Repo{}
	if err := m.Upsert(ctx, &domain.Approval{}); err != nil {
		t.Fatalf("Upsert default: %v", err)
	}
	if _, err := m.Get(ctx, common.Address{}, common.Address{}, common.Address{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get default: want ErrNotFound, got %v", err)
	}
	if out, err := m.ListByOwner(ctx, common.Address{}, common.Address{}); err != nil || out != nil {
		t.Fatalf("ListByOwner default: %v %v", out, err)
	}
}

func TestRepo_UsesFuncs(t *testing.T) {
	ctx := context.Background()
	op := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	var upserted *domain.Approval
	m := &Repo{
		UpsertFn: func(_ context.Context, a *domain.Approval) error { upserted = a; return nil },
		GetFn: func(_ context.Context, _, _, operator common.Address) (*domain.Approval, error) {
			return &domain.Approval{Operator: operator, Approved: true}, nil
		},
		ListByOwnerFn: func(context.Context, common.Address, common.Address) ([]domain.Approval, error) {
			return []domain.Approval{{Operator: op}}, nil
		},
	}
	a := &domain.Approval{Operator: op, Approved: true}
	if err := m.Upsert(ctx, a); err != nil || upserted != a {
		t.Fatalf("Upsert not forwarded")
	}
	got, err := m.Get(ctx, common.Address{}, common.Address{}, op)
	if err != nil || got.Operator != op || !got.Approved {
		t.Fatalf("Get: %+v %v", got, err)
	}
	list, err := m.ListByOwner(ctx, common.Address{}, common.Address{})
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByOwner: %v %v", list, err)
	}
}
