package approval

import (
	"context"
	"errors"
	"testing"

	domainApproval "loanshare/internal/domain/approval"
	"loanshare/internal/domain/uow"
	"loanshare/internal/testutil/approvalmock"
	"loanshare/internal/testutil/memstore"
	"loanshare/internal/testutil/uowmock"
	"loanshare/internal/usecase/runner"

	"github.com/ethereum/go-ethereum/common"
)

var (
	nft      = common.HexToAddress("0x2000000000000000000000000000000000000002")
	borrower = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	engine   = common.HexToAddress("0x1000000000000000000000000000000000000001")
)

func TestUsecase_SetApprovalForAll(t *testing.T) {
	in := ApproveInput{Collection: nft, Owner: borrower, Operator: engine, Approved: true}

	tests := []struct {
		name    string
		in      ApproveInput
		setup   func() *Usecase
		wantErr error
		check   func(*testing.T, *ApprovalDTO)
	}{
		{
			name: "grant",
			in:   in,
			setup: func() *Usecase {
				return NewUsecase(runner.New(memstore.New()))
			},
			check: func(t *testing.T, dto *ApprovalDTO) {
				if !dto.Approved || dto.Operator != engine || dto.Owner != borrower {
					t.Fatalf("dto = %+v", dto)
				}
			},
		},
		{
			name: "missing operator",
			in:   ApproveInput{Collection: nft, Owner: borrower},
			setup: func() *Usecase {
				return NewUsecase(runner.New(memstore.New()))
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "self approval",
			in:   ApproveInput{Collection: nft, Owner: borrower, Operator: borrower, Approved: true},
			setup: func() *Usecase {
				return NewUsecase(runner.New(memstore.New()))
			},
			wantErr: domainApproval.ErrSelfApproval,
		},
		{
			name: "store failure surfaces",
			in:   in,
			setup: func() *Usecase {
				st := memstore.New()
				repos := st.Repos()
				boom := errors.New("boom")
				repos.Approvals = &approvalmock.Repo{
					GetFn: func(context.Context, common.Address, common.Address, common.Address) (*domainApproval.Approval, error) {
						return nil, boom
					},
				}
				return NewUsecase(runner.New(uowmock.New().WithRepos(repos)))
			},
			wantErr: errors.New("boom"),
		},
		{
			name:    "nil UoW",
			in:      in,
			setup:   func() *Usecase { return NewUsecase(runner.New(nil)) },
			wantErr: runner.ErrNoUnitOfWork,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			uc := tt.setup()
			dto, err := uc.SetApprovalForAll(context.Background(), tt.in)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected err: %v", err)
				}
				tt.check(t, dto)
				return
			}
			if err == nil || (!errors.Is(err, tt.wantErr) && err.Error() != tt.wantErr.Error()) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUsecase_GetAndRevoke(t *testing.T) {
	st := memstore.New()
	uc := NewUsecase(runner.New(st))
	ctx := context.Background()

	dto, err := uc.Get(ctx, nft, borrower, engine)
	if err != nil || dto.Approved {
		t.Fatalf("absent grant: %+v %v", dto, err)
	}
	if _, err := uc.SetApprovalForAll(ctx, ApproveInput{Collection: nft, Owner: borrower, Operator: engine, Approved: true}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	ok, _ := st.Registry.IsApprovedForAll(ctx, nft, borrower, engine)
	if !ok {
		t.Fatal("registry does not see the grant")
	}
	if _, err := uc.SetApprovalForAll(ctx, ApproveInput{Collection: nft, Owner: borrower, Operator: engine}); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	dto, err = uc.Get(ctx, nft, borrower, engine)
	if err != nil || dto.Approved {
		t.Fatalf("after revoke: %+v %v", dto, err)
	}
	list, err := uc.ListByOwner(ctx, nft, borrower)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByOwner: %v %v", list, err)
	}
}

func TestUsecase_GetPropagatesStoreError(t *testing.T) {
	boom := errors.New("boom")
	repos := uow.Repos{Approvals: &approvalmock.Repo{
		GetFn: func(context.Context, common.Address, common.Address, common.Address) (*domainApproval.Approval, error) {
			return nil, boom
		},
	}}
	uc := NewUsecase(runner.New(uowmock.New().WithRepos(repos)))
	if _, err := uc.Get(context.Background(), nft, borrower, engine); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
}
