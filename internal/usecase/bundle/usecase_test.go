package bundle

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"loanshare/internal/domain/bundle"
	"loanshare/internal/domain/collateral"
	"loanshare/internal/domain/event"
	"loanshare/internal/domain/loan"
	"loanshare/internal/infrastructure/ticks"
	"loanshare/internal/testutil/bundlemock"
	"loanshare/internal/testutil/memstore"
	"loanshare/internal/testutil/uowmock"
	loanuc "loanshare/internal/usecase/loan"
	"loanshare/internal/usecase/runner"
	"loanshare/pkg/amount"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	nft      = common.HexToAddress("0x2000000000000000000000000000000000000002")
	lender   = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	borrower = common.HexToAddress("0x00000000000000000000000000000000000000c2")
)

func eth(s string) *uint256.Int { return amount.MustParse(s, 18) }

type world struct {
	t         *testing.T
	ctx       context.Context
	st        *memstore.Store
	loans     *loanuc.Usecase
	bundles   *Usecase
	published []event.Event
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{t: t, ctx: context.Background(), st: memstore.New()}
	sink := event.SinkFunc(func(_ context.Context, evs ...event.Event) error {
		w.published = append(w.published, evs...)
		return nil
	})
	run := runner.New(w.st, runner.WithSink(sink))
	tk := ticks.NewManual(0)
	w.loans = loanuc.NewUsecase(run, tk)
	w.bundles = NewUsecase(run, tk)
	_ = w.st.Ledgers.Native().Mint(w.ctx, lender, eth("1000"))
	_ = w.st.Ledgers.Native().Mint(w.ctx, borrower, eth("1000"))
	return w
}

// initiatedLoan creates, funds and initiates a loan with collateral token n.
func (w *world) initiatedLoan(n uint64, repayment string) common.Address {
	w.t.Helper()
	if err := w.st.Registry.Mint(w.ctx, borrower, collateral.Item{Collection: nft, TokenID: n}); err != nil {
		w.t.Fatalf("mint: %v", err)
	}
	dto, err := w.loans.Create(w.ctx, loanuc.CreateLoanInput{
		Creator: lender, Name: fmt.Sprintf("Loan %d", n), Symbol: "LSH", ShareDecimals: 18,
		ShareSupply: eth("100"), CollateralAsset: nft, CollateralID: n, ExpiryTick: 100,
		Borrower: borrower, Principal: eth("10"), Repayment: eth(repayment),
		AuctionStartPrice: eth("12"), AuctionDropPerTick: eth("0.00023"),
	})
	if err != nil {
		w.t.Fatalf("create loan: %v", err)
	}
	if _, err := w.loans.Fund(w.ctx, dto.Address, lender, eth("10")); err != nil {
		w.t.Fatalf("fund: %v", err)
	}
	if err := w.st.Registry.SetApprovalForAll(w.ctx, nft, borrower, dto.Address, true); err != nil {
		w.t.Fatalf("approve: %v", err)
	}
	if _, err := w.loans.Initiate(w.ctx, dto.Address, borrower); err != nil {
		w.t.Fatalf("initiate: %v", err)
	}
	return dto.Address
}

func (w *world) newBundle(loans []common.Address) *BundleDTO {
	w.t.Helper()
	b, err := w.bundles.Create(w.ctx, CreateBundleInput{
		Creator: lender, Name: "Bundle", Symbol: "BND", ShareDecimals: 18,
		ShareSupply: eth("1"), Loans: loans,
	})
	if err != nil {
		w.t.Fatalf("create bundle: %v", err)
	}
	for _, l := range loans {
		if err := w.st.Ledgers.Ledger(l).Transfer(w.ctx, lender, b.Address, eth("100")); err != nil {
			w.t.Fatalf("deposit loan shares: %v", err)
		}
	}
	return b
}

func TestUsecase_CreateValidation(t *testing.T) {
	w := newWorld(t)
	l := w.initiatedLoan(1, "11")

	if _, err := w.bundles.Create(w.ctx, CreateBundleInput{Creator: lender, ShareSupply: eth("1")}); !errors.Is(err, bundle.ErrNoMembers) {
		t.Fatalf("want ErrNoMembers, got %v", err)
	}
	unknown := common.HexToAddress("0x9999999999999999999999999999999999999999")
	if _, err := w.bundles.Create(w.ctx, CreateBundleInput{Creator: lender, ShareSupply: eth("1"), Loans: []common.Address{l, unknown}}); !errors.Is(err, bundle.ErrUnknownLoan) {
		t.Fatalf("want ErrUnknownLoan, got %v", err)
	}
	if _, err := w.bundles.Create(w.ctx, CreateBundleInput{Creator: lender, ShareSupply: eth("1"), Loans: []common.Address{l, l}}); !errors.Is(err, bundle.ErrDuplicateLoan) {
		t.Fatalf("want ErrDuplicateLoan, got %v", err)
	}
	if _, err := w.bundles.Create(w.ctx, CreateBundleInput{Creator: lender, Loans: []common.Address{l}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestUsecase_GetAndLoanAt(t *testing.T) {
	w := newWorld(t)
	a, b := w.initiatedLoan(1, "11"), w.initiatedLoan(2, "12")
	dto := w.newBundle([]common.Address{a, b})

	got, err := w.bundles.Get(w.ctx, dto.Address)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Bundle" || got.Symbol != "BND" || got.ShareDecimals != 18 || !got.ShareSupply.Eq(eth("1")) {
		t.Fatalf("metadata: %+v", got)
	}
	if len(got.Loans) != 2 || got.Loans[0] != a || got.Loans[1] != b {
		t.Fatalf("loans = %v", got.Loans)
	}
	m, err := w.bundles.LoanAt(w.ctx, dto.Address, 1)
	if err != nil || m.Loan != b {
		t.Fatalf("LoanAt(1) = %+v, %v", m, err)
	}
	if _, err := w.bundles.LoanAt(w.ctx, dto.Address, 2); !errors.Is(err, bundle.ErrLoanIndexOutOfRange) {
		t.Fatalf("want ErrLoanIndexOutOfRange, got %v", err)
	}
	if _, err := w.bundles.Get(w.ctx, common.HexToAddress("0xbeef")); !errors.Is(err, bundle.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUsecase_FiveRepaidLoansToSoleHolder(t *testing.T) {
	w := newWorld(t)
	repayments := []string{"11", "12", "13.5", "14", "15.4"}
	var loans []common.Address
	for i, r := range repayments {
		loans = append(loans, w.initiatedLoan(uint64(i+1), r))
	}
	b := w.newBundle(loans)

	if _, err := w.bundles.ClaimFromLoan(w.ctx, b.Address, borrower, 0); !errors.Is(err, loan.ErrNothingToClaim) {
		t.Fatalf("pull before repay: want ErrNothingToClaim, got %v", err)
	}
	for i, l := range loans {
		if _, err := w.loans.Repay(w.ctx, l, borrower, eth(repayments[i])); err != nil {
			t.Fatalf("repay %d: %v", i, err)
		}
	}

	p, err := w.bundles.ClaimFromLoan(w.ctx, b.Address, borrower, 0)
	if err != nil || !p.Amount.Eq(eth("11")) || p.Loan != loans[0] {
		t.Fatalf("pull 0 = %+v, %v", p, err)
	}
	all, err := w.bundles.ClaimFromAll(w.ctx, b.Address, borrower)
	if !errors.Is(err, loan.ErrNoShares) {
		t.Fatalf("re-pull of loan 0 should report ErrNoShares, got %v", err)
	}
	if !all.Total.Eq(eth("54.9")) || all.Pulls[0].Error == "" {
		t.Fatalf("pull all = %+v", all)
	}
	if !all.Bundle.Held.Eq(eth("65.9")) {
		t.Fatalf("held = %s", all.Bundle.Held.Dec())
	}

	c, err := w.bundles.Claim(w.ctx, b.Address, lender)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !c.Payout.Eq(eth("65.9")) || !c.Bundle.Held.IsZero() || !c.Bundle.OutstandingShares.IsZero() {
		t.Fatalf("claim = %+v", c)
	}
	if _, err := w.bundles.Claim(w.ctx, b.Address, lender); !errors.Is(err, bundle.ErrNothingToClaim) {
		t.Fatalf("second claim: want ErrNothingToClaim, got %v", err)
	}

	pulled := 0
	for _, ev := range w.published {
		if ev.Kind == event.KindBundlePulled {
			pulled++
		}
	}
	if pulled != 5 {
		t.Fatalf("BundlePulled events = %d", pulled)
	}
}

func TestUsecase_PullOutOfRange(t *testing.T) {
	w := newWorld(t)
	b := w.newBundle([]common.Address{w.initiatedLoan(1, "11")})
	if _, err := w.bundles.ClaimFromLoan(w.ctx, b.Address, lender, 5); !errors.Is(err, bundle.ErrLoanIndexOutOfRange) {
		t.Fatalf("want ErrLoanIndexOutOfRange, got %v", err)
	}
}

func TestUsecase_StoreFailuresPublishNothing(t *testing.T) {
	w := newWorld(t)
	l := w.initiatedLoan(1, "11")
	w.published = nil

	createErr := errors.New("insert failed")
	lockErr := errors.New("lock wait timeout")
	repos := w.st.Repos()
	repos.Bundles = &bundlemock.Repo{
		CreateFn:                func(context.Context, *bundle.Bundle) error { return createErr },
		GetByAddressForUpdateFn: func(context.Context, common.Address) (*bundle.Bundle, error) { return nil, lockErr },
	}
	published := 0
	sink := event.SinkFunc(func(_ context.Context, evs ...event.Event) error { published += len(evs); return nil })
	uc := NewUsecase(runner.New(uowmock.New().WithRepos(repos), runner.WithSink(sink)), ticks.NewManual(0))

	if _, err := uc.Create(w.ctx, CreateBundleInput{Creator: lender, ShareSupply: eth("1"), Loans: []common.Address{l}}); !errors.Is(err, createErr) {
		t.Fatalf("want createErr, got %v", err)
	}
	if _, err := uc.ClaimFromAll(w.ctx, l, lender); !errors.Is(err, lockErr) {
		t.Fatalf("want lockErr, got %v", err)
	}
	if _, err := uc.Get(w.ctx, l); !errors.Is(err, bundle.ErrNotFound) {
		t.Fatalf("want ErrNotFound from default mock, got %v", err)
	}
	if published != 0 {
		t.Fatalf("published %d events after failures", published)
	}
}
