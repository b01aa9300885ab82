package approval

import (
	"context"
	"errors"

	domainApproval "loanshare/internal/domain/approval"
	"loanshare/internal/domain/event"
	"loanshare/internal/domain/uow"
	"loanshare/internal/usecase/runner"

	"github.com/ethereum/go-ethereum/common"
)

var ErrInvalidInput = errors.New("invalid input")

type Usecase struct {
	run *runner.Runner
}

func NewUsecase(run *runner.Runner) *Usecase { return &Usecase{run: run} }

// SetApprovalForAll grants or revokes Operator's right to move every item
// Owner holds in Collection. Loan engines need this grant from the borrower
// before Initiate can take custody.
func (u *Usecase) SetApprovalForAll(ctx context.Context, in ApproveInput) (*ApprovalDTO, error) {
	if in.Collection == (common.Address{}) || in.Owner == (common.Address{}) || in.Operator == (common.Address{}) {
		return nil, ErrInvalidInput
	}
	if in.Owner == in.Operator {
		return nil, domainApproval.ErrSelfApproval
	}
	var dto *ApprovalDTO
	err := u.run.Do(ctx, "collateral.approve", func(r uow.Repos) ([]event.Event, error) {
		if err := r.Collateral.SetApprovalForAll(ctx, in.Collection, in.Owner, in.Operator, in.Approved); err != nil {
			return nil, err
		}
		a, err := r.Approvals.Get(ctx, in.Collection, in.Owner, in.Operator)
		if err != nil {
			return nil, err
		}
		dto = toDTO(a)
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Get reports the grant; an absent grant is reported as not approved.
func (u *Usecase) Get(ctx context.Context, collection, owner, operator common.Address) (*ApprovalDTO, error) {
	var dto *ApprovalDTO
	err := u.run.View(ctx, func(r uow.Repos) error {
		a, err := r.Approvals.Get(ctx, collection, owner, operator)
		switch {
		case errors.Is(err, domainApproval.ErrNotFound):
			dto = &ApprovalDTO{Collection: collection, Owner: owner, Operator: operator}
			return nil
		case err != nil:
			return err
		}
		dto = toDTO(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (u *Usecase) ListByOwner(ctx context.Context, collection, owner common.Address) ([]ApprovalDTO, error) {
	var out []ApprovalDTO
	err := u.run.View(ctx, func(r uow.Repos) error {
		list, err := r.Approvals.ListByOwner(ctx, collection, owner)
		if err != nil {
			return err
		}
		out = make([]ApprovalDTO, 0, len(list))
		for i := range list {
			out = append(out, *toDTO(&list[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toDTO(a *domainApproval.Approval) *ApprovalDTO {
	return &ApprovalDTO{
		Collection: a.Collection,
		Owner:      a.Owner,
		Operator:   a.Operator,
		Approved:   a.Approved,
		UpdatedAt:  a.UpdatedAt,
	}
}
