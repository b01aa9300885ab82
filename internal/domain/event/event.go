package event

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

type Kind string

const (
	KindFunded         Kind = "funded"
	KindInitiated      Kind = "initiated"
	KindRepaid         Kind = "repaid"
	KindAuctionStarted Kind = "auction_started"
	KindAuctionEnded   Kind = "auction_ended"
	KindClaimed        Kind = "claimed"
	KindBundleCreated  Kind = "bundle_created"
	KindBundlePulled   Kind = "bundle_pulled"
)

// Event is an observable notification. Contract is the emitting loan or
// bundle; Ref carries a secondary address (the pulled loan for
// KindBundlePulled).
type Event struct {
	ID       string         `json:"id"`
	Kind     Kind           `json:"kind"`
	Contract common.Address `json:"contract"`
	Party    common.Address `json:"party"`
	Ref      common.Address `json:"ref,omitempty"`
	Amount   *uint256.Int   `json:"amount,omitempty"`
	Tick     uint64         `json:"tick,omitempty"`
	At       time.Time      `json:"at"`
}

func New(kind Kind, contract, party common.Address, amount *uint256.Int) Event {
	var amt *uint256.Int
	if amount != nil {
		amt = amount.Clone()
	}
	return Event{
		ID:       uuid.NewString(),
		Kind:     kind,
		Contract: contract,
		Party:    party,
		Amount:   amt,
		At:       time.Now().UTC(),
	}
}

// Sink receives events after the operation that produced them committed.
type Sink interface {
	Publish(ctx context.Context, evs ...Event) error
}

type SinkFunc func(ctx context.Context, evs ...Event) error

func (f SinkFunc) Publish(ctx context.Context, evs ...Event) error { return f(ctx, evs...) }
