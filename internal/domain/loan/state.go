package loan

type State string

const (
	StateCreated       State = "created"
	StateFunded        State = "funded"
	StateInitiated     State = "initiated"
	StateRepaid        State = "repaid"
	StateAuctionActive State = "auction_active"
	StateAuctionEnded  State = "auction_ended"
)

var transitions = map[State][]State{
	StateCreated:       {StateFunded},
	StateFunded:        {StateInitiated},
	StateInitiated:     {StateRepaid, StateAuctionActive},
	StateAuctionActive: {StateAuctionEnded},
}

func (s State) Valid() bool {
	switch s {
	case StateCreated, StateFunded, StateInitiated, StateRepaid, StateAuctionActive, StateAuctionEnded:
		return true
	}
	return false
}

func (s State) CanTransitionTo(next State) bool {
	for _, n := range transitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// Transition moves l to next or returns ErrInvalidTransition.
func (l *Loan) Transition(next State) error {
	if !l.State.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	l.State = next
	return nil
}
