package app

import (
	abci "github.com/cometbft/cometbft/abci/types"

	"onchaincraps/internal/state"
	"onchaincraps/internal/vrf"
)

const crapsConsumer = "craps"

// newCoordinator binds a coordinator to st with the game registered as its
// consumer. Fulfillment payouts go through st's bank.
func newCoordinator(st *state.State) *vrf.Coordinator {
	c := vrf.NewCoordinator(st.VRF)
	c.RegisterConsumer(crapsConsumer, func(requestID uint64, words []vrf.Word) ([]abci.Event, error) {
		return st.Craps.OnRandomnessFulfilled(st, requestID, words)
	})
	return c
}

// gameRandomness adapts the coordinator to the game's request interface and
// collects the coordinator events emitted along the way.
type gameRandomness struct {
	coord  *vrf.Coordinator
	height int64
	events []abci.Event
}

func newGameRandomness(st *state.State, height int64) *gameRandomness {
	return &gameRandomness{coord: newCoordinator(st), height: height}
}

func (r *gameRandomness) RequestRandomWords(numWords uint32) (uint64, error) {
	id, events, err := r.coord.RequestRandomWords(crapsConsumer, numWords, r.height)
	if err != nil {
		return 0, err
	}
	r.events = append(r.events, events...)
	return id, nil
}

// timeoutGame abandons the game's pending request and drops it from the
// coordinator so the oracle can no longer answer it.
func timeoutGame(st *state.State, caller string, nowUnix int64) ([]abci.Event, error) {
	requestID := st.Craps.PendingRequest
	events, err := st.Craps.Timeout(st, caller, nowUnix)
	if err != nil {
		return nil, err
	}
	cancelled, err := newCoordinator(st).Cancel(requestID)
	if err != nil {
		return nil, err
	}
	return append(events, cancelled...), nil
}
