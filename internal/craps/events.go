package craps

import (
	"fmt"
	"sort"

	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	EventTypePlayerJoined       = "PlayerJoined"
	EventTypeShooterRequested   = "ShooterRequested"
	EventTypeShooterSelected    = "ShooterSelected"
	EventTypeComeOutRequested   = "ComeOutRequested"
	EventTypePointRollRequested = "PointRollRequested"
	EventTypeDiceRolled         = "DiceRolled"
	EventTypeGameSettled        = "GameSettled"
	EventTypeRandomnessTimedOut = "RandomnessTimedOut"
	EventTypeGameRefunded       = "GameRefunded"
)

// NewEvent builds an indexed event with attributes in key order.
func NewEvent(typ string, attrs map[string]string) abci.Event {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ev := abci.Event{Type: typ}
	for _, k := range keys {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: k, Value: attrs[k], Index: true})
	}
	return ev
}

func u64str(x uint64) string {
	return fmt.Sprintf("%d", x)
}
