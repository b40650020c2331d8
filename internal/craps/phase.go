package craps

import "fmt"

// Phase is the game record's protocol state. Numeric values are stable and
// exposed through queries.
type Phase uint8

const (
	PhaseOpen Phase = iota
	PhaseOnePlayer
	PhaseTwoPlayers
	PhaseSelectingShooter
	PhaseAwaitingComeOut
	PhaseAwaitingRoll
)

var phaseNames = [...]string{
	PhaseOpen:             "open",
	PhaseOnePlayer:        "onePlayer",
	PhaseTwoPlayers:       "twoPlayers",
	PhaseSelectingShooter: "selectingShooter",
	PhaseAwaitingComeOut:  "awaitingComeOut",
	PhaseAwaitingRoll:     "awaitingRoll",
}

// transitions lists every legal edge. Settlement and refunds return to
// PhaseOpen; there is no persisted settled phase.
var transitions = map[Phase][]Phase{
	PhaseOpen:             {PhaseOnePlayer},
	PhaseOnePlayer:        {PhaseTwoPlayers},
	PhaseTwoPlayers:       {PhaseSelectingShooter},
	PhaseSelectingShooter: {PhaseAwaitingComeOut, PhaseOpen},
	PhaseAwaitingComeOut:  {PhaseAwaitingRoll, PhaseOpen},
	PhaseAwaitingRoll:     {PhaseOpen},
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

func (p Phase) CanTransition(to Phase) bool {
	for _, next := range transitions[p] {
		if next == to {
			return true
		}
	}
	return false
}

func (p Phase) MarshalText() ([]byte, error) {
	if int(p) >= len(phaseNames) {
		return nil, fmt.Errorf("unknown phase %d", uint8(p))
	}
	return []byte(phaseNames[p]), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(b))
}
