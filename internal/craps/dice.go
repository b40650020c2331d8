package craps

import "onchaincraps/internal/vrf"

// Outcome classifies a resolved roll.
type Outcome string

const (
	OutcomeNatural          Outcome = "natural"
	OutcomeCraps            Outcome = "craps"
	OutcomePointEstablished Outcome = "pointEstablished"
	OutcomePointMade        Outcome = "pointMade"
	OutcomeSevenOut         Outcome = "sevenOut"
	OutcomeNoDecision       Outcome = "noDecision"
)

// Settles reports whether the round ends on this outcome.
func (o Outcome) Settles() bool {
	switch o {
	case OutcomeNatural, OutcomeCraps, OutcomePointMade, OutcomeSevenOut:
		return true
	}
	return false
}

// ShooterWins is only meaningful when Settles is true.
func (o Outcome) ShooterWins() bool {
	return o == OutcomeNatural || o == OutcomePointMade
}

func dieFromWord(w vrf.Word) uint8 {
	return uint8(w.Mod(6) + 1)
}

func rollDice(w1, w2 vrf.Word) (uint8, uint8) {
	return dieFromWord(w1), dieFromWord(w2)
}

// classifyComeOut applies come-out rules to a dice sum.
func classifyComeOut(sum uint8) Outcome {
	switch sum {
	case 7, 11:
		return OutcomeNatural
	case 2, 3, 12:
		return OutcomeCraps
	default:
		return OutcomePointEstablished
	}
}

// classifyPointRoll applies point-phase rules to a dice sum.
func classifyPointRoll(sum, point uint8) Outcome {
	switch sum {
	case point:
		return OutcomePointMade
	case 7:
		return OutcomeSevenOut
	default:
		return OutcomeNoDecision
	}
}

// IsPoint reports whether n can be established as a point.
func IsPoint(n uint8) bool {
	switch n {
	case 4, 5, 6, 8, 9, 10:
		return true
	}
	return false
}
