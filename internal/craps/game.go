// Package craps is the two-player craps state machine. A single Game record
// is re-used across rounds: players join with a fixed ante, a shooter is
// picked from a random word, and the shooter's rolls are resolved when the
// randomness coordinator calls back with words for the pending request.
package craps

import (
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"

	"onchaincraps/internal/vrf"
)

const (
	DefaultRandomnessTimeoutSecs uint64 = 3600

	shooterWords uint32 = 1
	rollWords    uint32 = 2
)

// Bank moves funds in and out of the pot.
type Bank interface {
	Debit(addr string, amount uint64) error
	Credit(addr string, amount uint64) error
}

// Randomness issues a request for random words. Words arrive later through
// OnRandomnessFulfilled with the returned request id.
type Randomness interface {
	RequestRandomWords(numWords uint32) (uint64, error)
}

type Game struct {
	Phase Phase  `json:"phase"`
	Ante  uint64 `json:"ante"`
	// RandomnessTimeoutSecs bounds how long a request may stay pending before
	// anyone can cancel the round with refunds.
	RandomnessTimeoutSecs uint64 `json:"randomnessTimeoutSecs"`

	Player1 string `json:"player1,omitempty"`
	Player2 string `json:"player2,omitempty"`
	Pot     uint64 `json:"pot"`
	Shooter string `json:"shooter,omitempty"`
	Point   uint8  `json:"point"`
	Die1    uint8  `json:"die1"`
	Die2    uint8  `json:"die2"`

	// PendingRequest is 0 when no request is outstanding.
	PendingRequest uint64 `json:"pendingRequest,omitempty"`
	RequestedAt    int64  `json:"requestedAt,omitempty"`

	// Round counts completed rounds (settled or refunded).
	Round uint64 `json:"round"`
}

func NewGame(ante, timeoutSecs uint64) *Game {
	if timeoutSecs == 0 {
		timeoutSecs = DefaultRandomnessTimeoutSecs
	}
	return &Game{Phase: PhaseOpen, Ante: ante, RandomnessTimeoutSecs: timeoutSecs}
}

func (g *Game) DiceSum() uint8 {
	return g.Die1 + g.Die2
}

func (g *Game) hasPlayer(addr string) bool {
	return addr != "" && (g.Player1 == addr || g.Player2 == addr)
}

// Opponent returns the seated player who is not the shooter.
func (g *Game) Opponent() string {
	if g.Shooter == g.Player1 {
		return g.Player2
	}
	return g.Player1
}

func (g *Game) transition(to Phase) error {
	if !g.Phase.CanTransition(to) {
		return fmt.Errorf("illegal phase transition %s -> %s", g.Phase, to)
	}
	g.Phase = to
	return nil
}

// Join seats player with an attached value that must equal the ante.
func (g *Game) Join(bank Bank, player string, value uint64) ([]abci.Event, error) {
	if g.Ante == 0 {
		return nil, ErrNotInitialized
	}
	if player == "" {
		return nil, ErrIncorrectGameState.Wrap("missing player")
	}
	if value != g.Ante {
		return nil, ErrIncorrectAnte.Wrapf("attached %d, ante is %d", value, g.Ante)
	}
	if g.hasPlayer(player) {
		return nil, ErrPlayerAlreadyJoined.Wrapf("%s", player)
	}
	if g.Phase != PhaseOpen && g.Phase != PhaseOnePlayer {
		return nil, ErrGameFull.Wrapf("phase %s", g.Phase)
	}
	if g.Player1 != "" && g.Player2 != "" {
		return nil, ErrGameFull
	}

	pot, err := addUint64Checked(g.Pot, value, "pot")
	if err != nil {
		return nil, err
	}
	if err := bank.Debit(player, value); err != nil {
		return nil, err
	}

	var slot string
	if g.Player1 == "" {
		g.Player1, slot = player, "1"
		err = g.transition(PhaseOnePlayer)
	} else {
		g.Player2, slot = player, "2"
		err = g.transition(PhaseTwoPlayers)
	}
	if err != nil {
		return nil, err
	}
	g.Pot = pot

	return []abci.Event{NewEvent(EventTypePlayerJoined, map[string]string{
		"player": player,
		"slot":   slot,
		"pot":    u64str(g.Pot),
		"round":  u64str(g.Round),
	})}, nil
}

// SelectShooter requests one word to pick the shooter. Any account may call
// it once two players are seated.
func (g *Game) SelectShooter(rng Randomness, caller string, nowUnix int64) ([]abci.Event, error) {
	if g.Phase != PhaseTwoPlayers {
		return nil, ErrIncorrectGameState.Wrapf("select shooter requires %s, game is %s", PhaseTwoPlayers, g.Phase)
	}
	id, err := g.request(rng, shooterWords, nowUnix)
	if err != nil {
		return nil, err
	}
	if err := g.transition(PhaseSelectingShooter); err != nil {
		return nil, err
	}
	return []abci.Event{NewEvent(EventTypeShooterRequested, map[string]string{
		"requestId": u64str(id),
		"caller":    caller,
		"round":     u64str(g.Round),
	})}, nil
}

// RollTheComeOut requests the dice for the come-out roll.
func (g *Game) RollTheComeOut(rng Randomness, caller string, nowUnix int64) ([]abci.Event, error) {
	return g.roll(rng, caller, nowUnix, PhaseAwaitingComeOut, EventTypeComeOutRequested)
}

// RollThePoint requests the dice for a point-phase roll.
func (g *Game) RollThePoint(rng Randomness, caller string, nowUnix int64) ([]abci.Event, error) {
	return g.roll(rng, caller, nowUnix, PhaseAwaitingRoll, EventTypePointRollRequested)
}

func (g *Game) roll(rng Randomness, caller string, nowUnix int64, want Phase, evType string) ([]abci.Event, error) {
	if g.Shooter == "" || caller != g.Shooter {
		return nil, ErrNotShooter.Wrapf("%q", caller)
	}
	if g.Phase != want {
		return nil, ErrIncorrectGameState.Wrapf("roll requires %s, game is %s", want, g.Phase)
	}
	if g.PendingRequest != 0 {
		return nil, ErrRequestPending.Wrapf("request %d", g.PendingRequest)
	}
	id, err := g.request(rng, rollWords, nowUnix)
	if err != nil {
		return nil, err
	}
	// Dice keep their previous values until the words arrive.
	return []abci.Event{NewEvent(evType, map[string]string{
		"requestId": u64str(id),
		"shooter":   g.Shooter,
		"point":     fmt.Sprintf("%d", g.Point),
		"round":     u64str(g.Round),
	})}, nil
}

func (g *Game) request(rng Randomness, numWords uint32, nowUnix int64) (uint64, error) {
	id, err := rng.RequestRandomWords(numWords)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, fmt.Errorf("randomness gateway returned request id 0")
	}
	g.PendingRequest = id
	g.RequestedAt = nowUnix
	return id, nil
}

// OnRandomnessFulfilled is the coordinator callback. Words for any request
// other than the pending one are ignored without error.
func (g *Game) OnRandomnessFulfilled(bank Bank, requestID uint64, words []vrf.Word) ([]abci.Event, error) {
	if requestID == 0 || requestID != g.PendingRequest {
		return nil, nil
	}
	switch g.Phase {
	case PhaseSelectingShooter:
		return g.resolveShooter(words)
	case PhaseAwaitingComeOut, PhaseAwaitingRoll:
		return g.resolveRoll(bank, words)
	default:
		return nil, ErrIncorrectGameState.Wrapf("request %d pending in phase %s", requestID, g.Phase)
	}
}

func (g *Game) resolveShooter(words []vrf.Word) ([]abci.Event, error) {
	if len(words) != int(shooterWords) {
		return nil, ErrInvalidWords.Wrapf("shooter selection wants %d word, got %d", shooterWords, len(words))
	}
	shooter := pickShooter(words[0], g.Player1, g.Player2)
	if err := g.transition(PhaseAwaitingComeOut); err != nil {
		return nil, err
	}
	g.Shooter = shooter
	g.PendingRequest = 0
	g.RequestedAt = 0
	return []abci.Event{NewEvent(EventTypeShooterSelected, map[string]string{
		"shooter": shooter,
		"round":   u64str(g.Round),
	})}, nil
}

func (g *Game) resolveRoll(bank Bank, words []vrf.Word) ([]abci.Event, error) {
	if len(words) != int(rollWords) {
		return nil, ErrInvalidWords.Wrapf("roll wants %d words, got %d", rollWords, len(words))
	}
	d1, d2 := rollDice(words[0], words[1])
	sum := d1 + d2

	var outcome Outcome
	if g.Phase == PhaseAwaitingComeOut {
		outcome = classifyComeOut(sum)
	} else {
		outcome = classifyPointRoll(sum, g.Point)
	}

	point := g.Point
	if outcome == OutcomePointEstablished {
		point = sum
	}
	rolled := NewEvent(EventTypeDiceRolled, map[string]string{
		"point":   fmt.Sprintf("%d", point),
		"die1":    fmt.Sprintf("%d", d1),
		"die2":    fmt.Sprintf("%d", d2),
		"sum":     fmt.Sprintf("%d", sum),
		"outcome": string(outcome),
		"shooter": g.Shooter,
		"round":   u64str(g.Round),
	})

	if outcome.Settles() {
		winner := g.Opponent()
		if outcome.ShooterWins() {
			winner = g.Shooter
		}
		settled, err := g.settle(bank, winner)
		if err != nil {
			return nil, err
		}
		// The record is already reset; dice remain observable on the event.
		return append([]abci.Event{rolled}, settled...), nil
	}

	if outcome == OutcomePointEstablished {
		if err := g.transition(PhaseAwaitingRoll); err != nil {
			return nil, err
		}
		g.Point = point
	}
	g.Die1, g.Die2 = d1, d2
	g.PendingRequest = 0
	g.RequestedAt = 0
	return []abci.Event{rolled}, nil
}

// settle pays the whole pot to winner and resets the record. Nothing is
// mutated if the transfer fails.
func (g *Game) settle(bank Bank, winner string) ([]abci.Event, error) {
	if !g.hasPlayer(winner) {
		return nil, fmt.Errorf("settle: winner %q is not seated", winner)
	}
	amount := g.Pot
	if err := bank.Credit(winner, amount); err != nil {
		return nil, fmt.Errorf("settle pot to %s: %w", winner, err)
	}
	round := g.Round
	if err := g.reset(); err != nil {
		return nil, err
	}
	return []abci.Event{NewEvent(EventTypeGameSettled, map[string]string{
		"winner": winner,
		"amount": u64str(amount),
		"round":  u64str(round),
	})}, nil
}

func (g *Game) reset() error {
	if err := g.transition(PhaseOpen); err != nil {
		return err
	}
	g.Player1, g.Player2 = "", ""
	g.Shooter = ""
	g.Point = 0
	g.Die1, g.Die2 = 0, 0
	g.Pot = 0
	g.PendingRequest = 0
	g.RequestedAt = 0
	g.Round++
	return nil
}

// Timeout abandons a request that has been pending for at least
// RandomnessTimeoutSecs and refunds each seated player's ante. The caller
// cancels the request with the randomness source; a fulfillment that still
// reaches the game is ignored as stale.
func (g *Game) Timeout(bank Bank, caller string, nowUnix int64) ([]abci.Event, error) {
	if g.PendingRequest == 0 {
		return nil, ErrIncorrectGameState.Wrapf("no pending randomness request in phase %s", g.Phase)
	}
	deadline, err := addInt64AndU64Checked(g.RequestedAt, g.RandomnessTimeoutSecs, "randomness deadline")
	if err != nil {
		return nil, err
	}
	if nowUnix < deadline {
		return nil, ErrTimeoutNotReached.Wrapf("now=%d deadline=%d", nowUnix, deadline)
	}

	events := []abci.Event{NewEvent(EventTypeRandomnessTimedOut, map[string]string{
		"requestId": u64str(g.PendingRequest),
		"caller":    caller,
		"round":     u64str(g.Round),
	})}
	var refunded uint64
	for _, p := range []string{g.Player1, g.Player2} {
		if p == "" {
			continue
		}
		if err := bank.Credit(p, g.Ante); err != nil {
			return nil, fmt.Errorf("refund %s: %w", p, err)
		}
		refunded += g.Ante
		events = append(events, NewEvent(EventTypeGameRefunded, map[string]string{
			"player": p,
			"amount": u64str(g.Ante),
			"round":  u64str(g.Round),
		}))
	}
	if refunded != g.Pot {
		return nil, fmt.Errorf("refund mismatch: refunded=%d pot=%d", refunded, g.Pot)
	}
	if err := g.reset(); err != nil {
		return nil, err
	}
	return events, nil
}
