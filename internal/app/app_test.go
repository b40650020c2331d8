package app

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cosmossdk.io/log"
	abci "github.com/cometbft/cometbft/abci/types"
	dbm "github.com/cosmos/cosmos-db"

	"onchaincraps/internal/codec"
	"onchaincraps/internal/craps"
	"onchaincraps/internal/state"
	"onchaincraps/internal/vrf"
)

func requireCode(t *testing.T, res *abci.ExecTxResult, codespace string, code uint32) {
	t.Helper()
	if res.Codespace != codespace || res.Code != code {
		t.Fatalf("expected %s/%d, got %s/%d log=%q", codespace, code, res.Codespace, res.Code, res.Log)
	}
}

func TestEndToEnd_Player2ShootsNatural(t *testing.T) {
	const height = int64(2)
	a := newTestApp(t)

	joinBoth(t, a, height)
	if a.st.Craps.Phase != craps.PhaseTwoPlayers || a.st.Craps.Pot != 2*testAnte {
		t.Fatalf("unexpected game after joins: %+v", a.st.Craps)
	}

	selRes := mustOk(t, a.deliverTx(txBytesSigned(t, "craps/select_shooter", map[string]any{"caller": "carol"}, "carol"), height, 100))
	if findEvent(selRes.Events, craps.EventTypeShooterRequested) == nil {
		t.Fatalf("expected ShooterRequested event")
	}
	if a.st.Craps.Shooter != "" {
		t.Fatalf("shooter must not be chosen before fulfillment")
	}

	fRes := mustOk(t, fulfillRaw(t, a, height+1, requestID(t, selRes), "1"))
	if got := attr(findEvent(fRes.Events, craps.EventTypeShooterSelected), "shooter"); got != "bob" {
		t.Fatalf("expected bob as shooter, got %q", got)
	}

	rollRes := mustOk(t, a.deliverTx(rollTx(t, "craps/roll_come_out", "bob"), height+2, 200))
	if a.st.Craps.Die1 != 0 || a.st.Craps.Die2 != 0 {
		t.Fatalf("dice must stay unset until fulfillment")
	}
	settleRes := mustOk(t, fulfillRaw(t, a, height+3, requestID(t, rollRes), dieWord(3), dieWord(4)))

	rolled := findEvent(settleRes.Events, craps.EventTypeDiceRolled)
	if attr(rolled, "die1") != "3" || attr(rolled, "die2") != "4" || attr(rolled, "outcome") != "natural" {
		t.Fatalf("unexpected DiceRolled: %+v", rolled)
	}
	settled := findEvent(settleRes.Events, craps.EventTypeGameSettled)
	if attr(settled, "winner") != "bob" || attr(settled, "amount") != "200" {
		t.Fatalf("unexpected GameSettled: %+v", settled)
	}
	if a.st.Balance("bob") != 1100 || a.st.Balance("alice") != 900 {
		t.Fatalf("unexpected balances: alice=%d bob=%d", a.st.Balance("alice"), a.st.Balance("bob"))
	}
	g := a.st.Craps
	if g.Phase != craps.PhaseOpen || g.Player1 != "" || g.Player2 != "" || g.Pot != 0 || g.PendingRequest != 0 || g.Round != 1 {
		t.Fatalf("expected reset game, got %+v", g)
	}
	if len(a.st.VRF.Requests) != 0 {
		t.Fatalf("expected no pending coordinator requests, got %v", a.st.VRF.Requests)
	}

	// A new round can start right away.
	joinBoth(t, a, height+4)
}

func TestPointPhase_SevenOutPaysOpponent(t *testing.T) {
	const height = int64(2)
	a := newTestApp(t)
	seatShooter(t, a, height, "0")

	res := mustOk(t, a.deliverTx(rollTx(t, "craps/roll_come_out", "alice"), height, 200))
	mustOk(t, fulfillRaw(t, a, height, requestID(t, res), dieWord(5), dieWord(4)))
	if a.st.Craps.Phase != craps.PhaseAwaitingRoll || a.st.Craps.Point != 9 {
		t.Fatalf("expected point 9, got %+v", a.st.Craps)
	}

	// Come-out roll is no longer allowed.
	requireCode(t, mustFail(t, a.deliverTx(rollTx(t, "craps/roll_come_out", "alice"), height, 201)), craps.Codespace, craps.ErrIncorrectGameState.ABCICode())

	res = mustOk(t, a.deliverTx(rollTx(t, "craps/roll_point", "alice"), height, 202))
	requireCode(t, mustFail(t, a.deliverTx(rollTx(t, "craps/roll_point", "alice"), height, 203)), craps.Codespace, craps.ErrRequestPending.ABCICode())
	out := mustOk(t, fulfillRaw(t, a, height, requestID(t, res), dieWord(1), dieWord(6)))
	if attr(findEvent(out.Events, craps.EventTypeGameSettled), "winner") != "bob" {
		t.Fatalf("expected bob to win on seven-out, events=%v", out.Events)
	}
	if a.st.Balance("bob") != 1100 {
		t.Fatalf("expected bob=1100, got %d", a.st.Balance("bob"))
	}
}

func TestJoin_Rejections(t *testing.T) {
	const height = int64(2)
	a := newTestApp(t)

	res := mustFail(t, a.deliverTx(txBytesSigned(t, "craps/join", map[string]any{"player": "alice", "value": testAnte + 1}, "alice"), height, 0))
	requireCode(t, res, craps.Codespace, craps.ErrIncorrectAnte.ABCICode())

	joinBoth(t, a, height)
	res = mustFail(t, a.deliverTx(txBytesSigned(t, "craps/join", map[string]any{"player": "alice", "value": testAnte}, "alice"), height, 0))
	requireCode(t, res, craps.Codespace, craps.ErrPlayerAlreadyJoined.ABCICode())
	res = mustFail(t, a.deliverTx(txBytesSigned(t, "craps/join", map[string]any{"player": "carol", "value": testAnte}, "carol"), height, 0))
	requireCode(t, res, craps.Codespace, craps.ErrGameFull.ABCICode())

	if a.st.Balance("carol") != 1000 || a.st.Craps.Pot != 2*testAnte {
		t.Fatalf("rejected join changed state: carol=%d pot=%d", a.st.Balance("carol"), a.st.Craps.Pot)
	}
}

func TestJoin_UninitializedGame(t *testing.T) {
	a := newUninitializedApp(t)
	registerTestAccount(t, a, 1, "alice")
	mintTestTokens(t, a, 1, "alice", 100)

	res := mustFail(t, a.deliverTx(txBytesSigned(t, "craps/join", map[string]any{"player": "alice", "value": 0}, "alice"), 1, 0))
	requireCode(t, res, craps.Codespace, craps.ErrNotInitialized.ABCICode())
}

func TestAtomicity_FailedTxLeavesStateUnchanged(t *testing.T) {
	const height = int64(2)
	a := newTestApp(t)
	registerTestAccount(t, a, height, "dave")
	mintTestTokens(t, a, height, "dave", testAnte-1)

	before := a.st.AppHash()
	res := mustFail(t, a.deliverTx(txBytesSigned(t, "craps/join", map[string]any{"player": "dave", "value": testAnte}, "dave"), height, 0))
	if !strings.Contains(res.Log, "insufficient funds") {
		t.Fatalf("expected insufficient funds, got %q", res.Log)
	}
	if string(before) != string(a.st.AppHash()) {
		t.Fatalf("failed tx mutated state")
	}
	if a.st.Balance("dave") != testAnte-1 || a.st.Craps.Player1 != "" {
		t.Fatalf("unexpected state after failed join")
	}
}

func TestAuth_CrapsTxsMustBeSigned(t *testing.T) {
	const height = int64(2)
	a := newTestApp(t)

	res := mustFail(t, a.deliverTx(txBytes(t, "craps/join", map[string]any{"player": "alice", "value": testAnte}), height, 0))
	if !strings.Contains(res.Log, "missing tx.nonce") {
		t.Fatalf("expected missing nonce, got %q", res.Log)
	}

	res = mustFail(t, a.deliverTx(txBytesSigned(t, "craps/join", map[string]any{"player": "bob", "value": testAnte}, "alice"), height, 0))
	if !strings.Contains(res.Log, "tx signer mismatch") {
		t.Fatalf("expected signer mismatch, got %q", res.Log)
	}

	// Valid signature by an unregistered account.
	res = mustFail(t, a.deliverTx(txBytesSigned(t, "craps/join", map[string]any{"player": "erin", "value": testAnte}, "erin"), height, 0))
	if !strings.Contains(res.Log, "missing pubKey") {
		t.Fatalf("expected missing pubKey, got %q", res.Log)
	}

	// Tampered value invalidates the signature.
	env := signedEnvelope(t, "craps/join", map[string]any{"player": "alice", "value": testAnte}, "alice", "999999")
	env.Value = mustMarshal(t, map[string]any{"player": "alice", "value": testAnte + 1})
	res = mustFail(t, a.deliverTx(mustMarshal(t, env), height, 0))
	if !strings.Contains(res.Log, "invalid signature") {
		t.Fatalf("expected invalid signature, got %q", res.Log)
	}
}

func TestRoll_OnlyShooter(t *testing.T) {
	const height = int64(2)
	a := newTestApp(t)
	seatShooter(t, a, height, "0")

	res := mustFail(t, a.deliverTx(rollTx(t, "craps/roll_come_out", "bob"), height, 0))
	requireCode(t, res, craps.Codespace, craps.ErrNotShooter.ABCICode())
	if len(a.st.VRF.Requests) != 0 {
		t.Fatalf("rejected roll must not leave a coordinator request")
	}
}

func TestFulfill_OnlyOracle(t *testing.T) {
	const height = int64(2)
	a := newTestApp(t)
	joinBoth(t, a, height)
	res := mustOk(t, a.deliverTx(txBytesSigned(t, "craps/select_shooter", map[string]any{"caller": "alice"}, "alice"), height, 0))
	id := requestID(t, res)

	bad := mustFail(t, a.deliverTx(txBytesSigned(t, "vrf/fulfill", map[string]any{
		"requestId": id,
		"oracle":    "carol",
		"words":     []string{"1"},
	}, "carol"), height, 0))
	requireCode(t, bad, vrf.Codespace, vrf.ErrUnauthorizedOracle.ABCICode())

	unknown := mustFail(t, fulfillRaw(t, a, height, id+7, "1"))
	requireCode(t, unknown, vrf.Codespace, vrf.ErrUnknownRequest.ABCICode())

	wrongCount := mustFail(t, fulfillRaw(t, a, height, id, "1", "2"))
	requireCode(t, wrongCount, vrf.Codespace, vrf.ErrInvalidRequest.ABCICode())

	if a.st.Craps.Phase != craps.PhaseSelectingShooter || a.st.VRF.Request(id) == nil {
		t.Fatalf("failed fulfillments must leave the request pending")
	}
}

func TestSettlementOverflow_RevertsFulfillment(t *testing.T) {
	const height = int64(2)
	a := newTestApp(t)
	seatShooter(t, a, height, "0")

	res := mustOk(t, a.deliverTx(rollTx(t, "craps/roll_come_out", "alice"), height, 0))
	id := requestID(t, res)

	a.st.Accounts["alice"] = ^uint64(0) - 1
	out := mustFail(t, fulfillRaw(t, a, height, id, dieWord(3), dieWord(4)))
	if !strings.Contains(out.Log, "balance overflow") {
		t.Fatalf("expected balance overflow, got %q", out.Log)
	}
	g := a.st.Craps
	if g.Phase != craps.PhaseAwaitingComeOut || g.PendingRequest != id || g.Pot != 2*testAnte {
		t.Fatalf("game must be untouched after failed settlement: %+v", g)
	}
	if a.st.VRF.Request(id) == nil {
		t.Fatalf("request must stay pending after failed settlement")
	}

	a.st.Accounts["alice"] = 900
	mustOk(t, fulfillRaw(t, a, height, id, dieWord(3), dieWord(4)))
	if a.st.Balance("alice") != 1100 {
		t.Fatalf("expected alice=1100, got %d", a.st.Balance("alice"))
	}
}

func TestTimeout_RefundsAndCancelsPendingRequest(t *testing.T) {
	const height = int64(2)
	a := newTestApp(t)
	joinBoth(t, a, height)
	res := mustOk(t, a.deliverTx(txBytesSigned(t, "craps/select_shooter", map[string]any{"caller": "alice"}, "alice"), height, 100))
	id := requestID(t, res)

	early := mustFail(t, a.deliverTx(txBytesSigned(t, "craps/timeout", map[string]any{"caller": "carol"}, "carol"), height, 159))
	requireCode(t, early, craps.Codespace, craps.ErrTimeoutNotReached.ABCICode())
	if a.st.VRF.Request(id) == nil {
		t.Fatalf("rejected timeout must keep request %d pending", id)
	}

	out := mustOk(t, a.deliverTx(txBytesSigned(t, "craps/timeout", map[string]any{"caller": "carol"}, "carol"), height, 160))
	if findEvent(out.Events, craps.EventTypeRandomnessTimedOut) == nil || findEvent(out.Events, craps.EventTypeGameRefunded) == nil {
		t.Fatalf("expected timeout and refund events, got %v", out.Events)
	}
	cancelled := findEvent(out.Events, "RandomWordsCancelled")
	if cancelled == nil || parseU64(t, attr(cancelled, "requestId")) != id {
		t.Fatalf("expected request %d to be cancelled, got %v", id, out.Events)
	}
	if a.st.Balance("alice") != 1000 || a.st.Balance("bob") != 1000 || a.st.Craps.Phase != craps.PhaseOpen {
		t.Fatalf("expected refunds and reset; alice=%d bob=%d phase=%s", a.st.Balance("alice"), a.st.Balance("bob"), a.st.Craps.Phase)
	}
	if len(a.st.VRF.Requests) != 0 {
		t.Fatalf("expected no pending vrf requests, got %v", a.st.VRF.Requests)
	}
	q, _ := a.Query(context.Background(), &abci.QueryRequest{Path: "/vrf/requests"})
	if q.Code != 0 || string(q.Value) != "[]" {
		t.Fatalf("expected empty request list, got code=%d value=%s", q.Code, q.Value)
	}

	hashBefore := a.st.AppHash()
	late := mustFail(t, fulfillRaw(t, a, height+1, id, "1"))
	requireCode(t, late, vrf.Codespace, vrf.ErrUnknownRequest.ABCICode())
	if a.st.Craps.Shooter != "" || a.st.Craps.Phase != craps.PhaseOpen {
		t.Fatalf("late fulfillment must not touch the game")
	}
	if string(a.st.AppHash()) != string(hashBefore) {
		t.Fatalf("late fulfillment must not change state")
	}
}

func TestReplayProtection_AccountSigned(t *testing.T) {
	const height = int64(1)
	a := newTestApp(t)

	tx := txBytesSigned(t, "bank/send", map[string]any{"from": "alice", "to": "bob", "amount": 1}, "alice")
	mustOk(t, a.deliverTx(tx, height, 0))

	res := mustFail(t, a.deliverTx(tx, height, 0))
	if !strings.Contains(res.Log, "replayed tx.nonce") {
		t.Fatalf("expected replay log to mention nonce, got %q", res.Log)
	}

	env := signedEnvelope(t, "bank/send", map[string]any{"from": "alice", "to": "bob", "amount": 1}, "alice", "not-a-number")
	res = mustFail(t, a.deliverTx(mustMarshal(t, env), height, 0))
	if !strings.Contains(res.Log, "invalid tx.nonce") {
		t.Fatalf("expected invalid tx.nonce, got %q", res.Log)
	}
}

func TestRegisterAccount_KeyCannotBeReplaced(t *testing.T) {
	a := newTestApp(t)
	other, _ := testEd25519Key("mallory")
	res := mustFail(t, a.deliverTx(txBytesSigned(t, "auth/register_account", map[string]any{
		"account": "alice",
		"pubKey":  []byte(other),
	}, "alice"), 1, 0))
	if !strings.Contains(res.Log, "invalid signature") {
		t.Fatalf("expected invalid signature, got %q", res.Log)
	}
}

func TestProofMode_EndToEnd(t *testing.T) {
	const height = int64(3)
	key, err := vrf.GenerateKey(strings.NewReader(strings.Repeat("k", 64)))
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	g := testGenesis()
	g.VRF = codec.GenesisVRF{Oracle: testOracle, PublicKey: key.PublicKey()}

	a := newUninitializedApp(t)
	initTestApp(t, a, g)
	for _, name := range []string{"alice", "bob", testOracle} {
		registerTestAccount(t, a, 1, name)
	}
	joinBoth(t, a, height)
	res := mustOk(t, a.deliverTx(txBytesSigned(t, "craps/select_shooter", map[string]any{"caller": "alice"}, "alice"), height, 0))
	id := requestID(t, res)

	raw := mustFail(t, fulfillRaw(t, a, height, id, "1"))
	requireCode(t, raw, vrf.Codespace, vrf.ErrRawWordsDisabled.ABCICode())

	req := a.st.VRF.Request(id)
	proof, err := key.Prove(req.Seed)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	expected, err := vrf.Verify(key.PublicKey(), req.Seed, proof, 1)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	want := "alice"
	if expected[0].Mod(2) == 1 {
		want = "bob"
	}

	out := mustOk(t, a.deliverTx(txBytesSigned(t, "vrf/fulfill", map[string]any{
		"requestId": id,
		"oracle":    testOracle,
		"proof":     proof,
	}, testOracle), height+1, 0))
	if got := attr(findEvent(out.Events, craps.EventTypeShooterSelected), "shooter"); got != want {
		t.Fatalf("expected shooter %q, got %q", want, got)
	}
	if attr(findEvent(out.Events, "RandomWordsFulfilled"), "mode") != "proof" {
		t.Fatalf("expected proof mode fulfillment")
	}
}

func TestQueries(t *testing.T) {
	const height = int64(2)
	a := newTestApp(t)
	seatShooter(t, a, height, "1")
	res := mustOk(t, a.deliverTx(rollTx(t, "craps/roll_come_out", "bob"), height, 0))
	mustOk(t, fulfillRaw(t, a, height, requestID(t, res), dieWord(2), dieWord(4)))

	query := func(path string) map[string]any {
		t.Helper()
		q, err := a.Query(context.Background(), &abci.QueryRequest{Path: path})
		if err != nil || q.Code != 0 {
			t.Fatalf("query %s: err=%v code=%d log=%q", path, err, q.Code, q.Log)
		}
		var out map[string]any
		if err := json.Unmarshal(q.Value, &out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		return out
	}

	if got := query("/craps/state"); got["phase"] != float64(craps.PhaseAwaitingRoll) || got["name"] != "awaitingRoll" {
		t.Fatalf("unexpected state: %v", got)
	}
	if got := query("/craps/dice"); got["die1"] != float64(2) || got["die2"] != float64(4) || got["sum"] != float64(6) {
		t.Fatalf("unexpected dice: %v", got)
	}
	if got := query("/craps/point"); got["point"] != float64(6) {
		t.Fatalf("unexpected point: %v", got)
	}
	if got := query("/craps/shooter"); got["shooter"] != "bob" {
		t.Fatalf("unexpected shooter: %v", got)
	}
	if got := query("/craps/players"); got["player1"] != "alice" || got["player2"] != "bob" {
		t.Fatalf("unexpected players: %v", got)
	}
	if got := query("/craps/pot"); got["pot"] != float64(200) {
		t.Fatalf("unexpected pot: %v", got)
	}
	if got := query("/craps/ante"); got["ante"] != float64(testAnte) {
		t.Fatalf("unexpected ante: %v", got)
	}
	if got := query("/account/alice"); got["balance"] != float64(900) || got["registered"] != true {
		t.Fatalf("unexpected account: %v", got)
	}
	if got := query("/vrf/params"); got["nextRequestId"] != float64(3) {
		t.Fatalf("unexpected vrf params: %v", got)
	}

	q, _ := a.Query(context.Background(), &abci.QueryRequest{Path: "/vrf/requests"})
	if string(q.Value) != "[]" {
		t.Fatalf("expected no pending requests, got %s", q.Value)
	}
	q, _ = a.Query(context.Background(), &abci.QueryRequest{Path: "/vrf/request/1"})
	if q.Code == 0 {
		t.Fatalf("expected fulfilled request to be gone")
	}
	q, _ = a.Query(context.Background(), &abci.QueryRequest{Path: "/nope"})
	if q.Code == 0 {
		t.Fatalf("expected unknown path to fail")
	}
}

func TestCheckTx(t *testing.T) {
	a := newTestApp(t)
	res, err := a.CheckTx(context.Background(), &abci.CheckTxRequest{Tx: []byte("{")})
	if err != nil || res.Code == 0 {
		t.Fatalf("expected malformed tx to be rejected: err=%v code=%d", err, res.Code)
	}
	res, err = a.CheckTx(context.Background(), &abci.CheckTxRequest{Tx: txBytes(t, "craps/join", map[string]any{})})
	if err != nil || res.Code != 0 {
		t.Fatalf("expected well-formed tx to pass: err=%v log=%q", err, res.Log)
	}
}

func TestInitChain_RejectsBadGenesis(t *testing.T) {
	a := newUninitializedApp(t)
	_, err := a.InitChain(context.Background(), &abci.InitChainRequest{AppStateBytes: []byte(`{"ante":0}`)})
	if err == nil {
		t.Fatalf("expected zero ante to be rejected")
	}
}

func TestFinalizeCommit_PersistsAcrossRestart(t *testing.T) {
	home := t.TempDir()
	open := func() *CrapsApp {
		store, err := state.OpenStore(home, dbm.GoLevelDBBackend)
		if err != nil {
			t.Fatalf("OpenStore: %v", err)
		}
		a, err := New(store, log.NewNopLogger())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return a
	}

	a := open()
	initTestApp(t, a, testGenesis())
	fin, err := a.FinalizeBlock(context.Background(), &abci.FinalizeBlockRequest{
		Height: 1,
		Time:   time.Unix(1_700_000_000, 0),
		Txs: [][]byte{
			txBytes(t, "bank/mint", map[string]any{"to": "alice", "amount": 5}),
			[]byte("garbage"),
		},
	})
	if err != nil {
		t.Fatalf("FinalizeBlock: %v", err)
	}
	if len(fin.TxResults) != 2 || fin.TxResults[0].Code != 0 || fin.TxResults[1].Code == 0 {
		t.Fatalf("unexpected tx results: %+v", fin.TxResults)
	}
	if _, err := a.Commit(context.Background(), &abci.CommitRequest{}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b := open()
	defer b.Close()
	info, err := b.Info(context.Background(), &abci.InfoRequest{})
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.LastBlockHeight != 1 || string(info.LastBlockAppHash) != string(fin.AppHash) {
		t.Fatalf("restart lost state: height=%d", info.LastBlockHeight)
	}
	if b.st.Balance("alice") != 1005 {
		t.Fatalf("expected alice=1005, got %d", b.st.Balance("alice"))
	}

	// Genesis is not re-applied on an initialized state.
	g := testGenesis()
	g.Ante = 7
	initTestApp(t, b, g)
	if b.st.Craps.Ante != testAnte {
		t.Fatalf("genesis must not overwrite existing state")
	}
}
