package app

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/json"
	"strconv"
	"sync/atomic"
	"testing"

	"cosmossdk.io/log"
	abci "github.com/cometbft/cometbft/abci/types"
	dbm "github.com/cosmos/cosmos-db"

	"onchaincraps/internal/codec"
	"onchaincraps/internal/state"
)

const (
	testAnte   = 100
	testOracle = "oracle"
)

var testNonce atomic.Uint64

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func txBytes(t *testing.T, typ string, value any) []byte {
	t.Helper()
	return mustMarshal(t, map[string]any{
		"type":  typ,
		"value": value,
	})
}

// testEd25519Key derives a deterministic key per signer name.
func testEd25519Key(name string) (ed25519.PublicKey, ed25519.PrivateKey) {
	seed := sha256.Sum256([]byte("craps-test-key|" + name))
	priv := ed25519.NewKeyFromSeed(seed[:])
	return priv.Public().(ed25519.PublicKey), priv
}

func signedEnvelope(t *testing.T, typ string, value any, signer string, nonce string) codec.TxEnvelope {
	t.Helper()
	_, priv := testEd25519Key(signer)
	valueBytes := mustMarshal(t, value)
	return codec.TxEnvelope{
		Type:   typ,
		Value:  valueBytes,
		Nonce:  nonce,
		Signer: signer,
		Sig:    ed25519.Sign(priv, txAuthSignBytesV0(typ, valueBytes, nonce, signer)),
	}
}

func txBytesSigned(t *testing.T, typ string, value any, signer string) []byte {
	t.Helper()
	nonce := strconv.FormatUint(testNonce.Add(1), 10)
	return mustMarshal(t, signedEnvelope(t, typ, value, signer, nonce))
}

func findEvent(events []abci.Event, typ string) *abci.Event {
	for i := range events {
		if events[i].Type == typ {
			return &events[i]
		}
	}
	return nil
}

func attr(ev *abci.Event, key string) string {
	if ev == nil {
		return ""
	}
	for _, a := range ev.Attributes {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

func parseU64(t *testing.T, s string) uint64 {
	t.Helper()
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		t.Fatalf("parse uint64 %q: %v", s, err)
	}
	return n
}

func mustOk(t *testing.T, res *abci.ExecTxResult) *abci.ExecTxResult {
	t.Helper()
	if res.Code != 0 {
		t.Fatalf("expected ok, got code=%d codespace=%q log=%q", res.Code, res.Codespace, res.Log)
	}
	return res
}

func mustFail(t *testing.T, res *abci.ExecTxResult) *abci.ExecTxResult {
	t.Helper()
	if res.Code == 0 {
		t.Fatalf("expected tx to fail, events=%v", res.Events)
	}
	return res
}

func testGenesis() codec.Genesis {
	return codec.Genesis{
		Ante:                  testAnte,
		RandomnessTimeoutSecs: 60,
		Accounts: []codec.GenesisAccount{
			{Address: "alice", Balance: 1000},
			{Address: "bob", Balance: 1000},
			{Address: "carol", Balance: 1000},
		},
		VRF: codec.GenesisVRF{Oracle: testOracle, AllowRawWords: true},
	}
}

func newUninitializedApp(t *testing.T) *CrapsApp {
	t.Helper()
	store, err := state.OpenStore(t.TempDir(), dbm.MemDBBackend)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	a, err := New(store, log.NewNopLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func initTestApp(t *testing.T, a *CrapsApp, g codec.Genesis) {
	t.Helper()
	if _, err := a.InitChain(context.Background(), &abci.InitChainRequest{AppStateBytes: mustMarshal(t, g)}); err != nil {
		t.Fatalf("InitChain: %v", err)
	}
}

// newTestApp returns an app with the test genesis applied and alice, bob,
// carol and the oracle registered.
func newTestApp(t *testing.T) *CrapsApp {
	t.Helper()
	a := newUninitializedApp(t)
	initTestApp(t, a, testGenesis())
	for _, name := range []string{"alice", "bob", "carol", testOracle} {
		registerTestAccount(t, a, 1, name)
	}
	return a
}

func registerTestAccount(t *testing.T, a *CrapsApp, height int64, name string) {
	t.Helper()
	pub, _ := testEd25519Key(name)
	mustOk(t, a.deliverTx(txBytesSigned(t, "auth/register_account", map[string]any{
		"account": name,
		"pubKey":  []byte(pub),
	}, name), height, 0))
}

func mintTestTokens(t *testing.T, a *CrapsApp, height int64, to string, amount uint64) {
	t.Helper()
	mustOk(t, a.deliverTx(txBytes(t, "bank/mint", map[string]any{"to": to, "amount": amount}), height, 0))
}

// requestID extracts the coordinator request id from a tx's events.
func requestID(t *testing.T, res *abci.ExecTxResult) uint64 {
	t.Helper()
	ev := findEvent(res.Events, "RandomWordsRequested")
	if ev == nil {
		t.Fatalf("expected RandomWordsRequested event, got %v", res.Events)
	}
	return parseU64(t, attr(ev, "requestId"))
}

func fulfillRaw(t *testing.T, a *CrapsApp, height int64, id uint64, words ...string) *abci.ExecTxResult {
	t.Helper()
	return a.deliverTx(txBytesSigned(t, "vrf/fulfill", map[string]any{
		"requestId": id,
		"oracle":    testOracle,
		"words":     words,
	}, testOracle), height, 0)
}

// dieWord returns a decimal word that rolls face d.
func dieWord(d int) string {
	return strconv.Itoa(d - 1)
}

func joinBoth(t *testing.T, a *CrapsApp, height int64) {
	t.Helper()
	mustOk(t, a.deliverTx(txBytesSigned(t, "craps/join", map[string]any{"player": "alice", "value": testAnte}, "alice"), height, 0))
	mustOk(t, a.deliverTx(txBytesSigned(t, "craps/join", map[string]any{"player": "bob", "value": testAnte}, "bob"), height, 0))
}

// seatShooter joins alice and bob and selects the shooter with word w.
func seatShooter(t *testing.T, a *CrapsApp, height int64, w string) {
	t.Helper()
	joinBoth(t, a, height)
	res := mustOk(t, a.deliverTx(txBytesSigned(t, "craps/select_shooter", map[string]any{"caller": "alice"}, "alice"), height, 100))
	mustOk(t, fulfillRaw(t, a, height+1, requestID(t, res), w))
}

func rollTx(t *testing.T, typ, shooter string) []byte {
	t.Helper()
	return txBytesSigned(t, typ, map[string]any{"shooter": shooter}, shooter)
}
