package codec

import (
	"encoding/json"
	"fmt"

	"onchaincraps/internal/vrf"
)

// TxEnvelope is the transaction container. CometBFT transactions are opaque
// bytes; ours are JSON.
type TxEnvelope struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	// Signed txs carry a per-signer increasing nonce and an Ed25519
	// signature over (type, nonce, signer, sha256(value)).
	Nonce  string `json:"nonce,omitempty"`
	Signer string `json:"signer,omitempty"`
	Sig    []byte `json:"sig,omitempty"`
}

func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

// DecodeValue unmarshals env.Value into a message of the envelope's type.
func DecodeValue[T any](env TxEnvelope) (T, error) {
	var msg T
	if len(env.Value) == 0 {
		return msg, fmt.Errorf("missing tx.value for %s", env.Type)
	}
	if err := json.Unmarshal(env.Value, &msg); err != nil {
		return msg, fmt.Errorf("invalid %s value: %w", env.Type, err)
	}
	return msg, nil
}

// ---- Bank ----

type BankMintTx struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type BankSendTx struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// ---- Auth ----

type AuthRegisterAccountTx struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"` // base64 (32 bytes)
}

// ---- Craps ----

// CrapsJoinTx seats Player; Value is the amount attached and must equal the
// game's ante.
type CrapsJoinTx struct {
	Player string `json:"player"`
	Value  uint64 `json:"value"`
}

type CrapsSelectShooterTx struct {
	Caller string `json:"caller"`
}

// CrapsRollTx is used by both craps/roll_come_out and craps/roll_point.
type CrapsRollTx struct {
	Shooter string `json:"shooter"`
}

type CrapsTimeoutTx struct {
	Caller string `json:"caller"`
}

// ---- VRF ----

// VRFFulfillTx answers a randomness request with either a proof
// (gamma || dleq, base64) or, on devnets, raw words.
type VRFFulfillTx struct {
	RequestID uint64     `json:"requestId"`
	Oracle    string     `json:"oracle"`
	Proof     []byte     `json:"proof,omitempty"`
	Words     []vrf.Word `json:"words,omitempty"`
}
