package codec

import (
	"encoding/json"
	"fmt"
)

type GenesisAccount struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
	PubKey  []byte `json:"pubKey,omitempty"` // optional ed25519 key (base64)
}

type GenesisVRF struct {
	Oracle        string `json:"oracle"`
	PublicKey     []byte `json:"publicKey,omitempty"` // ristretto255 (base64)
	AllowRawWords bool   `json:"allowRawWords,omitempty"`
}

// Genesis is the app_state document passed to InitChain.
type Genesis struct {
	Ante                  uint64           `json:"ante"`
	RandomnessTimeoutSecs uint64           `json:"randomnessTimeoutSecs,omitempty"`
	Accounts              []GenesisAccount `json:"accounts,omitempty"`
	VRF                   GenesisVRF       `json:"vrf"`
}

func DecodeGenesis(b []byte) (Genesis, error) {
	var g Genesis
	if err := json.Unmarshal(b, &g); err != nil {
		return Genesis{}, fmt.Errorf("invalid genesis json: %w", err)
	}
	if err := g.Validate(); err != nil {
		return Genesis{}, err
	}
	return g, nil
}

func (g Genesis) Validate() error {
	if g.Ante == 0 {
		return fmt.Errorf("genesis: ante must be > 0")
	}
	if g.VRF.Oracle == "" {
		return fmt.Errorf("genesis: vrf.oracle is required")
	}
	if len(g.VRF.PublicKey) == 0 && !g.VRF.AllowRawWords {
		return fmt.Errorf("genesis: vrf.publicKey is required unless allowRawWords is set")
	}
	if len(g.VRF.PublicKey) != 0 && len(g.VRF.PublicKey) != 32 {
		return fmt.Errorf("genesis: vrf.publicKey must be 32 bytes, got %d", len(g.VRF.PublicKey))
	}
	seen := map[string]bool{}
	for _, a := range g.Accounts {
		if a.Address == "" {
			return fmt.Errorf("genesis: account with empty address")
		}
		if seen[a.Address] {
			return fmt.Errorf("genesis: duplicate account %s", a.Address)
		}
		seen[a.Address] = true
		if len(a.PubKey) != 0 && len(a.PubKey) != 32 {
			return fmt.Errorf("genesis: %s pubKey must be 32 bytes", a.Address)
		}
	}
	return nil
}
