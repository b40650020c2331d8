package vrf

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const WordSize = 32

// Word is a 256-bit random value, big-endian.
type Word [WordSize]byte

func WordFromUint64(x uint64) Word {
	var w Word
	new(big.Int).SetUint64(x).FillBytes(w[:])
	return w
}

// Mod returns w mod n. n must be non-zero.
func (w Word) Mod(n uint64) uint64 {
	v := new(big.Int).SetBytes(w[:])
	return v.Mod(v, new(big.Int).SetUint64(n)).Uint64()
}

func (w Word) String() string {
	return "0x" + hex.EncodeToString(w[:])
}

func (w Word) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText accepts 0x-prefixed hex (up to 32 bytes, left-padded) or a
// decimal integer below 2^256.
func (w *Word) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	v := new(big.Int)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if _, ok := v.SetString(s[2:], 16); !ok {
			return fmt.Errorf("word: invalid hex %q", s)
		}
	} else if _, ok := v.SetString(s, 10); !ok {
		return fmt.Errorf("word: invalid decimal %q", s)
	}
	if v.Sign() < 0 || v.BitLen() > WordSize*8 {
		return fmt.Errorf("word: %q out of range", s)
	}
	*w = Word{}
	v.FillBytes(w[:])
	return nil
}
