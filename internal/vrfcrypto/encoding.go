package vrfcrypto

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

func u32le(x uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], x)
	return b[:]
}

// writeFramed writes len(b) || b so adjacent inputs cannot be confused.
func writeFramed(h hash.Hash, b []byte) {
	h.Write(u32le(uint32(len(b))))
	h.Write(b)
}

// DecodeHex accepts lowercase or uppercase hex with an optional 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	if s == "" {
		return nil, fmt.Errorf("hex: empty string")
	}
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("hex: odd length")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("hex: %w", err)
	}
	return b, nil
}

func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
