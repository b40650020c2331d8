package vrfcrypto

import (
	"fmt"

	"github.com/gtank/ristretto255"
)

const ScalarSize = 32

// Scalar is an integer modulo the ristretto255 group order, encoded as 32
// canonical little-endian bytes.
type Scalar struct {
	v ristretto255.Scalar
}

func ScalarFromUint64(x uint64) Scalar {
	var wide [64]byte
	for i := 0; i < 8; i++ {
		wide[i] = byte(x >> (8 * i))
	}
	var s Scalar
	s.v.FromUniformBytes(wide[:])
	return s
}

func ScalarFromCanonical(b []byte) (Scalar, error) {
	if len(b) != ScalarSize {
		return Scalar{}, fmt.Errorf("scalar: want %d bytes, got %d", ScalarSize, len(b))
	}
	var s Scalar
	if _, err := s.v.SetCanonicalBytes(b); err != nil {
		return Scalar{}, fmt.Errorf("scalar: non-canonical encoding: %w", err)
	}
	return s, nil
}

// ScalarFromWide reduces 64 uniformly distributed bytes modulo the group order.
func ScalarFromWide(b []byte) (Scalar, error) {
	if len(b) != 64 {
		return Scalar{}, fmt.Errorf("scalar: want 64 wide bytes, got %d", len(b))
	}
	var s Scalar
	s.v.FromUniformBytes(b)
	return s, nil
}

func (s Scalar) Bytes() []byte {
	return s.v.Bytes()
}

func (s Scalar) IsZero() bool {
	var zero ristretto255.Scalar
	return s.v.Equal(&zero) == 1
}

func (s Scalar) Add(o Scalar) Scalar {
	var out Scalar
	out.v.Add(&s.v, &o.v)
	return out
}

func (s Scalar) Mul(o Scalar) Scalar {
	var out Scalar
	out.v.Multiply(&s.v, &o.v)
	return out
}
