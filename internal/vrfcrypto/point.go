package vrfcrypto

import (
	"fmt"

	"github.com/gtank/ristretto255"
)

const PointSize = 32

// Point is a ristretto255 group element.
type Point struct {
	v ristretto255.Element
}

func Generator() Point {
	var p Point
	p.v.Base()
	return p
}

func PointFromCanonical(b []byte) (Point, error) {
	if len(b) != PointSize {
		return Point{}, fmt.Errorf("point: want %d bytes, got %d", PointSize, len(b))
	}
	var p Point
	if _, err := p.v.SetCanonicalBytes(b); err != nil {
		return Point{}, fmt.Errorf("point: non-canonical encoding: %w", err)
	}
	return p, nil
}

func (p Point) Bytes() []byte {
	return p.v.Bytes()
}

func (p Point) Equal(o Point) bool {
	return p.v.Equal(&o.v) == 1
}

// IsIdentity reports whether p is the neutral element. An identity gamma or
// public key would make every proof trivially valid.
func (p Point) IsIdentity() bool {
	var id ristretto255.Element
	id.Zero()
	return p.v.Equal(&id) == 1
}

func (p Point) Add(o Point) Point {
	var out Point
	out.v.Add(&p.v, &o.v)
	return out
}

func (p Point) Mul(k Scalar) Point {
	var out Point
	out.v.ScalarMult(&k.v, &p.v)
	return out
}

func MulBase(k Scalar) Point {
	var out Point
	out.v.ScalarBaseMult(&k.v)
	return out
}
