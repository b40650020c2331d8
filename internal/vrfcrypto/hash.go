package vrfcrypto

import (
	"crypto/sha512"
	"fmt"
)

var (
	hashToScalarTag = []byte("CRAPSv1|hash_to_scalar|")
	hashToPointTag  = []byte("CRAPSv1|hash_to_point|")
)

func wideHash(tag []byte, domain string, msgs ...[]byte) ([]byte, error) {
	h := sha512.New()
	h.Write(tag)
	writeFramed(h, []byte(domain))
	for _, m := range msgs {
		if m == nil {
			return nil, fmt.Errorf("hash: nil message")
		}
		writeFramed(h, m)
	}
	return h.Sum(nil), nil
}

func HashToScalar(domain string, msgs ...[]byte) (Scalar, error) {
	digest, err := wideHash(hashToScalarTag, domain, msgs...)
	if err != nil {
		return Scalar{}, err
	}
	return ScalarFromWide(digest)
}

// HashToPoint maps messages to a group element with unknown discrete log
// relative to the generator.
func HashToPoint(domain string, msgs ...[]byte) (Point, error) {
	digest, err := wideHash(hashToPointTag, domain, msgs...)
	if err != nil {
		return Point{}, err
	}
	var p Point
	if _, err := p.v.SetUniformBytes(digest); err != nil {
		return Point{}, fmt.Errorf("hash to point: %w", err)
	}
	return p, nil
}
