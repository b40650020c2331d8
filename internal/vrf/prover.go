package vrf

import (
	"crypto/sha256"
	"fmt"
	"io"

	"onchaincraps/internal/vrfcrypto"
)

const (
	h2cDomain    = "craps/v1/vrf/h2c"
	nonceDomain  = "craps/v1/vrf/nonce"
	outputDomain = "craps/v1/vrf/output"

	// ProofSize is gamma(32) || dleq(96).
	ProofSize = vrfcrypto.PointSize + vrfcrypto.DLEQProofSize
)

// PrivateKey is an oracle's VRF secret.
type PrivateKey struct {
	x vrfcrypto.Scalar
}

func GenerateKey(rand io.Reader) (PrivateKey, error) {
	var wide [64]byte
	if _, err := io.ReadFull(rand, wide[:]); err != nil {
		return PrivateKey{}, fmt.Errorf("read key entropy: %w", err)
	}
	x, err := vrfcrypto.ScalarFromWide(wide[:])
	if err != nil {
		return PrivateKey{}, err
	}
	if x.IsZero() {
		return PrivateKey{}, fmt.Errorf("generated zero key")
	}
	return PrivateKey{x: x}, nil
}

func PrivateKeyFromBytes(b []byte) (PrivateKey, error) {
	x, err := vrfcrypto.ScalarFromCanonical(b)
	if err != nil {
		return PrivateKey{}, err
	}
	if x.IsZero() {
		return PrivateKey{}, fmt.Errorf("zero private key")
	}
	return PrivateKey{x: x}, nil
}

func (k PrivateKey) Bytes() []byte {
	return k.x.Bytes()
}

func (k PrivateKey) PublicKey() []byte {
	return vrfcrypto.MulBase(k.x).Bytes()
}

// Prove evaluates the VRF on seed and returns gamma || proof.
func (k PrivateKey) Prove(seed []byte) ([]byte, error) {
	h, err := vrfcrypto.HashToPoint(h2cDomain, seed)
	if err != nil {
		return nil, err
	}
	gamma := h.Mul(k.x)
	w, err := vrfcrypto.HashToScalar(nonceDomain, k.x.Bytes(), h.Bytes())
	if err != nil {
		return nil, err
	}
	proof, err := vrfcrypto.ProveDLEQ(vrfcrypto.MulBase(k.x), h, gamma, k.x, w)
	if err != nil {
		return nil, err
	}
	return append(gamma.Bytes(), proof.Bytes()...), nil
}

// Verify checks gamma || proof against the oracle public key and seed and
// returns numWords words derived from gamma.
func Verify(publicKey, seed, proof []byte, numWords uint32) ([]Word, error) {
	if len(proof) != ProofSize {
		return nil, ErrInvalidProof.Wrapf("want %d bytes, got %d", ProofSize, len(proof))
	}
	y, err := vrfcrypto.PointFromCanonical(publicKey)
	if err != nil {
		return nil, ErrInvalidProof.Wrapf("public key: %v", err)
	}
	gamma, err := vrfcrypto.PointFromCanonical(proof[:vrfcrypto.PointSize])
	if err != nil {
		return nil, ErrInvalidProof.Wrapf("gamma: %v", err)
	}
	if y.IsIdentity() || gamma.IsIdentity() {
		return nil, ErrInvalidProof.Wrap("identity element")
	}
	dleq, err := vrfcrypto.DecodeDLEQProof(proof[vrfcrypto.PointSize:])
	if err != nil {
		return nil, ErrInvalidProof.Wrap(err.Error())
	}
	h, err := vrfcrypto.HashToPoint(h2cDomain, seed)
	if err != nil {
		return nil, err
	}
	ok, err := vrfcrypto.VerifyDLEQ(y, h, gamma, dleq)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidProof.Wrap("dleq check failed")
	}
	return DeriveWords(gamma.Bytes(), numWords), nil
}

// DeriveWords expands a verified gamma into numWords independent words.
func DeriveWords(gamma []byte, numWords uint32) []Word {
	beta := sha256.Sum256(append([]byte(outputDomain), gamma...))
	words := make([]Word, numWords)
	for i := range words {
		var buf [sha256.Size + 4]byte
		copy(buf[:], beta[:])
		buf[sha256.Size] = byte(i)
		buf[sha256.Size+1] = byte(i >> 8)
		buf[sha256.Size+2] = byte(i >> 16)
		buf[sha256.Size+3] = byte(i >> 24)
		words[i] = sha256.Sum256(buf[:])
	}
	return words
}
