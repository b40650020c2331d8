package vrfcrypto

import "fmt"

// DLEQProof shows log_G(Y) == log_H(Gamma) without revealing the secret.
type DLEQProof struct {
	A Point  // w*G
	B Point  // w*H
	S Scalar // w + e*x
}

const (
	DLEQProofSize = 2*PointSize + ScalarSize
	dleqDomain    = "craps/v1/dleq"
)

func dleqChallenge(y, h, gamma, a, b Point) (Scalar, error) {
	tr := NewTranscript(dleqDomain)
	for _, m := range []struct {
		label string
		p     Point
	}{
		{"y", y}, {"h", h}, {"gamma", gamma}, {"a", a}, {"b", b},
	} {
		if err := tr.Append(m.label, m.p.Bytes()); err != nil {
			return Scalar{}, err
		}
	}
	return tr.Challenge("e")
}

// ProveDLEQ proves knowledge of x with y = x*G and gamma = x*h using nonce w.
func ProveDLEQ(y, h, gamma Point, x, w Scalar) (DLEQProof, error) {
	if w.IsZero() {
		return DLEQProof{}, fmt.Errorf("dleq: nonce must be non-zero")
	}
	a := MulBase(w)
	b := h.Mul(w)
	e, err := dleqChallenge(y, h, gamma, a, b)
	if err != nil {
		return DLEQProof{}, err
	}
	return DLEQProof{A: a, B: b, S: w.Add(e.Mul(x))}, nil
}

func VerifyDLEQ(y, h, gamma Point, proof DLEQProof) (bool, error) {
	e, err := dleqChallenge(y, h, gamma, proof.A, proof.B)
	if err != nil {
		return false, err
	}
	// s*G == A + e*Y
	if !MulBase(proof.S).Equal(proof.A.Add(y.Mul(e))) {
		return false, nil
	}
	// s*H == B + e*Gamma
	if !h.Mul(proof.S).Equal(proof.B.Add(gamma.Mul(e))) {
		return false, nil
	}
	return true, nil
}

// Encoding: A(32) || B(32) || s(32 le).
func (p DLEQProof) Bytes() []byte {
	out := make([]byte, 0, DLEQProofSize)
	out = append(out, p.A.Bytes()...)
	out = append(out, p.B.Bytes()...)
	return append(out, p.S.Bytes()...)
}

func DecodeDLEQProof(b []byte) (DLEQProof, error) {
	if len(b) != DLEQProofSize {
		return DLEQProof{}, fmt.Errorf("dleq: want %d bytes, got %d", DLEQProofSize, len(b))
	}
	a, err := PointFromCanonical(b[0:32])
	if err != nil {
		return DLEQProof{}, err
	}
	bb, err := PointFromCanonical(b[32:64])
	if err != nil {
		return DLEQProof{}, err
	}
	s, err := ScalarFromCanonical(b[64:96])
	if err != nil {
		return DLEQProof{}, err
	}
	return DLEQProof{A: a, B: bb, S: s}, nil
}
