package vrfcrypto

import (
	"crypto/sha512"
	"fmt"
)

var transcriptTag = []byte("CRAPSv1|transcript|")

// Transcript accumulates labelled messages for a Fiat-Shamir challenge.
//
// The raw bytes are kept instead of a running hash because sha512 state
// cannot be cloned.
type Transcript struct {
	buf []byte
}

func NewTranscript(domain string) *Transcript {
	t := &Transcript{buf: append([]byte(nil), transcriptTag...)}
	t.buf = append(t.buf, u32le(uint32(len(domain)))...)
	t.buf = append(t.buf, domain...)
	return t
}

func (t *Transcript) Append(label string, msg []byte) error {
	if t == nil {
		return fmt.Errorf("transcript: nil receiver")
	}
	if msg == nil {
		return fmt.Errorf("transcript: nil message for %q", label)
	}
	t.buf = append(t.buf, "msg"...)
	t.buf = append(t.buf, u32le(uint32(len(label)))...)
	t.buf = append(t.buf, label...)
	t.buf = append(t.buf, u32le(uint32(len(msg)))...)
	t.buf = append(t.buf, msg...)
	return nil
}

func (t *Transcript) Challenge(label string) (Scalar, error) {
	if t == nil {
		return Scalar{}, fmt.Errorf("transcript: nil receiver")
	}
	h := sha512.New()
	h.Write(t.buf)
	h.Write([]byte("challenge"))
	writeFramed(h, []byte(label))
	return ScalarFromWide(h.Sum(nil))
}
