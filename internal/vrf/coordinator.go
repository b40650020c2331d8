// Package vrf implements the in-chain randomness coordinator: consumers
// request random words, an off-chain oracle answers each request in a later
// transaction, and the coordinator verifies the answer before handing the
// words to the consumer callback.
package vrf

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"

	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	MaxNumWords = 10

	seedDomain = "craps/v1/vrf/seed"
)

type Params struct {
	// Oracle is the account allowed to submit fulfillments.
	Oracle string `json:"oracle"`
	// PublicKey is the oracle's ristretto255 VRF key (32 bytes).
	PublicKey []byte `json:"publicKey,omitempty"`
	// AllowRawWords accepts unproven words from the oracle (devnet only).
	AllowRawWords bool `json:"allowRawWords,omitempty"`
}

type Request struct {
	ID       uint64 `json:"id"`
	Consumer string `json:"consumer"`
	NumWords uint32 `json:"numWords"`
	Seed     []byte `json:"seed"`
	Height   int64  `json:"height"`
}

type State struct {
	Params        Params `json:"params"`
	NextRequestID uint64 `json:"nextRequestId"`
	// Pending requests, ascending by ID.
	Requests []Request `json:"requests,omitempty"`
}

func NewState(p Params) *State {
	return &State{Params: p, NextRequestID: 1}
}

func (s *State) Request(id uint64) *Request {
	i := sort.Search(len(s.Requests), func(i int) bool { return s.Requests[i].ID >= id })
	if i < len(s.Requests) && s.Requests[i].ID == id {
		return &s.Requests[i]
	}
	return nil
}

func (s *State) remove(id uint64) {
	for i := range s.Requests {
		if s.Requests[i].ID == id {
			s.Requests = append(s.Requests[:i], s.Requests[i+1:]...)
			return
		}
	}
}

// ConsumerFunc receives the words for a request the consumer issued.
type ConsumerFunc func(requestID uint64, words []Word) ([]abci.Event, error)

// Coordinator operates on one State; build a fresh one per staged tx.
type Coordinator struct {
	st        *State
	consumers map[string]ConsumerFunc
}

func NewCoordinator(st *State) *Coordinator {
	return &Coordinator{st: st, consumers: map[string]ConsumerFunc{}}
}

func (c *Coordinator) RegisterConsumer(name string, fn ConsumerFunc) {
	c.consumers[name] = fn
}

func RequestSeed(consumer string, id uint64, height int64) []byte {
	h := sha256.New()
	var lenBuf [4]byte
	for _, part := range [][]byte{
		[]byte(seedDomain),
		[]byte(consumer),
		binary.LittleEndian.AppendUint64(nil, id),
		binary.LittleEndian.AppendUint64(nil, uint64(height)),
	} {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(part)))
		h.Write(lenBuf[:])
		h.Write(part)
	}
	return h.Sum(nil)
}

func (c *Coordinator) RequestRandomWords(consumer string, numWords uint32, height int64) (uint64, []abci.Event, error) {
	if c.consumers[consumer] == nil {
		return 0, nil, ErrUnknownConsumer.Wrapf("%q", consumer)
	}
	if numWords == 0 || numWords > MaxNumWords {
		return 0, nil, ErrInvalidRequest.Wrapf("numWords must be in [1,%d], got %d", MaxNumWords, numWords)
	}
	id := c.st.NextRequestID
	if id == 0 {
		id = 1
	}
	if id == ^uint64(0) {
		return 0, nil, fmt.Errorf("nextRequestId overflows uint64")
	}
	c.st.NextRequestID = id + 1

	req := Request{
		ID:       id,
		Consumer: consumer,
		NumWords: numWords,
		Seed:     RequestSeed(consumer, id, height),
		Height:   height,
	}
	c.st.Requests = append(c.st.Requests, req)

	ev := abci.Event{
		Type: "RandomWordsRequested",
		Attributes: []abci.EventAttribute{
			{Key: "requestId", Value: fmt.Sprintf("%d", id), Index: true},
			{Key: "consumer", Value: consumer, Index: true},
			{Key: "numWords", Value: fmt.Sprintf("%d", numWords), Index: false},
			{Key: "seed", Value: fmt.Sprintf("%x", req.Seed), Index: false},
		},
	}
	return id, []abci.Event{ev}, nil
}

// Fulfill verifies the oracle's answer to requestID and invokes the consumer.
// Exactly one of proof or words must be set. A consumer error is returned
// as-is so the caller can discard the whole staged transaction.
func (c *Coordinator) Fulfill(oracle string, requestID uint64, proof []byte, words []Word) ([]abci.Event, error) {
	if oracle == "" || oracle != c.st.Params.Oracle {
		return nil, ErrUnauthorizedOracle.Wrapf("got %q", oracle)
	}
	req := c.st.Request(requestID)
	if req == nil {
		return nil, ErrUnknownRequest.Wrapf("request %d", requestID)
	}

	var mode string
	switch {
	case len(proof) != 0 && len(words) != 0:
		return nil, ErrInvalidRequest.Wrap("provide either proof or words, not both")
	case len(proof) != 0:
		verified, err := Verify(c.st.Params.PublicKey, req.Seed, proof, req.NumWords)
		if err != nil {
			return nil, err
		}
		words = verified
		mode = "proof"
	case len(words) != 0:
		if !c.st.Params.AllowRawWords {
			return nil, ErrRawWordsDisabled
		}
		if uint32(len(words)) != req.NumWords {
			return nil, ErrInvalidRequest.Wrapf("want %d words, got %d", req.NumWords, len(words))
		}
		mode = "raw"
	default:
		return nil, ErrInvalidRequest.Wrap("missing proof")
	}

	fn := c.consumers[req.Consumer]
	if fn == nil {
		return nil, ErrUnknownConsumer.Wrapf("%q", req.Consumer)
	}
	consumer := req.Consumer
	c.st.remove(requestID)

	events := []abci.Event{{
		Type: "RandomWordsFulfilled",
		Attributes: []abci.EventAttribute{
			{Key: "requestId", Value: fmt.Sprintf("%d", requestID), Index: true},
			{Key: "consumer", Value: consumer, Index: true},
			{Key: "mode", Value: mode, Index: false},
		},
	}}
	consumerEvents, err := fn(requestID, words)
	if err != nil {
		return nil, err
	}
	return append(events, consumerEvents...), nil
}

// Cancel drops a pending request whose consumer gave up on it. A later
// fulfillment for the same id fails with ErrUnknownRequest.
func (c *Coordinator) Cancel(requestID uint64) ([]abci.Event, error) {
	req := c.st.Request(requestID)
	if req == nil {
		return nil, ErrUnknownRequest.Wrapf("request %d", requestID)
	}
	consumer := req.Consumer
	c.st.remove(requestID)
	return []abci.Event{{
		Type: "RandomWordsCancelled",
		Attributes: []abci.EventAttribute{
			{Key: "requestId", Value: fmt.Sprintf("%d", requestID), Index: true},
			{Key: "consumer", Value: consumer, Index: true},
		},
	}}, nil
}
