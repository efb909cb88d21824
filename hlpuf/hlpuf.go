// Package hlpuf implements a PUF-backed, quantum-encoded challenge-response
// authentication protocol between a Client and a Server.
//
// Both parties hold a PUF oracle built from the same parameters. The Server
// samples a challenge-response pair and sends the challenge in the clear; the
// response is only ever exchanged encoded into non-orthogonal single-qubit
// symbols. Two variants are supported:
//
//   - VariantBatch: each half of the response is encoded into one composite
//     state. The Server proves itself with the first half, the Client
//     answers with the second; each side accepts only on perfect fidelity.
//   - VariantStream: the Client streams one symbol per basis-pair, which the
//     Server measures in the basis its own copy of the response dictates and
//     compares bit for bit.
package hlpuf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alan-christopher/hlpuf/hlpuf/puf"
	"github.com/alan-christopher/hlpuf/hlpuf/qstate"
	"github.com/alan-christopher/hlpuf/hlpuf/sim"
)

// DefaultSymbolDelay is the pause, in ticks, between consecutive symbols of a
// stream.
const DefaultSymbolDelay sim.Time = 1

// ErrUnexpectedEvent is returned when a machine is resumed with an event its
// current state does not wait for.
var ErrUnexpectedEvent = errors.New("hlpuf: unexpected event")

// A Transport carries classical and quantum messages to the peer and lets a
// machine suspend until something arrives. *sim.Endpoint implements it.
type Transport interface {
	Name() string
	SendClassical(payload []byte) error
	AwaitClassical() error
	SendQuantum(r *qstate.Register) error
	AwaitQuantum() error
	AwaitDelay(d sim.Time) error
}

// A Variant selects the verification strategy.
type Variant int

const (
	// VariantBatch is the two-round mutual proof verified by state fidelity.
	VariantBatch Variant = iota
	// VariantStream is the one-way proof verified by per-symbol measurement.
	VariantStream
)

func (v Variant) String() string {
	switch v {
	case VariantBatch:
		return "batch"
	case VariantStream:
		return "stream"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant parses "batch" (or "a") and "stream" (or "b").
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(s) {
	case "batch", "a":
		return VariantBatch, nil
	case "stream", "b":
		return VariantStream, nil
	default:
		return 0, fmt.Errorf("hlpuf: unknown variant %q", s)
	}
}

// DefaultParams returns the PUF parameters conventionally used with v.
func (v Variant) DefaultParams() puf.Params {
	p := puf.Params{
		ChallengeBits: 8,
		Count:         20,
		ChallengeSeed: puf.DefaultChallengeSeed,
		ResponseSeed:  puf.DefaultResponseSeed,
	}
	if v == VariantStream {
		p.ChallengeBits, p.Count = 2, 5
	}
	return p
}

// Validate returns an error if p cannot be used with v.
func (v Variant) Validate(p puf.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	switch v {
	case VariantBatch:
		if p.ChallengeBits < 2 {
			return fmt.Errorf("hlpuf: batch variant needs at least 2 challenge bits to form two proofs, got %d", p.ChallengeBits)
		}
	case VariantStream:
	default:
		return fmt.Errorf("hlpuf: unknown variant %v", v)
	}
	return nil
}

// A Verdict is the outcome of one role's check.
type Verdict int

const (
	// VerdictNone means the role made no decision: it is still waiting, or
	// it never verifies anything (the stream client).
	VerdictNone Verdict = iota
	VerdictAccept
	VerdictReject
)

func (v Verdict) String() string {
	switch v {
	case VerdictNone:
		return "none"
	case VerdictAccept:
		return "accept"
	case VerdictReject:
		return "reject"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// A Role names the side of the protocol a machine plays.
type Role string

const (
	RoleClient Role = "client"
	RoleServer Role = "server"
)

// A State is a named state of a Client or Server machine.
type State int

const (
	StateWaitChallenge State = iota
	StateComputeResponse
	StateWaitProof
	StateVerifyProof
	StateSendProof
	StateSendSymbols
	StateSampleCRP
	StateSendChallenge
	StateWaitSymbols
	StateDone
)

var stateNames = map[State]string{
	StateWaitChallenge:   "WAIT_CHALLENGE",
	StateComputeResponse: "COMPUTE_RESPONSE",
	StateWaitProof:       "WAIT_PROOF",
	StateVerifyProof:     "VERIFY_PROOF",
	StateSendProof:       "SEND_PROOF",
	StateSendSymbols:     "SEND_SYMBOLS",
	StateSampleCRP:       "SAMPLE_CRP",
	StateSendChallenge:   "SEND_CHALLENGE",
	StateWaitSymbols:     "WAIT_SYMBOLS",
	StateDone:            "DONE",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}
