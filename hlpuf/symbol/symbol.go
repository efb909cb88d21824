// Package symbol encodes pairs of classical bits as single-qubit symbols and
// verifies received symbols against the pairs a verifier expects.
//
// The first bit of a pair selects the basis (0 rectilinear, 1 diagonal) and
// the second bit the state within it:
//
//	(0,0) -> S0   (0,1) -> S1   (1,0) -> H0   (1,1) -> H1
package symbol

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/alan-christopher/hlpuf/hlpuf/qstate"
)

// ErrInvalidPair is returned when either coordinate of a Pair is not 0 or 1.
var ErrInvalidPair = errors.New("symbol: basis-pair coordinates must be 0 or 1")

// A Pair is two adjacent response bits, interpreted together.
type Pair struct {
	First  uint8
	Second uint8
}

func (p Pair) String() string {
	return fmt.Sprintf("(%d,%d)", p.First, p.Second)
}

func (p Pair) validate() error {
	if p.First > 1 || p.Second > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidPair, p)
	}
	return nil
}

// Encode returns the symbol state for p.
func Encode(p Pair) (qstate.State, error) {
	if err := p.validate(); err != nil {
		return qstate.State{}, err
	}
	switch {
	case p.First == 0 && p.Second == 0:
		return qstate.S0, nil
	case p.First == 0:
		return qstate.S1, nil
	case p.Second == 0:
		return qstate.H0, nil
	default:
		return qstate.H1, nil
	}
}

// Combine encodes pairs into one composite state, preserving their order.
func Combine(pairs ...Pair) (qstate.State, error) {
	states := make([]qstate.State, 0, len(pairs))
	for _, p := range pairs {
		s, err := Encode(p)
		if err != nil {
			return qstate.State{}, err
		}
		states = append(states, s)
	}
	return qstate.Kron(states...)
}

// RoundFidelity rounds a fidelity to the nearest integer, halves to even, so
// an exact 0.5 rounds down. f is first rounded to 9 decimal places to absorb
// floating point error in the inner product.
func RoundFidelity(f float64) float64 {
	return math.RoundToEven(math.Round(f*1e9) / 1e9)
}

// VerifyByFidelity compares the state held by received against expected. It
// accepts iff the rounded fidelity is exactly 1 and also returns the raw
// fidelity.
func VerifyByFidelity(received *qstate.Register, expected qstate.State) (bool, float64, error) {
	got, err := received.State()
	if err != nil {
		return false, 0, err
	}
	f, err := qstate.Fidelity(got, expected)
	if err != nil {
		return false, 0, fmt.Errorf("verifying by fidelity: %w", err)
	}
	return RoundFidelity(f) == 1, f, nil
}

// BasisFor returns the basis a verifier expecting p measures in.
func BasisFor(p Pair) qstate.Basis {
	if p.First == 0 {
		return qstate.Rectilinear
	}
	return qstate.Diagonal
}

// An Observation is the outcome of measuring one symbol, tagged with the
// basis it was measured in.
type Observation struct {
	Basis qstate.Basis
	Bit   uint8
}

func (o Observation) String() string {
	return fmt.Sprintf("%v:%d", o.Basis, o.Bit)
}

// Matches returns true iff o is what measuring Encode(p) in BasisFor(p)
// yields.
func (o Observation) Matches(p Pair) bool {
	return o == expectedObservation(p)
}

func expectedObservation(p Pair) Observation {
	return Observation{Basis: BasisFor(p), Bit: p.Second}
}

// Expected returns the observations an honest, noiseless exchange of pairs
// produces.
func Expected(pairs []Pair) []Observation {
	r := make([]Observation, 0, len(pairs))
	for _, p := range pairs {
		r = append(r, expectedObservation(p))
	}
	return r
}

// VerifyByMeasurement measures the single-qubit register q in the basis
// implied by the verifier's own expected pair. The register is consumed.
func VerifyByMeasurement(q *qstate.Register, expected Pair, rng *rand.Rand) (Observation, error) {
	if err := expected.validate(); err != nil {
		return Observation{}, err
	}
	b := BasisFor(expected)
	bit, err := q.Measure(b, rng)
	if err != nil {
		return Observation{}, fmt.Errorf("verifying by measurement: %w", err)
	}
	return Observation{Basis: b, Bit: bit}, nil
}

// Mismatches returns the number of positions at which got and want differ.
// Missing or surplus observations each count as one mismatch.
func Mismatches(got, want []Observation) int {
	n := 0
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			n++
		}
	}
	if len(got) > len(want) {
		n += len(got) - len(want)
	}
	return n
}
