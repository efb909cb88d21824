package qstate

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrDiscarded is returned when reading a register that has already been
// measured.
var ErrDiscarded = errors.New("qstate: register already measured")

// A Basis selects a projective single-qubit measurement.
type Basis uint8

const (
	// Rectilinear measures onto {S0, S1}.
	Rectilinear Basis = iota
	// Diagonal measures onto {H0, H1}.
	Diagonal
)

func (b Basis) String() string {
	switch b {
	case Rectilinear:
		return "rectilinear"
	case Diagonal:
		return "diagonal"
	default:
		return fmt.Sprintf("Basis(%d)", uint8(b))
	}
}

// Kets returns the basis states corresponding to outcomes 0 and 1.
func (b Basis) Kets() (zero, one State, err error) {
	switch b {
	case Rectilinear:
		return S0, S1, nil
	case Diagonal:
		return H0, H1, nil
	default:
		return State{}, State{}, fmt.Errorf("qstate: unknown basis %v", b)
	}
}

// A Register is an opaque handle over a group of qubits holding one
// (possibly composite) state. It is what travels over a quantum channel.
type Register struct {
	state     State
	discarded bool
}

// NewRegister returns a register holding s.
func NewRegister(s State) *Register {
	return &Register{state: s}
}

// Qubits returns the number of qubits in r.
func (r *Register) Qubits() int {
	return r.state.Qubits()
}

// State returns the state held by r.
func (r *Register) State() (State, error) {
	if r.discarded {
		return State{}, ErrDiscarded
	}
	return r.state, nil
}

// Measure performs a projective measurement of a single-qubit register in
// basis b, drawing the outcome from rng. The register is discarded
// afterwards.
func (r *Register) Measure(b Basis, rng *rand.Rand) (uint8, error) {
	if r.discarded {
		return 0, ErrDiscarded
	}
	if r.Qubits() != 1 {
		return 0, fmt.Errorf("%w: measuring a %d qubit register", ErrDimension, r.Qubits())
	}
	zero, one, err := b.Kets()
	if err != nil {
		return 0, err
	}
	p0, err := Fidelity(zero, r.state)
	if err != nil {
		return 0, err
	}
	r.discarded = true
	if p0 > 1-normTolerance {
		r.state = zero
		return 0, nil
	}
	if p0 < normTolerance || rng.Float64() >= p0 {
		r.state = one
		return 1, nil
	}
	r.state = zero
	return 0, nil
}
