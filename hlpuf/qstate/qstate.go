// Package qstate provides a minimal pure-state algebra for qubits: kets over
// real amplitudes, tensor products, fidelity and projective measurement in
// the rectilinear and diagonal bases.
package qstate

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

const normTolerance = 1e-9

var (
	ErrDimension  = errors.New("qstate: dimension mismatch")
	ErrNormalized = errors.New("qstate: state is not normalized")
)

var invSqrt2 = 1 / math.Sqrt2

// The four single-qubit symbol states. S0 and S1 span the rectilinear basis,
// H0 and H1 the diagonal one.
var (
	S0 = mustState(1, 0)
	S1 = mustState(0, 1)
	H0 = mustState(invSqrt2, invSqrt2)
	H1 = mustState(invSqrt2, -invSqrt2)
)

// A State is a normalized ket over one or more qubits. States are immutable.
type State struct {
	vec *mat.VecDense
}

// NewState returns the ket with the given amplitudes. The number of
// amplitudes must be a power of two, at least 2, and their 2-norm must be 1.
func NewState(amps ...float64) (State, error) {
	n := len(amps)
	if n < 2 || n&(n-1) != 0 {
		return State{}, fmt.Errorf("%w: %d amplitudes is not a qubit state", ErrDimension, n)
	}
	if norm := floats.Norm(amps, 2); !scalar.EqualWithinAbs(norm, 1, normTolerance) {
		return State{}, fmt.Errorf("%w: norm %v", ErrNormalized, norm)
	}
	data := make([]float64, n)
	copy(data, amps)
	return State{vec: mat.NewVecDense(n, data)}, nil
}

func mustState(amps ...float64) State {
	s, err := NewState(amps...)
	if err != nil {
		panic(err)
	}
	return s
}

// Dim returns the dimension of the Hilbert space s lives in.
func (s State) Dim() int {
	if s.vec == nil {
		return 0
	}
	return s.vec.Len()
}

// Qubits returns the number of qubits described by s.
func (s State) Qubits() int {
	return bits.TrailingZeros(uint(s.Dim()))
}

// Amplitudes returns a copy of the amplitudes of s.
func (s State) Amplitudes() []float64 {
	if s.vec == nil {
		return nil
	}
	return mat.Col(nil, 0, s.vec)
}

// Kron returns the ordered tensor product of states; the first state holds
// the most significant qubit.
func Kron(states ...State) (State, error) {
	if len(states) == 0 {
		return State{}, fmt.Errorf("%w: tensor product of no states", ErrDimension)
	}
	for i, s := range states {
		if s.Dim() == 0 {
			return State{}, fmt.Errorf("%w: state %d is empty", ErrDimension, i)
		}
	}
	acc := states[0]
	for _, s := range states[1:] {
		var prod mat.Dense
		prod.Kronecker(acc.vec, s.vec)
		r, _ := prod.Dims()
		acc = State{vec: mat.NewVecDense(r, mat.Col(nil, 0, &prod))}
	}
	return acc, nil
}

// Fidelity returns |<a|b>|^2, which is 1 for identical states and 0 for
// orthogonal ones.
func Fidelity(a, b State) (float64, error) {
	if a.Dim() != b.Dim() || a.Dim() == 0 {
		return 0, fmt.Errorf("%w: fidelity between %d and %d dimensional states", ErrDimension, a.Dim(), b.Dim())
	}
	ip := mat.Dot(a.vec, b.vec)
	return ip * ip, nil
}
