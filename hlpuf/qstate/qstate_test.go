package qstate

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestNewState(t *testing.T) {
	tcs := []struct {
		name string
		amps []float64
		eErr error
	}{
		{"zero ket", []float64{1, 0}, nil},
		{"two qubits", []float64{0.5, 0.5, 0.5, 0.5}, nil},
		{"one amplitude", []float64{1}, ErrDimension},
		{"three amplitudes", []float64{1, 0, 0}, ErrDimension},
		{"unnormalized", []float64{1, 1}, ErrNormalized},
		{"within tolerance", []float64{1 + 1e-12, 0}, nil},
		{"outside tolerance", []float64{1 + 1e-6, 0}, ErrNormalized},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewState(tc.amps...)
			if !errors.Is(err, tc.eErr) {
				t.Errorf("NewState(%v) error == %v, want %v", tc.amps, err, tc.eErr)
			}
		})
	}
}

func TestSymbolFidelities(t *testing.T) {
	tcs := []struct {
		name string
		a, b State
		eout float64
	}{
		{"S0 S0", S0, S0, 1},
		{"H1 H1", H1, H1, 1},
		{"S0 S1", S0, S1, 0},
		{"H0 H1", H0, H1, 0},
		{"S0 H0", S0, H0, 0.5},
		{"S1 H1", S1, H1, 0.5},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Fidelity(tc.a, tc.b)
			if err != nil {
				t.Fatalf("Fidelity: %v", err)
			}
			if !near(f, tc.eout) {
				t.Errorf("Fidelity == %v, want %v", f, tc.eout)
			}
		})
	}
}

func TestKron(t *testing.T) {
	s, err := Kron(S0, S1, H0)
	if err != nil {
		t.Fatalf("Kron: %v", err)
	}
	if s.Qubits() != 3 || s.Dim() != 8 {
		t.Fatalf("Kron(S0, S1, H0) has %d qubits in %d dims, want 3 in 8", s.Qubits(), s.Dim())
	}
	// |0>|1>|+> = (|010> + |011>)/sqrt2
	want := []float64{0, 0, invSqrt2, invSqrt2, 0, 0, 0, 0}
	for i, a := range s.Amplitudes() {
		if !near(a, want[i]) {
			t.Errorf("amplitude %d == %v, want %v", i, a, want[i])
		}
	}
}

func TestKronOrderMatters(t *testing.T) {
	ab, _ := Kron(S0, S1)
	ba, _ := Kron(S1, S0)
	f, err := Fidelity(ab, ba)
	if err != nil {
		t.Fatalf("Fidelity: %v", err)
	}
	if !near(f, 0) {
		t.Errorf("Fidelity(|01>, |10>) == %v, want 0", f)
	}
}

func TestKronFidelityFactorizes(t *testing.T) {
	a, _ := Kron(S0, H0, S1, H1)
	b, _ := Kron(H0, H0, S1, S1)
	f, err := Fidelity(a, b)
	if err != nil {
		t.Fatalf("Fidelity: %v", err)
	}
	if !near(f, 0.25) {
		t.Errorf("Fidelity == %v, want 0.25", f)
	}
}

func TestKronErrors(t *testing.T) {
	if _, err := Kron(); !errors.Is(err, ErrDimension) {
		t.Errorf("Kron() error == %v, want ErrDimension", err)
	}
	if _, err := Kron(S0, State{}); !errors.Is(err, ErrDimension) {
		t.Errorf("Kron(S0, State{}) error == %v, want ErrDimension", err)
	}
}

func TestFidelityDimensionMismatch(t *testing.T) {
	two, _ := Kron(S0, S0)
	if _, err := Fidelity(S0, two); !errors.Is(err, ErrDimension) {
		t.Errorf("Fidelity across dimensions error == %v, want ErrDimension", err)
	}
}

func TestMeasureDeterministicOutcomes(t *testing.T) {
	tcs := []struct {
		state State
		basis Basis
		eout  uint8
	}{
		{S0, Rectilinear, 0},
		{S1, Rectilinear, 1},
		{H0, Diagonal, 0},
		{H1, Diagonal, 1},
	}
	rng := rand.New(rand.NewSource(1))
	for _, tc := range tcs {
		for i := 0; i < 50; i++ {
			got, err := NewRegister(tc.state).Measure(tc.basis, rng)
			if err != nil {
				t.Fatalf("Measure: %v", err)
			}
			if got != tc.eout {
				t.Fatalf("measuring %v in %v gave %d, want %d", tc.state.Amplitudes(), tc.basis, got, tc.eout)
			}
		}
	}
}

func TestMeasureConjugateBasisIsRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	ones := 0
	const n = 2000
	for i := 0; i < n; i++ {
		b, err := NewRegister(S0).Measure(Diagonal, rng)
		if err != nil {
			t.Fatalf("Measure: %v", err)
		}
		ones += int(b)
	}
	if ones < n/3 || ones > 2*n/3 {
		t.Errorf("measuring S0 diagonally gave %d ones in %d trials", ones, n)
	}
}

func TestMeasureDiscards(t *testing.T) {
	r := NewRegister(H0)
	if _, err := r.Measure(Diagonal, rand.New(rand.NewSource(3))); err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if _, err := r.Measure(Diagonal, rand.New(rand.NewSource(3))); !errors.Is(err, ErrDiscarded) {
		t.Errorf("second Measure error == %v, want ErrDiscarded", err)
	}
	if _, err := r.State(); !errors.Is(err, ErrDiscarded) {
		t.Errorf("State after Measure error == %v, want ErrDiscarded", err)
	}
}

func TestMeasureMultiQubit(t *testing.T) {
	s, _ := Kron(S0, S1)
	if _, err := NewRegister(s).Measure(Rectilinear, rand.New(rand.NewSource(4))); !errors.Is(err, ErrDimension) {
		t.Errorf("measuring two qubits error == %v, want ErrDimension", err)
	}
}
