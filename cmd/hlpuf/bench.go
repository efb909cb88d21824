package main

import (
	"context"
	"math/rand"

	"gonum.org/v1/gonum/stat"
	"gopkg.in/op/go-logging.v1"

	"github.com/alan-christopher/hlpuf/hlpuf"
	"github.com/alan-christopher/hlpuf/hlpuf/config"
	hlog "github.com/alan-christopher/hlpuf/hlpuf/log"
	"github.com/alan-christopher/hlpuf/hlpuf/qstate"
	"github.com/alan-christopher/hlpuf/hlpuf/sim"
	"github.com/alan-christopher/hlpuf/hlpuf/symbol"
)

// An Experiment packages together the result of benchmarking a single
// parameterization for easy formatting.
type Experiment struct {
	// Fields corresponding to experiment parameters
	Variant       string
	Noise         float64
	QuantumLength float64
	Attempts      int

	// Fields corresponding to experiment results
	Accepted       int
	AcceptRate     float64
	MeanFidelity   float64
	MeanMismatches float64
	MeanSimTimeNs  float64
	Errors         int
}

type bencher struct {
	cfg     *config.Config
	backend *hlog.Backend
	metrics *hlpuf.Metrics
	log     *logging.Logger
}

func (b *bencher) bench(ctx context.Context, exp *Experiment) error {
	r := rand.New(rand.NewSource(b.cfg.Run.SampleSeed))
	noiseRand := rand.New(rand.NewSource(b.cfg.Run.SampleSeed + 1))
	conn := b.cfg.Connection()
	conn.QuantumLength = exp.QuantumLength
	conn.InterceptAToB = scramble(exp.Noise, noiseRand)
	conn.InterceptBToA = scramble(exp.Noise, noiseRand)

	var fidelities, mismatches, simTimes []float64
	var firstErr error
	for i := 0; i < exp.Attempts; i++ {
		res, err := hlpuf.Run(ctx, hlpuf.RunOpts{
			Variant:     b.cfg.Variant(),
			PUF:         b.cfg.PUFParams(),
			SymbolDelay: sim.Time(b.cfg.Protocol.SymbolDelay),
			Connection:  conn,
			Rand:        r,
			Backend:     b.backend,
			Metrics:     b.metrics,
		})
		if err != nil {
			exp.Errors++
			if firstErr == nil {
				firstErr = err
			}
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if res.Authenticated() {
			exp.Accepted++
		}
		simTimes = append(simTimes, float64(res.Stats.SimTime))
		switch {
		case exp.Variant == hlpuf.VariantBatch.String() && res.Server.Verdict != hlpuf.VerdictNone:
			fidelities = append(fidelities, res.Server.Fidelity)
		case exp.Variant == hlpuf.VariantStream.String():
			mismatches = append(mismatches, float64(res.Server.Mismatches))
		}
	}
	if exp.Attempts > 0 {
		exp.AcceptRate = float64(exp.Accepted) / float64(exp.Attempts)
	}
	exp.MeanFidelity = mean(fidelities)
	exp.MeanMismatches = mean(mismatches)
	exp.MeanSimTimeNs = mean(simTimes)
	b.log.Infof("%s noise=%v length=%vkm: %d/%d accepted", exp.Variant, exp.Noise, exp.QuantumLength, exp.Accepted, exp.Attempts)
	return firstErr
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// scramble returns an interceptor that, with probability p, replaces a
// register with uniformly random symbols on as many qubits.
func scramble(p float64, r *rand.Rand) sim.Interceptor {
	if p <= 0 {
		return nil
	}
	return func(_ int, reg *qstate.Register) *qstate.Register {
		if r.Float64() >= p {
			return reg
		}
		pairs := make([]symbol.Pair, reg.Qubits())
		for i := range pairs {
			pairs[i] = symbol.Pair{First: uint8(r.Intn(2)), Second: uint8(r.Intn(2))}
		}
		s, err := symbol.Combine(pairs...)
		if err != nil {
			panic(err)
		}
		return qstate.NewRegister(s)
	}
}
