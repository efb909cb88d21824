package main

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alan-christopher/hlpuf/hlpuf"
	"github.com/alan-christopher/hlpuf/hlpuf/config"
	hlog "github.com/alan-christopher/hlpuf/hlpuf/log"
	"github.com/alan-christopher/hlpuf/hlpuf/qstate"
)

func TestApplyCartesian(t *testing.T) {
	var got [][]interface{}
	applyCartesian(func(x []interface{}) {
		got = append(got, x)
	}, [][]interface{}{{0.0, 0.5}, {1.0, 2.0, 3.0}})

	want := [][]interface{}{
		{0.0, 1.0}, {0.0, 2.0}, {0.0, 3.0},
		{0.5, 1.0}, {0.5, 2.0}, {0.5, 3.0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLineTemplate(t *testing.T) {
	if got, want := lineTmpl()[:12], "{{.Variant}}"; got != want {
		t.Errorf("got %q, want prefix %q", got, want)
	}
	if got, want := header()[:16], "Variant, Noise, "; got != want {
		t.Errorf("got %q, want prefix %q", got, want)
	}
}

func TestScramble(t *testing.T) {
	if scramble(0, nil) != nil {
		t.Error("scramble(0) should not intercept")
	}
	always := scramble(1, rand.New(rand.NewSource(1)))
	s, err := qstate.Kron(qstate.S0, qstate.H1)
	if err != nil {
		t.Fatal(err)
	}
	in := qstate.NewRegister(s)
	out := always(0, in)
	if out == in {
		t.Error("scramble(1) passed a register through")
	}
	if out.Qubits() != 2 {
		t.Errorf("got %d qubits, want 2", out.Qubits())
	}
}

func TestBench(t *testing.T) {
	tcs := []struct {
		v          hlpuf.Variant
		noise      float64
		wantRate   float64
		wantErrors int
	}{
		{hlpuf.VariantBatch, 0, 1, 0},
		{hlpuf.VariantStream, 0, 1, 0},
	}

	for _, tc := range tcs {
		t.Run(tc.v.String(), func(t *testing.T) {
			cfg := config.Default(tc.v)
			cfg.Run.Attempts = 4
			b := &bencher{cfg: cfg, log: hlog.Discard("main")}
			exp := &Experiment{Variant: tc.v.String(), Noise: tc.noise, QuantumLength: 0.4, Attempts: 4}
			if err := b.bench(context.Background(), exp); err != nil {
				t.Fatal(err)
			}
			if exp.AcceptRate != tc.wantRate || exp.Errors != tc.wantErrors {
				t.Errorf("got rate %v with %d errors, want %v with %d", exp.AcceptRate, exp.Errors, tc.wantRate, tc.wantErrors)
			}
			if exp.MeanSimTimeNs == 0 {
				t.Error("no simulated time recorded")
			}
		})
	}
}

func TestMetricsRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := hlpuf.NewMetrics(reg); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(metricsRouter(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("got status %d, want %d", resp.StatusCode, http.StatusOK)
	}

	resp, err = http.Get(srv.URL + "/other")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("got status %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}
