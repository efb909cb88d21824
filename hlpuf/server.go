package hlpuf

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"gopkg.in/op/go-logging.v1"

	hlog "github.com/alan-christopher/hlpuf/hlpuf/log"
	"github.com/alan-christopher/hlpuf/hlpuf/puf"
	"github.com/alan-christopher/hlpuf/hlpuf/qstate"
	"github.com/alan-christopher/hlpuf/hlpuf/sim"
	"github.com/alan-christopher/hlpuf/hlpuf/symbol"
)

// ServerOpts packages together the arguments necessary to construct a
// Server.
type ServerOpts struct {
	// Transport connects the server to the client. Must be non-nil.
	Transport Transport

	PUF     puf.Params
	Variant Variant

	// SymbolDelay is the pause after each measured symbol. Defaults to
	// DefaultSymbolDelay.
	SymbolDelay sim.Time

	// Rand drives CRP sampling and measurement outcomes. Must be non-nil.
	Rand *rand.Rand

	// Sample picks the CRP to challenge with. Defaults to (*puf.Table).Sample.
	Sample func(t *puf.Table, r *rand.Rand) puf.CRP

	// AttemptID names the attempt. A random one is generated if unset.
	AttemptID uuid.UUID

	// Log defaults to discarding everything.
	Log *logging.Logger

	// Metrics may be nil.
	Metrics *Metrics
}

// A Server challenges a Client and decides whether it holds the PUF.
type Server struct {
	machine

	oracle      *puf.Oracle
	rand        *rand.Rand
	sample      func(*puf.Table, *rand.Rand) puf.CRP
	symbolDelay sim.Time

	crp      puf.CRP
	pairs    []symbol.Pair
	proof2   qstate.State
	observed []symbol.Observation
}

// NewServer builds a server, including its oracle, in StateSampleCRP.
func NewServer(opts ServerOpts) (*Server, error) {
	if opts.Transport == nil {
		return nil, errors.New("must provide Transport")
	}
	if opts.Rand == nil {
		return nil, errors.New("must provide Rand")
	}
	if err := opts.Variant.Validate(opts.PUF); err != nil {
		return nil, err
	}
	oracle, err := puf.New(opts.PUF)
	if err != nil {
		return nil, err
	}
	log := opts.Log
	if log == nil {
		log = hlog.Discard("server")
	}
	s := &Server{
		machine:     newMachine(RoleServer, opts.Variant, opts.Transport, log, opts.Metrics, StateSampleCRP),
		oracle:      oracle,
		rand:        opts.Rand,
		sample:      opts.Sample,
		symbolDelay: opts.SymbolDelay,
	}
	if s.sample == nil {
		s.sample = (*puf.Table).Sample
	}
	if s.symbolDelay == 0 {
		s.symbolDelay = DefaultSymbolDelay
	}
	s.report.AttemptID = opts.AttemptID
	if s.report.AttemptID == uuid.Nil {
		s.report.AttemptID = uuid.New()
	}
	return s, nil
}

// Challenge returns the CRP the server challenged with. It is the zero CRP
// until the server has started.
func (s *Server) Challenge() puf.CRP {
	return s.crp
}

// Observations returns the stream observations recorded so far.
func (s *Server) Observations() []symbol.Observation {
	return append([]symbol.Observation(nil), s.observed...)
}

// Resume implements sim.Machine.
func (s *Server) Resume(ev sim.Event) error {
	switch {
	case s.state == StateSampleCRP && ev.Kind == sim.EventStart:
		if err := s.start(ev); err != nil {
			return err
		}
		return s.challenge()
	case s.state == StateWaitProof && ev.Kind == sim.EventQuantum:
		return s.onProof(ev.Quantum)
	case s.state == StateWaitSymbols && ev.Kind == sim.EventQuantum:
		return s.onSymbol(ev.Quantum)
	case s.state == StateWaitSymbols && ev.Kind == sim.EventTimer:
		return s.afterSymbol()
	}
	return s.unexpected(ev)
}

func (s *Server) challenge() error {
	s.crp = s.sample(s.oracle.Table(), s.rand)
	var err error
	if s.pairs, err = symbol.Segment(s.crp.Response); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	s.enter(StateSendChallenge)
	s.log.Infof("[%s] challenging with %v", s.report.AttemptID, s.crp.Challenge)
	a := announcement{attemptID: s.report.AttemptID, challenge: s.crp.Challenge}
	if err := s.transport.SendClassical(a.marshal()); err != nil {
		return fmt.Errorf("server: sending challenge: %w", err)
	}

	if s.report.Variant == VariantStream {
		s.enter(StateWaitSymbols)
		return s.transport.AwaitQuantum()
	}
	proof1, proof2, err := symbol.Proofs(s.crp.Response)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	s.proof2 = proof2
	s.enter(StateSendProof)
	if err := s.transport.SendQuantum(qstate.NewRegister(proof1)); err != nil {
		return fmt.Errorf("server: sending proof: %w", err)
	}
	s.enter(StateWaitProof)
	return s.transport.AwaitQuantum()
}

func (s *Server) onProof(r *qstate.Register) error {
	s.enter(StateVerifyProof)
	if got, want := r.Qubits(), s.proof2.Qubits(); got != want {
		s.finish(VerdictReject, fmt.Sprintf("Authentication failed: client proof has %d qubits, want %d", got, want))
		return nil
	}
	ok, f, err := symbol.VerifyByFidelity(r, s.proof2)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	s.report.Fidelity = f
	if ok {
		s.finish(VerdictAccept, "The client authenticated successfully")
	} else {
		s.finish(VerdictReject, "Authentication failed: client proof rejected")
	}
	return nil
}

func (s *Server) onSymbol(r *qstate.Register) error {
	i := len(s.observed)
	if r.Qubits() != 1 {
		s.report.Symbols = i
		s.report.Mismatches = symbol.Mismatches(s.observed, symbol.Expected(s.pairs))
		s.finish(VerdictReject, fmt.Sprintf("Authentication failed: symbol %d has %d qubits", i, r.Qubits()))
		return nil
	}
	o, err := symbol.VerifyByMeasurement(r, s.pairs[i], s.rand)
	if err != nil {
		return fmt.Errorf("server: symbol %d: %w", i, err)
	}
	s.log.Debugf("[%s] symbol %d measured %v, expected %v", s.report.AttemptID, i, o, s.pairs[i])
	s.observed = append(s.observed, o)
	s.report.Symbols = len(s.observed)
	return s.transport.AwaitDelay(s.symbolDelay)
}

func (s *Server) afterSymbol() error {
	if len(s.observed) < len(s.pairs) {
		return s.transport.AwaitQuantum()
	}
	s.report.Mismatches = symbol.Mismatches(s.observed, symbol.Expected(s.pairs))
	if s.report.Mismatches == 0 {
		s.finish(VerdictAccept, "The client authenticated successfully")
	} else {
		s.finish(VerdictReject, "Authentication failed: measured symbols disagree with the response")
	}
	return nil
}
