package hlpuf

import (
	"errors"
	"fmt"

	"gopkg.in/op/go-logging.v1"

	hlog "github.com/alan-christopher/hlpuf/hlpuf/log"
	"github.com/alan-christopher/hlpuf/hlpuf/puf"
	"github.com/alan-christopher/hlpuf/hlpuf/qstate"
	"github.com/alan-christopher/hlpuf/hlpuf/sim"
	"github.com/alan-christopher/hlpuf/hlpuf/symbol"
)

// ClientOpts packages together the arguments necessary to construct a
// Client.
type ClientOpts struct {
	// Transport connects the client to the server. Must be non-nil.
	Transport Transport

	// PUF parameterizes the client's own oracle. Authentication can only
	// succeed if they equal the server's.
	PUF puf.Params

	Variant Variant

	// SymbolDelay is the pause between streamed symbols. Defaults to
	// DefaultSymbolDelay.
	SymbolDelay sim.Time

	// Log defaults to discarding everything.
	Log *logging.Logger

	// Metrics may be nil.
	Metrics *Metrics
}

// A Client proves possession of the PUF to a Server.
type Client struct {
	machine

	oracle      *puf.Oracle
	symbolDelay sim.Time

	pairs  []symbol.Pair
	proof1 qstate.State
	proof2 qstate.State
	sent   int
}

// NewClient builds a client, including its oracle, in StateWaitChallenge.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.Transport == nil {
		return nil, errors.New("must provide Transport")
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
		log = hlog.Discard("client")
	}
	delay := opts.SymbolDelay
	if delay == 0 {
		delay = DefaultSymbolDelay
	}
	return &Client{
		machine:     newMachine(RoleClient, opts.Variant, opts.Transport, log, opts.Metrics, StateWaitChallenge),
		oracle:      oracle,
		symbolDelay: delay,
	}, nil
}

// Resume implements sim.Machine.
func (c *Client) Resume(ev sim.Event) error {
	switch {
	case c.state == StateWaitChallenge && ev.Kind == sim.EventStart:
		if err := c.start(ev); err != nil {
			return err
		}
		return c.transport.AwaitClassical()
	case c.state == StateWaitChallenge && ev.Kind == sim.EventClassical:
		return c.onChallenge(ev.Classical)
	case c.state == StateWaitProof && ev.Kind == sim.EventQuantum:
		return c.onProof(ev.Quantum)
	case c.state == StateSendSymbols && ev.Kind == sim.EventTimer:
		return c.sendSymbol()
	}
	return c.unexpected(ev)
}

func (c *Client) onChallenge(payload []byte) error {
	a, err := unmarshalAnnouncement(payload)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	c.report.AttemptID = a.attemptID
	c.log.Infof("[%s] received challenge %v", a.attemptID, a.challenge)

	c.enter(StateComputeResponse)
	resp, err := c.oracle.Evaluate(a.challenge)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	if c.pairs, err = symbol.Segment(resp); err != nil {
		return fmt.Errorf("client: %w", err)
	}

	if c.report.Variant == VariantStream {
		c.enter(StateSendSymbols)
		return c.sendSymbol()
	}
	if c.proof1, c.proof2, err = symbol.Proofs(resp); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	c.enter(StateWaitProof)
	return c.transport.AwaitQuantum()
}

func (c *Client) onProof(r *qstate.Register) error {
	c.enter(StateVerifyProof)
	if got, want := r.Qubits(), c.proof1.Qubits(); got != want {
		c.finish(VerdictReject, fmt.Sprintf("Authentication failed: server proof has %d qubits, want %d", got, want))
		return nil
	}
	ok, f, err := symbol.VerifyByFidelity(r, c.proof1)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	c.report.Fidelity = f
	if !ok {
		c.finish(VerdictReject, "Authentication failed: server proof rejected")
		return nil
	}
	c.enter(StateSendProof)
	if err := c.transport.SendQuantum(qstate.NewRegister(c.proof2)); err != nil {
		return fmt.Errorf("client: sending proof: %w", err)
	}
	c.finish(VerdictAccept, "server proof accepted, client proof sent")
	return nil
}

// sendSymbol transmits the next basis-pair and pauses before the one after.
func (c *Client) sendSymbol() error {
	p := c.pairs[c.sent]
	s, err := symbol.Encode(p)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	if err := c.transport.SendQuantum(qstate.NewRegister(s)); err != nil {
		return fmt.Errorf("client: sending symbol %d: %w", c.sent, err)
	}
	c.log.Debugf("[%s] sent symbol %d %v", c.report.AttemptID, c.sent, p)
	c.sent++
	c.report.Symbols = c.sent
	if c.sent < len(c.pairs) {
		return c.transport.AwaitDelay(c.symbolDelay)
	}
	c.finish(VerdictNone, fmt.Sprintf("sent %d symbols", c.sent))
	return nil
}
