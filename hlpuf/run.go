package hlpuf

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	hlog "github.com/alan-christopher/hlpuf/hlpuf/log"
	"github.com/alan-christopher/hlpuf/hlpuf/puf"
	"github.com/alan-christopher/hlpuf/hlpuf/sim"
)

// RunOpts packages together the arguments to Run.
type RunOpts struct {
	Variant Variant

	// PUF parameterizes both parties' oracles.
	PUF puf.Params
	// ClientPUF, if set, replaces PUF for the client only.
	ClientPUF *puf.Params

	SymbolDelay sim.Time

	// Connection describes the channels between the client (A) and the
	// server (B).
	Connection sim.ConnectionOpts

	// Rand is handed to the server. Must be non-nil.
	Rand *rand.Rand

	Sample    func(t *puf.Table, r *rand.Rand) puf.CRP
	AttemptID uuid.UUID

	// Backend supplies the "client", "server" and "sim" loggers. Logging is
	// discarded if it is nil.
	Backend *hlog.Backend
	Metrics *Metrics
	Clock   clock.Clock
}

// A Result describes one completed attempt.
type Result struct {
	Client Report
	Server Report
	Stats  sim.Stats
}

// Authenticated returns true iff the attempt succeeded: both parties
// accepted in the batch variant, the server accepted in the stream variant.
func (r Result) Authenticated() bool {
	if r.Server.Verdict != VerdictAccept {
		return false
	}
	return r.Server.Variant == VariantStream || r.Client.Verdict == VerdictAccept
}

// Run wires a Client and a Server over a fresh simulated network and runs one
// authentication attempt to completion.
func Run(ctx context.Context, opts RunOpts) (Result, error) {
	if opts.Rand == nil {
		return Result{}, errors.New("must provide Rand")
	}
	logger := hlog.Discard
	if opts.Backend != nil {
		logger = opts.Backend.GetLogger
	}

	e := sim.NewEngine(sim.EngineOpts{Log: logger("sim"), Clock: opts.Clock})
	cEP := e.NewEndpoint("client")
	sEP := e.NewEndpoint("server")
	e.Connect(cEP, sEP, opts.Connection)

	clientPUF := opts.PUF
	if opts.ClientPUF != nil {
		clientPUF = *opts.ClientPUF
	}
	client, err := NewClient(ClientOpts{
		Transport:   cEP,
		PUF:         clientPUF,
		Variant:     opts.Variant,
		SymbolDelay: opts.SymbolDelay,
		Log:         logger("client"),
		Metrics:     opts.Metrics,
	})
	if err != nil {
		return Result{}, fmt.Errorf("creating client: %w", err)
	}
	server, err := NewServer(ServerOpts{
		Transport:   sEP,
		PUF:         opts.PUF,
		Variant:     opts.Variant,
		SymbolDelay: opts.SymbolDelay,
		Rand:        opts.Rand,
		Sample:      opts.Sample,
		AttemptID:   opts.AttemptID,
		Log:         logger("server"),
		Metrics:     opts.Metrics,
	})
	if err != nil {
		return Result{}, fmt.Errorf("creating server: %w", err)
	}
	cEP.Bind(client)
	sEP.Bind(server)

	stats, err := e.Run(ctx)
	return Result{Client: client.Report(), Server: server.Report(), Stats: stats}, err
}
