package hlpuf

import (
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/op/go-logging.v1"

	"github.com/alan-christopher/hlpuf/hlpuf/sim"
)

// A Report is the single pass/fail summary one role produces per attempt.
type Report struct {
	AttemptID uuid.UUID
	Role      Role
	Variant   Variant
	Verdict   Verdict

	// Fidelity is the raw fidelity behind a batch verdict.
	Fidelity float64
	// Symbols is the number of symbols sent (client) or measured (server)
	// in a stream attempt.
	Symbols int
	// Mismatches is the number of stream observations that disagreed with
	// the server's expectation.
	Mismatches int

	Message string
}

func (r Report) String() string {
	switch {
	case r.Variant == VariantBatch && r.Verdict != VerdictNone:
		return fmt.Sprintf("[%s] %s %s: %s (fidelity %.4f)", r.AttemptID, r.Variant, r.Role, r.Message, r.Fidelity)
	case r.Variant == VariantStream && r.Role == RoleServer && r.Verdict != VerdictNone:
		return fmt.Sprintf("[%s] %s %s: %s (%d/%d symbols mismatched)", r.AttemptID, r.Variant, r.Role, r.Message, r.Mismatches, r.Symbols)
	default:
		return fmt.Sprintf("[%s] %s %s: %s", r.AttemptID, r.Variant, r.Role, r.Message)
	}
}

// machine holds what Client and Server have in common: the named state, the
// trail of states visited, and the report.
type machine struct {
	transport Transport
	log       *logging.Logger
	metrics   *Metrics
	started   bool

	state   State
	history []State
	report  Report
}

func newMachine(role Role, v Variant, t Transport, log *logging.Logger, m *Metrics, initial State) machine {
	return machine{
		transport: t,
		log:       log,
		metrics:   m,
		state:     initial,
		history:   []State{initial},
		report:    Report{Role: role, Variant: v},
	}
}

// State returns the machine's current state.
func (m *machine) State() State {
	return m.state
}

// History returns every state the machine has entered, in order.
func (m *machine) History() []State {
	return append([]State(nil), m.history...)
}

// Report returns the machine's report. Its Verdict is VerdictNone until the
// machine reaches StateDone.
func (m *machine) Report() Report {
	return m.report
}

// Done returns true once the machine has reached StateDone.
func (m *machine) Done() bool {
	return m.state == StateDone
}

func (m *machine) enter(s State) {
	m.log.Debugf("%s: %v -> %v", m.transport.Name(), m.state, s)
	m.state = s
	m.history = append(m.history, s)
}

func (m *machine) start(ev sim.Event) error {
	if ev.Kind != sim.EventStart || m.started {
		return m.unexpected(ev)
	}
	m.started = true
	return nil
}

func (m *machine) finish(v Verdict, msg string) {
	m.report.Verdict = v
	m.report.Message = msg
	m.enter(StateDone)
	m.log.Notice(m.report.String())
	m.metrics.observe(m.report)
}

func (m *machine) unexpected(ev sim.Event) error {
	return fmt.Errorf("%w: %s got %v event in state %v", ErrUnexpectedEvent, m.report.Role, ev.Kind, m.state)
}
