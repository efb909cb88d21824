package sim

import (
	"errors"
	"fmt"

	"gopkg.in/op/go-logging.v1"

	"github.com/alan-christopher/hlpuf/hlpuf/qstate"
)

var (
	// ErrAlreadyWaiting is returned by an Await call made while an earlier
	// one has not been resumed yet.
	ErrAlreadyWaiting = errors.New("sim: endpoint is already waiting")

	// ErrNotConnected is returned when sending from an endpoint that has no
	// outgoing channel of the required kind.
	ErrNotConnected = errors.New("sim: endpoint is not connected")
)

// An EventKind says why a machine is being resumed.
type EventKind int

const (
	EventStart EventKind = iota
	EventClassical
	EventQuantum
	EventTimer
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventClassical:
		return "classical"
	case EventQuantum:
		return "quantum"
	case EventTimer:
		return "timer"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// An Event is handed to a Machine when it is resumed.
type Event struct {
	Kind EventKind
	Time Time

	// Classical is set for EventClassical.
	Classical []byte
	// Quantum is set for EventQuantum.
	Quantum *qstate.Register
}

// A Machine is a protocol state machine. It is resumed once with EventStart
// and afterwards once per Await call it makes on its endpoint.
type Machine interface {
	Resume(ev Event) error
}

// A WaitKind says what an endpoint is suspended on.
type WaitKind int

const (
	WaitNone WaitKind = iota
	WaitClassical
	WaitQuantum
	WaitTimer
)

func (w WaitKind) String() string {
	switch w {
	case WaitNone:
		return "nothing"
	case WaitClassical:
		return "classical message"
	case WaitQuantum:
		return "quantum message"
	case WaitTimer:
		return "timer"
	default:
		return fmt.Sprintf("WaitKind(%d)", int(w))
	}
}

// An Endpoint is one party's attachment to the network. Messages that arrive
// before they are awaited are queued in arrival order.
type Endpoint struct {
	name    string
	engine  *Engine
	log     *logging.Logger
	machine Machine

	classicalOut *channel
	quantumOut   *channel

	classicalIn [][]byte
	quantumIn   []*qstate.Register
	waiting     WaitKind
}

// NewEndpoint returns a new, unconnected endpoint.
func (e *Engine) NewEndpoint(name string) *Endpoint {
	ep := &Endpoint{
		name:   name,
		engine: e,
		log:    e.log,
	}
	e.endpoints = append(e.endpoints, ep)
	return ep
}

// Name returns the endpoint's name.
func (ep *Endpoint) Name() string {
	return ep.name
}

// Now returns the current virtual time.
func (ep *Endpoint) Now() Time {
	return ep.engine.now
}

// Waiting returns what ep is currently suspended on.
func (ep *Endpoint) Waiting() WaitKind {
	return ep.waiting
}

// Bind attaches m to ep and schedules its start event at the current time.
func (ep *Endpoint) Bind(m Machine) {
	ep.machine = m
	ep.engine.After(0, func() error {
		return m.Resume(Event{Kind: EventStart, Time: ep.engine.now})
	})
}

// SendClassical transmits payload to the peer. The payload is copied.
func (ep *Endpoint) SendClassical(payload []byte) error {
	if ep.classicalOut == nil {
		return fmt.Errorf("%w: %s has no classical channel", ErrNotConnected, ep.name)
	}
	ep.classicalOut.sendClassical(append([]byte(nil), payload...))
	return nil
}

// SendQuantum transmits r to the peer. The sender must not touch r again.
func (ep *Endpoint) SendQuantum(r *qstate.Register) error {
	if ep.quantumOut == nil {
		return fmt.Errorf("%w: %s has no quantum channel", ErrNotConnected, ep.name)
	}
	ep.quantumOut.sendQuantum(r)
	return nil
}

// AwaitClassical suspends the machine until a classical message is
// available.
func (ep *Endpoint) AwaitClassical() error {
	return ep.await(WaitClassical)
}

// AwaitQuantum suspends the machine until a quantum message is available.
func (ep *Endpoint) AwaitQuantum() error {
	return ep.await(WaitQuantum)
}

// AwaitDelay suspends the machine for d ticks.
func (ep *Endpoint) AwaitDelay(d Time) error {
	if err := ep.await(WaitTimer); err != nil {
		return err
	}
	ep.engine.After(d, func() error {
		ep.waiting = WaitNone
		return ep.machine.Resume(Event{Kind: EventTimer, Time: ep.engine.now})
	})
	return nil
}

func (ep *Endpoint) await(w WaitKind) error {
	if ep.waiting != WaitNone {
		return fmt.Errorf("%w: %s waits for %v, asked to wait for %v", ErrAlreadyWaiting, ep.name, ep.waiting, w)
	}
	if ep.machine == nil {
		return fmt.Errorf("sim: %s has no machine bound", ep.name)
	}
	ep.waiting = w
	if ep.pending(w) {
		ep.engine.After(0, ep.dispatch)
	}
	return nil
}

func (ep *Endpoint) pending(w WaitKind) bool {
	switch w {
	case WaitClassical:
		return len(ep.classicalIn) > 0
	case WaitQuantum:
		return len(ep.quantumIn) > 0
	default:
		return false
	}
}

// dispatch resumes the machine with the oldest queued message of the kind it
// waits for, if any.
func (ep *Endpoint) dispatch() error {
	ev := Event{Time: ep.engine.now}
	switch {
	case ep.waiting == WaitClassical && len(ep.classicalIn) > 0:
		ev.Kind, ev.Classical = EventClassical, ep.classicalIn[0]
		ep.classicalIn = ep.classicalIn[1:]
	case ep.waiting == WaitQuantum && len(ep.quantumIn) > 0:
		ev.Kind, ev.Quantum = EventQuantum, ep.quantumIn[0]
		ep.quantumIn = ep.quantumIn[1:]
	default:
		return nil
	}
	ep.waiting = WaitNone
	return ep.machine.Resume(ev)
}

func (ep *Endpoint) deliverClassical(payload []byte) error {
	ep.log.Debugf("%s: classical message of %d bytes arrived", ep.name, len(payload))
	ep.classicalIn = append(ep.classicalIn, payload)
	return ep.dispatch()
}

func (ep *Endpoint) deliverQuantum(r *qstate.Register) error {
	ep.log.Debugf("%s: %d qubit register arrived", ep.name, r.Qubits())
	ep.quantumIn = append(ep.quantumIn, r)
	return ep.dispatch()
}
