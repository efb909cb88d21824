// Package sim provides a single-threaded discrete-event engine over virtual
// time, plus the endpoints and unidirectional classical and quantum channels
// that connect two protocol machines.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"gopkg.in/op/go-logging.v1"

	hlog "github.com/alan-christopher/hlpuf/hlpuf/log"
)

// Time is virtual time, in ticks. One tick is one nanosecond.
type Time uint64

// NanosPerKm is the propagation delay of light in fibre.
const NanosPerKm = 5000

// DelayForLength returns the propagation delay over a channel of the given
// length in kilometres.
func DelayForLength(km float64) Time {
	if km <= 0 {
		return 0
	}
	return Time(km*NanosPerKm + 0.5)
}

// Stats summarizes a call to Run.
type Stats struct {
	// Events is the number of events processed.
	Events int
	// SimTime is the virtual time of the last event processed.
	SimTime Time
	// Wall is the real time Run took.
	Wall time.Duration
	// Starved lists the endpoints left waiting for something that never
	// arrived.
	Starved []string
}

func (s Stats) String() string {
	return fmt.Sprintf("events=%d sim_time=%dns wall=%v starved=%v", s.Events, s.SimTime, s.Wall, s.Starved)
}

// EngineOpts packages together the optional arguments to NewEngine.
type EngineOpts struct {
	// Log receives engine diagnostics. Defaults to discarding them.
	Log *logging.Logger

	// Clock measures wall time. Defaults to the real clock.
	Clock clock.Clock
}

// An Engine runs scheduled events in virtual time order. It is not safe for
// concurrent use; all machines it drives run on the goroutine calling Run.
type Engine struct {
	log   *logging.Logger
	clock clock.Clock

	now       Time
	seq       uint64
	queue     eventQueue
	endpoints []*Endpoint
}

// NewEngine returns an idle engine at time zero.
func NewEngine(opts EngineOpts) *Engine {
	e := &Engine{
		log:   opts.Log,
		clock: opts.Clock,
	}
	if e.log == nil {
		e.log = hlog.Discard("sim")
	}
	if e.clock == nil {
		e.clock = clock.New()
	}
	return e
}

// Now returns the current virtual time.
func (e *Engine) Now() Time {
	return e.now
}

// After schedules fn to run d ticks from now.
func (e *Engine) After(d Time, fn func() error) {
	e.schedule(e.now+d, fn)
}

func (e *Engine) schedule(at Time, fn func() error) {
	e.seq++
	e.queue.enqueue(&event{at: at, seq: e.seq, fn: fn})
}

// Run processes events until none remain, a callback fails, or ctx is done.
func (e *Engine) Run(ctx context.Context) (s Stats, err error) {
	start := e.clock.Now()
	defer func() {
		s.Wall = e.clock.Since(start)
	}()
	for {
		if err = ctx.Err(); err != nil {
			s.SimTime = e.now
			return s, err
		}
		ev := e.queue.dequeue()
		if ev == nil {
			break
		}
		e.now = ev.at
		s.Events++
		if err = ev.fn(); err != nil {
			s.SimTime = e.now
			return s, fmt.Errorf("sim: at t=%dns: %w", e.now, err)
		}
	}
	s.SimTime = e.now
	for _, ep := range e.endpoints {
		if ep.waiting != WaitNone {
			e.log.Warningf("%s starved waiting for %v", ep.name, ep.waiting)
			s.Starved = append(s.Starved, ep.name)
		}
	}
	e.log.Debugf("run finished: %v", s)
	return s, nil
}
