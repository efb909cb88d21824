package sim

import "github.com/alan-christopher/hlpuf/hlpuf/qstate"

// An Interceptor sees every register sent over a quantum channel, numbered
// from 0 in send order, and returns what is delivered instead. Returning nil
// loses the register.
type Interceptor func(seq int, r *qstate.Register) *qstate.Register

// ConnectionOpts describes the pair of classical and the pair of quantum
// channels between two endpoints.
type ConnectionOpts struct {
	// ClassicalLength and QuantumLength are channel lengths in kilometres;
	// they set the propagation delay of both directions.
	ClassicalLength float64
	QuantumLength   float64

	// InterceptAToB and InterceptBToA, if set, sit on the quantum channel
	// in the given direction.
	InterceptAToB Interceptor
	InterceptBToA Interceptor
}

type channel struct {
	engine    *Engine
	dst       *Endpoint
	delay     Time
	intercept Interceptor
	sent      int
}

// Connect joins a and b with one classical and one quantum channel in each
// direction.
func (e *Engine) Connect(a, b *Endpoint, opts ConnectionOpts) {
	cDelay := DelayForLength(opts.ClassicalLength)
	qDelay := DelayForLength(opts.QuantumLength)
	a.classicalOut = &channel{engine: e, dst: b, delay: cDelay}
	b.classicalOut = &channel{engine: e, dst: a, delay: cDelay}
	a.quantumOut = &channel{engine: e, dst: b, delay: qDelay, intercept: opts.InterceptAToB}
	b.quantumOut = &channel{engine: e, dst: a, delay: qDelay, intercept: opts.InterceptBToA}
}

func (c *channel) sendClassical(payload []byte) {
	c.sent++
	c.engine.After(c.delay, func() error {
		return c.dst.deliverClassical(payload)
	})
}

func (c *channel) sendQuantum(r *qstate.Register) {
	seq := c.sent
	c.sent++
	if c.intercept != nil {
		r = c.intercept(seq, r)
		if r == nil {
			c.engine.log.Debugf("quantum register %d to %s lost", seq, c.dst.name)
			return
		}
	}
	c.engine.After(c.delay, func() error {
		return c.dst.deliverQuantum(r)
	})
}
