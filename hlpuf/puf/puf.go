// Package puf provides a deterministic, seeded stand-in for a physical
// unclonable function: a closed table of challenge-response pairs (CRPs).
package puf

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/alan-christopher/hlpuf/hlpuf/bitmap"
)

var (
	DefaultChallengeSeed int64 = 2
	DefaultResponseSeed  int64 = 5
)

// ErrUnknownChallenge is returned by Evaluate for a challenge that the oracle
// never generated. Between two honest parties it means their Params differ.
var ErrUnknownChallenge = errors.New("puf: challenge not in CRP table")

// Params packages together everything that determines a CRP table. Two
// oracles built from equal Params hold identical tables.
type Params struct {
	// ChallengeBits is the length of each challenge. Responses are twice as
	// long. Must be positive.
	ChallengeBits int

	// Count is the number of (challenge, response) draws. Must be positive.
	Count int

	// ChallengeSeed and ResponseSeed seed the two independent generators used
	// for challenges and responses respectively.
	ChallengeSeed int64
	ResponseSeed  int64
}

// ResponseBits returns the response length implied by p.
func (p Params) ResponseBits() int {
	return 2 * p.ChallengeBits
}

// Validate reports whether p can be used to build an Oracle.
func (p Params) Validate() error {
	if p.ChallengeBits <= 0 {
		return fmt.Errorf("puf: ChallengeBits must be positive, got %d", p.ChallengeBits)
	}
	if p.Count <= 0 {
		return fmt.Errorf("puf: Count must be positive, got %d", p.Count)
	}
	return nil
}

// A CRP is a single challenge-response pair.
type CRP struct {
	Challenge bitmap.Dense
	Response  bitmap.Dense
}

func (c CRP) clone() CRP {
	return CRP{Challenge: c.Challenge.Clone(), Response: c.Response.Clone()}
}

// An Oracle answers challenges from the CRP table it generated at
// construction. It is never mutated afterwards and is safe for concurrent
// use.
type Oracle struct {
	params Params
	table  *Table
}

// New builds an Oracle, generating its CRP table from p.
func New(p Params) (*Oracle, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	cr := rand.New(rand.NewSource(p.ChallengeSeed))
	rr := rand.New(rand.NewSource(p.ResponseSeed))
	challenges := make([]bitmap.Dense, 0, p.Count)
	for i := 0; i < p.Count; i++ {
		challenges = append(challenges, bitmap.Random(cr, p.ChallengeBits))
	}
	responses := make([]bitmap.Dense, 0, p.Count)
	for i := 0; i < p.Count; i++ {
		responses = append(responses, bitmap.Random(rr, p.ResponseBits()))
	}
	return &Oracle{
		params: p,
		table:  newTable(challenges, responses),
	}, nil
}

// Params returns the parameters o was built from.
func (o *Oracle) Params() Params {
	return o.params
}

// Table returns o's CRP table.
func (o *Oracle) Table() *Table {
	return o.table
}

// Evaluate returns a copy of the response to challenge. A challenge outside the table
// yields an error wrapping ErrUnknownChallenge.
func (o *Oracle) Evaluate(challenge bitmap.Dense) (bitmap.Dense, error) {
	crp, ok := o.table.lookup(challenge)
	if !ok {
		return bitmap.Empty(), fmt.Errorf("evaluating %v: %w", challenge, ErrUnknownChallenge)
	}
	return crp.Response.Clone(), nil
}
