package symbol

import (
	"errors"
	"fmt"

	"github.com/alan-christopher/hlpuf/hlpuf/bitmap"
	"github.com/alan-christopher/hlpuf/hlpuf/qstate"
)

// ErrOddResponse is returned when segmenting a response of odd length.
var ErrOddResponse = errors.New("symbol: response has odd length")

// Segment deinterleaves resp into its even- and odd-indexed bits and zips
// them back into pairs, so pair i is (resp[2i], resp[2i+1]).
func Segment(resp bitmap.Dense) ([]Pair, error) {
	if resp.Size()%2 != 0 {
		return nil, fmt.Errorf("%w: %d bits", ErrOddResponse, resp.Size())
	}
	var evens, odds []uint8
	for i := 0; i < resp.Size(); i++ {
		if i%2 == 0 {
			evens = append(evens, resp.Bit(i))
		} else {
			odds = append(odds, resp.Bit(i))
		}
	}
	pairs := make([]Pair, 0, len(evens))
	for i := range evens {
		pairs = append(pairs, Pair{First: evens[i], Second: odds[i]})
	}
	return pairs, nil
}

// Interleave is the inverse of Segment.
func Interleave(pairs []Pair) (bitmap.Dense, error) {
	vals := make([]uint8, 0, 2*len(pairs))
	for _, p := range pairs {
		vals = append(vals, p.First, p.Second)
	}
	d, err := bitmap.FromBits(vals...)
	if err != nil {
		return bitmap.Empty(), fmt.Errorf("%w: %v", ErrInvalidPair, err)
	}
	return d, nil
}

// Halves splits pairs at the midpoint. For an odd count the second half is
// the longer one.
func Halves(pairs []Pair) (first, second []Pair) {
	mid := len(pairs) / 2
	return pairs[:mid:mid], pairs[mid:]
}

// Proofs segments resp and encodes each half into a composite state: the
// two proofs of a mutual authentication round.
func Proofs(resp bitmap.Dense) (first, second qstate.State, err error) {
	pairs, err := Segment(resp)
	if err != nil {
		return qstate.State{}, qstate.State{}, err
	}
	h1, h2 := Halves(pairs)
	if len(h1) == 0 {
		return qstate.State{}, qstate.State{}, fmt.Errorf("symbol: %d pairs cannot be split into two proofs", len(pairs))
	}
	if first, err = Combine(h1...); err != nil {
		return qstate.State{}, qstate.State{}, err
	}
	if second, err = Combine(h2...); err != nil {
		return qstate.State{}, qstate.State{}, err
	}
	return first, second, nil
}
