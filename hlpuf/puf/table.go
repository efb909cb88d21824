package puf

import (
	"math/rand"

	"github.com/alan-christopher/hlpuf/hlpuf/bitmap"
)

// A Table is an ordered mapping from challenges to responses.
type Table struct {
	entries []CRP
	index   map[string]int
}

// newTable pairs challenges and responses by index. A repeated challenge
// keeps the slot of its first occurrence and takes the latest response.
func newTable(challenges, responses []bitmap.Dense) *Table {
	t := &Table{index: make(map[string]int, len(challenges))}
	for i, c := range challenges {
		key := c.String()
		if j, ok := t.index[key]; ok {
			t.entries[j].Response = responses[i]
			continue
		}
		t.index[key] = len(t.entries)
		t.entries = append(t.entries, CRP{Challenge: c, Response: responses[i]})
	}
	return t
}

// Len returns the number of distinct challenges in t.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entry returns a copy of the i-th CRP in generation order.
func (t *Table) Entry(i int) CRP {
	return t.entries[i].clone()
}

// Sample returns a copy of one CRP chosen uniformly at random.
func (t *Table) Sample(r *rand.Rand) CRP {
	return t.entries[r.Intn(len(t.entries))].clone()
}

// Equal returns true iff t and o hold the same CRPs in the same order.
func (t *Table) Equal(o *Table) bool {
	if t.Len() != o.Len() {
		return false
	}
	for i := range t.entries {
		a, b := t.entries[i], o.entries[i]
		if !bitmap.Equal(a.Challenge, b.Challenge) || !bitmap.Equal(a.Response, b.Response) {
			return false
		}
	}
	return true
}

func (t *Table) lookup(challenge bitmap.Dense) (CRP, bool) {
	i, ok := t.index[challenge.String()]
	if !ok {
		return CRP{}, false
	}
	return t.entries[i], true
}
