package bitmap

import (
	"reflect"
	"testing"
)

func TestDenseGet(t *testing.T) {
	tcs := []struct {
		name  string
		data  Dense
		edata []bool
	}{
		{"aligned", mustDense(t, "10101010"), []bool{true, false, true, false, true, false, true, false}},
		{"multibyte",
			mustDense(t, "00000000 101"),
			[]bool{false, false, false, false, false, false, false, false, true, false, true}},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			var d []bool
			for i := 0; i < tc.data.Size(); i++ {
				d = append(d, tc.data.Get(i))
			}
			if !reflect.DeepEqual(d, tc.edata) {
				t.Errorf("t.Get() == %v, want %v", d, tc.edata)
			}
		})
	}
}

func TestDenseGetOutOfRange(t *testing.T) {
	d := mustDense(t, "111")
	if d.Get(3) || d.Get(-1) {
		t.Errorf("out of range Get returned true")
	}
}

func TestDenseFlip(t *testing.T) {
	d := mustDense(t, "0000 0000 00")
	d.Flip(9)
	d.Flip(2)
	if got, want := d.String(), "0010000001"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestDenseAppendBitOverwrites(t *testing.T) {
	d := NewDense([]byte{0xFF}, 0)
	d.AppendBit(false)
	d.AppendBit(true)
	if got, want := d.String(), "01"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestDenseString(t *testing.T) {
	s := "1100 1010 011"
	d := mustDense(t, s)
	if got, want := d.String(), "11001010011"; got != want {
		t.Errorf("String() == %s, want %s", got, want)
	}
	for i := 0; i < d.Size(); i++ {
		if want := uint8(d.String()[i] - '0'); d.Bit(i) != want {
			t.Errorf("Bit(%d) == %d, want %d", i, d.Bit(i), want)
		}
	}
}

func TestDenseClone(t *testing.T) {
	d := mustDense(t, "1011001")
	c := d.Clone()
	c.Flip(0)
	c.AppendBit(true)
	if got, want := d.String(), "1011001"; got != want {
		t.Errorf("original became %v, want %v", got, want)
	}
	if got, want := c.String(), "00110011"; got != want {
		t.Errorf("clone is %v, want %v", got, want)
	}
}
