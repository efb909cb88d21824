package hlpuf

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/alan-christopher/hlpuf/hlpuf/bitmap"
)

func TestAnnouncementRoundTrip(t *testing.T) {
	tcs := []struct {
		name string
		bits string
	}{
		{"stream", "01"},
		{"batch", "10110010"},
		{"unaligned", "1011001011"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			c, err := bitmap.FromString(tc.bits)
			if err != nil {
				t.Fatal(err)
			}
			want := announcement{attemptID: uuid.New(), challenge: c}
			got, err := unmarshalAnnouncement(want.marshal())
			if err != nil {
				t.Fatalf("unmarshalAnnouncement: %v", err)
			}
			if got.attemptID != want.attemptID {
				t.Errorf("got attempt %v, want %v", got.attemptID, want.attemptID)
			}
			if !bitmap.Equal(got.challenge, want.challenge) {
				t.Errorf("got challenge %v, want %v", got.challenge, want.challenge)
			}
		})
	}
}

func TestAnnouncementSkipsUnknownFields(t *testing.T) {
	c, _ := bitmap.FromString("0110")
	a := announcement{attemptID: uuid.New(), challenge: c}
	b := protowire.AppendTag(nil, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	b = append(b, a.marshal()...)
	b = protowire.AppendTag(b, 10, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("ignored"))

	got, err := unmarshalAnnouncement(b)
	if err != nil {
		t.Fatalf("unmarshalAnnouncement: %v", err)
	}
	if !bitmap.Equal(got.challenge, c) || got.attemptID != a.attemptID {
		t.Errorf("got %v/%v, want %v/%v", got.attemptID, got.challenge, a.attemptID, c)
	}
}

func TestAnnouncementWithoutAttemptID(t *testing.T) {
	b := protowire.AppendTag(nil, fieldChallengeBits, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte{0x01})
	b = protowire.AppendTag(b, fieldChallengeLen, protowire.VarintType)
	b = protowire.AppendVarint(b, 2)

	got, err := unmarshalAnnouncement(b)
	if err != nil {
		t.Fatalf("unmarshalAnnouncement: %v", err)
	}
	if got.attemptID != uuid.Nil {
		t.Errorf("got attempt %v, want nil", got.attemptID)
	}
	if got.challenge.String() != "10" {
		t.Errorf("got challenge %v, want 10", got.challenge)
	}
}

func TestAnnouncementMalformed(t *testing.T) {
	c, _ := bitmap.FromString("10110010")
	valid := announcement{attemptID: uuid.New(), challenge: c}.marshal()

	bitsOnly := protowire.AppendTag(nil, fieldChallengeBits, protowire.BytesType)
	bitsOnly = protowire.AppendBytes(bitsOnly, []byte{0xff})

	tooLong := append([]byte(nil), bitsOnly...)
	tooLong = protowire.AppendTag(tooLong, fieldChallengeLen, protowire.VarintType)
	tooLong = protowire.AppendVarint(tooLong, 9)

	tooShort := append([]byte(nil), bitsOnly...)
	tooShort = protowire.AppendTag(tooShort, fieldChallengeLen, protowire.VarintType)
	tooShort = protowire.AppendVarint(tooShort, 0)

	badID := append([]byte(nil), bitsOnly...)
	badID = protowire.AppendTag(badID, fieldChallengeLen, protowire.VarintType)
	badID = protowire.AppendVarint(badID, 8)
	badID = protowire.AppendTag(badID, fieldAttemptID, protowire.BytesType)
	badID = protowire.AppendBytes(badID, []byte{1, 2, 3})

	tcs := []struct {
		name string
		b    []byte
	}{
		{"empty", nil},
		{"truncated", valid[:len(valid)-3]},
		{"bad tag", []byte{0x80}},
		{"missing length", bitsOnly},
		{"length exceeds bits", tooLong},
		{"surplus bytes", tooShort},
		{"short attempt id", badID},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := unmarshalAnnouncement(tc.b)
			if !errors.Is(err, ErrMalformedAnnouncement) {
				t.Errorf("got error %v, want %v", err, ErrMalformedAnnouncement)
			}
		})
	}
}
