package hlpuf

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/alan-christopher/hlpuf/hlpuf/bitmap"
)

// ErrMalformedAnnouncement is returned when a classical message cannot be
// decoded as a challenge announcement.
var ErrMalformedAnnouncement = errors.New("hlpuf: malformed challenge announcement")

// Field numbers of the challenge announcement. The encoding is protobuf
// compatible with
//
//	message ChallengeAnnouncement {
//	  bytes challenge_bits = 1;
//	  uint64 challenge_len = 2;
//	  bytes attempt_id = 3;
//	}
const (
	fieldChallengeBits protowire.Number = 1
	fieldChallengeLen  protowire.Number = 2
	fieldAttemptID     protowire.Number = 3
)

// An announcement is the one classical message of an attempt: the server's
// challenge, in the clear.
type announcement struct {
	attemptID uuid.UUID
	challenge bitmap.Dense
}

func (a announcement) marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldChallengeBits, protowire.BytesType)
	b = protowire.AppendBytes(b, a.challenge.Data())
	b = protowire.AppendTag(b, fieldChallengeLen, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(a.challenge.Size()))
	b = protowire.AppendTag(b, fieldAttemptID, protowire.BytesType)
	b = protowire.AppendBytes(b, a.attemptID[:])
	return b
}

func unmarshalAnnouncement(b []byte) (announcement, error) {
	var (
		bits              []byte
		bitLen            uint64
		id                []byte
		haveBits, haveLen bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return announcement{}, fmt.Errorf("%w: %v", ErrMalformedAnnouncement, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldChallengeBits && typ == protowire.BytesType:
			bits, n = protowire.ConsumeBytes(b)
			haveBits = true
		case num == fieldChallengeLen && typ == protowire.VarintType:
			bitLen, n = protowire.ConsumeVarint(b)
			haveLen = true
		case num == fieldAttemptID && typ == protowire.BytesType:
			id, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return announcement{}, fmt.Errorf("%w: field %d: %v", ErrMalformedAnnouncement, num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	if !haveBits || !haveLen {
		return announcement{}, fmt.Errorf("%w: missing challenge", ErrMalformedAnnouncement)
	}
	if bitLen > uint64(len(bits))*8 || bitmap.BytesFor(int(bitLen)) != len(bits) {
		return announcement{}, fmt.Errorf("%w: %d challenge bits in %d bytes", ErrMalformedAnnouncement, bitLen, len(bits))
	}
	var a announcement
	if id != nil {
		parsed, err := uuid.FromBytes(id)
		if err != nil {
			return announcement{}, fmt.Errorf("%w: attempt id: %v", ErrMalformedAnnouncement, err)
		}
		a.attemptID = parsed
	}
	a.challenge = bitmap.NewDense(bits, int(bitLen))
	return a, nil
}
