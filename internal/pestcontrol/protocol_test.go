package pestcontrol

import (
	"bytes"
	"testing"

	"github.com/protohackers/suite/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeHelloChecksumsToZero(t *testing.T) {
	frame := encodeHello()
	var sum int
	for _, b := range frame {
		sum += int(b)
	}
	assert.Zero(t, sum%256)
}

func TestReadFrameRoundTrip(t *testing.T) {
	frame := encodeDialAuthority(12345)
	r := wire.NewReader(bytes.NewReader(frame))
	msgType, payload, err := readFrame(r)
	require.NoError(t, err)
	assert.EqualValues(t, msgDialAuthority, msgType)

	pr := newPayloadReader(payload)
	site, err := pr.ReadU32()
	require.NoError(t, err)
	assert.EqualValues(t, 12345, site)
}

func TestReadFrameRejectsBadChecksum(t *testing.T) {
	frame := encodeDialAuthority(1)
	frame[len(frame)-1] ^= 0xFF
	r := wire.NewReader(bytes.NewReader(frame))
	_, _, err := readFrame(r)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestReadFrameRejectsOverLength(t *testing.T) {
	header := []byte{msgHello, 0xFF, 0xFF, 0xFF, 0xFF}
	r := wire.NewReader(bytes.NewReader(header))
	_, _, err := readFrame(r)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestDecodeTargetPopulationsRejectsConflictingDuplicate(t *testing.T) {
	w := wire.NewWriter().WriteU32(1).WriteU32(2)
	w.WriteStr32("dog").WriteU32(1).WriteU32(2)
	w.WriteStr32("dog").WriteU32(9).WriteU32(9)
	_, err := decodeTargetPopulations(w.Bytes())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContinuable)
}

func TestDecodeTargetPopulationsAllowsIdenticalDuplicate(t *testing.T) {
	w := wire.NewWriter().WriteU32(1).WriteU32(2)
	w.WriteStr32("dog").WriteU32(1).WriteU32(2)
	w.WriteStr32("dog").WriteU32(1).WriteU32(2)
	msg, err := decodeTargetPopulations(w.Bytes())
	require.NoError(t, err)
	assert.Len(t, msg.targets, 1)
}

func TestDecodeSiteVisitTruncatedIsFatal(t *testing.T) {
	w := wire.NewWriter().WriteU32(1).WriteU32(1)
	_, err := decodeSiteVisit(w.Bytes())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
	assert.NotErrorIs(t, err, ErrContinuable)
}
