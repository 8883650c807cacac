package lrcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrameConnect(t *testing.T) {
	f, err := parseFrame([]byte("/connect/12345/"))
	require.NoError(t, err)
	assert.Equal(t, frameConnect, f.kind)
	assert.EqualValues(t, 12345, f.session)
}

func TestParseFrameDataWithEscapes(t *testing.T) {
	f, err := parseFrame([]byte(`/data/1/0/hello\/world\\end/`))
	require.NoError(t, err)
	assert.Equal(t, frameData, f.kind)
	assert.Equal(t, `hello/world\end`, string(f.payload))
}

func TestParseFrameRejectsFieldOver31Bits(t *testing.T) {
	_, err := parseFrame([]byte("/connect/99999999999/"))
	assert.ErrorIs(t, err, ErrFieldOutOfRange)
}

func TestParseFrameRejectsMissingOuterSlashes(t *testing.T) {
	_, err := parseFrame([]byte("connect/1"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestEscapePayloadRoundTrip(t *testing.T) {
	payload := []byte(`a/b\c`)
	escaped := escapePayload(payload)
	frame := append(append([]byte("/data/1/0/"), escaped...), '/')
	f, err := parseFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, payload, f.payload)
}
