package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU8(0x80)
	w.WriteU16(1234)
	w.WriteU32(567890)
	_, err := w.WriteStr8("hello")
	require.NoError(t, err)
	w.WriteStr32("pestcontrol")

	r := NewReader(bytes.NewReader(w.Bytes()))

	u8, err := r.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x80), u8)

	u16, err := r.ReadU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(1234), u16)

	u32, err := r.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(567890), u32)

	s8, err := r.ReadStr8()
	require.NoError(t, err)
	assert.Equal(t, "hello", s8)

	s32, err := r.ReadStr32(1024)
	require.NoError(t, err)
	assert.Equal(t, "pestcontrol", s32)
}

func TestWriteStr8TooLong(t *testing.T) {
	w := NewWriter()
	_, err := w.WriteStr8(string(make([]byte, 256)))
	assert.ErrorIs(t, err, ErrStringTooLong)
}

func TestReadStr32RejectsOversizedLength(t *testing.T) {
	w := NewWriter()
	w.WriteU32(10000)
	r := NewReader(bytes.NewReader(w.Bytes()))
	_, err := r.ReadStr32(1024)
	assert.Error(t, err)
}

func TestReadTruncated(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x00, 0x01}))
	_, err := r.ReadU32()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
