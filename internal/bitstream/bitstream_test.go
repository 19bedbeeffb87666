package bitstream_test

import (
	"testing"

	"github.com/gafferongames/cubes/internal/bitstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitsRequired(t *testing.T) {
	tests := []struct {
		min, max int64
		expected int
	}{
		{0, 0, 0},
		{0, 1, 1},
		{0, 4, 3},
		{0, 7, 3},
		{0, 8, 4},
		{0, 32, 6},
		{-10, 10, 5},
		{5, 5, 0},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, bitstream.BitsRequired(test.min, test.max),
			"range [%d, %d]", test.min, test.max)
	}
}

func TestWriter_Reader(t *testing.T) {
	w := bitstream.NewWriter(64)
	w.WriteInt(3, 0, 4)
	w.WriteBool(true)
	w.WriteUint16(0xBEEF)
	w.WriteUint64(0x0123456789ABCDEF)
	w.WriteInt32(-42)
	w.WriteFloat32(3.25)
	w.WriteInt(-7, -10, 10)
	w.WriteBool(false)
	require.NoError(t, w.Err())

	expectedBits := 3 + 1 + 16 + 64 + 32 + 32 + 5 + 1
	assert.Equal(t, expectedBits, w.BitsProcessed())
	assert.Equal(t, (expectedBits+7)/8, w.BytesProcessed())

	data, err := w.Flush()
	require.NoError(t, err)
	assert.Len(t, data, (expectedBits+7)/8)

	r := bitstream.NewReader(data)
	assert.EqualValues(t, 3, r.ReadInt(0, 4))
	assert.True(t, r.ReadBool())
	assert.EqualValues(t, 0xBEEF, r.ReadUint16())
	assert.EqualValues(t, uint64(0x0123456789ABCDEF), r.ReadUint64())
	assert.EqualValues(t, -42, r.ReadInt32())
	assert.EqualValues(t, 3.25, r.ReadFloat32())
	assert.EqualValues(t, -7, r.ReadInt(-10, 10))
	assert.False(t, r.ReadBool())
	require.NoError(t, r.Err())
	assert.Equal(t, expectedBits, r.BitsProcessed())
}

func TestWriter_MSBFirst(t *testing.T) {
	w := bitstream.NewWriter(2)
	w.WriteBits(0b101, 3)
	w.WriteBits(0b1, 1)
	data, err := w.Flush()
	require.NoError(t, err)
	assert.Equal(t, []byte{0b1011_0000}, data)
}

func TestWriter_overflow(t *testing.T) {
	w := bitstream.NewWriter(2)
	w.WriteUint16(1)
	require.NoError(t, w.Err())
	w.WriteBool(true)
	assert.ErrorIs(t, w.Err(), bitstream.ErrOverflow)

	// sticky
	w.WriteBits(0, 0)
	assert.ErrorIs(t, w.Err(), bitstream.ErrOverflow)
	_, err := w.Flush()
	assert.ErrorIs(t, err, bitstream.ErrOverflow)
}

func TestWriter_out_of_range(t *testing.T) {
	w := bitstream.NewWriter(8)
	w.WriteInt(33, 0, 32)
	assert.ErrorIs(t, w.Err(), bitstream.ErrOutOfRange)
}

func TestReader_overflow(t *testing.T) {
	r := bitstream.NewReader([]byte{0xFF})
	assert.EqualValues(t, 0xF, r.ReadBits(4))
	assert.EqualValues(t, 0xF, r.ReadBits(4))
	require.NoError(t, r.Err())
	assert.Zero(t, r.BitsRemaining())

	assert.False(t, r.ReadBool())
	assert.ErrorIs(t, r.Err(), bitstream.ErrOverflow)
	assert.Zero(t, r.ReadUint64())
}

func TestReader_empty(t *testing.T) {
	r := bitstream.NewReader(nil)
	r.ReadInt(0, 4)
	assert.ErrorIs(t, r.Err(), bitstream.ErrOverflow)
}

func TestReader_out_of_range(t *testing.T) {
	// 0b111 decodes as 7 which is above max 4
	r := bitstream.NewReader([]byte{0b1110_0000})
	assert.EqualValues(t, 0, r.ReadInt(0, 4))
	assert.ErrorIs(t, r.Err(), bitstream.ErrOutOfRange)
}
