// Package bitstream packs values into a byte buffer at bit granularity.
//
// Both Writer and Reader have a fixed bit budget. The first write or read
// that would cross it fails with ErrOverflow, and every later call becomes a
// no-op, so callers serialize a whole object and check Err once at the end.
package bitstream

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/icza/bitio"
)

var (
	ErrOverflow   = errors.New("bit stream overflow")
	ErrOutOfRange = errors.New("value out of range")
)

// BitsRequired returns the number of bits needed to store any integer in
// [min, max].
func BitsRequired(min, max int64) int {
	if min >= max {
		return 0
	}
	return bits.Len64(uint64(max - min))
}

type Writer struct {
	buf   bytes.Buffer
	bw    *bitio.Writer
	bits  int
	limit int
	err   error
}

// NewWriter returns a writer that accepts at most size bytes.
func NewWriter(size int) *Writer {
	w := &Writer{limit: size * 8}
	w.bw = bitio.NewWriter(&w.buf)
	return w
}

func (w *Writer) Err() error { return w.err }

// BitsProcessed reports how many bits have been accepted so far.
func (w *Writer) BitsProcessed() int { return w.bits }

// BytesProcessed reports how many bytes Flush will produce.
func (w *Writer) BytesProcessed() int { return (w.bits + 7) / 8 }

func (w *Writer) WriteBits(value uint64, n int) {
	if w.err != nil || n == 0 {
		return
	}
	if n < 0 || n > 64 {
		w.err = fmt.Errorf("write of %d bits: %w", n, ErrOutOfRange)
		return
	}
	if w.bits+n > w.limit {
		w.err = fmt.Errorf("write of %d bits at bit %d of %d: %w", n, w.bits, w.limit, ErrOverflow)
		return
	}
	if err := w.bw.WriteBits(value, uint8(n)); err != nil {
		w.err = err
		return
	}
	w.bits += n
}

func (w *Writer) WriteBool(value bool) {
	var b uint64
	if value {
		b = 1
	}
	w.WriteBits(b, 1)
}

func (w *Writer) WriteUint16(value uint16) { w.WriteBits(uint64(value), 16) }
func (w *Writer) WriteUint32(value uint32) { w.WriteBits(uint64(value), 32) }
func (w *Writer) WriteUint64(value uint64) { w.WriteBits(value, 64) }

// WriteInt32 stores value as 32-bit two's complement.
func (w *Writer) WriteInt32(value int32) { w.WriteBits(uint64(uint32(value)), 32) }

func (w *Writer) WriteFloat32(value float32) { w.WriteBits(uint64(math.Float32bits(value)), 32) }

// WriteInt stores value relative to min using BitsRequired(min, max) bits.
func (w *Writer) WriteInt(value, min, max int64) {
	if w.err != nil {
		return
	}
	if value < min || value > max {
		w.err = fmt.Errorf("int %d outside [%d, %d]: %w", value, min, max, ErrOutOfRange)
		return
	}
	w.WriteBits(uint64(value-min), BitsRequired(min, max))
}

// Flush pads the last byte with zeros and returns the packed bytes. The
// writer must not be used afterwards.
func (w *Writer) Flush() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if err := w.bw.Close(); err != nil {
		return nil, fmt.Errorf("flushing bits: %w", err)
	}
	return w.buf.Bytes(), nil
}

type Reader struct {
	br    *bitio.Reader
	bits  int
	limit int
	err   error
}

func NewReader(data []byte) *Reader {
	return &Reader{
		br:    bitio.NewReader(bytes.NewReader(data)),
		limit: len(data) * 8,
	}
}

func (r *Reader) Err() error { return r.err }

func (r *Reader) BitsProcessed() int { return r.bits }

// BitsRemaining includes the zero padding of the final byte.
func (r *Reader) BitsRemaining() int { return r.limit - r.bits }

func (r *Reader) ReadBits(n int) uint64 {
	if r.err != nil || n == 0 {
		return 0
	}
	if n < 0 || n > 64 {
		r.err = fmt.Errorf("read of %d bits: %w", n, ErrOutOfRange)
		return 0
	}
	if r.bits+n > r.limit {
		r.err = fmt.Errorf("read of %d bits at bit %d of %d: %w", n, r.bits, r.limit, ErrOverflow)
		return 0
	}
	value, err := r.br.ReadBits(uint8(n))
	if err != nil {
		r.err = fmt.Errorf("reading %d bits: %w: %w", n, ErrOverflow, err)
		return 0
	}
	r.bits += n
	return value
}

func (r *Reader) ReadBool() bool { return r.ReadBits(1) == 1 }

func (r *Reader) ReadUint16() uint16 { return uint16(r.ReadBits(16)) }
func (r *Reader) ReadUint32() uint32 { return uint32(r.ReadBits(32)) }
func (r *Reader) ReadUint64() uint64 { return r.ReadBits(64) }
func (r *Reader) ReadInt32() int32   { return int32(uint32(r.ReadBits(32))) }

func (r *Reader) ReadFloat32() float32 { return math.Float32frombits(uint32(r.ReadBits(32))) }

// ReadInt is the counterpart of Writer.WriteInt. A decoded value above max
// fails with ErrOutOfRange.
func (r *Reader) ReadInt(min, max int64) int64 {
	raw := r.ReadBits(BitsRequired(min, max))
	if r.err != nil {
		return min
	}
	value := min + int64(raw)
	if value > max {
		r.err = fmt.Errorf("int %d outside [%d, %d]: %w", value, min, max, ErrOutOfRange)
		return min
	}
	return value
}
