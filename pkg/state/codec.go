// Package state persists the solve and integrate continuations, and
// optionally a snapshot of the whole engine, in a little-endian binary
// format. Field order is fixed; readers skip or default the fields that
// older format versions did not have.
package state

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"rpncalc/core-go/pkg/runtime"
)

// Writer encodes primitives. The first error sticks; later writes are
// no-ops and Err reports it.
type Writer struct {
	w   *bufio.Writer
	buf [8]byte
	err error
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) write(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

// Int writes a 32-bit signed integer.
func (w *Writer) Int(v int) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		if w.err == nil {
			w.err = fmt.Errorf("state: integer %d does not fit 32 bits", v)
		}
		return
	}
	binary.LittleEndian.PutUint32(w.buf[:4], uint32(int32(v)))
	w.write(w.buf[:4])
}

// Uint32 writes an unsigned 32-bit value such as a timestamp.
func (w *Writer) Uint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.write(w.buf[:4])
}

func (w *Writer) Bool(v bool) {
	if v {
		w.Int(1)
		return
	}
	w.Int(0)
}

func (w *Writer) Float(v float64) {
	binary.LittleEndian.PutUint64(w.buf[:8], math.Float64bits(v))
	w.write(w.buf[:8])
}

func (w *Writer) Byte(b byte) {
	w.buf[0] = b
	w.write(w.buf[:1])
}

// Name writes the fixed seven byte field followed by the length.
func (w *Writer) Name(n runtime.Name) {
	buf, l := n.Fixed()
	w.write(buf[:])
	w.Int(l)
}

// Bytes writes a length-prefixed byte string.
func (w *Writer) Bytes(b []byte) {
	w.Int(len(b))
	w.write(b)
}

func (w *Writer) Err() error { return w.err }

// Flush writes buffered data and returns the first error seen.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.w.Flush()
	return w.err
}

// Reader decodes primitives with the same sticky error convention.
type Reader struct {
	r   *bufio.Reader
	buf [8]byte
	err error
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

func (r *Reader) read(n int) []byte {
	if r.err != nil {
		return r.buf[:n:n]
	}
	if _, err := io.ReadFull(r.r, r.buf[:n]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
		for i := range r.buf[:n] {
			r.buf[i] = 0
		}
	}
	return r.buf[:n]
}

func (r *Reader) Int() int {
	return int(int32(binary.LittleEndian.Uint32(r.read(4))))
}

func (r *Reader) Uint32() uint32 {
	return binary.LittleEndian.Uint32(r.read(4))
}

func (r *Reader) Bool() bool {
	return r.Int() != 0
}

func (r *Reader) Float() float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(r.read(8)))
}

func (r *Reader) Byte() byte {
	return r.read(1)[0]
}

func (r *Reader) Name() runtime.Name {
	var buf [runtime.MaxNameLength]byte
	copy(buf[:], r.read(runtime.MaxNameLength))
	l := r.Int()
	return runtime.NameFromFixed(buf, l)
}

// maxBytes bounds length prefixes so corrupt input cannot force huge
// allocations.
const maxBytes = 1 << 24

func (r *Reader) Bytes() []byte {
	n := r.Int()
	if r.err != nil {
		return nil
	}
	if n < 0 || n > maxBytes {
		r.err = fmt.Errorf("state: bad length %d", n)
		return nil
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r.r, out); err != nil {
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	return out
}

// Count reads a non-negative element count bounded by limit.
func (r *Reader) Count(limit int) int {
	n := r.Int()
	if r.err == nil && (n < 0 || n > limit) {
		r.err = fmt.Errorf("state: bad count %d", n)
		return 0
	}
	return n
}

func (r *Reader) Err() error { return r.err }
