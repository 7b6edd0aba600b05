package packet

import (
	"bytes"
	"encoding/binary"
	"math"
)

// reader walks a datagram whose length has already been validated against
// the tag's fixed size, so the accessors never range-check.
type reader struct {
	buf []byte
	off int
}

func (r *reader) u8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) i8() int8 { return int8(r.u8()) }

func (r *reader) bool8() bool { return r.u8() != 0 }

func (r *reader) u16() uint16 {
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *reader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *reader) u64() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func (r *reader) f32() float32 { return math.Float32frombits(r.u32()) }

func (r *reader) f64() float64 { return math.Float64frombits(r.u64()) }

// str decodes a fixed-width null-padded string up to the first null byte.
func (r *reader) str(width int) string {
	raw := r.buf[r.off : r.off+width]
	r.off += width
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw)
}

// writer builds a datagram of a known fixed size.
type writer struct {
	buf []byte
}

func newWriter(tag string, size int) *writer {
	w := &writer{buf: make([]byte, 0, size)}
	w.buf = append(w.buf, tag...)
	return w
}

func (w *writer) u8(v uint8) { w.buf = append(w.buf, v) }

func (w *writer) i8(v int8) { w.u8(uint8(v)) }

func (w *writer) bool8(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *writer) u16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

func (w *writer) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *writer) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *writer) f32(v float32) { w.u32(math.Float32bits(v)) }

func (w *writer) f64(v float64) { w.u64(math.Float64bits(v)) }

// str writes a fixed-width null-padded string, truncating if necessary.
func (w *writer) str(s string, width int) {
	b := make([]byte, width)
	copy(b, s)
	w.buf = append(w.buf, b...)
}
