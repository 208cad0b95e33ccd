package main

import "math"

// byteWriter is a growable byte buffer with deferred size back-patching,
// for the WASM binary format's length-prefixed sections and function
// bodies: reserve() records where a size belongs and returns a patch
// handle; patch() fills it in once the enclosed bytes are known, using the
// same LEB128 encoding as every other size in the format (padded to a
// fixed byte width so the earlier bytes don't need to shift).
type byteWriter struct {
	buf []byte
}

func newByteWriter() *byteWriter { return &byteWriter{} }

func (w *byteWriter) byte(b byte) { w.buf = append(w.buf, b) }

func (w *byteWriter) bytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *byteWriter) len() int { return len(w.buf) }

// reserve writes width placeholder bytes (an over-long LEB128 encoding of
// 0) and returns their offset.
func (w *byteWriter) reserve(width int) int {
	at := len(w.buf)
	for i := 0; i < width; i++ {
		w.byte(0x80)
	}
	w.buf[len(w.buf)-1] = 0x00
	return at
}

const sizePatchWidth = 5 // enough LEB128 bytes for any uint32

// patch back-fills a reserved size field with the byte count written since
// offset contentStart, using a fixed-width (padded) unsigned LEB128 so
// nothing after it has to move.
func (w *byteWriter) patch(reservedAt, contentStart int) {
	size := uint32(len(w.buf) - contentStart)
	encoded := encodeFixedLEB128(size, sizePatchWidth)
	copy(w.buf[reservedAt:reservedAt+sizePatchWidth], encoded)
}

func encodeFixedLEB128(v uint32, width int) []byte {
	out := make([]byte, width)
	for i := 0; i < width; i++ {
		b := byte(v & 0x7F)
		v >>= 7
		if i != width-1 {
			b |= 0x80
		}
		out[i] = b
	}
	return out
}

// withSection writes a section id, reserves its size, runs fn to emit the
// section body, then back-patches the size.
func (w *byteWriter) withSection(id byte, fn func()) {
	w.byte(id)
	w.withSized(fn)
}

// withSized reserves a size field, runs fn, then back-patches it — used
// for both sections (after the id byte) and individual function bodies.
func (w *byteWriter) withSized(fn func()) {
	sizeAt := w.reserve(sizePatchWidth)
	contentStart := w.len()
	fn()
	w.patch(sizeAt, contentStart)
}

// uleb128 appends an unsigned LEB128 encoding of v.
func (w *byteWriter) uleb128(v uint64) {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			w.byte(b | 0x80)
		} else {
			w.byte(b)
			return
		}
	}
}

// sleb128 appends a signed LEB128 encoding of v.
func (w *byteWriter) sleb128(v int64) {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		signBitSet := b&0x40 != 0
		done := (v == 0 && !signBitSet) || (v == -1 && signBitSet)
		if !done {
			w.byte(b | 0x80)
		} else {
			w.byte(b)
			return
		}
	}
}

func (w *byteWriter) f32(v float32) {
	bits := math.Float32bits(v)
	w.bytes([]byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)})
}

func (w *byteWriter) f64(v float64) {
	bits := math.Float64bits(v)
	w.bytes([]byte{
		byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24),
		byte(bits >> 32), byte(bits >> 40), byte(bits >> 48), byte(bits >> 56),
	})
}

// name appends a WASM "name" value: a ULEB128 byte length followed by the
// UTF-8 bytes.
func (w *byteWriter) name(s string) {
	w.uleb128(uint64(len(s)))
	w.bytes([]byte(s))
}

func leb128SizeUnsigned(v uint64) int {
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}
