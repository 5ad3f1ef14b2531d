package bitpack

// Writer appends bit fields MSB-first to a byte slice.
type Writer struct {
	buf   []byte
	acc   uint64
	nbits uint
}

// NewWriter returns a Writer appending to buf.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// WriteBits appends the low width bits of v. width must be at most 56.
func (w *Writer) WriteBits(v uint64, width uint) {
	if width == 0 {
		return
	}
	v &= 1<<width - 1
	w.acc = w.acc<<width | v
	w.nbits += width
	for w.nbits >= 8 {
		w.nbits -= 8
		w.buf = append(w.buf, byte(w.acc>>w.nbits))
	}
	w.acc &= 1<<w.nbits - 1
}

// Flush writes any pending bits, zero-padding the low end of the last byte.
func (w *Writer) Flush() {
	if w.nbits > 0 {
		w.buf = append(w.buf, byte(w.acc<<(8-w.nbits)))
		w.acc, w.nbits = 0, 0
	}
}

// Bytes returns the bytes written so far. Pending bits are not included
// until Flush is called.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bits written, flushed or not.
func (w *Writer) Len() int {
	return len(w.buf)*8 + int(w.nbits)
}

// Reader extracts bit fields MSB-first from a byte slice. Callers check the
// available length up front; reads past the end yield zero bits.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at bit 0 of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Skip advances the read position by n bits.
func (r *Reader) Skip(n int) {
	r.pos += n
}

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int {
	return len(r.buf)*8 - r.pos
}

// ReadBits reads width bits, width at most 56.
func (r *Reader) ReadBits(width uint) uint64 {
	var v uint64
	for width > 0 {
		idx := r.pos >> 3
		off := uint(r.pos & 7)
		avail := 8 - off
		take := avail
		if width < take {
			take = width
		}
		var b byte
		if idx < len(r.buf) {
			b = r.buf[idx]
		}
		chunk := uint64(b>>(avail-take)) & (1<<take - 1)
		v = v<<take | chunk
		r.pos += int(take)
		width -= take
	}
	return v
}
