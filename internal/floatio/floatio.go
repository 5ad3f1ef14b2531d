package floatio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Encode serializes a float32 slice as a little-endian dump.
func Encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode parses a little-endian float32 dump. The length must be a multiple of 4.
func Decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("floatio: dump length %d is not a multiple of 4", len(b))
	}
	if len(b) == 0 {
		return nil, nil
	}

	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Read reads a whole dump from r.
func Read(r io.Reader) ([]float32, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading float dump: %w", err)
	}
	return Decode(b)
}

// Write writes v to w as a little-endian dump.
func Write(w io.Writer, v []float32) error {
	if _, err := w.Write(Encode(v)); err != nil {
		return fmt.Errorf("writing float dump: %w", err)
	}
	return nil
}
