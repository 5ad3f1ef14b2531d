package bitpack

import (
	"fmt"
	"math"

	"github.com/jacklau/floatpack/internal/codec"
)

// TruncatedInputError reports a buffer too short for the declared record count.
type TruncatedInputError struct {
	HaveBits int
	NeedBits int
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("bitpack: truncated input: have %d bits, need %d", e.HaveBits, e.NeedBits)
}

// PackedSize returns the number of bytes count records occupy, including the
// zero padding of the final byte.
func PackedSize(count int, cfg codec.Config) int {
	width := cfg.RecordWidth()
	// Eight records always fill exactly width bytes.
	return count/8*width + (count%8*width+7)/8
}

// CheckRange reports whether buf holds count records starting at record
// index first. It compares by division so huge counts cannot overflow.
func CheckRange(buf []byte, first, count int, cfg codec.Config) error {
	if first < 0 || count < 0 {
		return fmt.Errorf("bitpack: negative range [%d, +%d)", first, count)
	}
	width := cfg.RecordWidth()
	have := len(buf) * 8
	if first > have/width || count > (have-first*width)/width {
		return &TruncatedInputError{HaveBits: have, NeedBits: bitsNeeded(first, count, width)}
	}
	return nil
}

// bitsNeeded returns (first+count)*width, saturating at math.MaxInt.
func bitsNeeded(first, count, width int) int {
	if first > math.MaxInt/width || count > math.MaxInt/width-first {
		return math.MaxInt
	}
	return (first + count) * width
}

// Pack serializes records MSB-first with no gaps between them.
func Pack(records []codec.Record, cfg codec.Config) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dst := make([]byte, PackedSize(len(records), cfg))
	if err := PackInto(dst, records, cfg); err != nil {
		return nil, err
	}
	return dst, nil
}

// PackInto serializes records into dst starting at bit 0 of dst[0]. dst must
// hold at least PackedSize(len(records), cfg) bytes. Callers packing chunks
// in parallel keep each chunk's record count a multiple of 8 so every chunk
// starts on a byte boundary.
func PackInto(dst []byte, records []codec.Record, cfg codec.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	need := PackedSize(len(records), cfg)
	if len(dst) < need {
		return fmt.Errorf("bitpack: destination holds %d bytes, need %d", len(dst), need)
	}

	w := NewWriter(dst[:0])
	storedBits := uint(cfg.StoredBits())
	for _, r := range records {
		w.WriteBits(uint64(r.Sign), codec.SignBits)
		w.WriteBits(uint64(r.Exponent), codec.ExponentBits)
		w.WriteBits(uint64(r.Stored), storedBits)
		w.WriteBits(uint64(r.ZeroRun), codec.ZeroRunBits)
	}
	w.Flush()
	return nil
}

// Unpack reads count records from buf.
func Unpack(buf []byte, count int, cfg codec.Config) ([]codec.Record, error) {
	return UnpackAt(buf, 0, count, cfg)
}

// UnpackAt reads count records starting at record index first.
func UnpackAt(buf []byte, first, count int, cfg codec.Config) ([]codec.Record, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := CheckRange(buf, first, count, cfg); err != nil {
		return nil, err
	}

	r := NewReader(buf)
	r.Skip(first * cfg.RecordWidth())

	storedBits := uint(cfg.StoredBits())
	out := make([]codec.Record, count)
	for i := range out {
		sign := r.ReadBits(codec.SignBits)
		exp := r.ReadBits(codec.ExponentBits)
		stored := r.ReadBits(storedBits)
		zr := r.ReadBits(codec.ZeroRunBits)
		out[i] = codec.FromFields(uint8(sign), uint8(exp), uint32(stored), uint8(zr), cfg)
	}
	return out, nil
}
