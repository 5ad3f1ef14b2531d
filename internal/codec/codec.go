package codec

import (
	"fmt"
	"math"
	"math/bits"
)

// IEEE-754 single precision layout.
const (
	SignBits     = 1
	ExponentBits = 8
	MantissaBits = 23
	ZeroRunBits  = 4

	signShift    = 31
	exponentMask = 0xFF
	mantissaMask = uint32(1)<<MantissaBits - 1

	// MaxZeroRun is the largest value the 4-bit zero run field can hold.
	MaxZeroRun = 1<<ZeroRunBits - 1
)

const (
	// MinTruncateCount and MaxTruncateCount bound the number of mantissa
	// LSBs that can be discarded.
	MinTruncateCount = 0
	MaxTruncateCount = 16

	// DefaultTruncateCount yields 24-bit (3 byte) records.
	DefaultTruncateCount = 12
)

// InvalidConfigError reports a truncate count outside [0, 16].
type InvalidConfigError struct {
	TruncateCount int
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("codec: truncate count must be between %d and %d, got %d",
		MinTruncateCount, MaxTruncateCount, e.TruncateCount)
}

// Config holds the per-session codec parameters. It is a plain value and is
// passed to every encode, decode, pack and unpack call.
type Config struct {
	TruncateCount int
}

// NewConfig validates k and returns a Config for it.
func NewConfig(k int) (Config, error) {
	cfg := Config{TruncateCount: k}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfig returns the 3-byte record configuration.
func DefaultConfig() Config {
	return Config{TruncateCount: DefaultTruncateCount}
}

// Validate returns an *InvalidConfigError if the truncate count is out of range.
func (c Config) Validate() error {
	if c.TruncateCount < MinTruncateCount || c.TruncateCount > MaxTruncateCount {
		return &InvalidConfigError{TruncateCount: c.TruncateCount}
	}
	return nil
}

// StoredBits is the width of the stored mantissa field.
func (c Config) StoredBits() int {
	return MantissaBits - c.TruncateCount
}

// RecordWidth is the number of bits one packed record occupies.
func (c Config) RecordWidth() int {
	return SignBits + ExponentBits + c.StoredBits() + ZeroRunBits
}

// ByteAligned reports whether records land on byte boundaries.
func (c Config) ByteAligned() bool {
	return c.RecordWidth()%8 == 0
}

// MaxAbsError is the largest reconstruction error Encode/Decode can introduce
// for the finite value v: the weight of the truncated mantissa bits,
// 2^(e-23+k) where e is the unbiased exponent (subnormals use e = -126).
func (c Config) MaxAbsError(v float32) float64 {
	exp := int(math.Float32bits(v)>>MantissaBits) & exponentMask
	if exp == 0 {
		exp = 1
	}
	return math.Ldexp(1, exp-127-MantissaBits+c.TruncateCount)
}

func (c Config) truncMask() uint32 {
	return mantissaMask &^ (uint32(1)<<uint(c.TruncateCount) - 1)
}

// Record is the compact field set for one value.
type Record struct {
	Sign     uint8
	Exponent uint8
	// Mantissa is the 23-bit mantissa with the low TruncateCount bits cleared.
	Mantissa uint32
	// ZeroRun counts trailing zero bits of Mantissa, capped at MaxZeroRun.
	// It is diagnostic only: decoding always shifts by TruncateCount.
	ZeroRun uint8
	// Stored holds Mantissa >> TruncateCount.
	Stored uint32
}

// Encode splits v into a Record, discarding the low cfg.TruncateCount
// mantissa bits. Every bit pattern, NaN and Inf included, has an encoding.
func Encode(v float32, cfg Config) Record {
	b := math.Float32bits(v)
	masked := b & cfg.truncMask()

	return Record{
		Sign:     uint8(b >> signShift),
		Exponent: uint8(b>>MantissaBits) & exponentMask,
		Mantissa: masked,
		ZeroRun:  zeroRun(masked),
		Stored:   masked >> uint(cfg.TruncateCount),
	}
}

// Decode rebuilds the float a Record represents. The discarded mantissa
// bits come back as zeros.
func Decode(r Record, cfg Config) float32 {
	mant := (r.Stored << uint(cfg.TruncateCount)) & mantissaMask
	b := uint32(r.Sign&1)<<signShift | uint32(r.Exponent)<<MantissaBits | mant
	return math.Float32frombits(b)
}

// FromFields builds a Record from the packed fields, deriving Mantissa.
func FromFields(sign, exponent uint8, stored uint32, zeroRun uint8, cfg Config) Record {
	return Record{
		Sign:     sign & 1,
		Exponent: exponent,
		Mantissa: (stored << uint(cfg.TruncateCount)) & mantissaMask,
		ZeroRun:  zeroRun & MaxZeroRun,
		Stored:   stored,
	}
}

// zeroRun counts trailing zeros in a 23-bit mantissa, capped at MaxZeroRun.
// An all-zero mantissa is reported as MaxZeroRun.
func zeroRun(mant uint32) uint8 {
	if mant == 0 {
		return MaxZeroRun
	}
	n := bits.TrailingZeros32(mant)
	if n > MaxZeroRun {
		n = MaxZeroRun
	}
	return uint8(n)
}

// EncodeSlice encodes every value of vs.
func EncodeSlice(vs []float32, cfg Config) []Record {
	out := make([]Record, len(vs))
	for i, v := range vs {
		out[i] = Encode(v, cfg)
	}
	return out
}

// DecodeSlice decodes every record of rs.
func DecodeSlice(rs []Record, cfg Config) []float32 {
	out := make([]float32, len(rs))
	for i, r := range rs {
		out[i] = Decode(r, cfg)
	}
	return out
}
