package bitpack

import (
	"bytes"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/jacklau/floatpack/internal/codec"
)

func randomRecords(t *testing.T, n int, cfg codec.Config, seed uint64) []codec.Record {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]codec.Record, n)
	for i := range out {
		out[i] = codec.Encode(math.Float32frombits(rng.Uint32()), cfg)
	}
	return out
}

func TestPackKnownLayout(t *testing.T) {
	cfg := codec.DefaultConfig()
	buf, err := Pack([]codec.Record{codec.Encode(1.0, cfg)}, cfg)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	want := []byte{0x3F, 0x80, 0x0F}
	if !bytes.Equal(buf, want) {
		t.Errorf("Pack(1.0) = % x, want % x", buf, want)
	}
}

func TestPackSizeDefault(t *testing.T) {
	cfg := codec.DefaultConfig()
	for _, n := range []int{0, 1, 2, 7, 8, 1000} {
		buf, err := Pack(randomRecords(t, n, cfg, uint64(n)), cfg)
		if err != nil {
			t.Fatalf("Pack failed: %v", err)
		}
		if len(buf) != 3*n {
			t.Errorf("n=%d: got %d bytes, want %d", n, len(buf), 3*n)
		}
	}
}

func TestPackedSizePadding(t *testing.T) {
	tests := []struct {
		k, count, want int
	}{
		{0, 1, 5},   // 36 bits
		{0, 2, 9},   // 72 bits
		{16, 1, 3},  // 20 bits
		{16, 2, 5},  // 40 bits
		{13, 3, 9},  // 69 bits
		{12, 10, 30},
	}
	for _, tt := range tests {
		cfg := codec.Config{TruncateCount: tt.k}
		if got := PackedSize(tt.count, cfg); got != tt.want {
			t.Errorf("PackedSize(%d, k=%d) = %d, want %d", tt.count, tt.k, got, tt.want)
		}
	}
}

func TestPackUnpackIdentity(t *testing.T) {
	for k := codec.MinTruncateCount; k <= codec.MaxTruncateCount; k++ {
		cfg := codec.Config{TruncateCount: k}
		records := randomRecords(t, 257, cfg, uint64(k))

		buf, err := Pack(records, cfg)
		if err != nil {
			t.Fatalf("k=%d: Pack failed: %v", k, err)
		}
		got, err := Unpack(buf, len(records), cfg)
		if err != nil {
			t.Fatalf("k=%d: Unpack failed: %v", k, err)
		}
		for i := range records {
			if got[i] != records[i] {
				t.Fatalf("k=%d index %d: got %+v, want %+v", k, i, got[i], records[i])
			}
		}
	}
}

func TestPaddingBitsAreZero(t *testing.T) {
	cfg := codec.Config{TruncateCount: 13} // 23-bit records
	records := []codec.Record{codec.Encode(-1.5, cfg)}
	buf, err := Pack(records, cfg)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	if len(buf) != 3 {
		t.Fatalf("expected 3 bytes, got %d", len(buf))
	}
	if buf[2]&1 != 0 {
		t.Errorf("padding bit set in last byte %08b", buf[2])
	}
}

func TestUnpackTruncated(t *testing.T) {
	cfg := codec.DefaultConfig()
	buf, _ := Pack(randomRecords(t, 4, cfg, 9), cfg)

	_, err := Unpack(buf[:len(buf)-1], 4, cfg)
	var te *TruncatedInputError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TruncatedInputError, got %v", err)
	}
	if te.NeedBits != 96 || te.HaveBits != 88 {
		t.Errorf("got have=%d need=%d, want have=88 need=96", te.HaveBits, te.NeedBits)
	}

	if _, err := Unpack(buf, 3, cfg); err != nil {
		t.Errorf("reading fewer records than present should succeed: %v", err)
	}
}

func TestUnpackHugeCount(t *testing.T) {
	cfg := codec.DefaultConfig()
	tests := []struct {
		name         string
		first, count int
		wantNeed     int
	}{
		{"count wraps to zero", 0, 1 << 62, math.MaxInt},
		{"max count", 0, math.MaxInt, math.MaxInt},
		{"first far past end", 1 << 62, 1, math.MaxInt},
		{"first and count both max", math.MaxInt, math.MaxInt, math.MaxInt},
		{"one past end", 1, 1, 48},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnpackAt([]byte{1, 2, 3}, tt.first, tt.count, cfg)
			var te *TruncatedInputError
			if !errors.As(err, &te) {
				t.Fatalf("expected *TruncatedInputError, got %v", err)
			}
			if te.HaveBits != 24 || te.NeedBits != tt.wantNeed {
				t.Errorf("have=%d need=%d, want have=24 need=%d", te.HaveBits, te.NeedBits, tt.wantNeed)
			}
		})
	}
}

func TestCheckRangeNegative(t *testing.T) {
	cfg := codec.DefaultConfig()
	if err := CheckRange(make([]byte, 6), -1, 1, cfg); err == nil {
		t.Error("expected error for negative first")
	}
	if err := CheckRange(make([]byte, 6), 0, -1, cfg); err == nil {
		t.Error("expected error for negative count")
	}
	if err := CheckRange(make([]byte, 6), 1, 1, cfg); err != nil {
		t.Errorf("second record of a 2-record buffer: %v", err)
	}
}

func TestPackedSizeLargeCounts(t *testing.T) {
	for k := codec.MinTruncateCount; k <= codec.MaxTruncateCount; k++ {
		cfg := codec.Config{TruncateCount: k}
		width := cfg.RecordWidth()
		for count := range 100 {
			if got, want := PackedSize(count, cfg), (count*width+7)/8; got != want {
				t.Errorf("PackedSize(%d, k=%d) = %d, want %d", count, k, got, want)
			}
		}
	}
	if got := PackedSize(1<<40, codec.DefaultConfig()); got != 3<<40 {
		t.Errorf("PackedSize(1<<40) = %d, want %d", got, 3<<40)
	}
}

func TestInvalidConfig(t *testing.T) {
	bad := codec.Config{TruncateCount: 20}
	var cfgErr *codec.InvalidConfigError

	if _, err := Pack(nil, bad); !errors.As(err, &cfgErr) {
		t.Errorf("Pack: expected *codec.InvalidConfigError, got %v", err)
	}
	if _, err := Unpack(nil, 0, bad); !errors.As(err, &cfgErr) {
		t.Errorf("Unpack: expected *codec.InvalidConfigError, got %v", err)
	}
}

func TestPackIntoChunksMatchesPack(t *testing.T) {
	cfg := codec.Config{TruncateCount: 5} // 31-bit records
	records := randomRecords(t, 100, cfg, 42)

	whole, err := Pack(records, cfg)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	// Chunks of 8 records always start on a byte boundary.
	out := make([]byte, PackedSize(len(records), cfg))
	for start := 0; start < len(records); start += 16 {
		end := min(start+16, len(records))
		off := start * cfg.RecordWidth() / 8
		if err := PackInto(out[off:], records[start:end], cfg); err != nil {
			t.Fatalf("PackInto failed: %v", err)
		}
	}
	if !bytes.Equal(out, whole) {
		t.Error("chunked PackInto differs from Pack")
	}

	got, err := UnpackAt(whole, 40, 30, cfg)
	if err != nil {
		t.Fatalf("UnpackAt failed: %v", err)
	}
	for i, r := range got {
		if r != records[40+i] {
			t.Fatalf("UnpackAt index %d mismatch", i)
		}
	}
}

func TestPackIntoShortDestination(t *testing.T) {
	cfg := codec.DefaultConfig()
	err := PackInto(make([]byte, 2), randomRecords(t, 1, cfg, 1), cfg)
	if err == nil {
		t.Error("expected error for short destination")
	}
}

func TestWriterReader(t *testing.T) {
	w := NewWriter(nil)
	w.WriteBits(0b101, 3)
	w.WriteBits(0xABCD, 16)
	w.WriteBits(1, 1)
	if w.Len() != 20 {
		t.Errorf("Len() = %d, want 20", w.Len())
	}
	w.Flush()

	r := NewReader(w.Bytes())
	if got := r.ReadBits(3); got != 0b101 {
		t.Errorf("ReadBits(3) = %b", got)
	}
	if got := r.ReadBits(16); got != 0xABCD {
		t.Errorf("ReadBits(16) = %x", got)
	}
	if got := r.ReadBits(1); got != 1 {
		t.Errorf("ReadBits(1) = %d", got)
	}
	if r.Remaining() != 4 {
		t.Errorf("Remaining() = %d, want 4", r.Remaining())
	}
}
