package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/jacklau/floatpack/internal/bitpack"
	"github.com/jacklau/floatpack/internal/codec"
)

const (
	// Version is the container format version written by this package.
	Version = 1

	// HeaderSize is the fixed size of the container header in bytes.
	HeaderSize = 16
)

var magic = [4]byte{'F', 'P', 'A', 'K'}

var (
	ErrBadMagic           = errors.New("container: not a floatpack file")
	ErrUnsupportedVersion = errors.New("container: unsupported version")
	ErrTooManyRecords     = errors.New("container: record count exceeds addressable size")
)

// Header describes a packed payload. The record count is stored explicitly
// because padding alone cannot delimit the last record.
type Header struct {
	Version     uint8
	Config      codec.Config
	RecordCount uint64
}

// PayloadSize returns the number of payload bytes the header declares.
// Read rejects record counts too large for this to be computed.
func (h Header) PayloadSize() int {
	return bitpack.PackedSize(int(h.RecordCount), h.Config)
}

// MarshalBinary encodes the header.
//
// Layout (big-endian): magic[4] version[1] truncate_count[1] reserved[2] count[8].
func (h Header) MarshalBinary() ([]byte, error) {
	if err := h.Config.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, HeaderSize)
	copy(buf, magic[:])
	buf[4] = h.Version
	buf[5] = uint8(h.Config.TruncateCount)
	binary.BigEndian.PutUint64(buf[8:], h.RecordCount)
	return buf, nil
}

// UnmarshalBinary decodes a header produced by MarshalBinary.
func (h *Header) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderSize {
		return &bitpack.TruncatedInputError{HaveBits: len(b) * 8, NeedBits: HeaderSize * 8}
	}
	if !bytes.Equal(b[:4], magic[:]) {
		return ErrBadMagic
	}
	if b[4] != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, b[4])
	}
	cfg, err := codec.NewConfig(int(b[5]))
	if err != nil {
		return err
	}
	h.Version = b[4]
	h.Config = cfg
	h.RecordCount = binary.BigEndian.Uint64(b[8:HeaderSize])
	return nil
}

// Write writes the header followed by payload. The payload length must match
// the header.
func Write(w io.Writer, h Header, payload []byte) error {
	if h.Version == 0 {
		h.Version = Version
	}
	if len(payload) != h.PayloadSize() {
		return fmt.Errorf("container: payload is %d bytes, header declares %d", len(payload), h.PayloadSize())
	}
	hdr, err := h.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	return nil
}

// Read reads a header and exactly the payload it declares. Trailing bytes
// are ignored. The payload buffer grows with the bytes actually present, so
// a header declaring more records than the stream holds costs no more
// memory than the stream itself.
func Read(r io.Reader) (Header, []byte, error) {
	var h Header
	hdr := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, hdr)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return h, nil, fmt.Errorf("reading header: %w", err)
	}
	if err := h.UnmarshalBinary(hdr[:n]); err != nil {
		return h, nil, err
	}

	width := h.Config.RecordWidth()
	if h.RecordCount > uint64(math.MaxInt/width) {
		return h, nil, fmt.Errorf("%w: %d records", ErrTooManyRecords, h.RecordCount)
	}

	size := h.PayloadSize()
	payload, err := io.ReadAll(io.LimitReader(r, int64(size)))
	if err != nil {
		return h, nil, fmt.Errorf("reading payload: %w", err)
	}
	if len(payload) < size {
		return h, nil, &bitpack.TruncatedInputError{
			HaveBits: len(payload) * 8,
			NeedBits: int(h.RecordCount) * width,
		}
	}
	return h, payload, nil
}

// RawCount returns how many whole records a headerless payload of n bytes
// holds. The final byte's padding is always narrower than one record.
func RawCount(n int, cfg codec.Config) int {
	return n * 8 / cfg.RecordWidth()
}
