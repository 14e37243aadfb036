package envelope

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// lengthHeaderSize is the size of the big-endian plaintext length prefix.
const lengthHeaderSize = 4

// Pad frames b as uint32be(len(b)) ‖ b ‖ random filler so that the result is a
// multiple of block bytes. The filler is read from rand.
func Pad(b []byte, block int, rand io.Reader) ([]byte, error) {
	if block <= 0 {
		return nil, fmt.Errorf("invalid padding block size: %d", block)
	}
	if uint64(len(b)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: plaintext exceeds length header", ErrPlaintextTooLarge)
	}

	needed := lengthHeaderSize + len(b)
	total := (needed + block - 1) / block * block

	out := make([]byte, total)
	binary.BigEndian.PutUint32(out, uint32(len(b)))
	copy(out[lengthHeaderSize:], b)
	if _, err := io.ReadFull(rand, out[needed:]); err != nil {
		return nil, fmt.Errorf("%w: failed to read padding: %v", ErrCryptoUnavailable, err)
	}
	return out, nil
}

// Unpad reverses Pad. The filler is discarded without inspection.
func Unpad(b []byte) ([]byte, error) {
	if len(b) < lengthHeaderSize {
		return nil, fmt.Errorf("%w: padded plaintext too short", ErrMalformedEnvelope)
	}
	n := binary.BigEndian.Uint32(b)
	if uint64(n) > uint64(len(b)-lengthHeaderSize) {
		return nil, fmt.Errorf("%w: length header out of range", ErrMalformedEnvelope)
	}
	return b[lengthHeaderSize : lengthHeaderSize+int(n)], nil
}
