// Package zstdframe adapts the Zstandard frame format to the fixed-size,
// length-prefixed blobs used by the region file container.
package zstdframe

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ErrSizeMismatch is returned when a decompressed blob's length does not
// match the producer's declared source length.
var ErrSizeMismatch = errors.New("zstdframe: decompressed size mismatch")

// ErrCorrupt is returned when the Zstandard decoder rejects the frame.
var ErrCorrupt = errors.New("zstdframe: corrupt frame")

// decoderPool reuses a single-threaded decoder across calls, matching the
// klauspost/compress guidance that decoders are designed for reuse after
// warmup.
var decoderPool = sync.Pool{
	New: func() any {
		d, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("zstdframe: failed to create decoder: %v", err))
		}
		return d
	},
}

// Decompress decodes a single Zstandard frame and verifies the output is
// exactly expectedSize bytes long.
func Decompress(compressed []byte, expectedSize int) ([]byte, error) {
	dec := decoderPool.Get().(*zstd.Decoder)
	defer decoderPool.Put(dec)

	out, err := dec.DecodeAll(compressed, make([]byte, 0, expectedSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(out) != expectedSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(out), expectedSize)
	}
	return out, nil
}
