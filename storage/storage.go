// Package storage reads the outer indexed-storage container format: a
// fixed header, a sparse slot index table, and segmented compressed
// payloads.
package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
)

// Magic is the fixed 20-byte ASCII signature every region file begins with.
const Magic = "HytaleIndexedStorage"

const headerSize = 32

// ErrBadMagic is returned when the first bytes of a file do not match Magic.
var ErrBadMagic = errors.New("storage: bad magic")

// ErrUnsupportedVersion is returned for a header version outside {0, 1}.
var ErrUnsupportedVersion = errors.New("storage: unsupported version")

// ErrTruncated is returned when a read crosses a declared length bound.
var ErrTruncated = errors.New("storage: truncated read")

// ErrBadSegmentPointer is returned when a non-zero slot index value
// resolves to a segment that cannot be read in full.
var ErrBadSegmentPointer = errors.New("storage: bad segment pointer")

// Header describes the fixed-size preamble of a region file.
type Header struct {
	Version     uint32
	BlobCount   uint32
	SegmentSize uint32
}

// Payload is one non-empty slot's raw compressed blob plus its declared
// decompressed size.
type Payload struct {
	SlotIndex       int
	SourceLength    uint32
	CompressedBytes []byte
	SegmentChecksum uint64 // valid only when checksums were requested
	HasChecksum     bool
}

// Reader opens a region file and exposes on-demand access to each
// non-empty slot's raw compressed payload.
type Reader struct {
	file         *os.File
	header       Header
	slotIndex    []uint32
	useChecksums bool
}

// Option configures Open.
type Option func(*Reader)

// WithSegmentChecksums enables xxhash64 checksumming of each slot's raw
// compressed bytes as they are read, surfaced on the returned Payload.
// Decoding never depends on this; it exists purely so callers can detect
// silent disk corruption.
func WithSegmentChecksums(enabled bool) Option {
	return func(r *Reader) { r.useChecksums = enabled }
}

// Open validates the header and loads the slot index table.
func Open(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("storage: opening %s: %w", path, err)
	}

	r := &Reader{file: f}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.readHeader(); err != nil {
		f.Close()
		return nil, err
	}
	if err := r.readSlotIndex(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) readHeader() error {
	buf := make([]byte, headerSize)
	if _, err := r.file.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("%w: reading header: %v", ErrTruncated, err)
	}

	if !bytes.Equal(buf[:20], []byte(Magic)) {
		return fmt.Errorf("%w: got %q", ErrBadMagic, buf[:20])
	}

	version := binary.BigEndian.Uint32(buf[20:24])
	if version != 0 && version != 1 {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	r.header = Header{
		Version:     version,
		BlobCount:   binary.BigEndian.Uint32(buf[24:28]),
		SegmentSize: binary.BigEndian.Uint32(buf[28:32]),
	}
	return nil
}

func (r *Reader) readSlotIndex() error {
	n := int(r.header.BlobCount)
	buf := make([]byte, n*4)
	if _, err := r.file.ReadAt(buf, headerSize); err != nil {
		return fmt.Errorf("%w: reading slot index table: %v", ErrTruncated, err)
	}

	r.slotIndex = make([]uint32, n)
	for i := 0; i < n; i++ {
		r.slotIndex[i] = binary.BigEndian.Uint32(buf[i*4 : i*4+4])
	}
	return nil
}

// HeaderInfo returns the validated header fields.
func (r *Reader) HeaderInfo() Header {
	return r.header
}

// segmentOffset maps an opaque slot index value to a byte offset within
// the file: a plain multiplication by the segment size, with no
// sector-count packed into the low bits (unlike Minecraft's .mca format).
func segmentOffset(slotValue, segmentSize uint32) int64 {
	return int64(slotValue) * int64(segmentSize)
}

// SlotPayload returns the raw compressed bytes for slot i, or ok=false if
// the slot is empty.
func (r *Reader) SlotPayload(i int) (Payload, bool, error) {
	if i < 0 || i >= len(r.slotIndex) {
		return Payload{}, false, fmt.Errorf("storage: slot %d out of range [0,%d)", i, len(r.slotIndex))
	}
	slotValue := r.slotIndex[i]
	if slotValue == 0 {
		return Payload{}, false, nil
	}

	offset := segmentOffset(slotValue, r.header.SegmentSize)

	frameHeader := make([]byte, 8)
	if _, err := r.file.ReadAt(frameHeader, offset); err != nil {
		return Payload{}, false, fmt.Errorf("%w: slot %d: reading blob framing: %v", ErrBadSegmentPointer, i, err)
	}

	sourceLength := binary.BigEndian.Uint32(frameHeader[0:4])
	compressedLength := binary.BigEndian.Uint32(frameHeader[4:8])

	compressed := make([]byte, compressedLength)
	if _, err := r.file.ReadAt(compressed, offset+8); err != nil {
		return Payload{}, false, fmt.Errorf("%w: slot %d: reading %d compressed bytes: %v", ErrBadSegmentPointer, i, compressedLength, err)
	}

	payload := Payload{
		SlotIndex:       i,
		SourceLength:    sourceLength,
		CompressedBytes: compressed,
	}
	if r.useChecksums {
		payload.SegmentChecksum = xxhash.Sum64(compressed)
		payload.HasChecksum = true
	}
	return payload, true, nil
}

// IterNonEmptySlots calls fn for each non-empty slot in ascending index
// order, stopping early if fn returns an error.
func (r *Reader) IterNonEmptySlots(fn func(slotIndex int, p Payload) error) error {
	for i := range r.slotIndex {
		if r.slotIndex[i] == 0 {
			continue
		}
		p, ok, err := r.SlotPayload(i)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := fn(i, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.file.Close()
}
