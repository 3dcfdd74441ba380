package storage

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeRegionFile assembles a minimal valid region file: header, slot
// index table, and (for non-zero slot values) blob framing + raw bytes at
// offset = slotValue * segmentSize, matching segmentOffset.
func writeRegionFile(t *testing.T, blobCount, segmentSize uint32, slots map[int]uint32, segmentsByValue map[uint32][]byte) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "0.0.region.bin")

	maxOffsetEnd := int64(headerSize) + int64(blobCount)*4
	for v, raw := range segmentsByValue {
		end := segmentOffset(v, segmentSize) + 8 + int64(len(raw))
		if end > maxOffsetEnd {
			maxOffsetEnd = end
		}
	}

	buf := make([]byte, maxOffsetEnd)
	copy(buf[0:20], []byte(Magic))
	binary.BigEndian.PutUint32(buf[20:24], 1)
	binary.BigEndian.PutUint32(buf[24:28], blobCount)
	binary.BigEndian.PutUint32(buf[28:32], segmentSize)

	slotTable := buf[headerSize : headerSize+int(blobCount)*4]
	for i := 0; i < int(blobCount); i++ {
		v := slots[i]
		binary.BigEndian.PutUint32(slotTable[i*4:i*4+4], v)
	}

	for v, raw := range segmentsByValue {
		off := segmentOffset(v, segmentSize)
		binary.BigEndian.PutUint32(buf[off:off+4], uint32(len(raw)))
		binary.BigEndian.PutUint32(buf[off+4:off+8], uint32(len(raw)))
		copy(buf[off+8:], raw)
	}

	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func TestOpenBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0.0.region.bin")
	buf := make([]byte, headerSize)
	copy(buf, []byte("HytaleIndexedStorag_"))
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	_, err := Open(path)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrBadMagic))
}

func TestOpenUnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0.0.region.bin")
	buf := make([]byte, headerSize)
	copy(buf, []byte(Magic))
	binary.BigEndian.PutUint32(buf[20:24], 7)
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	_, err := Open(path)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnsupportedVersion))
}

func TestEmptyRegionYieldsNoSlots(t *testing.T) {
	path := writeRegionFile(t, 1024, 4096, nil, nil)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	count := 0
	err = r.IterNonEmptySlots(func(slotIndex int, p Payload) error {
		count++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestSlotPayloadRoundTrip(t *testing.T) {
	raw := []byte("compressed-bytes-here")
	path := writeRegionFile(t, 4, 64,
		map[int]uint32{2: 1},
		map[uint32][]byte{1: raw},
	)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	p, ok, err := r.SlotPayload(2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, raw, p.CompressedBytes)

	_, ok, err = r.SlotPayload(0)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIterNonEmptySlotsAscendingOrder(t *testing.T) {
	path := writeRegionFile(t, 8, 64,
		map[int]uint32{5: 1, 1: 2, 3: 3},
		map[uint32][]byte{1: []byte("a"), 2: []byte("b"), 3: []byte("c")},
	)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	var order []int
	err = r.IterNonEmptySlots(func(slotIndex int, p Payload) error {
		order = append(order, slotIndex)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{1, 3, 5}, order)
}

func TestSegmentChecksumOptIn(t *testing.T) {
	raw := []byte("data")
	path := writeRegionFile(t, 2, 64, map[int]uint32{0: 1}, map[uint32][]byte{1: raw})

	r, err := Open(path, WithSegmentChecksums(true))
	require.NoError(t, err)
	defer r.Close()

	p, ok, err := r.SlotPayload(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, p.HasChecksum)
	require.NotZero(t, p.SegmentChecksum)
}
