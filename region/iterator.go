// Package region drives IndexedStorageReader + Decompressor +
// DocumentParser + ChunkAssembler to yield a lazy sequence of ParsedChunk
// values, one per non-empty slot, in slot-index order.
package region

import (
	"fmt"
	"log"
	"os"

	"github.com/go-hytale/regionfile/chunk"
	"github.com/go-hytale/regionfile/document"
	"github.com/go-hytale/regionfile/internal/zstdframe"
	"github.com/go-hytale/regionfile/storage"
)

// Mode selects how the Iterator reacts to a per-chunk decode failure.
type Mode int

const (
	// Strict surfaces the first per-chunk error from Next and stops.
	Strict Mode = iota
	// Lenient reports a per-chunk failure as a FailedChunk and continues
	// with the next slot.
	Lenient
)

// FailedChunk is yielded in Lenient mode in place of a ParsedChunk when a
// slot fails to decode.
type FailedChunk struct {
	SlotIndex int
	Err       error
}

// Result is one item produced by Next: either a successfully decoded
// chunk, or (in Lenient mode) a FailedChunk.
type Result struct {
	Chunk  *chunk.ParsedChunk
	Failed *FailedChunk
}

// Iterator is a pull-based cursor over one region file's non-empty slots.
type Iterator struct {
	path      string
	reader    *storage.Reader
	regionX   int32
	regionZ   int32
	mode      Mode
	logger    *log.Logger
	nextSlot  int
	blobCount int
}

// Open opens the region file at path and prepares to iterate its
// non-empty slots. logger may be nil, in which case a default logger
// writing to os.Stderr is used.
func Open(path string, mode Mode, logger *log.Logger) (*Iterator, error) {
	regionX, regionZ, err := ParseFilename(path)
	if err != nil {
		return nil, wrapErr(path, unknownSlot, err)
	}

	r, err := storage.Open(path)
	if err != nil {
		return nil, wrapErr(path, unknownSlot, err)
	}

	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	return &Iterator{
		path:      path,
		reader:    r,
		regionX:   regionX,
		regionZ:   regionZ,
		mode:      mode,
		logger:    logger,
		blobCount: int(r.HeaderInfo().BlobCount),
	}, nil
}

// RegionCoordinates returns the (region_x, region_z) parsed from the file
// name.
func (it *Iterator) RegionCoordinates() (int32, int32) {
	return it.regionX, it.regionZ
}

// Close releases the underlying file handle.
func (it *Iterator) Close() error {
	return it.reader.Close()
}

// Next returns the next non-empty slot's decoded result, or (nil, false,
// nil) at end of stream. In Strict mode, a per-chunk decode error is
// returned directly and the iterator should not be called again. In
// Lenient mode, a per-chunk decode error is reported via Result.Failed
// and the iterator advances to the next slot automatically.
func (it *Iterator) Next() (*Result, bool, error) {
	for it.nextSlot < it.blobCount {
		slotIndex := it.nextSlot
		it.nextSlot++

		payload, ok, err := it.reader.SlotPayload(slotIndex)
		if err != nil {
			return it.handleFailure(slotIndex, err)
		}
		if !ok {
			continue
		}

		pc, err := it.decodeSlot(slotIndex, payload.CompressedBytes, int(payload.SourceLength))
		if err != nil {
			return it.handleFailure(slotIndex, err)
		}
		return &Result{Chunk: pc}, true, nil
	}
	return nil, false, nil
}

func (it *Iterator) handleFailure(slotIndex int, err error) (*Result, bool, error) {
	wrapped := wrapErr(it.path, slotIndex, err)
	if it.mode == Strict {
		return nil, true, wrapped
	}
	it.logger.Printf("region: slot %d failed: %v", slotIndex, wrapped)
	return &Result{Failed: &FailedChunk{SlotIndex: slotIndex, Err: wrapped}}, true, nil
}

func (it *Iterator) decodeSlot(slotIndex int, compressed []byte, sourceLength int) (*chunk.ParsedChunk, error) {
	raw, err := zstdframe.Decompress(compressed, sourceLength)
	if err != nil {
		return nil, fmt.Errorf("decompressing slot %d: %w", slotIndex, err)
	}

	root, _, err := document.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing document for slot %d: %w", slotIndex, err)
	}

	localX := slotIndex % 32
	localZ := slotIndex / 32
	chunkX := it.regionX*32 + int32(localX)
	chunkZ := it.regionZ*32 + int32(localZ)

	pc, err := chunk.Assemble(root, chunkX, chunkZ)
	if err != nil {
		return nil, fmt.Errorf("assembling chunk for slot %d: %w", slotIndex, err)
	}
	return pc, nil
}
