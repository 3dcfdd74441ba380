// Package section decodes the palette header and bit-packed block-index
// array carried by a single 32×32×32 voxel section.
package section

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/go-hytale/regionfile/bytecursor"
)

// VoxelsPerSection is the number of voxels in one section: 32*32*32.
const VoxelsPerSection = 32 * 32 * 32

// PaletteType selects how the index array following the palette is
// bit-packed.
type PaletteType uint8

const (
	PaletteEmpty    PaletteType = 0
	PaletteHalfByte PaletteType = 1
	PaletteByte     PaletteType = 2
	PaletteShort    PaletteType = 3
)

func (t PaletteType) String() string {
	switch t {
	case PaletteEmpty:
		return "Empty"
	case PaletteHalfByte:
		return "HalfByte"
	case PaletteByte:
		return "Byte"
	case PaletteShort:
		return "Short"
	default:
		return fmt.Sprintf("PaletteType(%d)", uint8(t))
	}
}

// ErrUnknownPaletteType is returned for a palette type byte outside 0..3.
var ErrUnknownPaletteType = errors.New("section: unknown palette type")

// ErrPaletteIndexOutOfRange is returned when a decoded index falls
// outside [0, paletteSize).
var ErrPaletteIndexOutOfRange = errors.New("section: palette index out of range")

// ErrMalformedHex is returned when the input string is not valid hex.
var ErrMalformedHex = errors.New("section: malformed hex payload")

// PaletteEntry is one block-type slot in a section's palette.
type PaletteEntry struct {
	InternalID uint8
	Name       string
	// Count is the producer-recorded voxel count for this entry. It is
	// advisory only — ground truth is the decoded index histogram.
	Count int16
}

// Section is a decoded 32×32×32 voxel slab at a fixed vertical index.
type Section struct {
	YSection     int
	MigrationVer uint32
	PaletteType  PaletteType
	Palette      []PaletteEntry
	Indices      []uint32 // len == VoxelsPerSection when PaletteType != Empty and palette non-empty
	BlockCounts  map[string]int
}

// BlockAt returns the palette entry name for the voxel at local
// coordinates (x,y,z), or "" if the section has no voxels there.
func (s *Section) BlockAt(x, y, z int) string {
	if s.PaletteType == PaletteEmpty {
		if len(s.Palette) == 1 {
			return s.Palette[0].Name
		}
		return ""
	}
	idx := LinearIndex(x, y, z)
	if idx >= len(s.Indices) {
		return ""
	}
	pi := s.Indices[idx]
	if int(pi) >= len(s.Palette) {
		return ""
	}
	return s.Palette[pi].Name
}

// LinearIndex converts local section coordinates to the flat index used
// by the index array: x + z*32 + y*1024.
func LinearIndex(x, y, z int) int {
	return x + z*32 + y*1024
}

// InverseLinearIndex recovers (x, y, z) from a flat section-local index.
func InverseLinearIndex(linear int) (x, y, z int) {
	y = linear / 1024
	rem := linear % 1024
	z = rem / 32
	x = rem % 32
	return x, y, z
}

// Decode parses a hex-encoded section payload (as found in a
// Components.Block.Data string leaf) for vertical index ySection.
func Decode(hexPayload string, ySection int) (*Section, error) {
	raw, err := hex.DecodeString(hexPayload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHex, err)
	}

	c := bytecursor.New(raw)

	migrationVer, err := c.ReadU32BE()
	if err != nil {
		return nil, fmt.Errorf("section: reading migration version: %w", err)
	}

	ptByte, err := c.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("section: reading palette type: %w", err)
	}
	pt := PaletteType(ptByte)

	paletteCount, err := c.ReadU16BE()
	if err != nil {
		return nil, fmt.Errorf("section: reading palette entry count: %w", err)
	}

	palette := make([]PaletteEntry, 0, paletteCount)
	for i := uint16(0); i < paletteCount; i++ {
		entry, err := decodePaletteEntry(c)
		if err != nil {
			return nil, fmt.Errorf("section: decoding palette entry %d: %w", i, err)
		}
		palette = append(palette, entry)
	}

	sec := &Section{
		YSection:     ySection,
		MigrationVer: migrationVer,
		PaletteType:  pt,
		Palette:      palette,
		BlockCounts:  map[string]int{},
	}

	switch pt {
	case PaletteEmpty:
		if len(palette) == 1 {
			sec.BlockCounts[palette[0].Name] = VoxelsPerSection
		}
		return sec, nil

	case PaletteHalfByte:
		indices, err := decodeHalfByteIndices(c)
		if err != nil {
			return nil, err
		}
		sec.Indices = indices

	case PaletteByte:
		indices, err := decodeByteIndices(c)
		if err != nil {
			return nil, err
		}
		sec.Indices = indices

	case PaletteShort:
		indices, err := decodeShortIndices(c)
		if err != nil {
			return nil, err
		}
		sec.Indices = indices

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownPaletteType, ptByte)
	}

	if err := sec.validateAndHistogram(); err != nil {
		return nil, err
	}

	return sec, nil
}

func decodePaletteEntry(c *bytecursor.Cursor) (PaletteEntry, error) {
	id, err := c.ReadU8()
	if err != nil {
		return PaletteEntry{}, err
	}
	nameLen, err := c.ReadU16BE()
	if err != nil {
		return PaletteEntry{}, err
	}
	nameBytes, err := c.ReadBytes(int(nameLen))
	if err != nil {
		return PaletteEntry{}, err
	}
	count, err := c.ReadI16BE()
	if err != nil {
		return PaletteEntry{}, err
	}
	return PaletteEntry{InternalID: id, Name: string(nameBytes), Count: count}, nil
}

func decodeHalfByteIndices(c *bytecursor.Cursor) ([]uint32, error) {
	raw, err := c.ReadBytes(VoxelsPerSection / 2)
	if err != nil {
		return nil, fmt.Errorf("section: reading HalfByte index array: %w", err)
	}
	out := make([]uint32, VoxelsPerSection)
	for k, b := range raw {
		out[2*k] = uint32(b>>4) & 0x0F
		out[2*k+1] = uint32(b) & 0x0F
	}
	return out, nil
}

func decodeByteIndices(c *bytecursor.Cursor) ([]uint32, error) {
	raw, err := c.ReadBytes(VoxelsPerSection)
	if err != nil {
		return nil, fmt.Errorf("section: reading Byte index array: %w", err)
	}
	out := make([]uint32, VoxelsPerSection)
	for i, b := range raw {
		out[i] = uint32(b)
	}
	return out, nil
}

func decodeShortIndices(c *bytecursor.Cursor) ([]uint32, error) {
	out := make([]uint32, VoxelsPerSection)
	for i := 0; i < VoxelsPerSection; i++ {
		v, err := c.ReadU16BE()
		if err != nil {
			return nil, fmt.Errorf("section: reading Short index array at voxel %d: %w", i, err)
		}
		out[i] = uint32(v)
	}
	return out, nil
}

// validateAndHistogram checks every index is within palette bounds and
// rebuilds BlockCounts from the actual decoded indices: the producer's
// recorded counts are advisory, so ground truth is always recomputed.
func (s *Section) validateAndHistogram() error {
	p := len(s.Palette)
	for _, idx := range s.Indices {
		if int(idx) >= p {
			return fmt.Errorf("%w: index %d >= palette size %d", ErrPaletteIndexOutOfRange, idx, p)
		}
	}
	for _, idx := range s.Indices {
		s.BlockCounts[s.Palette[idx].Name]++
	}
	return nil
}
