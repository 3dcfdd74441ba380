// Package chunk walks a decoded document tree for one chunk slot and
// assembles it into a ParsedChunk aggregate: sections, block components,
// containers, entities, and the set of distinct block names.
package chunk

import (
	"fmt"

	"github.com/go-hytale/regionfile/document"
	"github.com/go-hytale/regionfile/section"
)

// SectionsPerChunk is the maximum number of vertical sections in a chunk.
const SectionsPerChunk = 10

// BlockComponent is a per-voxel side record (container, sign, farming
// state, ...) attached to a single voxel.
type BlockComponent struct {
	PositionInSection uint16
	SectionIndex      uint8
	ComponentTree     *document.Node
}

// Item is an opaque key-value record pass through verbatim; Id and
// Quantity are the only fields the core interprets.
type Item struct {
	ID       string
	Quantity int64
	HasID    bool
	HasQty   bool
	Raw      *document.Node
}

// ItemContainer is derived from a BlockComponent whose component tree
// contains a "container" subdocument.
type ItemContainer struct {
	WorldX, WorldY, WorldZ int32
	Capacity               uint32
	Items                  []Item
	CustomName             *string
	AllowViewing           *bool
}

// ParsedChunk is the fully decoded, immutable result of assembling one
// chunk slot.
type ParsedChunk struct {
	ChunkX, ChunkZ int32
	Version        int64

	Sections        [SectionsPerChunk]*section.Section
	BlockComponents []BlockComponent
	Containers      []ItemContainer
	Entities        []*document.Node
	BlockNames      map[string]struct{}

	// RawComponents is the verbatim "Components" subtree, preserved so
	// downstream consumers can re-serialize data this assembler does not
	// interpret.
	RawComponents *document.Node
}

// Assemble builds a ParsedChunk from a decoded document root for one
// chunk slot at the given world chunk coordinates.
func Assemble(root *document.Node, chunkX, chunkZ int32) (*ParsedChunk, error) {
	versionNode, ok := root.Get("Version")
	if !ok {
		return nil, fmt.Errorf("chunk: missing top-level Version field")
	}
	version, err := versionNode.AsInt()
	if err != nil {
		return nil, fmt.Errorf("chunk: reading Version: %w", err)
	}

	componentsNode, ok := root.Get("Components")
	if !ok {
		return nil, fmt.Errorf("chunk: missing top-level Components field")
	}
	components, err := componentsNode.AsDocument()
	if err != nil {
		return nil, fmt.Errorf("chunk: Components: %w", err)
	}

	pc := &ParsedChunk{
		ChunkX:        chunkX,
		ChunkZ:        chunkZ,
		Version:       version,
		BlockNames:    map[string]struct{}{},
		RawComponents: components,
	}

	if err := pc.assembleSections(components); err != nil {
		return nil, err
	}
	if err := pc.assembleBlockComponents(components, chunkX, chunkZ); err != nil {
		return nil, err
	}
	pc.assembleEntities(components)

	return pc, nil
}

func (pc *ParsedChunk) assembleSections(components *document.Node) error {
	chunkColumn, ok := components.Path("ChunkColumn")
	if !ok {
		return nil
	}
	sections, ok := chunkColumn.Get("Sections")
	if !ok {
		return nil
	}
	if sections.Kind != document.KindArray {
		return fmt.Errorf("chunk: ChunkColumn.Sections: %w", document.ErrUnexpectedShape)
	}

	for s := 0; s < sections.Len() && s < SectionsPerChunk; s++ {
		elem, ok := sections.Elem(s)
		if !ok {
			continue
		}

		hexData, ok := elem.Path("Block", "Data")
		if !ok {
			// missing Block.Data yields an Empty section at this index
			pc.Sections[s] = &section.Section{
				YSection:    s,
				PaletteType: section.PaletteEmpty,
				BlockCounts: map[string]int{},
			}
			continue
		}
		hexStr, err := hexData.AsString()
		if err != nil {
			return fmt.Errorf("chunk: section %d Block.Data: %w", s, err)
		}

		sec, err := section.Decode(hexStr, s)
		if err != nil {
			return fmt.Errorf("chunk: decoding section %d: %w", s, err)
		}
		pc.Sections[s] = sec

		for _, entry := range sec.Palette {
			pc.BlockNames[entry.Name] = struct{}{}
		}
	}
	return nil
}

func (pc *ParsedChunk) assembleBlockComponents(components *document.Node, chunkX, chunkZ int32) error {
	bcc, ok := components.Path("BlockComponentChunk", "BlockComponents")
	if !ok {
		return nil
	}
	if bcc.Kind != document.KindDocument && bcc.Kind != document.KindArray {
		return fmt.Errorf("chunk: BlockComponentChunk.BlockComponents: %w", document.ErrUnexpectedShape)
	}

	for _, key := range bcc.Keys() {
		packed, err := parsePackedKey(key)
		if err != nil {
			return fmt.Errorf("chunk: BlockComponents key %q: %w", key, err)
		}

		sectionIndex := uint8(packed / section.VoxelsPerSection)
		local := packed % section.VoxelsPerSection
		x, y, z := section.InverseLinearIndex(local)

		tree, _ := bcc.Get(key)
		treeCopy := tree

		pc.BlockComponents = append(pc.BlockComponents, BlockComponent{
			PositionInSection: uint16(local),
			SectionIndex:      sectionIndex,
			ComponentTree:     &treeCopy,
		})

		if container, ok := treeCopy.Get("container"); ok {
			ic, err := buildContainer(container, chunkX, chunkZ, int32(sectionIndex), int32(x), int32(y), int32(z))
			if err != nil {
				return fmt.Errorf("chunk: container at key %q: %w", key, err)
			}
			pc.Containers = append(pc.Containers, ic)
		}
	}
	return nil
}

func parsePackedKey(key string) (int, error) {
	var v int
	neg := false
	i := 0
	if len(key) > 0 && key[0] == '-' {
		neg = true
		i = 1
	}
	if i >= len(key) {
		return 0, fmt.Errorf("empty or sign-only key")
	}
	for ; i < len(key); i++ {
		c := key[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("non-decimal key")
		}
		v = v*10 + int(c-'0')
	}
	if neg {
		v = -v
	}
	return v, nil
}

func buildContainer(container document.Node, chunkX, chunkZ, sectionIndex, x, y, z int32) (ItemContainer, error) {
	ic := ItemContainer{
		WorldX: chunkX*32 + x,
		WorldY: sectionIndex*32 + y,
		WorldZ: chunkZ*32 + z,
	}

	if capNode, ok := container.Get("capacity"); ok {
		cap, err := capNode.AsInt()
		if err != nil {
			return ItemContainer{}, fmt.Errorf("capacity: %w", err)
		}
		ic.Capacity = uint32(cap)
	}

	if nameNode, ok := container.Get("custom_name"); ok && nameNode.Kind != document.KindNull {
		s, err := nameNode.AsString()
		if err != nil {
			return ItemContainer{}, fmt.Errorf("custom_name: %w", err)
		}
		ic.CustomName = &s
	}

	if viewNode, ok := container.Get("allow_viewing"); ok && viewNode.Kind != document.KindNull {
		b, err := viewNode.AsBool()
		if err != nil {
			return ItemContainer{}, fmt.Errorf("allow_viewing: %w", err)
		}
		ic.AllowViewing = &b
	}

	if itemsNode, ok := container.Get("items"); ok {
		for _, key := range itemsNode.Keys() {
			itemNode, _ := itemsNode.Get(key)
			item := Item{Raw: &itemNode}
			if idNode, ok := itemNode.Get("Id"); ok {
				if s, err := idNode.AsString(); err == nil {
					item.ID = s
					item.HasID = true
				}
			}
			if qtyNode, ok := itemNode.Get("Quantity"); ok {
				if q, err := qtyNode.AsInt(); err == nil {
					item.Quantity = q
					item.HasQty = true
				}
			}
			ic.Items = append(ic.Items, item)
		}
	}

	return ic, nil
}

func (pc *ParsedChunk) assembleEntities(components *document.Node) {
	entities, ok := components.Path("EntityChunk", "Entities")
	if !ok {
		return
	}
	for i := 0; i < entities.Len(); i++ {
		elem, ok := entities.Elem(i)
		if !ok {
			continue
		}
		e := elem
		pc.Entities = append(pc.Entities, &e)
	}
}

// WorldPosition returns the world-space coordinates of local section
// coordinates (x,y,z) in section ySection of this chunk.
func (pc *ParsedChunk) WorldPosition(ySection, x, y, z int) (int32, int32, int32) {
	return pc.ChunkX*32 + int32(x), int32(ySection)*32 + int32(y), pc.ChunkZ*32 + int32(z)
}
