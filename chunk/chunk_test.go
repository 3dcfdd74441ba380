package chunk

import (
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/go-hytale/regionfile/document"
	"github.com/go-hytale/regionfile/section"
	"github.com/stretchr/testify/require"
)

func strNode(s string) document.Node {
	return document.Node{Kind: document.KindString, Str: s}
}

func intNode(v int64) document.Node {
	return document.Node{Kind: document.KindInt64, Int64: v}
}

func boolNode(b bool) document.Node {
	return document.Node{Kind: document.KindBool, Bool: b}
}

// buildSectionHex encodes a single-entry Byte-palette section payload as
// the hex string the document dialect carries it in.
func buildSectionHex(t *testing.T, name string) string {
	t.Helper()
	var raw []byte
	migVer := make([]byte, 4)
	raw = append(raw, migVer...)
	raw = append(raw, byte(section.PaletteByte))

	count := make([]byte, 2)
	binary.BigEndian.PutUint16(count, 1)
	raw = append(raw, count...)

	raw = append(raw, 1) // internal id
	nameLen := make([]byte, 2)
	binary.BigEndian.PutUint16(nameLen, uint16(len(name)))
	raw = append(raw, nameLen...)
	raw = append(raw, []byte(name)...)
	raw = append(raw, 0, 0) // count i16

	raw = append(raw, make([]byte, section.VoxelsPerSection)...) // all zero -> entry 0
	return hex.EncodeToString(raw)
}

func TestAssembleSectionsAndBlockNames(t *testing.T) {
	root := document.NewDocument()
	root.Set("Version", intNode(1))

	block := document.NewDocument()
	block.Set("Data", strNode(buildSectionHex(t, "Rock_Stone")))

	sectionElem := document.NewDocument()
	sectionElem.Set("Block", *block)

	sectionsArr := document.NewArray()
	sectionsArr.Append(*sectionElem)

	chunkColumn := document.NewDocument()
	chunkColumn.Set("Sections", *sectionsArr)

	components := document.NewDocument()
	components.Set("ChunkColumn", *chunkColumn)
	root.Set("Components", *components)

	pc, err := Assemble(root, 0, 0)
	require.NoError(t, err)
	require.NotNil(t, pc.Sections[0])
	require.Equal(t, 32768, pc.Sections[0].BlockCounts["Rock_Stone"])
	_, ok := pc.BlockNames["Rock_Stone"]
	require.True(t, ok)
}

func TestAssembleMissingSectionDataYieldsEmptySection(t *testing.T) {
	root := document.NewDocument()
	root.Set("Version", intNode(1))

	sectionElem := document.NewDocument() // no Block.Data
	sectionsArr := document.NewArray()
	sectionsArr.Append(*sectionElem)

	chunkColumn := document.NewDocument()
	chunkColumn.Set("Sections", *sectionsArr)

	components := document.NewDocument()
	components.Set("ChunkColumn", *chunkColumn)
	root.Set("Components", *components)

	pc, err := Assemble(root, 0, 0)
	require.NoError(t, err)
	require.NotNil(t, pc.Sections[0])
	require.Equal(t, section.PaletteEmpty, pc.Sections[0].PaletteType)
	require.Empty(t, pc.Sections[0].BlockCounts)
}

func TestAssembleContainerExtraction(t *testing.T) {
	root := document.NewDocument()
	root.Set("Version", intNode(1))

	item := document.NewDocument()
	item.Set("Id", strNode("Ore_Copper"))
	item.Set("Quantity", intNode(4))

	items := document.NewArray()
	items.Append(*item)

	container := document.NewDocument()
	container.Set("capacity", intNode(18))
	container.Set("items", *items)

	compTree := document.NewDocument()
	compTree.Set("container", *container)

	blockComponents := document.NewDocument()
	// key "65": section 0, local position 65 -> (x=1, y=0, z=2)
	blockComponents.Set("65", *compTree)

	bcc := document.NewDocument()
	bcc.Set("BlockComponents", *blockComponents)

	components := document.NewDocument()
	components.Set("BlockComponentChunk", *bcc)
	root.Set("Components", *components)

	// chunk (2, -3) in region (0, 0)
	pc, err := Assemble(root, 2, -3)
	require.NoError(t, err)
	require.Len(t, pc.Containers, 1)

	c := pc.Containers[0]
	require.EqualValues(t, 65, c.WorldX)
	require.EqualValues(t, 0, c.WorldY)
	require.EqualValues(t, -94, c.WorldZ)
	require.EqualValues(t, 18, c.Capacity)
	require.Len(t, c.Items, 1)
	require.Equal(t, "Ore_Copper", c.Items[0].ID)
	require.EqualValues(t, 4, c.Items[0].Quantity)
}

func TestAssembleEntitiesPassThrough(t *testing.T) {
	root := document.NewDocument()
	root.Set("Version", intNode(1))

	entity := document.NewDocument()
	entity.Set("SomeField", boolNode(true))

	entities := document.NewArray()
	entities.Append(*entity)

	entityChunk := document.NewDocument()
	entityChunk.Set("Entities", *entities)

	components := document.NewDocument()
	components.Set("EntityChunk", *entityChunk)
	root.Set("Components", *components)

	pc, err := Assemble(root, 0, 0)
	require.NoError(t, err)
	require.Len(t, pc.Entities, 1)
	v, ok := pc.Entities[0].Get("SomeField")
	require.True(t, ok)
	b, err := v.AsBool()
	require.NoError(t, err)
	require.True(t, b)
}

func TestAssembleMissingVersionFails(t *testing.T) {
	root := document.NewDocument()
	_, err := Assemble(root, 0, 0)
	require.Error(t, err)
}
