package anvil

import (
	"fmt"
	"strings"

	"github.com/OCharnyshevich/anvilworld/internal/nbt"
)

// Chunk is a 16×256×16 voxel column: a sparse, Y-indexed map of
// ChunkSections plus the root NBT document they were parsed from. It
// is the unit of (de)compression on disk.
type Chunk struct {
	CX, CZ int32

	sections map[int8]*ChunkSection
	order    []int8 // insertion order, for deterministic Sections re-emission
	rawNBT   *nbt.Tag

	origDiskLen uint32
	dirty       bool
	onDirty     func()
}

// markDirty flags this chunk dirty and propagates to its region.
func (c *Chunk) markDirty() {
	c.dirty = true
	if c.onDirty != nil {
		c.onDirty()
	}
}

// Dirty reports whether at least one of this chunk's sections is dirty.
func (c *Chunk) Dirty() bool { return c.dirty }

// markClean clears this chunk's dirty flag and every owned section's
// dirty flag, and replaces rawNBT with the just-serialized document so
// that a subsequent, untouched Serialize() reproduces exactly what was
// written to disk. Called by Region.Save after a chunk's compressed
// bytes have been spliced into the region file.
func (c *Chunk) markClean() {
	serialized, err := c.Serialize()
	if err == nil {
		c.rawNBT = serialized
	}
	c.dirty = false
	for _, sec := range c.sections {
		sec.markClean()
	}
}

// LoadChunk parses a Chunk from its decompressed root NBT document
// (Level.xPos / Level.zPos / Level.Sections). onDirty is installed as
// this chunk's upward dirty-propagation hook (notifying its region).
func LoadChunk(root *nbt.Tag, origDiskLen uint32, onDirty func()) (*Chunk, error) {
	level := root.Get("Level")
	if level == nil {
		return nil, fmt.Errorf("anvil: chunk NBT missing Level compound")
	}

	c := &Chunk{
		rawNBT:      root,
		origDiskLen: origDiskLen,
		onDirty:     onDirty,
		sections:    make(map[int8]*ChunkSection),
	}
	if xTag := level.Get("xPos"); xTag != nil {
		c.CX = xTag.IntVal()
	}
	if zTag := level.Get("zPos"); zTag != nil {
		c.CZ = zTag.IntVal()
	}

	sectionsTag := level.Get("Sections")
	if sectionsTag != nil {
		for i := 0; i < sectionsTag.Len(); i++ {
			secTag := sectionsTag.At(i)
			sec, err := LoadSection(secTag, c.markDirty)
			if err != nil {
				return nil, fmt.Errorf("chunk (%d,%d): %w", c.CX, c.CZ, err)
			}
			c.insertSection(sec)
		}
	}
	return c, nil
}

func (c *Chunk) insertSection(sec *ChunkSection) {
	if _, exists := c.sections[sec.YIndex]; !exists {
		c.order = append(c.order, sec.YIndex)
	}
	c.sections[sec.YIndex] = sec
}

// GetSection returns the section for Y-section index secY (floor(y/16)
// in caller terms), creating a fresh all-air dirty section — and
// marking this chunk dirty — if that Y layer was not present in the
// source data.
func (c *Chunk) GetSection(secY int8) *ChunkSection {
	if sec, ok := c.sections[secY]; ok {
		return sec
	}
	sec := NewAirSection(secY, c.markDirty)
	c.insertSection(sec)
	c.markDirty()
	return sec
}

// sectionAndLocal maps an absolute Y coordinate to its section index
// and local Y offset within that section, using floor division so
// negative Y (e.g. in a nether-style dimension) maps correctly.
func sectionAndLocal(y int) (secY int8, localY int) {
	sec := floorDiv(y, 16)
	return int8(sec), y - sec*16
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

// BlockAt returns a handle onto the voxel at local chunk coordinates
// (x in [0,16), y any int, z in [0,16)), creating the containing
// section on demand.
func (c *Chunk) BlockAt(x, y, z int) Block {
	secY, localY := sectionAndLocal(y)
	sec := c.GetSection(secY)
	return sec.BlockAt(floorMod(x, 16), localY, floorMod(z, 16))
}

// FindLike returns every block in this chunk whose state name contains
// substr, paired with its chunk-local (x,y,z) coordinate.
func (c *Chunk) FindLike(substr string) []LocalMatch {
	var out []LocalMatch
	for _, secY := range c.order {
		sec := c.sections[secY]
		baseY := int(secY) * 16
		for i := 0; i < SectionVolume; i++ {
			st := sec.Block(i).State()
			if !strings.Contains(st.Name, substr) {
				continue
			}
			x := i % 16
			z := (i / 16) % 16
			y := baseY + i/256
			out = append(out, LocalMatch{X: x, Y: y, Z: z, Block: sec.Block(i)})
		}
	}
	return out
}

// LocalMatch is one FindLike result: a chunk-local coordinate and the
// matching block handle.
type LocalMatch struct {
	X, Y, Z int
	Block   Block
}

// Serialize clones this chunk's root NBT document and replaces
// Level.Sections with each owned section's own Serialize() output, in
// the Y order sections were first seen.
func (c *Chunk) Serialize() (*nbt.Tag, error) {
	root := c.rawNBT.Clone()
	level := root.Get("Level")
	if level == nil {
		level = nbt.Compound("Level")
		root.Add(level)
	}
	level.Set(nbt.Int("xPos", c.CX))
	level.Set(nbt.Int("zPos", c.CZ))

	sections := nbt.List("Sections", nbt.TagCompound)
	for _, secY := range c.order {
		tag, err := c.sections[secY].Serialize()
		if err != nil {
			return nil, fmt.Errorf("chunk (%d,%d): section Y=%d: %w", c.CX, c.CZ, secY, err)
		}
		sections.AddChild(tag)
	}
	level.Set(sections)
	return root, nil
}
