package anvil

import (
	"fmt"
	"sort"

	"github.com/OCharnyshevich/anvilworld/internal/bitpack"
	"github.com/OCharnyshevich/anvilworld/internal/block"
	"github.com/OCharnyshevich/anvilworld/internal/nbt"
)

// SectionVolume is the number of voxels in a 16×16×16 ChunkSection.
const SectionVolume = 16 * 16 * 16

const lightArrayBytes = SectionVolume / 2

// localIndex maps local (x,y,z) in [0,16) to an index into a section's
// 4096-entry block array, per spec: blocks[x + z*16 + y*256].
func localIndex(x, y, z int) int {
	return x + z*16 + y*256
}

type blockData struct {
	state      block.State
	blockLight byte
	skyLight   byte
	dirty      bool
}

// ChunkSection is one 16×16×16 voxel cube: a palette-compressed,
// bit-packed block array plus optional light nibble arrays, backed by
// the NBT subtree it was parsed from so untouched fields round-trip
// byte for byte.
type ChunkSection struct {
	YIndex  int8
	blocks  [SectionVolume]blockData
	rawNBT  *nbt.Tag
	dirty   bool
	onDirty func()
}

// markDirty flags this section dirty and propagates the signal upward
// through the closure installed by the owning Chunk. This is the
// one-way, cycle-free substitute for a parent back-pointer.
func (s *ChunkSection) markDirty() {
	s.dirty = true
	if s.onDirty != nil {
		s.onDirty()
	}
}

// Dirty reports whether any block in this section has been mutated
// since load (or whether the section was created fresh by GetSection).
func (s *ChunkSection) Dirty() bool { return s.dirty }

// markClean replaces rawNBT with this section's rebuilt NBT and clears
// this section's dirty flag and every block's per-block dirty flag,
// called after a successful Region.Save has persisted that NBT to disk.
func (s *ChunkSection) markClean() {
	if out, err := s.Serialize(); err == nil {
		s.rawNBT = out
	}
	s.dirty = false
	for i := range s.blocks {
		s.blocks[i].dirty = false
	}
}

// Block returns a handle onto the voxel at local index i (see
// localIndex). Mutating the handle marks this section — and, by
// propagation, its chunk and region — dirty.
func (s *ChunkSection) Block(i int) Block { return Block{sec: s, index: i} }

// BlockAt returns a handle onto the voxel at local (x,y,z).
func (s *ChunkSection) BlockAt(x, y, z int) Block { return s.Block(localIndex(x, y, z)) }

// NewAirSection builds a fresh section for a previously absent Y layer:
// 4096 air blocks, all marked dirty, with the section itself dirty and
// its chunk notified immediately.
func NewAirSection(y int8, onDirty func()) *ChunkSection {
	sec := &ChunkSection{YIndex: y, rawNBT: nbt.Compound(""), onDirty: onDirty}
	for i := range sec.blocks {
		sec.blocks[i] = blockData{state: block.Air(), dirty: true}
	}
	sec.markDirty()
	return sec
}

// LoadSection parses a ChunkSection out of its NBT compound (one entry
// of a Chunk's Level.Sections list). onDirty is installed as the
// section's upward dirty-propagation hook.
func LoadSection(tag *nbt.Tag, onDirty func()) (*ChunkSection, error) {
	sec := &ChunkSection{rawNBT: tag, onDirty: onDirty}
	if yTag := tag.Get("Y"); yTag != nil {
		sec.YIndex = yTag.ByteVal()
	}

	statesTag := tag.Get("BlockStates")
	if statesTag == nil {
		for i := range sec.blocks {
			sec.blocks[i] = blockData{state: block.Air()}
		}
		return sec, nil
	}

	longs := statesTag.LongArrayVal()
	width := (len(longs) * 64) / SectionVolume
	words := bitpack.FromSignedLongs(longs)
	indices, err := bitpack.Decode(words, SectionVolume, width)
	if err != nil {
		return nil, fmt.Errorf("section Y=%d: decode block states: %w", sec.YIndex, err)
	}

	palette, err := loadPalette(tag.Get("Palette"))
	if err != nil {
		return nil, fmt.Errorf("section Y=%d: %w", sec.YIndex, err)
	}

	blockLight := tag.Get("BlockLight")
	skyLight := tag.Get("SkyLight")

	for i := 0; i < SectionVolume; i++ {
		idx := indices[i]
		if idx < 0 || idx >= len(palette) {
			return nil, fmt.Errorf("section Y=%d: palette index %d out of range (palette size %d)",
				sec.YIndex, idx, len(palette))
		}
		sec.blocks[i] = blockData{
			state:      palette[idx],
			blockLight: nibbleAt(blockLight, i),
			skyLight:   nibbleAt(skyLight, i),
		}
	}
	return sec, nil
}

func loadPalette(paletteTag *nbt.Tag) ([]block.State, error) {
	if paletteTag == nil {
		return []block.State{block.Air()}, nil
	}
	out := make([]block.State, paletteTag.Len())
	for i := 0; i < paletteTag.Len(); i++ {
		entry := paletteTag.At(i)
		nameTag := entry.Get("Name")
		if nameTag == nil {
			return nil, fmt.Errorf("palette entry %d missing Name", i)
		}
		var props map[string]string
		if p := entry.Get("Properties"); p != nil {
			props = p.ToDict()
		}
		out[i] = block.NewState(nameTag.StringVal(), props)
	}
	return out, nil
}

// nibbleAt reads the 4-bit sample for voxel i out of a BYTE_ARRAY nibble
// tag (BlockLight or SkyLight): the low nibble of byte i/2 holds voxel
// 2*(i/2), the high nibble holds voxel 2*(i/2)+1. A nil tag (the field
// was absent) reads as 0.
func nibbleAt(tag *nbt.Tag, i int) byte {
	if tag == nil {
		return 0
	}
	arr := tag.ByteArrayVal()
	b := arr[i/2]
	if i%2 == 0 {
		return b & 0x0F
	}
	return (b >> 4) & 0x0F
}

// setNibble sets the 4-bit sample for voxel i within a nibble array.
func setNibble(arr []byte, i int, v byte) {
	byteIdx := i / 2
	if i%2 == 0 {
		arr[byteIdx] = (arr[byteIdx] & 0xF0) | (v & 0x0F)
	} else {
		arr[byteIdx] = (arr[byteIdx] & 0x0F) | ((v & 0x0F) << 4)
	}
}

// fullBrightArray returns a 2048-byte nibble array filled with 0xFF,
// the filler used for a missing light field.
func fullBrightArray() []byte {
	arr := make([]byte, lightArrayBytes)
	for i := range arr {
		arr[i] = 0xFF
	}
	return arr
}

// Serialize returns this section's NBT representation. If no block was
// mutated since load, the original subtree is cloned back out verbatim
// except that missing light arrays are synthesised as filler — a
// reader that requires them will not see an absent field. If any block
// is dirty, the palette, block-state array, and light arrays are
// rebuilt fresh; every other original field (tile entities, section
// biomes, etc.) is carried over untouched.
func (s *ChunkSection) Serialize() (*nbt.Tag, error) {
	if !s.dirty {
		out := s.rawNBT.Clone()
		if out.Get("BlockLight") == nil {
			out.Add(nbt.ByteArray("BlockLight", fullBrightArray()))
		}
		if out.Get("SkyLight") == nil {
			out.Add(nbt.ByteArray("SkyLight", fullBrightArray()))
		}
		return out, nil
	}

	palette, indexOf := s.buildPalette()
	width := bitpack.Width(len(palette))

	indices := make([]int, SectionVolume)
	for i := range s.blocks {
		indices[i] = indexOf[s.blocks[i].state.Key()]
	}
	words, err := bitpack.Encode(indices, width)
	if err != nil {
		return nil, fmt.Errorf("section Y=%d: encode block states: %w", s.YIndex, err)
	}

	out := nbt.Compound("")
	for _, child := range s.rawNBT.Children() {
		switch child.Name {
		case "Y", "Palette", "BlockStates", "BlockLight", "SkyLight":
			continue
		default:
			out.Add(child.Clone())
		}
	}

	out.Add(nbt.Byte("Y", s.YIndex))
	out.Add(s.serializePalette(palette))
	out.Add(nbt.LongArray("BlockStates", bitpack.ToSignedLongs(words)))
	out.Add(nbt.ByteArray("BlockLight", s.lightArrayOrFiller("BlockLight", func(b blockData) byte { return b.blockLight })))
	out.Add(nbt.ByteArray("SkyLight", s.lightArrayOrFiller("SkyLight", func(b blockData) byte { return b.skyLight })))
	return out, nil
}

// lightArrayOrFiller regenerates a light nibble array from the current
// per-block samples if the field was present on load (so an untouched
// light array reproduces byte for byte), or synthesises 0xFF filler if
// the field was absent.
func (s *ChunkSection) lightArrayOrFiller(name string, sample func(blockData) byte) []byte {
	if s.rawNBT.Get(name) == nil {
		return fullBrightArray()
	}
	return s.buildLightArray(sample)
}

// buildPalette computes the deduplicated, sorted palette of a dirty
// section: the set of states actually referenced, with air forced
// present, sorted ascending by name. It returns the palette slice plus
// a Key()→index lookup for encoding.
func (s *ChunkSection) buildPalette() ([]block.State, map[string]int) {
	seen := make(map[string]block.State)
	seen[block.Air().Key()] = block.Air()
	for _, b := range s.blocks {
		seen[b.state.Key()] = b.state
	}

	palette := make([]block.State, 0, len(seen))
	for _, st := range seen {
		palette = append(palette, st)
	}
	sort.Slice(palette, func(i, j int) bool {
		if palette[i].Name != palette[j].Name {
			return palette[i].Name < palette[j].Name
		}
		return palette[i].Key() < palette[j].Key()
	})

	indexOf := make(map[string]int, len(palette))
	for i, st := range palette {
		indexOf[st.Key()] = i
	}
	return palette, indexOf
}

func (s *ChunkSection) serializePalette(palette []block.State) *nbt.Tag {
	list := nbt.List("Palette", nbt.TagCompound)
	for _, st := range palette {
		entry := nbt.Compound("")
		entry.Add(nbt.String("Name", st.Name))
		if len(st.Props) > 0 {
			props := nbt.Compound("Properties")
			for k, v := range st.Props {
				props.Add(nbt.String(k, v))
			}
			entry.Add(props)
		}
		list.AddChild(entry)
	}
	return list
}

func (s *ChunkSection) buildLightArray(sample func(blockData) byte) []byte {
	arr := make([]byte, lightArrayBytes)
	for i, b := range s.blocks {
		setNibble(arr, i, sample(b))
	}
	return arr
}
