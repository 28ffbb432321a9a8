// Package fixture builds synthetic, well-formed Anvil chunk NBT
// documents for tests: deterministic columns of bedrock/stone/dirt/
// grass terrain, encoded through the same palette and bit-packing
// scheme a real region file uses. It exists purely to give round-trip,
// sector-shift, and new-section tests real-shaped input without
// depending on an actual game world on disk.
package fixture

import (
	"sort"

	"github.com/OCharnyshevich/anvilworld/internal/bitpack"
	"github.com/OCharnyshevich/anvilworld/internal/block"
	"github.com/OCharnyshevich/anvilworld/internal/nbt"
)

const (
	chunkHeight  = 256
	sectionCount = chunkHeight / 16
	seaLevel     = 62
)

var (
	bedrock = block.NewState("minecraft:bedrock", nil)
	stone   = block.NewState("minecraft:stone", nil)
	dirt    = block.NewState("minecraft:dirt", nil)
	grass   = block.NewState("minecraft:grass_block", nil)
	air     = block.Air()
)

// Generator produces deterministic terrain columns from a seed, the
// way a real chunk generator would, but stripped to just enough shape
// (a heightmap and four block layers) to exercise the storage engine.
type Generator struct {
	terrain *noiseGenerator
	seed    int64
}

// NewGenerator builds a Generator from a seed; the same seed always
// produces the same terrain.
func NewGenerator(seed int64) *Generator {
	return &Generator{terrain: newNoiseGenerator(seed), seed: seed}
}

// HeightAt returns the top solid block's Y coordinate at absolute
// block coordinates (bx, bz), clamped to [1, 250].
func (g *Generator) HeightAt(bx, bz int) int {
	nx := float64(bx) / 128.0
	nz := float64(bz) / 128.0
	h := float64(seaLevel) + g.terrain.octaveNoise2D(nx, nz, 5, 0.5)*14.0
	height := int(h)
	if height < 1 {
		height = 1
	}
	if height > 250 {
		height = 250
	}
	return height
}

// GenerateChunk builds a complete chunk root NBT document at chunk
// coordinates (cx, cz): bedrock at y=0, stone fill, dirt near the
// surface, grass or dirt as the top block depending on sea level,
// packed into palette-compressed sections as a real Anvil chunk stores
// them. Sections that would be entirely air are omitted, so the chunk
// carries at most 16 sections.
func (g *Generator) GenerateChunk(cx, cz int32) *nbt.Tag {
	var heights [16][16]int
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			heights[x][z] = g.HeightAt(int(cx)*16+x, int(cz)*16+z)
		}
	}

	root := nbt.Compound("")
	level := nbt.Compound("Level")
	level.Add(nbt.Int("xPos", cx))
	level.Add(nbt.Int("zPos", cz))

	sections := nbt.List("Sections", nbt.TagCompound)
	for secY := 0; secY < sectionCount; secY++ {
		tag := g.buildSection(int8(secY), &heights)
		if tag != nil {
			sections.AddChild(tag)
		}
	}
	level.Add(sections)
	root.Add(level)
	return root
}

// buildSection packs one 16×16×16 layer's worth of terrain into a
// Y/Palette/BlockStates NBT compound, or returns nil if the whole
// layer would be air (so a fixture chunk omits empty high sections,
// matching what a real save does).
func (g *Generator) buildSection(secY int8, heights *[16][16]int) *nbt.Tag {
	states := make([]block.State, 16*16*16)
	anyNonAir := false
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			height := heights[x][z]
			for ly := 0; ly < 16; ly++ {
				y := int(secY)*16 + ly
				idx := x + z*16 + ly*256
				st := columnBlock(y, height)
				states[idx] = st
				if !st.IsAir() {
					anyNonAir = true
				}
			}
		}
	}
	if !anyNonAir {
		return nil
	}

	seen := map[string]block.State{air.Key(): air}
	for _, st := range states {
		seen[st.Key()] = st
	}
	palette := make([]block.State, 0, len(seen))
	for _, st := range seen {
		palette = append(palette, st)
	}
	sortStates(palette)
	indexOf := make(map[string]int, len(palette))
	for i, st := range palette {
		indexOf[st.Key()] = i
	}

	indices := make([]int, len(states))
	for i, st := range states {
		indices[i] = indexOf[st.Key()]
	}
	width := bitpack.Width(len(palette))
	words, err := bitpack.Encode(indices, width)
	if err != nil {
		// Every index came from the palette we just built, so this
		// can only happen if Width's contract changes underfoot.
		panic(err)
	}

	sec := nbt.Compound("")
	sec.Add(nbt.Byte("Y", secY))
	sec.Add(serializePalette(palette))
	sec.Add(nbt.LongArray("BlockStates", bitpack.ToSignedLongs(words)))
	return sec
}

// columnBlock picks the block for absolute Y within a column whose top
// solid block is at height.
func columnBlock(y, height int) block.State {
	switch {
	case y > height:
		return air
	case y == 0:
		return bedrock
	case y == height:
		if height >= seaLevel {
			return grass
		}
		return dirt
	case y >= height-3:
		return dirt
	default:
		return stone
	}
}

func serializePalette(palette []block.State) *nbt.Tag {
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

// sortStates orders a palette deterministically: ascending by name,
// then by full key to break ties between same-named entries.
func sortStates(states []block.State) {
	sort.Slice(states, func(i, j int) bool {
		if states[i].Name != states[j].Name {
			return states[i].Name < states[j].Name
		}
		return states[i].Key() < states[j].Key()
	})
}
