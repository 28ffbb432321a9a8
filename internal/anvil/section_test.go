package anvil

import (
	"testing"

	"github.com/OCharnyshevich/anvilworld/internal/block"
	"github.com/OCharnyshevich/anvilworld/internal/bitpack"
	"github.com/OCharnyshevich/anvilworld/internal/nbt"
)

// buildSectionNBT assembles a minimal but valid palette-based section
// compound: a section made uniformly of name, with no light arrays, mirroring
// what a real region file's Sections list entry looks like.
func buildSectionNBT(t *testing.T, y int8, name string) *nbt.Tag {
	t.Helper()
	palette := nbt.List("Palette", nbt.TagCompound)
	air := nbt.Compound("")
	air.Add(nbt.String("Name", block.AirName))
	palette.AddChild(air)
	stone := nbt.Compound("")
	stone.Add(nbt.String("Name", name))
	palette.AddChild(stone)

	indices := make([]int, SectionVolume)
	for i := range indices {
		indices[i] = 1 // all `name`
	}
	words, err := bitpack.Encode(indices, bitpack.Width(2))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	sec := nbt.Compound("")
	sec.Add(nbt.Byte("Y", y))
	sec.Add(palette)
	sec.Add(nbt.LongArray("BlockStates", bitpack.ToSignedLongs(words)))
	return sec
}

func TestLoadSectionUniform(t *testing.T) {
	tag := buildSectionNBT(t, 2, "minecraft:stone")
	sec, err := LoadSection(tag, func() {})
	if err != nil {
		t.Fatalf("LoadSection: %v", err)
	}
	if sec.YIndex != 2 {
		t.Fatalf("YIndex = %d, want 2", sec.YIndex)
	}
	for i := 0; i < SectionVolume; i++ {
		if got := sec.Block(i).State().Name; got != "minecraft:stone" {
			t.Fatalf("block %d = %q, want minecraft:stone", i, got)
		}
	}
	if sec.Dirty() {
		t.Fatal("freshly loaded section should not be dirty")
	}
}

func TestLoadSectionNoBlockStatesIsAllAir(t *testing.T) {
	tag := nbt.Compound("")
	tag.Add(nbt.Byte("Y", 5))
	sec, err := LoadSection(tag, func() {})
	if err != nil {
		t.Fatalf("LoadSection: %v", err)
	}
	for i := 0; i < SectionVolume; i++ {
		if !sec.Block(i).State().IsAir() {
			t.Fatalf("block %d should default to air", i)
		}
	}
}

func TestSetStateMarksDirtyAndPropagates(t *testing.T) {
	tag := buildSectionNBT(t, 0, "minecraft:stone")
	parentDirty := false
	sec, err := LoadSection(tag, func() { parentDirty = true })
	if err != nil {
		t.Fatalf("LoadSection: %v", err)
	}

	sec.BlockAt(1, 1, 1).SetStateName("minecraft:diamond_block")

	if !sec.Dirty() {
		t.Error("section should be dirty after SetState")
	}
	if !parentDirty {
		t.Error("dirty should propagate to the installed onDirty hook")
	}
	if got := sec.BlockAt(1, 1, 1).State().Name; got != "minecraft:diamond_block" {
		t.Fatalf("got %q, want minecraft:diamond_block", got)
	}
	// A neighbour must be unaffected.
	if got := sec.BlockAt(2, 1, 1).State().Name; got != "minecraft:stone" {
		t.Fatalf("neighbour mutated: got %q", got)
	}
}

func TestSerializeUndirtySynthesisesLight(t *testing.T) {
	tag := buildSectionNBT(t, 0, "minecraft:stone")
	sec, err := LoadSection(tag, func() {})
	if err != nil {
		t.Fatalf("LoadSection: %v", err)
	}
	out, err := sec.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if out.Get("BlockLight") == nil || out.Get("SkyLight") == nil {
		t.Fatal("expected synthesised light arrays")
	}
	arr := out.Get("BlockLight").ByteArrayVal()
	for _, b := range arr {
		if b != 0xFF {
			t.Fatalf("expected 0xFF filler, got 0x%02X", b)
		}
	}
}

func TestSerializeDirtyRoundTrips(t *testing.T) {
	tag := buildSectionNBT(t, 3, "minecraft:stone")
	sec, err := LoadSection(tag, func() {})
	if err != nil {
		t.Fatalf("LoadSection: %v", err)
	}
	sec.BlockAt(0, 0, 0).SetStateName("minecraft:diamond_block")

	out, err := sec.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	reloaded, err := LoadSection(out, func() {})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.BlockAt(0, 0, 0).State().Name; got != "minecraft:diamond_block" {
		t.Fatalf("got %q after reload", got)
	}
	if got := reloaded.BlockAt(1, 0, 0).State().Name; got != "minecraft:stone" {
		t.Fatalf("neighbour changed after reload: got %q", got)
	}
	if reloaded.YIndex != 3 {
		t.Fatalf("Y index lost after reload: got %d", reloaded.YIndex)
	}
}

func TestNewAirSectionIsDirty(t *testing.T) {
	notified := false
	sec := NewAirSection(5, func() { notified = true })
	if !sec.Dirty() {
		t.Fatal("new section should be dirty")
	}
	if !notified {
		t.Fatal("new section should notify its parent immediately")
	}
	for i := 0; i < SectionVolume; i++ {
		if !sec.Block(i).State().IsAir() || !sec.Block(i).Dirty() {
			t.Fatalf("block %d should be dirty air", i)
		}
	}
}
