package anvil

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"

	"github.com/OCharnyshevich/anvilworld/internal/nbt"
)

// buildChunkNBT assembles a minimal but valid chunk root document: one
// uniform section at Y=0, just enough NBT to exercise the format.
func buildChunkNBT(t *testing.T, cx, cz int32, name string) *nbt.Tag {
	t.Helper()
	root := nbt.Compound("")
	level := nbt.Compound("Level")
	level.Add(nbt.Int("xPos", cx))
	level.Add(nbt.Int("zPos", cz))

	sections := nbt.List("Sections", nbt.TagCompound)
	sections.AddChild(buildSectionNBT(t, 0, name))
	level.Add(sections)
	root.Add(level)
	return root
}

// writeRegionFile assembles a complete `.mca` file on disk out of the
// given chunk roots, placed at sequential sectors starting right after
// the header, using zlib (scheme 2) compression — mirroring exactly
// what Region.Save itself produces, so OpenRegion can be exercised
// independently of Save.
func writeRegionFile(t *testing.T, path string, chunks map[[2]int32]*nbt.Tag) {
	t.Helper()

	header := make([]byte, headerSectors*SectorSize)
	var body []byte
	nextSector := uint32(headerSectors)

	for coord, root := range chunks {
		raw, err := nbt.Marshal(root)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			t.Fatalf("zlib write: %v", err)
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("zlib close: %v", err)
		}
		compressed := buf.Bytes()

		dataLen := len(compressed) + 1
		slot := make([]byte, chunkHeaderSize+dataLen)
		binary.BigEndian.PutUint32(slot[0:4], uint32(dataLen))
		slot[4] = CompressionZlib
		copy(slot[chunkHeaderSize:], compressed)

		sectorLen := ceilToSector(len(slot))
		padded := make([]byte, sectorLen)
		copy(padded, slot)
		body = append(body, padded...)

		idx := regionIndex(coord[0], coord[1])
		entry := (nextSector << 8) | uint32(sectorLen/SectorSize)
		binary.BigEndian.PutUint32(header[idx*4:idx*4+4], entry)
		nextSector += uint32(sectorLen / SectorSize)
	}

	full := append(header, body...)
	if err := os.WriteFile(path, full, 0o644); err != nil {
		t.Fatalf("write region file: %v", err)
	}
}

func TestOpenRegionAndGetChunk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.0.0.mca")
	writeRegionFile(t, path, map[[2]int32]*nbt.Tag{
		{0, 0}: buildChunkNBT(t, 0, 0, "minecraft:stone"),
		{1, 0}: buildChunkNBT(t, 1, 0, "minecraft:dirt"),
	})

	r, err := OpenRegion(path, slog.Default())
	if err != nil {
		t.Fatalf("OpenRegion: %v", err)
	}
	defer r.Close()

	c, err := r.GetChunk(0, 0)
	if err != nil {
		t.Fatalf("GetChunk(0,0): %v", err)
	}
	if got := c.BlockAt(0, 0, 0).State().Name; got != "minecraft:stone" {
		t.Fatalf("got %q, want minecraft:stone", got)
	}

	c2, err := r.GetChunk(1, 0)
	if err != nil {
		t.Fatalf("GetChunk(1,0): %v", err)
	}
	if got := c2.BlockAt(0, 0, 0).State().Name; got != "minecraft:dirt" {
		t.Fatalf("got %q, want minecraft:dirt", got)
	}

	if _, err := r.GetChunk(5, 5); err == nil {
		t.Fatal("expected ErrChunkUnallocated for unallocated slot")
	}
}

func TestRegionSaveRoundTripUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.0.0.mca")
	writeRegionFile(t, path, map[[2]int32]*nbt.Tag{
		{0, 0}: buildChunkNBT(t, 0, 0, "minecraft:stone"),
	})

	r, err := OpenRegion(path, nil)
	if err != nil {
		t.Fatalf("OpenRegion: %v", err)
	}
	if _, err := r.GetChunk(0, 0); err != nil {
		t.Fatalf("GetChunk: %v", err)
	}
	if r.Dirty() {
		t.Fatal("region should not be dirty before any mutation")
	}
	if err := r.Save(); err != nil {
		t.Fatalf("Save (no-op): %v", err)
	}
	r.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size()%SectorSize != 0 {
		t.Fatalf("file size %d not sector-aligned", info.Size())
	}
}

func TestRegionSaveMutationRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.0.0.mca")
	writeRegionFile(t, path, map[[2]int32]*nbt.Tag{
		{0, 0}: buildChunkNBT(t, 0, 0, "minecraft:stone"),
		{1, 0}: buildChunkNBT(t, 1, 0, "minecraft:dirt"),
	})

	r, err := OpenRegion(path, nil)
	if err != nil {
		t.Fatalf("OpenRegion: %v", err)
	}
	c, err := r.GetChunk(0, 0)
	if err != nil {
		t.Fatalf("GetChunk: %v", err)
	}
	c.BlockAt(3, 4, 5).SetStateName("minecraft:diamond_block")

	if !r.Dirty() {
		t.Fatal("region should be dirty after block mutation")
	}
	if err := r.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if r.Dirty() {
		t.Fatal("region should be clean after Save")
	}
	r.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size()%SectorSize != 0 {
		t.Fatalf("file size %d not sector-aligned", info.Size())
	}

	r2, err := OpenRegion(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r2.Close()

	reloaded, err := r2.GetChunk(0, 0)
	if err != nil {
		t.Fatalf("GetChunk(0,0) after reopen: %v", err)
	}
	if got := reloaded.BlockAt(3, 4, 5).State().Name; got != "minecraft:diamond_block" {
		t.Fatalf("mutation lost after reopen: got %q", got)
	}
	if got := reloaded.BlockAt(0, 0, 0).State().Name; got != "minecraft:stone" {
		t.Fatalf("neighbour voxel changed: got %q", got)
	}

	untouched, err := r2.GetChunk(1, 0)
	if err != nil {
		t.Fatalf("GetChunk(1,0) after reopen: %v", err)
	}
	if got := untouched.BlockAt(0, 0, 0).State().Name; got != "minecraft:dirt" {
		t.Fatalf("untouched chunk changed: got %q", got)
	}
}

func TestRegionSaveGrowthShiftsLaterOffsets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.0.0.mca")
	writeRegionFile(t, path, map[[2]int32]*nbt.Tag{
		{0, 0}: buildChunkNBT(t, 0, 0, "minecraft:stone"),
		{1, 0}: buildChunkNBT(t, 1, 0, "minecraft:dirt"),
	})

	r, err := OpenRegion(path, nil)
	if err != nil {
		t.Fatalf("OpenRegion: %v", err)
	}
	c, err := r.GetChunk(0, 0)
	if err != nil {
		t.Fatalf("GetChunk(0,0): %v", err)
	}
	// Introduce many distinct palette entries in a pseudo-random order
	// to push the rebuilt section across a sector boundary, forcing the
	// later chunk's offset to shift.
	var seed uint32 = 1
	for i := 0; i < SectionVolume; i++ {
		x, y, z := i%16, (i/256)%16, (i/16)%16
		seed = seed*1103515245 + 12345
		n := int(seed>>16) % 676
		c.BlockAt(x, y, z).SetStateName("minecraft:block_" + string(rune('a'+n%26)) + string(rune('a'+n/26)))
	}
	if err := r.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := r.locations[regionIndex(0, 0)].sectorCount; got < 2 {
		t.Fatalf("mutated chunk occupies %d sector(s) after save, want at least 2", got)
	}
	r.Close()

	r2, err := OpenRegion(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r2.Close()

	other, err := r2.GetChunk(1, 0)
	if err != nil {
		t.Fatalf("GetChunk(1,0) after reopen: %v", err)
	}
	if got := other.BlockAt(0, 0, 0).State().Name; got != "minecraft:dirt" {
		t.Fatalf("shifted chunk corrupted: got %q", got)
	}
}

func TestRegionIndexMatchesLocalCoordinates(t *testing.T) {
	if got := regionIndex(0, 0); got != 0 {
		t.Fatalf("regionIndex(0,0) = %d, want 0", got)
	}
	if got := regionIndex(31, 0); got != 31 {
		t.Fatalf("regionIndex(31,0) = %d, want 31", got)
	}
	if got := regionIndex(-1, 0); got != 31 {
		t.Fatalf("regionIndex(-1,0) = %d, want 31 (floor-mod wraparound)", got)
	}
}
