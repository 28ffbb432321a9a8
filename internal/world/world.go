// Package world routes absolute voxel coordinates to the right region,
// chunk, and section, and owns the lifetime of every Region it opens.
package world

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/OCharnyshevich/anvilworld/internal/anvil"
	"github.com/OCharnyshevich/anvilworld/internal/block"
)

// ErrWorldNotFound is returned by Open when the world's root directory
// (or its region/ subdirectory) does not exist.
var ErrWorldNotFound = errors.New("world: world directory not found")

// ErrRegionMissing is returned by GetBlock/GetChunk when the region
// file that would contain the requested coordinate is absent on disk.
var ErrRegionMissing = errors.New("world: region file missing")

// ErrChunkUnallocated re-exports anvil.ErrChunkUnallocated so callers
// of this package never need to import internal/anvil directly to
// check for it.
var ErrChunkUnallocated = anvil.ErrChunkUnallocated

// RegionCoord identifies one `.mca` file by its region-grid coordinate.
type RegionCoord struct{ RX, RZ int32 }

// World is a directory of region files. It owns every Region it has
// opened and, on Close, saves whichever of them have pending edits.
type World struct {
	folderPath string
	regions    map[RegionCoord]*anvil.Region
	debug      bool
	log        *slog.Logger
}

// Open opens a world directory rooted at path (which must contain a
// region/ subdirectory of `.mca` files). No region files are opened
// eagerly; each is opened lazily on first access to its coordinate.
func Open(path string, debug bool, log *slog.Logger) (*World, error) {
	if log == nil {
		log = slog.Default()
	}
	regionDir := filepath.Join(path, "region")
	if info, err := os.Stat(regionDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("open world %s: %w", path, ErrWorldNotFound)
	}
	w := &World{
		folderPath: path,
		regions:    make(map[RegionCoord]*anvil.Region),
		debug:      debug,
		log:        log,
	}
	w.log.Info("world opened", "path", path)
	return w, nil
}

// Close saves every dirty region this World has opened, then closes
// all of them, per the scoped-lifetime contract: on a normal exit path
// (this method being called), dirty regions are flushed; a caller that
// instead abandons the World without calling Close loses those edits
// by design.
func (w *World) Close() error {
	var firstErr error
	for coord, r := range w.regions {
		if r.Dirty() {
			if err := r.Save(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("save region (%d,%d): %w", coord.RX, coord.RZ, err)
			}
		}
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close region (%d,%d): %w", coord.RX, coord.RZ, err)
		}
	}
	w.log.Info("world closed", "path", w.folderPath)
	return firstErr
}

// chunkCoord converts an absolute (x,z) to a chunk coordinate using
// arithmetic right shift (equivalent to floor division by 16, and
// correct for negative inputs).
func chunkCoord(x, z int) (cx, cz int32) {
	return int32(x >> 4), int32(z >> 4)
}

// regionCoord converts a chunk coordinate to its owning region
// coordinate via arithmetic right shift by 5 (floor division by 32).
func regionCoord(cx, cz int32) RegionCoord {
	return RegionCoord{RX: cx >> 5, RZ: cz >> 5}
}

// regionPath returns the on-disk path for a region coordinate:
// <world>/region/r.<rx>.<rz>.mca.
func (w *World) regionPath(rc RegionCoord) string {
	return filepath.Join(w.folderPath, "region", fmt.Sprintf("r.%d.%d.mca", rc.RX, rc.RZ))
}

// getRegion returns the already-open Region for rc, opening and
// caching it on first access. A missing `.mca` file is ErrRegionMissing.
func (w *World) getRegion(rc RegionCoord) (*anvil.Region, error) {
	if r, ok := w.regions[rc]; ok {
		return r, nil
	}
	path := w.regionPath(rc)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("region (%d,%d): %w", rc.RX, rc.RZ, ErrRegionMissing)
	}
	r, err := anvil.OpenRegion(path, w.log)
	if err != nil {
		return nil, fmt.Errorf("region (%d,%d): %w", rc.RX, rc.RZ, err)
	}
	w.regions[rc] = r
	return r, nil
}

// GetChunk returns the chunk containing absolute chunk coordinates
// (cx, cz), opening its region on demand.
func (w *World) GetChunk(cx, cz int32) (*anvil.Chunk, error) {
	rc := regionCoord(cx, cz)
	r, err := w.getRegion(rc)
	if err != nil {
		return nil, err
	}
	c, err := r.GetChunk(cx, cz)
	if err != nil {
		return nil, fmt.Errorf("world %s: %w", w.folderPath, err)
	}
	return c, nil
}

// GetBlock routes an absolute voxel coordinate through
// (rx,rz) → (cx,cz) → section → block.
func (w *World) GetBlock(x, y, z int) (anvil.Block, error) {
	cx, cz := chunkCoord(x, z)
	chunk, err := w.GetChunk(cx, cz)
	if err != nil {
		return anvil.Block{}, err
	}
	localX := x - int(cx)*16
	localZ := z - int(cz)*16
	return chunk.BlockAt(localX, y, localZ), nil
}

// SetBlockState is a GetBlock + SetState convenience wrapper for
// replacing the block state at an absolute coordinate.
func (w *World) SetBlockState(x, y, z int, st block.State) error {
	b, err := w.GetBlock(x, y, z)
	if err != nil {
		return err
	}
	b.SetState(st)
	return nil
}

// Match pairs an absolute voxel coordinate with the block handle found
// there, the world-level counterpart of anvil.LocalMatch.
type Match struct {
	X, Y, Z int
	Block   anvil.Block
}

// FindLike returns every block within chunk (cx,cz) whose state name
// contains substr, translated to absolute coordinates.
func (w *World) FindLike(cx, cz int32, substr string) ([]Match, error) {
	chunk, err := w.GetChunk(cx, cz)
	if err != nil {
		return nil, err
	}
	local := chunk.FindLike(substr)
	out := make([]Match, len(local))
	for i, m := range local {
		out[i] = Match{
			X:     int(cx)*16 + m.X,
			Y:     m.Y,
			Z:     int(cz)*16 + m.Z,
			Block: m.Block,
		}
	}
	return out, nil
}

// Save flushes every dirty region without closing any of them,
// allowing a long-lived World to periodically persist without ending
// its scope.
func (w *World) Save() error {
	for coord, r := range w.regions {
		if r.Dirty() {
			if err := r.Save(); err != nil {
				return fmt.Errorf("save region (%d,%d): %w", coord.RX, coord.RZ, err)
			}
		}
	}
	return nil
}
