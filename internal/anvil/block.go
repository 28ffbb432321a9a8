package anvil

import "github.com/OCharnyshevich/anvilworld/internal/block"

// Block is a handle onto one voxel within a ChunkSection. It carries no
// ownership — the section owns the underlying storage — only enough
// identity to read and mutate that one voxel. Setting its state marks
// the owning section (and, by propagation, that section's chunk and
// region) dirty; a plain handle avoids a parent back pointer and the
// cycle that would come with one.
type Block struct {
	sec   *ChunkSection
	index int
}

// State returns a deep copy of this voxel's block state. Mutating the
// returned value never affects storage.
func (b Block) State() block.State {
	return b.sec.blocks[b.index].state.Clone()
}

// SetState replaces this voxel's block state and marks it (and its
// section, chunk, and region) dirty.
func (b Block) SetState(s block.State) {
	b.sec.blocks[b.index].state = s.Clone()
	b.sec.blocks[b.index].dirty = true
	b.sec.markDirty()
}

// SetStateName is shorthand for SetState(block.NewState(name, nil)).
func (b Block) SetStateName(name string) {
	b.SetState(block.NewState(name, nil))
}

// BlockLight returns the 0-15 block-light sample at this voxel.
func (b Block) BlockLight() byte { return b.sec.blocks[b.index].blockLight }

// SkyLight returns the 0-15 sky-light sample at this voxel.
func (b Block) SkyLight() byte { return b.sec.blocks[b.index].skyLight }

// Dirty reports whether this particular voxel has been mutated since
// load (or since its section was freshly created).
func (b Block) Dirty() bool { return b.sec.blocks[b.index].dirty }
