package anvil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio"
)

// Region-file layout constants.
const (
	SectorSize      = 4096
	headerSectors   = 2
	sectorsPerAxis  = 32
	chunkHeaderSize = 5 // u32 length + u8 compression scheme
)

// ErrChunkUnallocated is returned by GetChunk when a region's header
// slot for the requested chunk has offset=0 and sector_count=0.
var ErrChunkUnallocated = errors.New("anvil: chunk slot unallocated")

// ErrChunkSlotUnallocated is returned by Save if a dirty chunk's region
// slot is unallocated — attempting to persist a chunk this region
// never had location data for. This aborts the whole save.
var ErrChunkSlotUnallocated = errors.New("anvil: cannot save unallocated chunk slot")

type chunkLocation struct {
	offsetSectors uint32 // disk units: 4096-byte sectors
	sectorCount   uint8
}

func (l chunkLocation) empty() bool { return l.offsetSectors == 0 && l.sectorCount == 0 }
func (l chunkLocation) byteOffset() int64 { return int64(l.offsetSectors) * SectorSize }
func (l chunkLocation) byteLen() int64    { return int64(l.sectorCount) * SectorSize }

// Region represents one open `.mca` file: a 1024-slot sector-allocated
// container of compressed chunks, read through a header of offsets and
// timestamps. A Region performs read-through caching (GetChunk parses
// a chunk once and keeps it) and an incremental save that recompresses
// only dirty chunks, splices them into the file body, and writes the
// whole file back out.
type Region struct {
	path string
	file *os.File

	locations  [1024]chunkLocation
	timestamps [1024]uint32

	chunks map[int]*Chunk

	dirty bool
	log   *slog.Logger
}

// regionIndex computes the region-local slot for a chunk coordinate
// using the mathematical (non-negative) modulus.
func regionIndex(cx, cz int32) int {
	return int(floorMod(int(cx), sectorsPerAxis)) + int(floorMod(int(cz), sectorsPerAxis))*sectorsPerAxis
}

// OpenRegion opens an existing `.mca` file and loads its 8192-byte
// header. The file handle is kept open until Close.
func OpenRegion(path string, log *slog.Logger) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open region %s: %w", path, err)
	}
	r := &Region{path: path, file: f, chunks: make(map[int]*Chunk), log: logOrDefault(log)}

	header := make([]byte, headerSectors*SectorSize)
	if _, err := io.ReadFull(f, header); err != nil {
		f.Close()
		return nil, fmt.Errorf("region %s: read header: %w", path, err)
	}
	for i := 0; i < 1024; i++ {
		entry := binary.BigEndian.Uint32(header[i*4 : i*4+4])
		r.locations[i] = chunkLocation{offsetSectors: entry >> 8, sectorCount: uint8(entry)}
		r.timestamps[i] = binary.BigEndian.Uint32(header[SectorSize+i*4 : SectorSize+i*4+4])
	}
	r.log.Info("region opened", "path", path)
	return r, nil
}

// markDirty flags this region dirty. Installed as the onDirty hook on
// every chunk this region loads.
func (r *Region) markDirty() { r.dirty = true }

// Dirty reports whether at least one loaded chunk in this region has
// been mutated since open or since the last successful Save.
func (r *Region) Dirty() bool { return r.dirty }

// GetChunk returns the chunk at region-local coordinate (cx, cz),
// parsing and caching it on first access. A header slot of
// offset=0,sector_count=0 is ErrChunkUnallocated.
func (r *Region) GetChunk(cx, cz int32) (*Chunk, error) {
	idx := regionIndex(cx, cz)
	if c, ok := r.chunks[idx]; ok {
		return c, nil
	}

	loc := r.locations[idx]
	if loc.empty() {
		return nil, fmt.Errorf("region %s: chunk (%d,%d): %w", r.path, cx, cz, ErrChunkUnallocated)
	}

	if _, err := r.file.Seek(loc.byteOffset(), io.SeekStart); err != nil {
		return nil, fmt.Errorf("region %s: seek chunk (%d,%d): %w", r.path, cx, cz, err)
	}
	header := make([]byte, chunkHeaderSize)
	if _, err := io.ReadFull(r.file, header); err != nil {
		return nil, fmt.Errorf("region %s: read chunk (%d,%d) header: %w", r.path, cx, cz, err)
	}
	length := binary.BigEndian.Uint32(header[0:4])
	scheme := header[4]
	if length == 0 {
		return nil, fmt.Errorf("region %s: chunk (%d,%d): zero-length payload", r.path, cx, cz)
	}
	payload := make([]byte, length-1)
	if _, err := io.ReadFull(r.file, payload); err != nil {
		return nil, fmt.Errorf("region %s: read chunk (%d,%d) payload: %w", r.path, cx, cz, err)
	}

	chunk, err := DecompressAndLoad(payload, scheme, uint32(loc.byteLen()), r.markDirty)
	if err != nil {
		return nil, fmt.Errorf("region %s: chunk (%d,%d): %w", r.path, cx, cz, err)
	}
	r.chunks[idx] = chunk
	return chunk, nil
}

// Close releases this region's file handle without saving. Callers
// that want dirty changes persisted must call Save first — an abandoned
// Region's pending edits are lost by design.
func (r *Region) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	r.log.Info("region closed", "path", r.path)
	return err
}

// Save performs an incremental rewrite: only dirty chunks are
// recompressed, the post-header body is spliced in place (resizing
// where the new sector-aligned size differs from the old one), every
// later chunk's offset is shifted by the resulting byte delta, and the
// whole file is rewritten through a temp file and atomic rename.
func (r *Region) Save() error {
	if !r.dirty {
		return nil
	}

	body, err := r.readBody()
	if err != nil {
		return fmt.Errorf("region %s: save: %w", r.path, err)
	}

	now := uint32(time.Now().Unix())
	for idx, chunk := range r.chunks {
		if !chunk.Dirty() {
			continue
		}
		blob, scheme, err := chunk.Compress()
		if err != nil {
			return fmt.Errorf("region %s: save chunk %d: %w", r.path, idx, err)
		}

		dataLen := len(blob) + 1 // +1 for the compression-scheme byte
		totalLen := chunkHeaderSize + dataLen
		sectorLen := ceilToSector(totalLen)

		slot := make([]byte, sectorLen)
		binary.BigEndian.PutUint32(slot[0:4], uint32(dataLen))
		slot[4] = scheme
		copy(slot[chunkHeaderSize:], blob)
		// remaining bytes are already zero (Go zero-values new slices)

		old := r.locations[idx]
		if old.empty() {
			return fmt.Errorf("region %s: chunk %d: %w", r.path, idx, ErrChunkSlotUnallocated)
		}
		oldOffsetBytes := old.byteOffset()
		oldLenBytes := old.byteLen()
		delta := int64(sectorLen) - oldLenBytes

		bodyStart := oldOffsetBytes - headerSectors*SectorSize
		bodyEnd := bodyStart + oldLenBytes
		newBody := make([]byte, 0, len(body)+int(delta))
		newBody = append(newBody, body[:bodyStart]...)
		newBody = append(newBody, slot...)
		newBody = append(newBody, body[bodyEnd:]...)
		body = newBody

		r.locations[idx] = chunkLocation{
			offsetSectors: old.offsetSectors,
			sectorCount:   uint8(sectorLen / SectorSize),
		}
		for j, loc := range r.locations {
			if j == idx || loc.empty() {
				continue
			}
			if loc.byteOffset() > oldOffsetBytes {
				shifted := loc.byteOffset() + delta
				r.locations[j] = chunkLocation{
					offsetSectors: uint32(shifted / SectorSize),
					sectorCount:   loc.sectorCount,
				}
			}
		}
		r.timestamps[idx] = now
		chunk.markClean()
	}

	if err := r.rewriteFile(body); err != nil {
		return fmt.Errorf("region %s: save: %w", r.path, err)
	}
	r.dirty = false
	r.log.Info("region saved", "path", r.path)
	return nil
}

// readBody reads the entire post-header portion of the currently open
// file into memory, ready for in-place splicing.
func (r *Region) readBody() ([]byte, error) {
	info, err := r.file.Stat()
	if err != nil {
		return nil, err
	}
	n := info.Size() - headerSectors*SectorSize
	if n < 0 {
		n = 0
	}
	body := make([]byte, n)
	if n > 0 {
		if _, err := r.file.ReadAt(body, headerSectors*SectorSize); err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
	}
	return body, nil
}

// rewriteFile emits the full region file — header, timestamps, then
// body — to a temp file and atomically renames it into place via
// renameio, so a crash mid-write never corrupts the previous, valid
// `.mca` file.
func (r *Region) rewriteFile(body []byte) error {
	dir := filepath.Dir(r.path)
	f, err := renameio.TempFile(dir, r.path)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer f.Cleanup()

	header := make([]byte, headerSectors*SectorSize)
	for i, loc := range r.locations {
		binary.BigEndian.PutUint32(header[i*4:i*4+4], (loc.offsetSectors<<8)|uint32(loc.sectorCount))
		binary.BigEndian.PutUint32(header[SectorSize+i*4:SectorSize+i*4+4], r.timestamps[i])
	}
	if _, err := f.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := f.Write(body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if pad := padToSector(len(header) + len(body)); pad > 0 {
		if _, err := f.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("write trailing pad: %w", err)
		}
	}
	if err := f.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace region file: %w", err)
	}

	// Reopen so subsequent GetChunk/Save calls see the new file.
	if r.file != nil {
		r.file.Close()
	}
	newFile, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("reopen region after save: %w", err)
	}
	r.file = newFile
	return nil
}

func ceilToSector(n int) int {
	return ((n + SectorSize - 1) / SectorSize) * SectorSize
}

func padToSector(n int) int {
	return ceilToSector(n) - n
}

func logOrDefault(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.Default()
	}
	return log
}
