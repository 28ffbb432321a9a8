package anvil

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/pgzip"

	"github.com/OCharnyshevich/anvilworld/internal/nbt"
)

// Compression scheme tags, as stored in a chunk payload's 5-byte header.
const (
	CompressionGZip = 1
	CompressionZlib = 2
)

// ErrUnsupportedCompression is returned for a compression scheme byte
// this engine cannot decode.
var ErrUnsupportedCompression = errors.New("anvil: unsupported compression scheme")

// Compress serializes c and zlib-compresses the result — the payload
// that becomes a chunk's on-disk sector content. This engine only ever
// produces scheme 2 (zlib); see Decompress for the accepted read-side
// schemes.
func (c *Chunk) Compress() (data []byte, scheme byte, err error) {
	root, err := c.Serialize()
	if err != nil {
		return nil, 0, err
	}
	raw, err := nbt.Marshal(root)
	if err != nil {
		return nil, 0, fmt.Errorf("chunk (%d,%d): marshal nbt: %w", c.CX, c.CZ, err)
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, 0, fmt.Errorf("chunk (%d,%d): zlib compress: %w", c.CX, c.CZ, err)
	}
	if err := zw.Close(); err != nil {
		return nil, 0, fmt.Errorf("chunk (%d,%d): close zlib writer: %w", c.CX, c.CZ, err)
	}
	return buf.Bytes(), CompressionZlib, nil
}

// DecompressAndLoad decompresses a chunk payload under the given
// scheme, parses the resulting NBT document, and builds a Chunk. Scheme
// 2 (zlib) is the only one this engine ever writes; scheme 1 (gzip) is
// additionally accepted on read via klauspost/pgzip, since older saves
// occasionally carry it. Any other scheme byte fails with
// ErrUnsupportedCompression.
func DecompressAndLoad(payload []byte, scheme byte, origDiskLen uint32, onDirty func()) (*Chunk, error) {
	var r io.Reader
	switch scheme {
	case CompressionZlib:
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("zlib decompress: %w", err)
		}
		defer zr.Close()
		r = zr
	case CompressionGZip:
		gr, err := pgzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("gzip decompress: %w", err)
		}
		defer gr.Close()
		r = gr
	default:
		return nil, fmt.Errorf("%w: scheme %d", ErrUnsupportedCompression, scheme)
	}

	root, err := nbt.NewReader(r).ReadRoot()
	if err != nil {
		return nil, fmt.Errorf("parse chunk nbt: %w", err)
	}
	return LoadChunk(root, origDiskLen, onDirty)
}
