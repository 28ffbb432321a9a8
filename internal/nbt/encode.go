package nbt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Writer serializes a Tag tree to an io.Writer in big-endian format.
// Write methods accumulate the first error encountered; check Err()
// after a WriteRoot call.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first error encountered during writing.
func (w *Writer) Err() error { return w.err }

func (w *Writer) write(data []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(data)
}

func (w *Writer) putByte(v byte) { w.write([]byte{v}) }

func (w *Writer) putUint16(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	w.write(buf[:])
}

func (w *Writer) putInt32(v int32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	w.write(buf[:])
}

func (w *Writer) putInt64(v int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	w.write(buf[:])
}

func (w *Writer) putString(s string) {
	w.putUint16(uint16(len(s)))
	if len(s) > 0 {
		w.write([]byte(s))
	}
}

func (w *Writer) writeTagHeader(t Type, name string) {
	w.putByte(byte(t))
	w.putString(name)
}

// WriteRoot serializes tag as a named root tag (conventionally a
// COMPOUND) and returns the first write error, if any.
func (w *Writer) WriteRoot(tag *Tag) error {
	w.writeTagHeader(tag.Type, tag.Name)
	w.writePayload(tag)
	return w.err
}

func (w *Writer) writePayload(t *Tag) {
	if w.err != nil {
		return
	}
	switch t.Type {
	case TagEnd:
		// no payload

	case TagByte:
		w.putByte(byte(t.byteVal))

	case TagShort:
		w.putUint16(uint16(t.shortVal))

	case TagInt:
		w.putInt32(t.intVal)

	case TagLong:
		w.putInt64(t.longVal)

	case TagFloat:
		w.putInt32(float32ToInt32(t.floatVal))

	case TagDouble:
		w.putInt64(float64ToInt64(t.doubleVal))

	case TagByteArray:
		w.putInt32(int32(len(t.bytesVal)))
		w.write(t.bytesVal)

	case TagString:
		w.putString(t.stringVal)

	case TagList:
		w.putByte(byte(t.listElem))
		w.putInt32(int32(len(t.list)))
		for _, child := range t.list {
			w.writePayload(child)
		}

	case TagCompound:
		for _, child := range t.compound {
			w.writeTagHeader(child.Type, child.Name)
			w.writePayload(child)
		}
		w.putByte(byte(TagEnd))

	case TagIntArray:
		w.putInt32(int32(len(t.intArr)))
		for _, v := range t.intArr {
			w.putInt32(v)
		}

	case TagLongArray:
		w.putInt32(int32(len(t.longArr)))
		for _, v := range t.longArr {
			w.putInt64(v)
		}

	default:
		w.err = fmt.Errorf("%w: %d", ErrUnknownTagType, t.Type)
	}
}

// Marshal is a convenience that serializes tag into a freshly allocated
// byte slice.
func Marshal(tag *Tag) ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteRoot(tag); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
