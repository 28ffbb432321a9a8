package nbt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
)

// Unmarshal is a convenience that parses a root tag out of data.
func Unmarshal(data []byte) (*Tag, error) {
	return NewReader(bytes.NewReader(data)).ReadRoot()
}

// Reader parses NBT binary data from an io.Reader in big-endian format.
type Reader struct {
	r io.Reader
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadRoot parses a single named tag from the stream — conventionally a
// root COMPOUND — and returns it. Truncated input, an unrecognized tag
// type, or a STRING payload that is not valid UTF-8 all return a
// wrapped sentinel error (ErrTruncated / ErrUnknownTagType /
// ErrInvalidUTF8).
func (r *Reader) ReadRoot() (*Tag, error) {
	typ, err := r.getByte()
	if err != nil {
		return nil, fmt.Errorf("read root tag type: %w", err)
	}
	t := Type(typ)
	if t == TagEnd {
		return &Tag{Type: TagEnd}, nil
	}
	name, err := r.getString()
	if err != nil {
		return nil, fmt.Errorf("read root tag name: %w", err)
	}
	return r.readPayload(t, name)
}

func (r *Reader) fill(buf []byte) error {
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return nil
}

func (r *Reader) getByte() (byte, error) {
	var buf [1]byte
	if err := r.fill(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (r *Reader) getUint16() (uint16, error) {
	var buf [2]byte
	if err := r.fill(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func (r *Reader) getInt32() (int32, error) {
	var buf [4]byte
	if err := r.fill(buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

func (r *Reader) getInt64() (int64, error) {
	var buf [8]byte
	if err := r.fill(buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

func (r *Reader) getString() (string, error) {
	n, err := r.getUint16()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if err := r.fill(buf); err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", ErrInvalidUTF8
	}
	return string(buf), nil
}

func (r *Reader) readPayload(t Type, name string) (*Tag, error) {
	switch t {
	case TagByte:
		v, err := r.getByte()
		if err != nil {
			return nil, err
		}
		return Byte(name, int8(v)), nil

	case TagShort:
		v, err := r.getUint16()
		if err != nil {
			return nil, err
		}
		return Short(name, int16(v)), nil

	case TagInt:
		v, err := r.getInt32()
		if err != nil {
			return nil, err
		}
		return Int(name, v), nil

	case TagLong:
		v, err := r.getInt64()
		if err != nil {
			return nil, err
		}
		return Long(name, v), nil

	case TagFloat:
		v, err := r.getInt32()
		if err != nil {
			return nil, err
		}
		return Float(name, int32ToFloat32(v)), nil

	case TagDouble:
		v, err := r.getInt64()
		if err != nil {
			return nil, err
		}
		return Double(name, int64ToFloat64(v)), nil

	case TagByteArray:
		n, err := r.getInt32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: negative byte array length", ErrTruncated)
		}
		buf := make([]byte, n)
		if err := r.fill(buf); err != nil {
			return nil, err
		}
		return ByteArray(name, buf), nil

	case TagString:
		s, err := r.getString()
		if err != nil {
			return nil, err
		}
		return String(name, s), nil

	case TagList:
		elemByte, err := r.getByte()
		if err != nil {
			return nil, err
		}
		elemType := Type(elemByte)
		if elemType > TagLongArray {
			return nil, fmt.Errorf("%w: list element type %d", ErrUnknownTagType, elemByte)
		}
		n, err := r.getInt32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: negative list length", ErrTruncated)
		}
		list := List(name, elemType)
		for i := int32(0); i < n; i++ {
			child, err := r.readPayload(elemType, "")
			if err != nil {
				return nil, err
			}
			list.AddChild(child)
		}
		list.listElem = elemType // preserve declared type even for a zero-length list
		return list, nil

	case TagCompound:
		c := Compound(name)
		for {
			childType, err := r.getByte()
			if err != nil {
				return nil, err
			}
			if Type(childType) == TagEnd {
				break
			}
			if Type(childType) > TagLongArray {
				return nil, fmt.Errorf("%w: %d", ErrUnknownTagType, childType)
			}
			childName, err := r.getString()
			if err != nil {
				return nil, err
			}
			child, err := r.readPayload(Type(childType), childName)
			if err != nil {
				return nil, err
			}
			c.Add(child)
		}
		return c, nil

	case TagIntArray:
		n, err := r.getInt32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: negative int array length", ErrTruncated)
		}
		arr := make([]int32, n)
		for i := range arr {
			v, err := r.getInt32()
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return IntArray(name, arr), nil

	case TagLongArray:
		n, err := r.getInt32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: negative long array length", ErrTruncated)
		}
		arr := make([]int64, n)
		for i := range arr {
			v, err := r.getInt64()
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return LongArray(name, arr), nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownTagType, t)
	}
}
