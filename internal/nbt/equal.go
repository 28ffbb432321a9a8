package nbt

import "bytes"

// Equal reports whether t and other are structurally equal: same type,
// name, payload, and (for LIST/COMPOUND) the same children in the same
// order. It exists so test assertions (and github.com/google/go-cmp,
// which calls an Equal method when one is present) can compare trees
// without reaching into unexported fields.
func (t *Tag) Equal(other *Tag) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Type != other.Type || t.Name != other.Name {
		return false
	}
	switch t.Type {
	case TagByte:
		return t.byteVal == other.byteVal
	case TagShort:
		return t.shortVal == other.shortVal
	case TagInt:
		return t.intVal == other.intVal
	case TagLong:
		return t.longVal == other.longVal
	case TagFloat:
		return t.floatVal == other.floatVal
	case TagDouble:
		return t.doubleVal == other.doubleVal
	case TagByteArray:
		return bytes.Equal(t.bytesVal, other.bytesVal)
	case TagString:
		return t.stringVal == other.stringVal
	case TagIntArray:
		return int32SliceEqual(t.intArr, other.intArr)
	case TagLongArray:
		return int64SliceEqual(t.longArr, other.longArr)
	case TagList:
		if t.listElem != other.listElem || len(t.list) != len(other.list) {
			return false
		}
		for i := range t.list {
			if !t.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case TagCompound:
		if len(t.compound) != len(other.compound) {
			return false
		}
		for i := range t.compound {
			if !t.compound[i].Equal(other.compound[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func int32SliceEqual(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func int64SliceEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
