package nbt

import "strconv"

// scalarString renders a tag's scalar payload as a string, used by
// ToDict. Non-scalar tags (LIST, COMPOUND, arrays) render as their type
// name rather than panicking, since ToDict is a best-effort convenience.
func scalarString(t *Tag) string {
	switch t.Type {
	case TagByte:
		return strconv.FormatInt(int64(t.byteVal), 10)
	case TagShort:
		return strconv.FormatInt(int64(t.shortVal), 10)
	case TagInt:
		return strconv.FormatInt(int64(t.intVal), 10)
	case TagLong:
		return strconv.FormatInt(t.longVal, 10)
	case TagFloat:
		return strconv.FormatFloat(float64(t.floatVal), 'g', -1, 32)
	case TagDouble:
		return strconv.FormatFloat(t.doubleVal, 'g', -1, 64)
	case TagString:
		return t.stringVal
	default:
		return t.Type.String()
	}
}
