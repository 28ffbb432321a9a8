package nbt

import "errors"

// Parse failures. These abort the current chunk/section read and
// surface to the caller without corrupting already-loaded state.
var (
	ErrTruncated     = errors.New("nbt: truncated input")
	ErrUnknownTagType = errors.New("nbt: unknown tag type")
	ErrInvalidUTF8   = errors.New("nbt: invalid utf-8 in string payload")
)
