// Package block defines State, the voxel-level block state type shared
// by the anvil and world packages.
package block

import "sort"

// AirName is the canonical default block state's name.
const AirName = "minecraft:air"

// State identifies a placeable voxel kind: a registry name plus a set
// of string-valued properties (e.g. "facing"→"north"). Equality and
// hashing are by (Name, Props) pair.
type State struct {
	Name  string
	Props map[string]string
}

// NewState constructs a State with an independent copy of props.
func NewState(name string, props map[string]string) State {
	s := State{Name: name}
	if len(props) > 0 {
		s.Props = make(map[string]string, len(props))
		for k, v := range props {
			s.Props[k] = v
		}
	}
	return s
}

// Air returns the canonical default state: minecraft:air with no
// properties.
func Air() State { return State{Name: AirName} }

// Key returns a stable string encoding suitable for use as a map key or
// palette-deduplication key, e.g. `minecraft:oak_stairs{facing=north,half=bottom}`.
// Properties are sorted by key so two States with the same (Name, Props)
// always produce the same Key regardless of property insertion order.
func (s State) Key() string {
	if len(s.Props) == 0 {
		return s.Name
	}
	keys := make([]string, 0, len(s.Props))
	for k := range s.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := s.Name + "{"
	for i, k := range keys {
		if i > 0 {
			out += ","
		}
		out += k + "=" + s.Props[k]
	}
	return out + "}"
}

// Equal reports whether s and other have the same name and properties.
func (s State) Equal(other State) bool {
	if s.Name != other.Name || len(s.Props) != len(other.Props) {
		return false
	}
	for k, v := range s.Props {
		if other.Props[k] != v {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	return NewState(s.Name, s.Props)
}

// IsAir reports whether s is the canonical air state.
func (s State) IsAir() bool {
	return s.Name == AirName && len(s.Props) == 0
}
