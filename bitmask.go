package volt

import (
	"math/bits"
)

// Mask is a 128-bit bitmask used for tracking component presence.
// It supports up to 128 unique component types, which is ample for a
// gameplay layer of this size.
type Mask [2]uint64

// Set sets the bit at the given index.
func (m *Mask) Set(id ComponentID) {
	m[id/64] |= 1 << (id % 64)
}

// Clear clears the bit at the given index.
func (m *Mask) Clear(id ComponentID) {
	m[id/64] &^= 1 << (id % 64)
}

// Has returns true if the bit at the given index is set.
func (m *Mask) Has(id ComponentID) bool {
	return m[id/64]&(1<<(id%64)) != 0
}

// ContainsAll returns true if all bits set in other are also set in m.
// This is used to check if all required components are present.
func (m *Mask) ContainsAll(other Mask) bool {
	return (m[0]&other[0] == other[0]) &&
		(m[1]&other[1] == other[1])
}

// ContainsAny returns true if any bit set in other is also set in m.
// This is used to check if any excluded components are present.
func (m *Mask) ContainsAny(other Mask) bool {
	return (m[0]&other[0] != 0) ||
		(m[1]&other[1] != 0)
}

// IsZero returns true if no bits are set.
func (m *Mask) IsZero() bool {
	return m[0] == 0 && m[1] == 0
}

// Count returns the number of bits set.
func (m *Mask) Count() int {
	return bits.OnesCount64(m[0]) + bits.OnesCount64(m[1])
}

// Equals returns true if both masks are identical.
func (m *Mask) Equals(other Mask) bool {
	return m[0] == other[0] && m[1] == other[1]
}
