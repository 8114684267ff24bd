package volt

import "testing"

func TestMaskSetClearHas(t *testing.T) {
	var m Mask

	for _, id := range []ComponentID{0, 3, 63, 64, 70, 127} {
		if m.Has(id) {
			t.Errorf("fresh mask has bit %d set", id)
		}
		m.Set(id)
		if !m.Has(id) {
			t.Errorf("bit %d not set after Set", id)
		}
	}
	if m.Count() != 6 {
		t.Errorf("count = %d, want 6", m.Count())
	}

	m.Clear(64)
	if m.Has(64) {
		t.Error("bit 64 still set after Clear")
	}
	if !m.Has(63) || !m.Has(70) {
		t.Error("Clear disturbed neighbouring bits across the word boundary")
	}
}

func TestMaskContainsAll(t *testing.T) {
	var m, required Mask
	m.Set(3)
	m.Set(70)
	required.Set(3)
	required.Set(70)

	if !m.ContainsAll(required) {
		t.Error("mask should contain its own bits")
	}

	required.Set(127)
	if m.ContainsAll(required) {
		t.Error("mask should not contain a bit it lacks")
	}

	var empty Mask
	if !m.ContainsAll(empty) {
		t.Error("every mask contains the empty mask")
	}
}

func TestMaskContainsAny(t *testing.T) {
	var m, excluded Mask
	m.Set(3)
	m.Set(70)

	excluded.Set(127)
	if m.ContainsAny(excluded) {
		t.Error("no overlap expected")
	}

	excluded.Set(70)
	if !m.ContainsAny(excluded) {
		t.Error("overlap in the high word not detected")
	}
}

func TestMaskZeroAndEquals(t *testing.T) {
	var a, b Mask
	if !a.IsZero() {
		t.Error("fresh mask is not zero")
	}

	a.Set(65)
	if a.IsZero() {
		t.Error("mask with a high-word bit reports zero")
	}
	if a.Equals(b) {
		t.Error("masks with different bits compare equal")
	}

	b.Set(65)
	if !a.Equals(b) {
		t.Error("identical masks compare unequal")
	}
}
