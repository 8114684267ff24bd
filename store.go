package volt

import "fmt"

// SizeClass is a compatibility tag restricting which device slots accept
// a store.
type SizeClass int

const (
	SizeSmall SizeClass = iota
	SizeMedium
	SizeLarge
)

// String returns the string representation of the size class.
func (s SizeClass) String() string {
	switch s {
	case SizeSmall:
		return "small"
	case SizeMedium:
		return "medium"
	case SizeLarge:
		return "large"
	default:
		return fmt.Sprintf("SizeClass(%d)", int(s))
	}
}

// ParseSizeClass resolves a size class from its string form.
// Returns ErrUnknownSizeClass for anything else.
func ParseSizeClass(s string) (SizeClass, error) {
	switch s {
	case "small":
		return SizeSmall, nil
	case "medium":
		return SizeMedium, nil
	case "large":
		return SizeLarge, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSizeClass, s)
	}
}

// ChargeStatus is the coarse fill state of a store, recomputed on every
// charge or capacity change.
type ChargeStatus int

const (
	StatusEmpty ChargeStatus = iota
	StatusPartlyFull
	StatusFull
)

// String returns the string representation of the charge status.
func (s ChargeStatus) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusPartlyFull:
		return "partly_full"
	case StatusFull:
		return "full"
	default:
		return fmt.Sprintf("ChargeStatus(%d)", int(s))
	}
}

// EnergyStore is a component holding a bounded amount of charge.
// Charge is measured in milli-units of watt-hours, so one second of a
// 1-watt draw costs 1000/3600 units.
//
// Invariant: 0 <= charge <= capacity after every mutation; each mutator
// either fully applies or fully rejects.
//
// Concurrency:
// Mutators run within scheduler execution (loops, tasks, handlers) or
// before the world starts ticking. They are not safe for concurrent use
// from multiple goroutines; the scheduler serializes all system code.
type EnergyStore struct {
	entity *Entity

	size     SizeClass
	capacity float64
	charge   float64
	status   ChargeStatus

	// holder is the device entity whose slot currently owns this store.
	// A seated store cannot be inserted into a second slot.
	holder *Entity
}

// NewEnergyStore creates a store with the given size, capacity, and
// initial charge. Capacity is clamped to >= 0 and charge to
// [0, capacity].
func NewEnergyStore(size SizeClass, capacity, charge float64) *EnergyStore {
	s := &EnergyStore{size: size, capacity: capacity, charge: charge}
	s.clamp()
	s.status = s.computeStatus()
	return s
}

// Attach implements Attachable.
func (s *EnergyStore) Attach(e *Entity) {
	s.entity = e
}

// Entity returns the entity carrying this store, nil before attachment.
func (s *EnergyStore) Entity() *Entity {
	return s.entity
}

// Size returns the store's size class.
func (s *EnergyStore) Size() SizeClass {
	return s.size
}

// Capacity returns the maximum charge the store can hold.
func (s *EnergyStore) Capacity() float64 {
	return s.capacity
}

// Charge returns the current charge.
func (s *EnergyStore) Charge() float64 {
	return s.charge
}

// Status returns the current fill status.
func (s *EnergyStore) Status() ChargeStatus {
	return s.status
}

// Holder returns the device entity whose slot owns this store, or nil
// when the store is loose. A holder that has despawned counts as loose.
func (s *EnergyStore) Holder() *Entity {
	if s.holder == nil || s.holder.Closed() {
		return nil
	}
	return s.holder
}

// Ratio returns charge/capacity, or 0 for a zero-capacity store.
func (s *EnergyStore) Ratio() float64 {
	if s.capacity <= 0 {
		return 0
	}
	return s.charge / s.capacity
}

// TryDraw subtracts amount if amount < charge and returns true;
// otherwise it returns false and leaves the charge unchanged. The
// comparison is deliberately strict: a draw exactly equal to the
// remaining charge fails. Devices rely on that boundary to shut off
// one tick before the store bottoms out.
func (s *EnergyStore) TryDraw(amount float64) bool {
	if amount < 0 {
		return false
	}
	if amount >= s.charge {
		return false
	}
	s.charge -= amount
	s.settle()
	return true
}

// Draw subtracts min(charge, amount) and returns the amount actually
// subtracted. Never fails.
func (s *EnergyStore) Draw(amount float64) float64 {
	if amount < 0 {
		return 0
	}
	actual := min(amount, s.charge)
	s.charge -= actual
	s.settle()
	return actual
}

// TryAdd adds amount only if the result stays within capacity;
// otherwise it is a no-op returning false.
func (s *EnergyStore) TryAdd(amount float64) bool {
	if amount < 0 {
		return false
	}
	if s.charge+amount > s.capacity {
		return false
	}
	s.charge += amount
	s.settle()
	return true
}

// Add adds min(amount, capacity-charge) and returns the delta actually
// added.
func (s *EnergyStore) Add(amount float64) float64 {
	if amount < 0 {
		return 0
	}
	actual := min(amount, s.capacity-s.charge)
	s.charge += actual
	s.settle()
	return actual
}

// FillFrom transfers up to this store's empty capacity from other,
// preferring a partial transfer: if other cannot supply the full
// deficit, everything it has is taken. Returns the amount moved.
func (s *EnergyStore) FillFrom(other *EnergyStore) float64 {
	if other == nil || other == s {
		return 0
	}
	deficit := s.capacity - s.charge
	if deficit <= 0 {
		return 0
	}
	moved := other.Draw(deficit)
	if moved > 0 {
		s.charge += moved
		s.settle()
	}
	return moved
}

// SetMaxCapacity sets a new capacity, clamped to >= 0. If the new
// capacity is below the current charge, the charge is clamped down.
func (s *EnergyStore) SetMaxCapacity(v float64) {
	s.capacity = max(v, 0)
	s.clamp()
	s.settle()
}

// SetCurrentCharge sets the charge, clamped to [0, capacity].
func (s *EnergyStore) SetCurrentCharge(v float64) {
	s.charge = v
	s.clamp()
	s.settle()
}

func (s *EnergyStore) clamp() {
	if s.capacity < 0 {
		s.capacity = 0
	}
	if s.charge < 0 {
		s.charge = 0
	}
	if s.charge > s.capacity {
		s.charge = s.capacity
	}
}

func (s *EnergyStore) computeStatus() ChargeStatus {
	switch {
	case s.charge == 0:
		return StatusEmpty
	case s.charge == s.capacity:
		return StatusFull
	default:
		return StatusPartlyFull
	}
}

// settle recomputes the status and notifies observers. Every mutator
// ends here so indicators and replication stay in step with the charge.
func (s *EnergyStore) settle() {
	s.status = s.computeStatus()
	if s.entity != nil {
		s.entity.Dispatch(EventChargeChanged{
			Entity:   s.entity,
			Charge:   s.charge,
			Capacity: s.capacity,
			Status:   s.status,
		})
	}
}
