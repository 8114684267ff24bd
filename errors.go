package volt

import "errors"

// Sentinel errors returned by store and device operations. Callers match
// them with errors.Is; wrapped forms carry the failing entity or archetype.
var (
	// ErrNoStore is returned when a device operation requires a seated
	// store and the slot is empty.
	ErrNoStore = errors.New("volt: no store in slot")

	// ErrInsufficientCharge is returned when a draw cannot be covered in
	// full by the store's current charge.
	ErrInsufficientCharge = errors.New("volt: insufficient charge")

	// ErrCapacityExceeded is returned when an addition would overflow the
	// store's capacity or a chamber's slot count.
	ErrCapacityExceeded = errors.New("volt: capacity exceeded")

	// ErrNotRemovable is returned when ejecting a store from a device
	// whose slot is fixed.
	ErrNotRemovable = errors.New("volt: store is not removable")

	// ErrSlotOccupied is returned when inserting into a slot that already
	// holds a store.
	ErrSlotOccupied = errors.New("volt: slot already occupied")

	// ErrAlreadyInstalled is returned when inserting a store that is
	// seated in another device's slot. A slot owns its store exclusively;
	// the store must be ejected before it can be seated elsewhere.
	ErrAlreadyInstalled = errors.New("volt: store already installed in another slot")

	// ErrSizeMismatch is returned when a store's size class does not fit
	// the device slot.
	ErrSizeMismatch = errors.New("volt: store size does not fit slot")

	// ErrNotAStore is returned when the entity offered to a slot carries
	// no EnergyStore component.
	ErrNotAStore = errors.New("volt: entity is not an energy store")

	// ErrUnknownSizeClass is returned when a size class has no registered
	// store archetype. Spawning a device that seeds its slot fails with
	// this error.
	ErrUnknownSizeClass = errors.New("volt: unknown size class")

	// ErrNotInteractable is returned when an actor cannot reach or use
	// the target entity.
	ErrNotInteractable = errors.New("volt: entity not interactable")

	// ErrBusy is returned when starting a cycle on a machine that is
	// already running one.
	ErrBusy = errors.New("volt: machine is busy")
)
