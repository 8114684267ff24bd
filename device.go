package volt

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// wattHourScale converts watts and seconds into the store's milli-unit
// charge: energy = watts * 1000 * seconds / 3600.
const wattHourScale = 1000.0 / 3600.0

// DeviceConfig holds the static tuning of a powered device archetype.
type DeviceConfig struct {
	// WattageActive is the draw rate in watts while discharging.
	WattageActive float64

	// WattageStandby is the draw rate in watts while off. Usually 0.
	WattageStandby float64

	// Removable controls whether the store can be ejected without force.
	Removable bool

	// SlotSize is the size class the device slot accepts.
	SlotSize SizeClass
}

// PoweredDevice is a component that discharges an energy store over time.
// It holds zero or one store by a typed slot relation; the slot
// exclusively owns the store while inserted.
//
// State machine: Off and On (discharging). Start moves Off to On when
// the gate passes, Stop always moves to Off, and a failed draw during
// Update forces Off automatically.
type PoweredDevice struct {
	entity *Entity

	wattageActive  float64
	wattageStandby float64
	removable      bool
	slotSize       SizeClass

	discharging bool

	slot Relation[EnergyStore]
}

// NewPoweredDevice creates a device from its config. Negative wattages
// are clamped to 0.
func NewPoweredDevice(cfg DeviceConfig) *PoweredDevice {
	return &PoweredDevice{
		wattageActive:  max(cfg.WattageActive, 0),
		wattageStandby: max(cfg.WattageStandby, 0),
		removable:      cfg.Removable,
		slotSize:       cfg.SlotSize,
	}
}

// Attach implements Attachable.
func (d *PoweredDevice) Attach(e *Entity) {
	d.entity = e
}

// Entity returns the entity carrying this device, nil before attachment.
func (d *PoweredDevice) Entity() *Entity {
	return d.entity
}

// WattageActive returns the active draw rate in watts.
func (d *PoweredDevice) WattageActive() float64 {
	return d.wattageActive
}

// WattageStandby returns the standby draw rate in watts.
func (d *PoweredDevice) WattageStandby() float64 {
	return d.wattageStandby
}

// Removable reports whether the store can be ejected without force.
func (d *PoweredDevice) Removable() bool {
	return d.removable
}

// SlotSize returns the size class the device slot accepts.
func (d *PoweredDevice) SlotSize() SizeClass {
	return d.slotSize
}

// Discharging reports whether the device is on.
func (d *PoweredDevice) Discharging() bool {
	return d.discharging
}

// StoreEntity returns the entity seated in the slot, nil when empty.
func (d *PoweredDevice) StoreEntity() *Entity {
	return d.slot.Get()
}

// Store returns the seated store component, nil when the slot is empty
// or the occupant carries no EnergyStore.
func (d *PoweredDevice) Store() *EnergyStore {
	_, store, ok := Resolve(d.slot)
	if !ok {
		return nil
	}
	return store
}

// Insert seats a store entity in the slot. The entity must carry an
// EnergyStore whose size class matches the slot, the slot must be
// empty, and the store must not be seated in another device's slot.
func (d *PoweredDevice) Insert(store *Entity) error {
	comp := Get[EnergyStore](store)
	if comp == nil {
		return ErrNotAStore
	}
	if comp.Size() != d.slotSize {
		return fmt.Errorf("%w: %v store in %v slot", ErrSizeMismatch, comp.Size(), d.slotSize)
	}
	if d.slot.Get() != nil {
		return ErrSlotOccupied
	}
	if holder := comp.Holder(); holder != nil && holder != d.entity {
		return ErrAlreadyInstalled
	}

	d.slot.Set(store)
	comp.holder = d.entity

	if d.entity != nil {
		d.entity.Dispatch(EventStoreInserted{Device: d.entity, Store: store})
	}
	return nil
}

// Eject removes the store from the slot. It fails with ErrNoStore when
// the slot is empty and with ErrNotRemovable when the slot is fixed and
// force is false. The store is handed to the actor if one is supplied
// and accepts it, otherwise it is placed at the device's position.
// Charge is never mutated by ejection.
func (d *PoweredDevice) Eject(actor Actor, force bool) error {
	store := d.slot.Get()
	if store == nil {
		return ErrNoStore
	}
	if !d.removable && !force {
		return ErrNotRemovable
	}

	d.slot.Clear()
	if comp := Get[EnergyStore](store); comp != nil {
		comp.holder = nil
	}

	held := false
	if actor != nil {
		held = actor.Hold(store)
	}
	if !held && d.entity != nil {
		store.SetPosition(d.entity.Position())
	}

	if d.entity != nil {
		d.entity.Dispatch(EventStoreEjected{Device: d.entity, Store: store})
	}
	return nil
}

// Toggle flips the device: Stop when discharging, Start otherwise.
func (d *PoweredDevice) Toggle() bool {
	if d.discharging {
		return d.Stop()
	}
	return d.Start()
}

// Stop turns the device off. Idempotent; always returns true.
func (d *PoweredDevice) Stop() bool {
	if d.discharging {
		d.discharging = false
		if d.entity != nil {
			d.entity.Dispatch(EventPowerToggled{Entity: d.entity, On: false})
		}
	}
	return true
}

// Start turns the device on. Returns true immediately if already
// discharging. Fails without a seated store, and fails when the store
// cannot cover one full second of active draw (wattageActive >
// charge*1000). The one-second gate keeps the device from flapping at
// the threshold of depletion on frame-time-sized draws.
func (d *PoweredDevice) Start() bool {
	if d.discharging {
		return true
	}
	store := d.Store()
	if store == nil {
		return false
	}
	if d.wattageActive > store.Charge()*1000 {
		return false
	}
	d.discharging = true
	if d.entity != nil {
		d.entity.Dispatch(EventPowerToggled{Entity: d.entity, On: true})
	}
	return true
}

// Update draws one frame's worth of power from the store. No-op when
// the slot is empty or the applicable draw rate is zero. A draw the
// store cannot cover forces Stop and dispatches EventDepleted.
func (d *PoweredDevice) Update(dt float64) {
	if dt < 0 {
		return
	}
	store := d.Store()
	if store == nil {
		return
	}

	requiredPower := d.wattageStandby
	if d.discharging {
		requiredPower = d.wattageActive
	}
	if requiredPower == 0 {
		return
	}

	energy := requiredPower * wattHourScale * dt
	if !store.TryDraw(energy) {
		d.Stop()
		if d.entity != nil {
			d.entity.Dispatch(EventDepleted{Entity: d.entity})
		}
	}
}

// SeedStore fills an empty slot with a freshly spawned store of the
// archetype matching the slot size. No-op when the slot is occupied.
// Used as the post-spawn hook of device archetypes so every freshly
// placed device starts with a compatible store installed.
func (d *PoweredDevice) SeedStore(w *World) error {
	if d.slot.Get() != nil {
		return nil
	}

	archetypeID, err := w.catalog.StoreArchetype(d.slotSize)
	if err != nil {
		return err
	}

	var pos mgl64.Vec3
	if d.entity != nil {
		pos = d.entity.Position()
	}

	store, err := w.Spawn(archetypeID, pos)
	if err != nil {
		return err
	}
	if err := d.Insert(store); err != nil {
		// The device spawn is rolled back by the caller; the seeded
		// store must not be left behind in the world.
		w.Despawn(store)
		return err
	}
	return nil
}

// Snapshot captures the device's replicated state.
func (d *PoweredDevice) Snapshot() DeviceSnapshot {
	snap := DeviceSnapshot{
		SlotSize:    d.slotSize.String(),
		Discharging: d.discharging,
	}
	if d.entity != nil {
		snap.DeviceID = d.entity.ID().String()
	}
	if store := d.Store(); store != nil {
		charge := store.Charge()
		capacity := store.Capacity()
		snap.HasStore = true
		snap.CurrentCharge = &charge
		snap.MaxCharge = &capacity
	}
	return snap
}
