package volt

// EventSpawn is dispatched when an entity enters the world, after its
// archetype components are attached but before the post-spawn hook runs.
type EventSpawn struct {
	Entity *Entity
}

// EventDespawn is dispatched just before an entity is removed from the world.
type EventDespawn struct {
	Entity *Entity
}

// EventChargeChanged is dispatched by an EnergyStore whenever its charge,
// capacity, or status changes.
type EventChargeChanged struct {
	Entity   *Entity
	Charge   float64
	Capacity float64
	Status   ChargeStatus
}

// EventPowerToggled is dispatched when a device starts or stops discharging.
type EventPowerToggled struct {
	Entity *Entity
	On     bool
}

// EventStoreInserted is dispatched when a store is seated in a device slot.
type EventStoreInserted struct {
	Device *Entity
	Store  *Entity
}

// EventStoreEjected is dispatched when a store leaves a device slot.
type EventStoreEjected struct {
	Device *Entity
	Store  *Entity
}

// EventDepleted is dispatched on a device when its store can no longer
// cover a power draw and the device shuts off.
type EventDepleted struct {
	Entity *Entity
}

// EventGrindComplete is dispatched on a grinder when a grind cycle finishes.
type EventGrindComplete struct {
	Entity    *Entity
	Processed int
}
