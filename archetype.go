package volt

import "fmt"

// Archetype is a named spawn template. Components returns a fresh set
// of component pointers for each spawn; PostSpawn runs after the entity
// is registered and its spawn event dispatched.
type Archetype struct {
	ID         string
	Components func() []any
	PostSpawn  func(w *World, e *Entity) error
}

// Catalog resolves archetype IDs at spawn time and maps each size class
// to its store archetype.
type Catalog struct {
	archetypes  map[string]*Archetype
	storeBySize map[SizeClass]string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		archetypes:  make(map[string]*Archetype),
		storeBySize: make(map[SizeClass]string),
	}
}

// Register adds an archetype to the catalog, replacing any previous
// archetype with the same ID.
func (c *Catalog) Register(a *Archetype) *Catalog {
	c.archetypes[a.ID] = a
	return c
}

// RegisterStore adds a store archetype and records it as the spawn
// template for its size class.
func (c *Catalog) RegisterStore(size SizeClass, a *Archetype) *Catalog {
	c.Register(a)
	c.storeBySize[size] = a.ID
	return c
}

// Lookup resolves an archetype by ID.
func (c *Catalog) Lookup(id string) (*Archetype, bool) {
	a, ok := c.archetypes[id]
	return a, ok
}

// StoreArchetype resolves the store archetype ID for a size class.
// A size class with no registered store archetype is a configuration
// error: devices cannot seed their slots without one.
func (c *Catalog) StoreArchetype(size SizeClass) (string, error) {
	id, ok := c.storeBySize[size]
	if !ok {
		return "", fmt.Errorf("%w: no store archetype for %v", ErrUnknownSizeClass, size)
	}
	return id, nil
}

// storeArchetype builds a store template with a cell indicator.
func storeArchetype(id string, size SizeClass, capacity, charge float64) *Archetype {
	return &Archetype{
		ID: id,
		Components: func() []any {
			return []any{
				NewEnergyStore(size, capacity, charge),
				&CellIndicator{Level: indicatorLevel(charge, capacity)},
			}
		},
	}
}

// deviceArchetype builds a device template that seeds its slot on spawn.
func deviceArchetype(id string, cfg DeviceConfig) *Archetype {
	return &Archetype{
		ID: id,
		Components: func() []any {
			return []any{NewPoweredDevice(cfg)}
		},
		PostSpawn: func(w *World, e *Entity) error {
			return Get[PoweredDevice](e).SeedStore(w)
		},
	}
}

// DefaultCatalog returns the built-in archetype set: one power cell per
// size class, a handheld light, and a reagent grinder.
func DefaultCatalog() *Catalog {
	c := NewCatalog()

	c.RegisterStore(SizeSmall, storeArchetype("power_cell_small", SizeSmall, 100, 100))
	c.RegisterStore(SizeMedium, storeArchetype("power_cell_medium", SizeMedium, 400, 400))
	c.RegisterStore(SizeLarge, storeArchetype("power_cell_large", SizeLarge, 1600, 1600))

	c.Register(deviceArchetype("handheld_light", DeviceConfig{
		WattageActive: 10,
		Removable:     true,
		SlotSize:      SizeSmall,
	}))

	c.Register(&Archetype{
		ID: "reagent",
		Components: func() []any {
			return []any{&Reagent{Units: 1}}
		},
	})

	c.Register(&Archetype{
		ID: "reagent_grinder",
		Components: func() []any {
			return []any{
				NewPoweredDevice(DeviceConfig{
					WattageActive:  150,
					WattageStandby: 1,
					Removable:      true,
					SlotSize:       SizeMedium,
				}),
				NewGrinder(8),
			}
		},
		PostSpawn: func(w *World, e *Entity) error {
			return Get[PoweredDevice](e).SeedStore(w)
		},
	})

	return c
}
