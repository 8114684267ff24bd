package volt

import (
	"time"
)

// DefaultTickRate is the scheduler interval used when TickRate is not set.
const DefaultTickRate = 50 * time.Millisecond

// Builder configures volt before initialization.
// Use NewBuilder() to create a builder and chain configuration methods.
type Builder struct {
	bundles    []func(*World) *Bundle
	injections []any
	catalog    *Catalog
	tickRate   time.Duration
	tickSet    bool
}

// NewBuilder creates a new volt builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Bundle adds a bundle to the builder.
func (b *Builder) Bundle(callback func(*World) *Bundle) *Builder {
	b.bundles = append(b.bundles, callback)
	return b
}

// Injection adds a global injection available to all systems via the
// volt:"inj" tag. Must be a pointer.
func (b *Builder) Injection(inj any) *Builder {
	b.injections = append(b.injections, inj)
	return b
}

// Catalog sets the archetype catalog the world spawns entities from.
// When unset, DefaultCatalog is used.
func (b *Builder) Catalog(c *Catalog) *Builder {
	b.catalog = c
	return b
}

// TickRate sets the scheduler tick interval. A rate of 0 disables the
// internal ticker entirely; the host engine then drives the world with
// World.Advance.
func (b *Builder) TickRate(rate time.Duration) *Builder {
	b.tickRate = rate
	b.tickSet = true
	return b
}

// Init initializes volt with the configured settings.
// Returns the World instance which should be stored and used to spawn
// entities. Multiple World instances can coexist for running multiple
// isolated simulations.
func (b *Builder) Init() *World {
	rate := DefaultTickRate
	if b.tickSet {
		rate = b.tickRate
	}

	w := newWorld(rate)

	w.catalog = b.catalog
	if w.catalog == nil {
		w.catalog = DefaultCatalog()
	}

	var hooks []func(*World)

	// Add bundles
	for _, f := range b.bundles {
		bund := f(w)
		w.bundles = append(w.bundles, bund)
		hooks = append(hooks, bund.postInitHooks...)
	}

	// Add global injections
	for _, inj := range b.injections {
		w.addInjection(inj)
	}

	// Build all systems
	if err := w.build(); err != nil {
		panic("volt: failed to build systems: " + err.Error())
	}

	// Start the scheduler
	w.Start()

	for _, hook := range hooks {
		hook(w)
	}

	return w
}
