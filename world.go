package volt

import (
	"fmt"
	"reflect"
	"sync"
	"time"
	"unsafe"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// World is the central volt coordinator.
// It owns entities, bundles, and the scheduler. Multiple World instances
// can coexist in the same process for running isolated simulations.
type World struct {
	// registry holds component type registrations for this world
	registry *componentRegistry

	// catalog resolves archetype IDs at spawn time
	catalog *Catalog

	// bundles holds all registered bundles
	bundles []*Bundle

	// handlers holds all registered handler metadata
	handlers []*handlerMeta

	// injections holds global injections
	injections   map[reflect.Type]unsafe.Pointer
	injectionsMu sync.RWMutex

	// entities holds all live entities
	entities   map[uuid.UUID]*Entity
	entitiesMu sync.RWMutex

	// taskQueue holds scheduled tasks
	taskQueue *taskQueue

	// scheduler manages loop and task execution
	scheduler *Scheduler
}

// newWorld creates a new world.
func newWorld(tickRate time.Duration) *World {
	w := &World{
		registry:   newComponentRegistry(),
		injections: make(map[reflect.Type]unsafe.Pointer),
		entities:   make(map[uuid.UUID]*Entity),
		taskQueue:  newTaskQueue(),
	}
	w.scheduler = newScheduler(w, tickRate)
	return w
}

// addInjection registers a global injection.
func (w *World) addInjection(inj any) {
	t := reflect.TypeOf(inj)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	w.injectionsMu.Lock()
	w.injections[t] = unsafe.Pointer(reflect.ValueOf(inj).Pointer())
	w.injectionsMu.Unlock()
}

// getInjection retrieves a global injection by type.
func (w *World) getInjection(t reflect.Type) unsafe.Pointer {
	w.injectionsMu.RLock()
	defer w.injectionsMu.RUnlock()

	if ptr, ok := w.injections[t]; ok {
		return ptr
	}
	return nil
}

// Injection retrieves a global injection from the world.
// Returns nil if the injection is not found.
func Injection[T any](w *World) *T {
	if w == nil {
		return nil
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	ptr := w.getInjection(t)
	if ptr == nil {
		return nil
	}
	return (*T)(ptr)
}

// Catalog returns the archetype catalog the world spawns from.
func (w *World) Catalog() *Catalog {
	return w.catalog
}

// Spawn creates an entity from the named archetype at the given position.
// The archetype's components are attached, EventSpawn is dispatched, and
// the archetype's post-spawn hook runs (a powered device, for example,
// seeds its slot with a matching store on first spawn).
func (w *World) Spawn(archetypeID string, pos mgl64.Vec3) (*Entity, error) {
	a, ok := w.catalog.Lookup(archetypeID)
	if !ok {
		return nil, fmt.Errorf("volt: spawn: unknown archetype %q", archetypeID)
	}

	e := &Entity{
		id:        uuid.New(),
		archetype: archetypeID,
		world:     w,
		pos:       pos,
	}

	for _, comp := range a.Components() {
		if err := w.attachAny(e, comp); err != nil {
			return nil, fmt.Errorf("volt: spawn %q: %w", archetypeID, err)
		}
	}

	w.entitiesMu.Lock()
	w.entities[e.id] = e
	w.entitiesMu.Unlock()

	e.Dispatch(EventSpawn{Entity: e})

	if a.PostSpawn != nil {
		if err := a.PostSpawn(w, e); err != nil {
			w.remove(e)
			e.close()
			return nil, fmt.Errorf("volt: spawn %q: %w", archetypeID, err)
		}
	}

	return e, nil
}

// attachAny attaches a component of any pointer type using reflection.
// Archetype component lists are heterogeneous, so the generic Add cannot
// be used here.
func (w *World) attachAny(e *Entity, component any) error {
	val := reflect.ValueOf(component)
	if !val.IsValid() || val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("component must be a non-nil pointer, got %T", component)
	}
	t := val.Type().Elem()
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("component must point to a struct, got %T", component)
	}

	id := w.registry.register(t)

	e.mu.Lock()
	e.components[id] = val.UnsafePointer()
	e.mask.Set(id)
	e.mu.Unlock()

	if attachable, ok := component.(Attachable); ok {
		attachable.Attach(e)
	}
	return nil
}

// Despawn removes the entity from the world, cancels its pending tasks,
// runs component Detach hooks, and clears relations pointing at it.
func (w *World) Despawn(e *Entity) {
	if e == nil || e.closed.Load() {
		return
	}

	e.Dispatch(EventDespawn{Entity: e})

	w.remove(e)
	e.close()

	// Clear relations pointing to this entity
	w.entitiesMu.RLock()
	others := make([]*Entity, 0, len(w.entities))
	for _, other := range w.entities {
		others = append(others, other)
	}
	w.entitiesMu.RUnlock()

	for _, other := range others {
		other.clearRelationsTo(e)
	}
}

// remove unregisters an entity from the world.
func (w *World) remove(e *Entity) {
	w.entitiesMu.Lock()
	delete(w.entities, e.id)
	w.entitiesMu.Unlock()
}

// Entity retrieves an entity by UUID. Returns nil if not found.
func (w *World) Entity(id uuid.UUID) *Entity {
	w.entitiesMu.RLock()
	defer w.entitiesMu.RUnlock()
	return w.entities[id]
}

// All returns a slice of all live entities.
func (w *World) All() []*Entity {
	w.entitiesMu.RLock()
	defer w.entitiesMu.RUnlock()

	entities := make([]*Entity, 0, len(w.entities))
	for _, e := range w.entities {
		if !e.closed.Load() {
			entities = append(entities, e)
		}
	}
	return entities
}

// Count returns the number of live entities.
func (w *World) Count() int {
	w.entitiesMu.RLock()
	defer w.entitiesMu.RUnlock()
	return len(w.entities)
}

// Each calls fn for every live entity that carries a component of type T.
// Iteration order across entities is unspecified.
func Each[T any](w *World, fn func(e *Entity, comp *T)) {
	for _, e := range w.All() {
		if comp := Get[T](e); comp != nil {
			fn(e, comp)
		}
	}
}

// Broadcast dispatches an event to every live entity's handlers.
func (w *World) Broadcast(event any) {
	for _, e := range w.All() {
		e.Dispatch(event)
	}
}

// getTaskMeta retrieves task metadata from any bundle.
func (w *World) getTaskMeta(t reflect.Type) *SystemMeta {
	for _, b := range w.bundles {
		if meta := b.getTaskMeta(t); meta != nil {
			return meta
		}
	}
	return nil
}

// build initializes all bundles and systems.
func (w *World) build() error {
	for _, b := range w.bundles {
		if err := b.build(w.registry); err != nil {
			return err
		}

		for i, reg := range b.handlers {
			if err := w.registerHandler(reg.handler, b); err != nil {
				return err
			}
			if i < len(b.handlerMeta) {
				b.handlerMeta[i] = w.handlers[len(w.handlers)-1].meta
			}
		}

		for i, reg := range b.loops {
			if i < len(b.loopMeta) {
				w.scheduler.addLoop(b.loopMeta[i], b, reg.interval, reg.stage, reg.global)
			}
		}
	}

	return nil
}

// Start begins the scheduler's tick loop. For worlds built with
// TickRate(0) this is a no-op; drive them with Advance instead.
func (w *World) Start() {
	w.scheduler.Start()
}

// Advance runs one synthetic tick with the given elapsed time. It is the
// host-driven alternative to Start for embedding volt in an engine that
// owns the frame loop; dt must be >= 0. Advance must not be mixed with a
// running scheduler.
func (w *World) Advance(dt time.Duration) {
	w.scheduler.Advance(dt)
}

// TickNumber returns the current scheduler tick number.
func (w *World) TickNumber() uint64 {
	if w.scheduler == nil {
		return 0
	}
	return w.scheduler.tickNumber.Load()
}

// Shutdown gracefully stops the scheduler and despawns all entities.
func (w *World) Shutdown() {
	w.scheduler.Stop()

	w.entitiesMu.Lock()
	entities := make([]*Entity, 0, len(w.entities))
	for _, e := range w.entities {
		entities = append(entities, e)
	}
	w.entities = make(map[uuid.UUID]*Entity)
	w.entitiesMu.Unlock()

	for _, e := range entities {
		e.close()
	}
}
