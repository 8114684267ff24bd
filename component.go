package volt

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// ComponentID is a unique identifier for a component type.
// Valid IDs range from 0 to 127.
type ComponentID uint8

// MaxComponents is the maximum number of component types supported.
const MaxComponents = 128

// componentRegistry manages component type registration for a single world.
// IDs are assigned sequentially on first use. Registries are per-world so
// that multiple isolated worlds can coexist in one process without sharing
// type tables.
type componentRegistry struct {
	mu    sync.RWMutex
	types map[reflect.Type]ComponentID
	names [MaxComponents]string
	tlist [MaxComponents]reflect.Type
	next  ComponentID
}

func newComponentRegistry() *componentRegistry {
	return &componentRegistry{
		types: make(map[reflect.Type]ComponentID),
	}
}

// register registers a component type and returns its ID.
// Called automatically when components are first used.
func (r *componentRegistry) register(t reflect.Type) ComponentID {
	r.mu.RLock()
	id, ok := r.types[t]
	r.mu.RUnlock()
	if ok {
		return id
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.types[t]; ok {
		return id
	}
	if int(r.next) >= MaxComponents {
		panic(fmt.Sprintf("volt: component limit exceeded (max %d types)", MaxComponents))
	}
	id = r.next
	r.next++
	r.types[t] = id
	r.names[id] = t.Name()
	r.tlist[id] = t
	return id
}

// idOf returns the ID for a registered component type.
func (r *componentRegistry) idOf(t reflect.Type) (ComponentID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.types[t]
	return id, ok
}

// nameOf returns the name of the component type with the given ID.
func (r *componentRegistry) nameOf(id ComponentID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names[id]
}

// typeOf returns the reflect.Type of the component with the given ID.
func (r *componentRegistry) typeOf(id ComponentID) reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tlist[id]
}

// count returns the number of registered component types.
func (r *componentRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int(r.next)
}

// componentID returns the ComponentID for type T in the entity's world,
// registering it if needed.
func componentID[T any](e *Entity) ComponentID {
	return e.world.registry.register(reflect.TypeOf((*T)(nil)).Elem())
}

// Attachable is implemented by components that need initialization logic
// when attached to an entity.
type Attachable interface {
	Attach(e *Entity)
}

// Detachable is implemented by components that need cleanup logic
// when detached from an entity or when the entity despawns.
type Detachable interface {
	Detach(e *Entity)
}

// Add attaches a component to the entity.
// If a component of this type already exists, it is replaced.
// If the component implements Attachable, its Attach method is called.
//
// Concurrency:
// This function is thread-safe. Within loop and task execution all
// component mutation is serialized by the scheduler, so systems may add
// components directly.
func Add[T any](e *Entity, component *T) {
	if e == nil || component == nil {
		return
	}

	id := componentID[T](e)

	e.mu.Lock()

	oldPtr := e.components[id]
	if oldPtr != nil {
		if old, ok := any((*T)(oldPtr)).(Detachable); ok {
			e.mu.Unlock()
			old.Detach(e)
			e.mu.Lock()
		}
	}

	e.components[id] = unsafe.Pointer(component)
	e.mask.Set(id)

	e.mu.Unlock()

	if attachable, ok := any(component).(Attachable); ok {
		attachable.Attach(e)
	}

	e.Dispatch(ComponentAttachEvent{
		ComponentType: reflect.TypeOf((*T)(nil)).Elem(),
	})
}

// Remove detaches a component from the entity.
// If the component implements Detachable, its Detach method is called first.
func Remove[T any](e *Entity) {
	if e == nil {
		return
	}

	id := componentID[T](e)

	e.mu.Lock()

	ptr := e.components[id]
	if ptr == nil {
		e.mu.Unlock()
		return
	}

	// Clear before calling Detach to prevent re-entrancy issues
	e.components[id] = nil
	e.mask.Clear(id)

	e.mu.Unlock()

	if component, ok := any((*T)(ptr)).(Detachable); ok {
		component.Detach(e)
	}

	e.Dispatch(ComponentDetachEvent{
		ComponentType: reflect.TypeOf((*T)(nil)).Elem(),
	})
}

// Get retrieves a component from the entity.
// Returns nil if the component is not present.
func Get[T any](e *Entity) *T {
	if e == nil {
		return nil
	}

	id := componentID[T](e)

	e.mu.RLock()
	ptr := e.components[id]
	e.mu.RUnlock()

	if ptr == nil {
		return nil
	}
	return (*T)(ptr)
}

// Has checks if a component type is present on the entity.
func Has[T any](e *Entity) bool {
	if e == nil {
		return false
	}

	id := componentID[T](e)

	e.mu.RLock()
	has := e.mask.Has(id)
	e.mu.RUnlock()

	return has
}

// getComponentUnsafe retrieves a component by ID without locking.
// Only safe to call when the entity lock is already held or within
// scheduler execution.
func (e *Entity) getComponentUnsafe(id ComponentID) unsafe.Pointer {
	return e.components[id]
}

// ComponentAttachEvent is dispatched when a component is added to an entity.
type ComponentAttachEvent struct {
	ComponentType reflect.Type
}

// ComponentDetachEvent is dispatched when a component is removed from an entity.
type ComponentDetachEvent struct {
	ComponentType reflect.Type
}
