package volt

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Entity is a live object in the simulation: a device, a power cell, a
// reagent, or anything else gameplay code attaches components to.
//
// Entities are created by World.Spawn from an archetype and destroyed by
// World.Despawn. All component state lives on the entity; behaviour lives
// in loop systems, tasks, and handlers.
type Entity struct {
	// id is the stable identity of the entity
	id uuid.UUID

	// archetype is the catalog ID the entity was spawned from
	archetype string

	// world is the world that owns this entity
	world *World

	// pos is the entity's position; guarded by mu
	pos mgl64.Vec3

	// mask tracks which components are present
	mask Mask

	// components stores component pointers indexed by ComponentID
	components [MaxComponents]unsafe.Pointer

	// mu protects mask, components, and pos
	mu sync.RWMutex

	// closed indicates the entity has been despawned
	closed atomic.Bool

	// pendingTasks holds scheduled tasks for this entity
	pendingTasks []*scheduledTask
	taskMu       sync.Mutex
}

// ID returns the entity's UUID.
func (e *Entity) ID() uuid.UUID {
	return e.id
}

// Archetype returns the catalog ID the entity was spawned from.
func (e *Entity) Archetype() string {
	return e.archetype
}

// World returns the world that owns this entity.
func (e *Entity) World() *World {
	return e.world
}

// Position returns the entity's current position.
func (e *Entity) Position() mgl64.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pos
}

// SetPosition moves the entity to the given position.
func (e *Entity) SetPosition(pos mgl64.Vec3) {
	e.mu.Lock()
	e.pos = pos
	e.mu.Unlock()
}

// Closed returns true if the entity has been despawned.
func (e *Entity) Closed() bool {
	return e.closed.Load()
}

// Mask returns a copy of the entity's component bitmask.
// This is primarily for debugging and testing.
func (e *Entity) Mask() Mask {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mask
}

// String returns a string representation of the entity for debugging.
func (e *Entity) String() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	comps := ""
	for id := range ComponentID(MaxComponents) {
		if e.mask.Has(id) {
			if comps != "" {
				comps += ", "
			}
			comps += e.world.registry.nameOf(id)
		}
	}

	return fmt.Sprintf("Entity{ID: %s, Archetype: %s, Components: [%s]}", e.id, e.archetype, comps)
}

// canRun checks if the entity passes the bitmask filter for a system.
func (e *Entity) canRun(meta *SystemMeta) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.mask.ContainsAll(meta.RequireMask) {
		return false
	}
	if e.mask.ContainsAny(meta.ExcludeMask) {
		return false
	}
	return true
}

// close tears down the entity: cancels pending tasks, runs Detach hooks,
// and clears all component data. Called by World.Despawn.
func (e *Entity) close() {
	if e.closed.Swap(true) {
		return // Already closed
	}

	// Cancel all pending tasks
	e.taskMu.Lock()
	tasks := e.pendingTasks
	e.pendingTasks = nil
	e.taskMu.Unlock()

	for _, task := range tasks {
		task.cancelled.Store(true)
	}

	// Collect components that need Detach called, while the entity is
	// still intact.
	var toDetach []Detachable

	e.mu.RLock()
	for id := range ComponentID(MaxComponents) {
		ptr := e.components[id]
		if ptr == nil {
			continue
		}

		t := e.world.registry.typeOf(id)
		if t != nil {
			val := reflect.NewAt(t, ptr).Interface()
			if d, ok := val.(Detachable); ok {
				toDetach = append(toDetach, d)
			}
		}
	}
	e.mu.RUnlock()

	// Call Detach outside the entity lock. The entity is still fully
	// readable for these hooks.
	for _, d := range toDetach {
		d.Detach(e)
	}

	e.mu.Lock()
	for id := range ComponentID(MaxComponents) {
		e.components[id] = nil
	}
	e.mask = Mask{}
	e.mu.Unlock()
}

// clearRelationsTo removes all relations pointing to the target entity.
// This is called when an entity despawns.
func (e *Entity) clearRelationsTo(target *Entity) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for id := range ComponentID(MaxComponents) {
		ptr := e.components[id]
		if ptr == nil {
			continue
		}
		t := e.world.registry.typeOf(id)
		if t != nil {
			comp := reflect.NewAt(t, ptr).Interface()
			clearRelationsTo(comp, target)
		}
	}
}

// addTask adds a scheduled task to this entity.
func (e *Entity) addTask(task *scheduledTask) {
	e.taskMu.Lock()
	e.pendingTasks = append(e.pendingTasks, task)
	e.taskMu.Unlock()
}

// removeTask removes a scheduled task from this entity.
func (e *Entity) removeTask(task *scheduledTask) {
	e.taskMu.Lock()
	for i, t := range e.pendingTasks {
		if t == task {
			e.pendingTasks = append(e.pendingTasks[:i], e.pendingTasks[i+1:]...)
			break
		}
	}
	e.taskMu.Unlock()
}
