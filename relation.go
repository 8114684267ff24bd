package volt

import (
	"reflect"
	"sync"
)

// Relation represents a reference from one entity to another.
// The type parameter T indicates what component the target entity must have.
// This provides type-safe references between entities: a device's battery
// slot, for example, is a Relation[EnergyStore].
//
// Usage:
//
//	type PoweredDevice struct {
//	    slot Relation[EnergyStore]
//	}
type Relation[T any] struct {
	target *Entity
}

// Set sets the target entity for this relation.
// The target should have a component of type T, though this is validated
// at resolution time, not at set time.
func (r *Relation[T]) Set(target *Entity) {
	r.target = target
}

// Clear removes the target reference.
func (r *Relation[T]) Clear() {
	r.target = nil
}

// Get returns the target entity, or nil if not set or the target despawned.
func (r *Relation[T]) Get() *Entity {
	if r.target == nil {
		return nil
	}
	if r.target.closed.Load() {
		r.target = nil
		return nil
	}
	return r.target
}

// Valid returns true if the target exists and has the required component.
func (r *Relation[T]) Valid() bool {
	target := r.Get()
	if target == nil {
		return false
	}
	return Has[T](target)
}

// Target returns the raw target entity pointer.
// This is primarily for internal use.
func (r *Relation[T]) Target() *Entity {
	return r.target
}

// TargetType returns the reflect.Type of the component the target must have.
func (r *Relation[T]) TargetType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Resolve retrieves the target entity and its component of type T from a Relation.
// Returns (nil, nil, false) if the relation is unset, the target despawned,
// or the component is missing.
func Resolve[T any](r Relation[T]) (*Entity, *T, bool) {
	e := r.Get()
	if e == nil {
		return nil, nil, false
	}
	comp := Get[T](e)
	if comp == nil {
		return e, nil, false
	}
	return e, comp, true
}

// RelationSet represents a set of references to other entities.
// The type parameter T indicates what component target entities should have.
// A grinder's reagent chamber is a RelationSet[Reagent].
type RelationSet[T any] struct {
	mu      sync.RWMutex
	targets map[*Entity]struct{}
}

// Add adds an entity to the relation set.
func (rs *RelationSet[T]) Add(target *Entity) {
	if target == nil {
		return
	}
	rs.mu.Lock()
	if rs.targets == nil {
		rs.targets = make(map[*Entity]struct{})
	}
	rs.targets[target] = struct{}{}
	rs.mu.Unlock()
}

// Remove removes an entity from the relation set.
func (rs *RelationSet[T]) Remove(target *Entity) {
	if target == nil {
		return
	}
	rs.mu.Lock()
	delete(rs.targets, target)
	rs.mu.Unlock()
}

// Has checks if an entity is in the relation set.
func (rs *RelationSet[T]) Has(target *Entity) bool {
	if target == nil {
		return false
	}
	rs.mu.RLock()
	_, ok := rs.targets[target]
	rs.mu.RUnlock()
	return ok
}

// Clear removes all entities from the relation set.
func (rs *RelationSet[T]) Clear() {
	rs.mu.Lock()
	rs.targets = nil
	rs.mu.Unlock()
}

// Len returns the number of entities in the relation set.
func (rs *RelationSet[T]) Len() int {
	rs.mu.RLock()
	n := len(rs.targets)
	rs.mu.RUnlock()
	return n
}

// All returns a slice of all live target entities.
func (rs *RelationSet[T]) All() []*Entity {
	rs.mu.RLock()
	targets := make([]*Entity, 0, len(rs.targets))
	for target := range rs.targets {
		if !target.closed.Load() {
			targets = append(targets, target)
		}
	}
	rs.mu.RUnlock()
	return targets
}

// AllValid returns all targets that are live and have the required component.
func (rs *RelationSet[T]) AllValid() []*Entity {
	rs.mu.RLock()
	targets := make([]*Entity, 0, len(rs.targets))
	for target := range rs.targets {
		if !target.closed.Load() && Has[T](target) {
			targets = append(targets, target)
		}
	}
	rs.mu.RUnlock()
	return targets
}

// Targets returns a copy of the underlying target map.
// This is primarily for internal use.
func (rs *RelationSet[T]) Targets() map[*Entity]struct{} {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if rs.targets == nil {
		return nil
	}
	result := make(map[*Entity]struct{}, len(rs.targets))
	for k, v := range rs.targets {
		result[k] = v
	}
	return result
}

// TargetType returns the reflect.Type of the component targets must have.
func (rs *RelationSet[T]) TargetType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// relationCleaner is an interface for types that contain relations.
type relationCleaner interface {
	clearRelationsTo(target *Entity)
}

// clearRelationsTo removes all relation references to the given target entity.
// This is called when an entity despawns.
func clearRelationsTo(component any, target *Entity) {
	if cleaner, ok := component.(relationCleaner); ok {
		cleaner.clearRelationsTo(target)
		return
	}

	clearRelationsReflect(component, target)
}

// isRelationType checks if a value is a *Relation[T].
func isRelationType(t any) bool {
	_, ok := t.(interface{ Target() *Entity })
	return ok
}

// isRelationSetType checks if a value is a *RelationSet[T].
func isRelationSetType(t any) bool {
	_, ok := t.(interface{ Targets() map[*Entity]struct{} })
	return ok
}
