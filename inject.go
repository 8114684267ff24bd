package volt

import (
	"reflect"
	"sync"
	"unsafe"
)

// injectSystem injects dependencies into a system instance.
// The entity may be nil for global loops and global tasks; entity-bound
// fields then fail injection unless optional.
func injectSystem(system any, e *Entity, meta *SystemMeta, w *World, dt Delta) bool {
	systemPtr := reflect.ValueOf(system).Pointer()

	// Track the last component field for relation resolution
	var lastComponentPtr unsafe.Pointer

	for i := range meta.Fields {
		field := &meta.Fields[i]

		switch field.Kind {
		case KindEntity:
			if e == nil {
				if !field.Optional {
					return false
				}
				setFieldPtr(systemPtr, field.Offset, nil)
				continue
			}
			setFieldPtr(systemPtr, field.Offset, unsafe.Pointer(e))

		case KindWorld:
			if w == nil {
				return false
			}
			setFieldPtr(systemPtr, field.Offset, unsafe.Pointer(w))

		case KindDelta:
			*(*Delta)(unsafe.Pointer(systemPtr + field.Offset)) = dt

		case KindComponent:
			if e == nil {
				if !field.Optional {
					return false
				}
				setFieldPtr(systemPtr, field.Offset, nil)
				lastComponentPtr = nil
				continue
			}

			e.mu.RLock()
			ptr := e.getComponentUnsafe(field.ComponentID)
			e.mu.RUnlock()

			if ptr == nil && !field.Optional {
				return false // Required component missing
			}
			setFieldPtr(systemPtr, field.Offset, ptr)

			// Track for relation resolution
			lastComponentPtr = ptr

		case KindRelation:
			// Find the relation in the last component
			if lastComponentPtr == nil {
				if !field.Optional {
					return false
				}
				setFieldPtr(systemPtr, field.Offset, nil)
				continue
			}

			// Unsafe access to Relation[T].target
			// We trust RelationDataOffset from meta analysis to point to the Relation struct
			// and we know 'target *Entity' is the first field (offset 0).
			relPtr := unsafe.Pointer(uintptr(lastComponentPtr) + field.RelationDataOffset)
			target := *(**Entity)(relPtr)

			if target == nil || target.closed.Load() {
				if !field.Optional {
					return false
				}
				setFieldPtr(systemPtr, field.Offset, nil)
				continue
			}

			// Get component from target entity
			target.mu.RLock()
			compPtr := target.getComponentUnsafe(field.ComponentID)
			target.mu.RUnlock()

			if compPtr == nil {
				if !field.Optional {
					return false
				}
				setFieldPtr(systemPtr, field.Offset, nil)
				continue
			}

			setFieldPtr(systemPtr, field.Offset, compPtr)

		case KindRelationSlice:
			// Find the relation set in the last component
			if lastComponentPtr == nil {
				setEmptySlice(systemPtr, field.Offset, field.ComponentType)
				continue
			}

			// Unsafe access to RelationSet[T]
			relSetPtr := unsafe.Pointer(uintptr(lastComponentPtr) + field.RelationDataOffset)
			targets := getRelationSetTargets(relSetPtr)

			// Get existing slice for capacity reuse
			slicePtr := unsafe.Pointer(systemPtr + field.Offset)
			existingSlice := reflect.NewAt(reflect.SliceOf(reflect.PointerTo(field.ComponentType)), slicePtr).Elem()

			slice := makeComponentSlice(targets, field.ComponentID, field.ComponentType, existingSlice)
			setSliceField(systemPtr, field.Offset, slice)

		case KindInjection:
			if w == nil {
				return false
			}
			inj := w.getInjection(field.ComponentType)
			if inj == nil {
				return false // Injection not found
			}
			setFieldPtr(systemPtr, field.Offset, inj)

		case KindPhantomWith, KindPhantomWithout:
			// Phantom types don't need injection - filtering already done
			continue

		case KindPayload:
			// Payload fields must be zeroed to prevent leakage between entities
			// when reusing the same system instance (e.g. in scheduler loops)
			zeroPayloadField(systemPtr, field)
		}
	}

	return true
}

// zeroSystem zeros all pointer fields in a system for pool reuse.
func zeroSystem(system any, meta *SystemMeta) {
	systemPtr := reflect.ValueOf(system).Pointer()

	for i := range meta.Fields {
		field := &meta.Fields[i]

		switch field.Kind {
		case KindEntity, KindWorld, KindComponent, KindRelation, KindInjection:
			setFieldPtr(systemPtr, field.Offset, nil)

		case KindDelta:
			*(*Delta)(unsafe.Pointer(systemPtr + field.Offset)) = 0

		case KindRelationSlice:
			// Zero the slice header
			setEmptySlice(systemPtr, field.Offset, field.ComponentType)

		case KindPayload:
			// Zero payload fields based on type
			zeroPayloadField(systemPtr, field)
		}
	}
}

// setFieldPtr sets a pointer field at the given offset.
func setFieldPtr(base uintptr, offset uintptr, value unsafe.Pointer) {
	*(*unsafe.Pointer)(unsafe.Pointer(base + offset)) = value
}

// setEmptySlice sets an empty slice at the given offset while preserving capacity.
func setEmptySlice(base uintptr, offset uintptr, elemType reflect.Type) {
	slicePtr := unsafe.Pointer(base + offset)

	// Use reflect to safely set length to 0 while preserving capacity
	sliceType := reflect.SliceOf(reflect.PointerTo(elemType))
	slice := reflect.NewAt(sliceType, slicePtr).Elem()
	slice.SetLen(0)
}

// setSliceField sets a slice field at the given offset.
func setSliceField(base uintptr, offset uintptr, slice reflect.Value) {
	dst := reflect.NewAt(slice.Type(), unsafe.Pointer(base+offset)).Elem()
	dst.Set(slice)
}

// zeroPayloadField zeros a payload field based on its type.
func zeroPayloadField(base uintptr, field *FieldMeta) {
	if field.ComponentType == nil {
		return
	}

	v := reflect.NewAt(field.ComponentType, unsafe.Pointer(base+field.Offset)).Elem()
	v.Set(reflect.Zero(field.ComponentType))
}

// relationSetLayout matches the memory layout of RelationSet[T].
type relationSetLayout struct {
	mu      sync.RWMutex
	targets map[*Entity]struct{}
}

// getRelationSetTargets gets all live target entities from a RelationSet[T] pointer.
func getRelationSetTargets(ptr unsafe.Pointer) []*Entity {
	layout := (*relationSetLayout)(ptr)
	layout.mu.RLock()
	defer layout.mu.RUnlock()

	if layout.targets == nil {
		return nil
	}

	result := make([]*Entity, 0, len(layout.targets))
	for e := range layout.targets {
		if !e.closed.Load() {
			result = append(result, e)
		}
	}
	return result
}

// makeComponentSlice creates a slice of component pointers from entities.
func makeComponentSlice(entities []*Entity, compID ComponentID, compType reflect.Type, reuse reflect.Value) reflect.Value {
	slice := reuse
	slice.SetLen(0)

	if slice.Cap() < len(entities) {
		sliceType := reflect.SliceOf(reflect.PointerTo(compType))
		slice = reflect.MakeSlice(sliceType, 0, len(entities))
	}

	for _, e := range entities {
		e.mu.RLock()
		ptr := e.getComponentUnsafe(compID)
		e.mu.RUnlock()

		if ptr != nil {
			compValue := reflect.NewAt(compType, ptr)
			slice = reflect.Append(slice, compValue)
		}
	}

	return slice
}

// clearRelationsReflect clears all references to a target entity in a
// component's Relation and RelationSet fields. Unexported fields are
// reached through their addresses since plain reflection cannot set them.
func clearRelationsReflect(componentPtr any, target *Entity) {
	val := reflect.ValueOf(componentPtr)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i).Type

		if fieldType.Kind() != reflect.Struct || !field.CanAddr() {
			continue
		}

		typeName := fieldType.String()

		// Relation[T] stores target as its first field
		if len(typeName) > 14 && typeName[:14] == "volt.Relation[" {
			targetPtr := (**Entity)(unsafe.Pointer(field.UnsafeAddr()))
			if *targetPtr == target {
				*targetPtr = nil
			}
			continue
		}

		// RelationSet[T] shares the relationSetLayout memory layout
		if len(typeName) > 17 && typeName[:17] == "volt.RelationSet[" {
			layout := (*relationSetLayout)(unsafe.Pointer(field.UnsafeAddr()))
			layout.mu.Lock()
			delete(layout.targets, target)
			layout.mu.Unlock()
		}
	}
}
