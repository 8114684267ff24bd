package volt

import (
	"fmt"
	"reflect"
	"sync"
)

// SystemMeta holds pre-computed metadata about a system type.
// This is computed once at registration time and reused for all executions.
type SystemMeta struct {
	// Type is the reflect.Type of the system struct
	Type reflect.Type

	// Name is the type name for debugging
	Name string

	// RequireMask is the bitmask of required components
	RequireMask Mask

	// ExcludeMask is the bitmask of excluded components (Without[T])
	ExcludeMask Mask

	// Fields holds injection metadata for each field
	Fields []FieldMeta

	// Stage is the execution stage
	Stage Stage

	// Pool is the sync.Pool for this system type
	Pool *sync.Pool

	// Bundle is the bundle this system belongs to
	Bundle *Bundle
}

// FieldMeta holds metadata about a single injectable field.
type FieldMeta struct {
	// Offset is the field offset in the struct for unsafe injection
	Offset uintptr

	// Name is the field name for debugging
	Name string

	// Kind is the type of field (component, relation, etc.)
	Kind FieldKind

	// ComponentID is the ID of the component type (for component fields)
	ComponentID ComponentID

	// ComponentType is the reflect.Type of the component.
	// For payload and injection fields, this stores the type of the field itself.
	ComponentType reflect.Type

	// Optional indicates the field can be nil
	Optional bool

	// Mutable indicates the field has write access
	Mutable bool

	// RelationSourceField is the name of the field containing the relation
	// (for relation traversal fields)
	RelationSourceField string

	// RelationSourceIndex is the index of the source field in Fields
	RelationSourceIndex int

	// RelationDataOffset is the offset of the Relation/RelationSet field in the source component
	RelationDataOffset uintptr

	// IsSlice indicates this is a slice field (for RelationSet resolution)
	IsSlice bool
}

var (
	entityPtrType = reflect.TypeOf((*Entity)(nil))
	worldPtrType  = reflect.TypeOf((*World)(nil))
	deltaType     = reflect.TypeOf(Delta(0))
)

// analyzeSystem analyzes a system type and returns its metadata.
// The registry parameter is used to register component types for this world.
func analyzeSystem(systemType reflect.Type, bundle *Bundle, registry *componentRegistry) (*SystemMeta, error) {
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	if systemType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("system must be a struct, got %v", systemType.Kind())
	}

	meta := &SystemMeta{
		Type:   systemType,
		Name:   systemType.Name(),
		Bundle: bundle,
		Pool: &sync.Pool{
			New: func() any {
				return reflect.New(systemType).Interface()
			},
		},
	}

	var lastComponentFieldIndex int = -1
	var lastComponentField *FieldMeta

	for i := 0; i < systemType.NumField(); i++ {
		field := systemType.Field(i)
		tag := parseTag(field.Tag.Get(tagName))

		fieldMeta := FieldMeta{
			Offset:   field.Offset,
			Name:     field.Name,
			Optional: tag.Optional,
			Mutable:  tag.Mutable,
		}

		// Check for *Entity field
		if field.Type == entityPtrType {
			fieldMeta.Kind = KindEntity
			meta.Fields = append(meta.Fields, fieldMeta)
			continue
		}

		// Check for *World field
		if field.Type == worldPtrType {
			fieldMeta.Kind = KindWorld
			meta.Fields = append(meta.Fields, fieldMeta)
			continue
		}

		// Check for Delta elapsed-time field
		if field.Type == deltaType {
			fieldMeta.Kind = KindDelta
			meta.Fields = append(meta.Fields, fieldMeta)
			continue
		}

		// Check for phantom types (With[T] and Without[T])
		if isPhantomType(field.Type) {
			compType, isWithout, _ := getPhantomInfo(field.Type)
			if compType != nil {
				compID := registry.register(compType)
				if isWithout {
					fieldMeta.Kind = KindPhantomWithout
					meta.ExcludeMask.Set(compID)
				} else {
					fieldMeta.Kind = KindPhantomWith
					meta.RequireMask.Set(compID)
				}
				fieldMeta.ComponentID = compID
				fieldMeta.ComponentType = compType
			}
			meta.Fields = append(meta.Fields, fieldMeta)
			continue
		}

		// Check for global injection
		if tag.Inject {
			fieldMeta.Kind = KindInjection
			fieldMeta.ComponentType = field.Type
			if field.Type.Kind() == reflect.Ptr {
				fieldMeta.ComponentType = field.Type.Elem()
			}
			meta.Fields = append(meta.Fields, fieldMeta)
			continue
		}

		// Check for relation traversal
		if tag.Relation {
			compType := field.Type
			if compType.Kind() == reflect.Slice {
				fieldMeta.IsSlice = true
				compType = compType.Elem()
			}
			if compType.Kind() == reflect.Ptr {
				compType = compType.Elem()
			}

			compID := registry.register(compType)
			fieldMeta.ComponentID = compID
			fieldMeta.ComponentType = compType

			if fieldMeta.IsSlice {
				fieldMeta.Kind = KindRelationSlice
			} else {
				fieldMeta.Kind = KindRelation
			}

			// Link to previous component field for relation resolution
			if lastComponentField != nil {
				fieldMeta.RelationSourceIndex = lastComponentFieldIndex
				fieldMeta.RelationSourceField = lastComponentField.Name

				// Pre-calculate offset of the relation field in the source component
				sourceType := lastComponentField.ComponentType
				targetType := fieldMeta.ComponentType

				for j := 0; j < sourceType.NumField(); j++ {
					f := sourceType.Field(j)
					// We need a pointer to the field type to check interface implementation
					ptr := reflect.New(f.Type)
					if !ptr.CanInterface() {
						continue
					}

					iface, ok := ptr.Interface().(interface{ TargetType() reflect.Type })
					if !ok || iface.TargetType() != targetType {
						continue
					}

					isSet := isRelationSetType(ptr.Interface())

					if fieldMeta.IsSlice {
						if isSet {
							fieldMeta.RelationDataOffset = f.Offset
							break
						}
					} else {
						if !isSet && isRelationType(ptr.Interface()) {
							fieldMeta.RelationDataOffset = f.Offset
							break
						}
					}
				}
			}

			meta.Fields = append(meta.Fields, fieldMeta)
			continue
		}

		// Check for component field (pointer to struct)
		if field.Type.Kind() == reflect.Ptr && field.Type.Elem().Kind() == reflect.Struct {
			compType := field.Type.Elem()

			compID := registry.register(compType)
			fieldMeta.Kind = KindComponent
			fieldMeta.ComponentID = compID
			fieldMeta.ComponentType = compType

			// Track for relation resolution
			lastComponentFieldIndex = len(meta.Fields)
			lastComponentField = &fieldMeta

			if !tag.Optional {
				meta.RequireMask.Set(compID)
			}

			meta.Fields = append(meta.Fields, fieldMeta)
			continue
		}

		// Everything else is payload
		fieldMeta.Kind = KindPayload
		fieldMeta.ComponentType = field.Type
		meta.Fields = append(meta.Fields, fieldMeta)
	}

	return meta, nil
}
