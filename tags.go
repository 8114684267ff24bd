package volt

import (
	"strings"
)

// Tag constants
const (
	tagName = "volt"
)

// Tag modifiers
const (
	modMut = "mut" // Mutable access
	modOpt = "opt" // Optional (nil if missing)
	modRel = "rel" // Relation traversal
	modInj = "inj" // Global injection
)

// FieldKind represents the type of field for injection.
type FieldKind int

const (
	// KindEntity indicates a *Entity field
	KindEntity FieldKind = iota
	// KindWorld indicates a *World field
	KindWorld
	// KindComponent indicates a component field
	KindComponent
	// KindRelation indicates a relation traversal field
	KindRelation
	// KindRelationSlice indicates a relation set traversal field (slice)
	KindRelationSlice
	// KindInjection indicates a global injection field
	KindInjection
	// KindPhantomWith indicates a With[T] phantom type
	KindPhantomWith
	// KindPhantomWithout indicates a Without[T] phantom type
	KindPhantomWithout
	// KindDelta indicates a Delta elapsed-time field
	KindDelta
	// KindPayload indicates a non-injected payload field
	KindPayload
)

// String returns the string representation of FieldKind.
func (k FieldKind) String() string {
	switch k {
	case KindEntity:
		return "Entity"
	case KindWorld:
		return "World"
	case KindComponent:
		return "Component"
	case KindRelation:
		return "Relation"
	case KindRelationSlice:
		return "RelationSlice"
	case KindInjection:
		return "Injection"
	case KindPhantomWith:
		return "PhantomWith"
	case KindPhantomWithout:
		return "PhantomWithout"
	case KindDelta:
		return "Delta"
	case KindPayload:
		return "Payload"
	default:
		return "Unknown"
	}
}

// TagInfo holds parsed tag information.
type TagInfo struct {
	Mutable  bool // volt:"mut"
	Optional bool // volt:"opt"
	Relation bool // volt:"rel"
	Inject   bool // volt:"inj"
}

// parseTag parses a volt struct tag.
func parseTag(tag string) TagInfo {
	info := TagInfo{}
	if tag == "" {
		return info
	}

	for part := range strings.SplitSeq(tag, ",") {
		switch strings.TrimSpace(part) {
		case modMut:
			info.Mutable = true
		case modOpt:
			info.Optional = true
		case modRel:
			info.Relation = true
		case modInj:
			info.Inject = true
		}
	}

	return info
}
