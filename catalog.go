package volt

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/invopop/jsonschema"
)

// StoreDefinition models the JSON contract for designer-authored store
// archetypes. It is shared with the schema generator so validation and
// editor tooling see the same document shape.
type StoreDefinition struct {
	ID        string  `json:"id" jsonschema:"title=Store archetype id,pattern=^[a-z0-9_]+$,description=Identifier resolved at spawn time"`
	SizeClass string  `json:"sizeClass" jsonschema:"title=Size class,enum=small,enum=medium,enum=large,description=Compatibility tag restricting which device slots accept the store"`
	Capacity  float64 `json:"capacity" jsonschema:"title=Max capacity,minimum=0,description=Maximum charge in store units"`
	Charge    float64 `json:"charge" jsonschema:"title=Initial charge,minimum=0,description=Charge a freshly spawned store carries"`
}

// DeviceDefinition models the JSON contract for designer-authored
// device archetypes.
type DeviceDefinition struct {
	ID             string  `json:"id" jsonschema:"title=Device archetype id,pattern=^[a-z0-9_]+$"`
	WattageActive  float64 `json:"wattageActive" jsonschema:"title=Active wattage,minimum=0,description=Draw rate in watts while discharging"`
	WattageStandby float64 `json:"wattageStandby,omitempty" jsonschema:"title=Standby wattage,minimum=0,description=Draw rate in watts while off"`
	Removable      bool    `json:"removable,omitempty" jsonschema:"title=Removable,description=Whether the store can be ejected without force"`
	SlotSizeClass  string  `json:"slotSizeClass" jsonschema:"title=Slot size class,enum=small,enum=medium,enum=large"`
	SeedStore      bool    `json:"seedStore,omitempty" jsonschema:"title=Seed store,description=Spawn a matching store into the empty slot on first spawn"`
}

// FileDefinitions represents a designer-authored catalog document.
type FileDefinitions struct {
	Stores  []StoreDefinition  `json:"stores" jsonschema:"title=Store archetypes"`
	Devices []DeviceDefinition `json:"devices" jsonschema:"title=Device archetypes"`
}

// LoadCatalog reads a catalog document and builds the archetype catalog
// from it. An unknown size class anywhere in the document is a fatal
// configuration error; nothing is returned on failure.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var defs FileDefinitions
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&defs); err != nil {
		return nil, fmt.Errorf("volt: decode catalog: %w", err)
	}
	return BuildCatalog(defs)
}

// BuildCatalog builds the archetype catalog from parsed definitions.
func BuildCatalog(defs FileDefinitions) (*Catalog, error) {
	c := NewCatalog()

	for _, def := range defs.Stores {
		size, err := ParseSizeClass(def.SizeClass)
		if err != nil {
			return nil, fmt.Errorf("volt: store archetype %q: %w", def.ID, err)
		}
		if def.ID == "" {
			return nil, fmt.Errorf("volt: store archetype with empty id")
		}
		c.RegisterStore(size, storeArchetype(def.ID, size, def.Capacity, def.Charge))
	}

	for _, def := range defs.Devices {
		size, err := ParseSizeClass(def.SlotSizeClass)
		if err != nil {
			return nil, fmt.Errorf("volt: device archetype %q: %w", def.ID, err)
		}
		if def.ID == "" {
			return nil, fmt.Errorf("volt: device archetype with empty id")
		}

		cfg := DeviceConfig{
			WattageActive:  def.WattageActive,
			WattageStandby: def.WattageStandby,
			Removable:      def.Removable,
			SlotSize:       size,
		}

		a := deviceArchetype(def.ID, cfg)
		if !def.SeedStore {
			a.PostSpawn = nil
		} else if _, err := c.StoreArchetype(size); err != nil {
			// Seeding requires a store archetype for the slot size;
			// surface the misconfiguration at build time, not at spawn.
			return nil, fmt.Errorf("volt: device archetype %q: %w", def.ID, err)
		}
		c.Register(a)
	}

	return c, nil
}

// CatalogSchema returns a machine-readable JSON schema for catalog
// documents, for validation and editor tooling.
func CatalogSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(&FileDefinitions{})
	schema.Title = "volt archetype catalog"
	schema.Description = "Designer-authored store and device archetypes consumed at spawn time."
	return schema
}
