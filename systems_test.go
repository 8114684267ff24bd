package volt

import (
	"testing"
	"time"
)

type hitCounter struct {
	devices int
	cells   int
	units   int
}

// slottedStoreCharger reaches through a device's slot relation and
// tops up the slotted store. Devices with empty slots are skipped.
type slottedStoreCharger struct {
	Entity *Entity
	Device *PoweredDevice
	Store  *EnergyStore `volt:"rel,mut"`
}

func (s *slottedStoreCharger) Run() {
	s.Store.Add(5)
}

func TestLoopTraversesSlotRelation(t *testing.T) {
	w := newTestWorld(t, NewBundle("test").
		Loop(&slottedStoreCharger{}, 0, Default))

	_, _, full := spawnDevice(t, w)
	full.SetCurrentCharge(10)

	empty, d, loose := spawnDevice(t, w)
	if err := EjectStore(&fakeActor{reachable: true}, empty, false); err != nil {
		t.Fatalf("eject: %v", err)
	}

	w.Advance(50 * time.Millisecond)

	if full.Charge() != 15 {
		t.Errorf("slotted store charge = %v, want 15", full.Charge())
	}
	if d.Store() != nil {
		t.Fatal("ejected device should have an empty slot")
	}
	if loose.Charge() != 100 {
		t.Errorf("loose store charge = %v, want 100 (loop must skip empty slots)", loose.Charge())
	}
}

// chamberAuditor resolves every live reagent in a grinder chamber
// through the relation set.
type chamberAuditor struct {
	Entity   *Entity
	Grinder  *Grinder
	Reagents []*Reagent  `volt:"rel"`
	Counter  *hitCounter `volt:"inj"`
}

func (s *chamberAuditor) Run() {
	for _, r := range s.Reagents {
		s.Counter.units += r.Units
	}
}

func TestLoopTraversesRelationSet(t *testing.T) {
	counter := &hitCounter{}
	w := NewBuilder().
		TickRate(0).
		Injection(counter).
		Bundle(NewBundle("test").
			Loop(&chamberAuditor{}, 0, Default).
			Build()).
		Init()
	t.Cleanup(w.Shutdown)

	_, g, _ := spawnGrinder(t, w)
	for _, r := range spawnReagents(t, w, 3) {
		if err := g.InsertReagent(r); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	w.Advance(50 * time.Millisecond)

	if counter.units != 3 {
		t.Errorf("audited units = %d, want 3", counter.units)
	}

	contents, err := g.EjectContents()
	if err != nil {
		t.Fatalf("eject contents: %v", err)
	}
	w.Despawn(contents[0])

	counter.units = 0
	w.Advance(50 * time.Millisecond)

	if counter.units != 0 {
		t.Errorf("audited units after ejecting the chamber = %d, want 0", counter.units)
	}
}

type deviceCensus struct {
	Entity  *Entity
	Counter *hitCounter `volt:"inj"`
	_       With[PoweredDevice]
}

func (s *deviceCensus) Run() {
	s.Counter.devices++
}

type looseCellCensus struct {
	Entity  *Entity
	Store   *EnergyStore
	Counter *hitCounter `volt:"inj"`
	_       Without[PoweredDevice]
}

func (s *looseCellCensus) Run() {
	s.Counter.cells++
}

func TestPhantomFilters(t *testing.T) {
	counter := &hitCounter{}
	w := NewBuilder().
		TickRate(0).
		Injection(counter).
		Bundle(NewBundle("test").
			Loop(&deviceCensus{}, 0, Default).
			Loop(&looseCellCensus{}, 0, Default).
			Build()).
		Init()
	t.Cleanup(w.Shutdown)

	// One device entity plus its seeded store entity.
	spawnDevice(t, w)

	w.Advance(50 * time.Millisecond)

	if counter.devices != 1 {
		t.Errorf("device census = %d, want 1", counter.devices)
	}
	if counter.cells != 1 {
		t.Errorf("loose cell census = %d, want 1", counter.cells)
	}
}
