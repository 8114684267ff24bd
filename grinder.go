package volt

import (
	"errors"
	"time"
)

// ErrNotAReagent is returned when the entity offered to a grinder
// chamber carries no Reagent component.
var ErrNotAReagent = errors.New("volt: entity is not a reagent")

// ErrChamberEmpty is returned when starting a grind cycle with nothing
// in the chamber.
var ErrChamberEmpty = errors.New("volt: chamber is empty")

// Reagent is a component marking an entity as grindable material.
type Reagent struct {
	Name  string
	Units int
}

// Grinder is a powered machine with a bounded reagent chamber. A grind
// cycle is a deferred task: the grinder starts its device, waits the
// cycle duration, then consumes the chamber contents. A store that
// depletes mid-cycle shuts the device off and aborts the cycle.
type Grinder struct {
	entity *Entity

	capacity int
	busy     bool

	chamber RelationSet[Reagent]
}

// NewGrinder creates a grinder whose chamber holds at most capacity
// reagent entities.
func NewGrinder(capacity int) *Grinder {
	return &Grinder{capacity: capacity}
}

// Attach implements Attachable.
func (g *Grinder) Attach(e *Entity) {
	g.entity = e
}

// Busy reports whether a grind cycle is in progress.
func (g *Grinder) Busy() bool {
	return g.busy
}

// ChamberCount returns the number of reagent entities in the chamber.
func (g *Grinder) ChamberCount() int {
	return len(g.chamber.AllValid())
}

// InsertReagent adds a reagent entity to the chamber.
func (g *Grinder) InsertReagent(e *Entity) error {
	if !Has[Reagent](e) {
		return ErrNotAReagent
	}
	if g.busy {
		return ErrBusy
	}
	if len(g.chamber.AllValid()) >= g.capacity {
		return ErrCapacityExceeded
	}
	g.chamber.Add(e)
	return nil
}

// EjectContents empties the chamber and returns the removed entities.
// Fails while a cycle is running.
func (g *Grinder) EjectContents() ([]*Entity, error) {
	if g.busy {
		return nil, ErrBusy
	}
	contents := g.chamber.All()
	g.chamber.Clear()
	if g.entity != nil {
		for _, e := range contents {
			e.SetPosition(g.entity.Position())
		}
	}
	return contents, nil
}

// StartCycle powers the grinder on and schedules the grind to complete
// after the given duration. The device's start gate applies: a cycle
// cannot begin without a store holding at least one second of active
// draw.
func (g *Grinder) StartCycle(duration time.Duration) error {
	if g.busy {
		return ErrBusy
	}
	if len(g.chamber.AllValid()) == 0 {
		return ErrChamberEmpty
	}

	device := Get[PoweredDevice](g.entity)
	if device == nil {
		return ErrNotInteractable
	}
	if !device.Start() {
		if device.Store() == nil {
			return ErrNoStore
		}
		return ErrInsufficientCharge
	}

	g.busy = true
	Schedule(g.entity, &GrindTask{}, duration)
	return nil
}

// GrindTask completes a grind cycle. It runs on the grinder entity
// after the cycle duration elapses.
type GrindTask struct {
	Entity  *Entity
	Grinder *Grinder       `volt:"mut"`
	Device  *PoweredDevice `volt:"mut"`
	World   *World
}

// Run consumes the chamber contents if the device survived the cycle.
// A device that shut off mid-cycle (store depleted or ejected) aborts
// without consuming anything.
func (t *GrindTask) Run() {
	t.Grinder.busy = false

	if !t.Device.Discharging() {
		return
	}

	contents := t.Grinder.chamber.AllValid()
	t.Grinder.chamber.Clear()
	for _, e := range contents {
		t.World.Despawn(e)
	}

	t.Device.Stop()
	t.Entity.Dispatch(EventGrindComplete{Entity: t.Entity, Processed: len(contents)})
}
