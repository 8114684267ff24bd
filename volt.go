// Package volt provides powered-device gameplay components for simulation servers.
//
// volt models devices that hold a removable energy store and discharge it
// over time to perform work. It ships the component model (EnergyStore,
// PoweredDevice, Grinder), the per-tick scheduler that drives device
// updates, and the replication feed that streams device snapshots to
// observers. The surrounding engine concerns (rendering, physics, user
// interfaces) are supplied by the host and are not part of this layer.
//
// # Quick Start
//
// Initialize volt in your server setup:
//
//	bundle := volt.NewBundle("power").
//	    Loop(&volt.PowerDrawSystem{}, 0, volt.Default).
//	    Handler(&volt.IndicatorHandler{})
//
//	w := volt.NewBuilder().
//	    Bundle(bundle.Build()).
//	    Init()
//
//	device, err := w.Spawn("handheld_light", mgl64.Vec3{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Components
//
// Components are plain Go structs attached to entities:
//
//	store := volt.NewEnergyStore(volt.SizeSmall, 360, 360)
//	volt.Add(cell, store)
//	store = volt.Get[volt.EnergyStore](cell)
//	volt.Remove[volt.EnergyStore](cell)
//
// # Systems
//
// Loop systems declare their dependencies via struct fields and run for
// every entity that carries the required components:
//
//	type PowerDrawSystem struct {
//	    Entity *volt.Entity
//	    Device *volt.PoweredDevice `volt:"mut"`
//	    DT     volt.Delta
//	}
//
//	func (s *PowerDrawSystem) Run() {
//	    s.Device.Update(float64(s.DT))
//	}
//
// Handler systems receive dispatched events by implementing a method that
// takes the event type as its only argument:
//
//	func (h *IndicatorHandler) HandleChargeChanged(ev volt.EventChargeChanged) { ... }
//
// # Scheduling
//
// The scheduler ticks at a fixed rate (default 50ms) and executes loop
// systems sequentially within each tick; there is no intra-tick
// parallelism, so systems may mutate components without locking. Deferred
// one-shot work (such as a grinder's processing cycle) is expressed as a
// task:
//
//	volt.Schedule(entity, &GrindTask{}, 3*time.Second)
//
// A world built with TickRate(0) is host-driven instead: the host calls
// World.Advance(dt) once per frame.
package volt
