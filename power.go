package volt

// PowerDrawSystem is the per-tick driver of every live powered device.
// Register it as a Loop with interval 0 so each device draws power
// exactly once per tick:
//
//	volt.NewBundle("power").
//	    Loop(&volt.PowerDrawSystem{}, 0, volt.Default)
//
// Ordering across devices within a tick is unspecified.
type PowerDrawSystem struct {
	Entity *Entity
	Device *PoweredDevice `volt:"mut"`
	DT     Delta
}

// Run draws one frame's worth of power from the device's store.
func (s *PowerDrawSystem) Run() {
	s.Device.Update(float64(s.DT))
}

// CellIndicator is a presentation component carrying the discrete
// charge level a cell renders, 0 (empty) through 4 (full).
type CellIndicator struct {
	Level int
}

// indicatorLevel maps a charge ratio to the discrete indicator level.
func indicatorLevel(charge, capacity float64) int {
	if capacity <= 0 || charge <= 0 {
		return 0
	}
	ratio := charge / capacity
	switch {
	case ratio <= 0.25:
		return 1
	case ratio <= 0.5:
		return 2
	case ratio <= 0.75:
		return 3
	default:
		return 4
	}
}

// IndicatorHandler refreshes a cell's indicator level whenever its
// store's charge changes. Entities without a CellIndicator are skipped
// by the component filter.
type IndicatorHandler struct {
	Entity    *Entity
	Store     *EnergyStore
	Indicator *CellIndicator `volt:"mut"`
}

// HandleChargeChanged recomputes the indicator level.
func (h *IndicatorHandler) HandleChargeChanged(ev EventChargeChanged) {
	h.Indicator.Level = indicatorLevel(ev.Charge, ev.Capacity)
}
