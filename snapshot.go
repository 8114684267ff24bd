package volt

// DeviceSnapshot is the replicated view of a powered device. Charge
// fields are null when the slot is empty.
type DeviceSnapshot struct {
	DeviceID      string   `json:"deviceId"`
	HasStore      bool     `json:"hasStore"`
	SlotSize      string   `json:"slotSizeClass"`
	CurrentCharge *float64 `json:"currentCharge"`
	MaxCharge     *float64 `json:"maxCharge"`
	Discharging   bool     `json:"discharging"`
}

// CollectSnapshots captures the replicated state of every live device
// in the world. Order is unspecified.
func CollectSnapshots(w *World) []DeviceSnapshot {
	var snapshots []DeviceSnapshot
	Each(w, func(e *Entity, d *PoweredDevice) {
		snapshots = append(snapshots, d.Snapshot())
	})
	return snapshots
}
