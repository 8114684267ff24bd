package volt

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Actor is the host-side party issuing commands at devices: a player,
// an NPC, or an automated agent. The host decides reach and permission
// through CanInteract; Hold offers an entity to the actor's hand slot
// and reports whether it was accepted.
type Actor interface {
	CanInteract(e *Entity) bool
	Hold(e *Entity) bool
	Position() mgl64.Vec3
}

// ToggleDevice flips the device's discharging state on behalf of an
// actor. The capability check runs first; the Start gate may still
// leave the device off, reported through the returned state.
func ToggleDevice(actor Actor, device *Entity) (on bool, err error) {
	d, err := interactable(actor, device)
	if err != nil {
		return false, err
	}
	d.Toggle()
	return d.Discharging(), nil
}

// EjectStore removes the store from the device's slot on behalf of an
// actor. The store goes to the actor's hands when accepted, otherwise
// it drops at the device's position.
func EjectStore(actor Actor, device *Entity, force bool) error {
	d, err := interactable(actor, device)
	if err != nil {
		return err
	}
	return d.Eject(actor, force)
}

func interactable(actor Actor, device *Entity) (*PoweredDevice, error) {
	if actor == nil || device == nil || !actor.CanInteract(device) {
		return nil, ErrNotInteractable
	}
	d := Get[PoweredDevice](device)
	if d == nil {
		return nil, ErrNotInteractable
	}
	return d, nil
}
