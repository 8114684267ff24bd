package volt

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestToggleDeviceReachability(t *testing.T) {
	w := newTestWorld(t)
	device, _, _ := spawnDevice(t, w)

	if _, err := ToggleDevice(&fakeActor{reachable: false}, device); !errors.Is(err, ErrNotInteractable) {
		t.Errorf("unreachable actor = %v, want ErrNotInteractable", err)
	}
	if _, err := ToggleDevice(nil, device); !errors.Is(err, ErrNotInteractable) {
		t.Errorf("nil actor = %v, want ErrNotInteractable", err)
	}

	actor := &fakeActor{reachable: true}
	on, err := ToggleDevice(actor, device)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !on {
		t.Error("charged device should be on after first toggle")
	}
	on, err = ToggleDevice(actor, device)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if on {
		t.Error("device should be off after second toggle")
	}
}

func TestToggleDeviceRequiresDeviceComponent(t *testing.T) {
	w := newTestWorld(t)
	actor := &fakeActor{reachable: true}

	cell, err := w.Spawn("power_cell_small", mgl64.Vec3{})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if _, err := ToggleDevice(actor, cell); !errors.Is(err, ErrNotInteractable) {
		t.Errorf("toggling a bare cell = %v, want ErrNotInteractable", err)
	}
}

func TestEjectStoreToHands(t *testing.T) {
	w := newTestWorld(t)
	device, d, _ := spawnDevice(t, w)
	actor := &fakeActor{reachable: true}

	if err := EjectStore(actor, device, false); err != nil {
		t.Fatalf("eject: %v", err)
	}
	if len(actor.held) != 1 {
		t.Fatalf("actor holds %d entities, want 1", len(actor.held))
	}
	if !Has[EnergyStore](actor.held[0]) {
		t.Error("held entity is not a store")
	}
	if d.Store() != nil {
		t.Error("slot still occupied after eject")
	}
}

func TestEjectStoreDropsWhenHandsFull(t *testing.T) {
	w := newTestWorld(t)
	device, _, _ := spawnDevice(t, w)
	device.SetPosition(mgl64.Vec3{3, 1, 3})
	actor := &fakeActor{reachable: true, handsFull: true}

	if err := EjectStore(actor, device, false); err != nil {
		t.Fatalf("eject: %v", err)
	}
	store := findStore(t, w)
	if store.Position() != (mgl64.Vec3{3, 1, 3}) {
		t.Errorf("dropped store at %v, want device position", store.Position())
	}
}

func findStore(t *testing.T, w *World) *Entity {
	t.Helper()

	var found *Entity
	Each(w, func(e *Entity, s *EnergyStore) {
		found = e
	})
	if found == nil {
		t.Fatal("no store entity in world")
	}
	return found
}
