package volt

import (
	"reflect"
	"sync"
)

// handlerMeta holds metadata and pool for a registered handler type.
type handlerMeta struct {
	meta   *SystemMeta
	bundle *Bundle
	events map[reflect.Type]int
}

// Dispatch dispatches an event to all registered handlers that listen for it.
// Handlers listen for events by implementing a method with the signature:
//
//	func (h *MyHandler) HandleMyEvent(event MyEventType)
//
// The method name does not matter, only the signature (one argument, no
// return values). A handler only runs if the entity satisfies its component
// requirements.
//
// Concurrency:
// Handlers run synchronously on the dispatching goroutine. Within loop and
// task execution all dispatches are serialized by the scheduler, so handlers
// may read and write components directly.
func (e *Entity) Dispatch(event any) {
	if e == nil || e.world == nil || e.closed.Load() {
		return
	}

	eventType := reflect.TypeOf(event)

	for _, hm := range e.world.handlers {
		// Check if this handler handles this event type
		methodIdx, ok := hm.events[eventType]
		if !ok {
			continue
		}

		// Check bitmask
		if !e.canRun(hm.meta) {
			continue
		}

		// Get handler from pool
		handler := hm.meta.Pool.Get()

		// Inject dependencies
		if !injectSystem(handler, e, hm.meta, e.world, 0) {
			zeroSystem(handler, hm.meta)
			hm.meta.Pool.Put(handler)
			continue
		}

		// Execute handler method via reflection
		// We use the cached method index for performance
		reflect.ValueOf(handler).Method(methodIdx).Call([]reflect.Value{reflect.ValueOf(event)})

		// Zero and return to pool
		zeroSystem(handler, hm.meta)
		hm.meta.Pool.Put(handler)
	}
}

// registerHandler registers a handler type with the world.
func (w *World) registerHandler(h any, bundle *Bundle) error {
	t := reflect.TypeOf(h)

	meta, err := analyzeSystem(t, bundle, w.registry)
	if err != nil {
		return err
	}

	// Set up pool to create correct type
	meta.Pool = &sync.Pool{
		New: func() any {
			return reflect.New(t.Elem()).Interface()
		},
	}

	// Scan for event methods
	events := make(map[reflect.Type]int)
	for i := 0; i < t.NumMethod(); i++ {
		method := t.Method(i)
		// Check for 1 argument (plus receiver) and no return values
		if method.Type.NumIn() != 2 || method.Type.NumOut() != 0 {
			continue
		}
		// Register event type
		eventType := method.Type.In(1)
		events[eventType] = i
	}

	w.handlers = append(w.handlers, &handlerMeta{
		meta:   meta,
		bundle: bundle,
		events: events,
	})

	return nil
}
