package volt

import (
	"reflect"
	"time"
)

// Bundle groups related systems and handlers together.
// Bundles are registered with the volt builder and provide isolation
// between different gameplay features.
type Bundle struct {
	name string

	// handlers holds handler registrations
	handlers []handlerRegistration

	// loops holds loop system registrations
	loops []loopRegistration

	// tasks holds task system registrations (for metadata/pooling)
	tasks []taskRegistration

	postInitHooks []func(*World)

	// meta holds computed metadata for systems
	handlerMeta []*SystemMeta
	loopMeta    []*SystemMeta
	taskMeta    map[reflect.Type]*SystemMeta
}

// handlerRegistration holds a handler registration.
type handlerRegistration struct {
	handler any
}

// loopRegistration holds a loop system registration.
type loopRegistration struct {
	system   Runnable
	interval time.Duration
	stage    Stage
	global   bool
}

// taskRegistration holds a task system registration.
type taskRegistration struct {
	system Runnable
	stage  Stage
}

// NewBundle creates a new bundle with the given name.
func NewBundle(name string) *Bundle {
	return &Bundle{
		name:     name,
		taskMeta: make(map[reflect.Type]*SystemMeta),
	}
}

// Name returns the bundle name.
func (b *Bundle) Name() string {
	return b.name
}

// PostInit registers a hook that runs after the world is built.
func (b *Bundle) PostInit(hook func(*World)) *Bundle {
	b.postInitHooks = append(b.postInitHooks, hook)
	return b
}

// Build returns a callback function that returns this bundle.
// This allows for cleaner inline bundle initialization:
//
//	bund := volt.NewBundle("power").
//	    Handler(&IndicatorHandler{}).
//	    Build()
//
//	world := volt.NewBuilder().
//	    Bundle(bund).
//	    Init()
func (b *Bundle) Build() func(*World) *Bundle {
	return func(*World) *Bundle {
		return b
	}
}

// Handler registers a handler for this bundle.
// Handlers are structs that implement event methods like
// HandleChargeChanged(EventChargeChanged).
func (b *Bundle) Handler(h any) *Bundle {
	b.handlers = append(b.handlers, handlerRegistration{
		handler: h,
	})
	return b
}

// Loop registers a loop system that runs at fixed intervals for every
// matching entity. Interval of 0 means the loop runs every tick.
func (b *Bundle) Loop(sys Runnable, interval time.Duration, stage Stage) *Bundle {
	b.loops = append(b.loops, loopRegistration{
		system:   sys,
		interval: interval,
		stage:    stage,
	})
	return b
}

// GlobalLoop registers a loop system that runs once per interval instead
// of once per matching entity. Global loops may only use *World, Delta,
// injection, and payload fields.
func (b *Bundle) GlobalLoop(sys Runnable, interval time.Duration, stage Stage) *Bundle {
	b.loops = append(b.loops, loopRegistration{
		system:   sys,
		interval: interval,
		stage:    stage,
		global:   true,
	})
	return b
}

// Task registers a task system type for pooling optimization.
// Tasks are one-shot systems scheduled dynamically.
func (b *Bundle) Task(sys Runnable, stage Stage) *Bundle {
	b.tasks = append(b.tasks, taskRegistration{
		system: sys,
		stage:  stage,
	})
	return b
}

// build analyzes all systems and computes metadata.
func (b *Bundle) build(registry *componentRegistry) error {
	// Handler metadata is filled in by the world during registration
	b.handlerMeta = make([]*SystemMeta, len(b.handlers))

	// Build loop metadata
	for _, reg := range b.loops {
		meta, err := analyzeSystem(reflect.TypeOf(reg.system), b, registry)
		if err != nil {
			return err
		}
		meta.Stage = reg.stage
		b.loopMeta = append(b.loopMeta, meta)
	}

	// Build task metadata
	for _, reg := range b.tasks {
		t := reflect.TypeOf(reg.system)
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		meta, err := analyzeSystem(t, b, registry)
		if err != nil {
			return err
		}
		meta.Stage = reg.stage
		b.taskMeta[t] = meta
	}

	return nil
}

// getTaskMeta retrieves task metadata by type.
func (b *Bundle) getTaskMeta(t reflect.Type) *SystemMeta {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return b.taskMeta[t]
}
