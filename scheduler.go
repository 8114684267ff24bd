package volt

import (
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Delta is the elapsed simulation time, in seconds, injected into loop
// systems that declare a field of this type. Tasks receive a Delta of 0.
type Delta float64

// Scheduler manages the execution of loops and tasks.
//
// Execution is sequential: all loop systems and tasks within a tick run
// one after another on the scheduler goroutine, so no device update ever
// observes another update in progress. This matches the cooperative
// single-threaded model the gameplay layer is written against.
type Scheduler struct {
	world *World

	// Loop management
	loops   [stageCount][]*loopState
	loopsMu sync.RWMutex

	// Execution state
	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// Tick tracking. tickNumber is atomic so out-of-tick readers can
	// observe it while the ticker goroutine runs.
	tickRate   time.Duration
	lastTick   time.Time
	tickNumber atomic.Uint64
}

// loopState tracks the state of a single loop system.
type loopState struct {
	meta     *SystemMeta
	bundle   *Bundle
	interval time.Duration
	lastRun  time.Time
	nextRun  time.Time

	// global loops run once per tick instead of once per matching entity
	global bool
}

// ShouldRun checks if the loop should run at the given time.
func (l *loopState) ShouldRun(now time.Time) bool {
	if l.interval == 0 {
		return true
	}
	return !now.Before(l.nextRun)
}

// MarkRun updates the last run time and schedules the next run.
func (l *loopState) MarkRun(now time.Time) {
	l.lastRun = now
	if l.interval > 0 {
		// Drift-free timing
		l.nextRun = l.nextRun.Add(l.interval)
		if l.nextRun.Before(now) {
			// Catch up if we're behind
			l.nextRun = now.Add(l.interval)
		}
	}
}

// delta returns the elapsed seconds this run should account for.
func (l *loopState) delta(now time.Time, frame time.Duration) Delta {
	if l.lastRun.IsZero() {
		if l.interval > 0 {
			return Delta(l.interval.Seconds())
		}
		return Delta(frame.Seconds())
	}
	d := now.Sub(l.lastRun)
	if d < 0 {
		d = 0
	}
	return Delta(d.Seconds())
}

// newScheduler creates a new scheduler. A tickRate of 0 leaves the
// scheduler host-driven: Start is a no-op and ticks come from Advance.
func newScheduler(world *World, tickRate time.Duration) *Scheduler {
	return &Scheduler{
		world:    world,
		tickRate: tickRate,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the scheduler's tick loop.
func (s *Scheduler) Start() {
	if s.tickRate == 0 {
		return // Host-driven
	}
	if s.running.Swap(true) {
		return // Already running
	}

	// Fresh channels so the scheduler can be restarted after Stop.
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.tickLoop(s.stopCh, s.doneCh)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	if !s.running.Swap(false) {
		return // Not running or host-driven
	}

	close(s.stopCh)
	<-s.doneCh
}

// tickLoop is the main scheduler loop. The channels are passed in so a
// restarted loop never touches its predecessor's pair.
func (s *Scheduler) tickLoop(stopCh chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return

		case now := <-ticker.C:
			frame := s.tickRate
			if !s.lastTick.IsZero() {
				frame = now.Sub(s.lastTick)
			}
			s.tick(now, frame)

		case <-s.world.taskQueue.Notify():
			// Process immediate tasks
			s.processTasks(time.Now())
		}
	}
}

// Advance runs one synthetic tick with the given elapsed time.
// It must not be called while the ticker loop is running.
func (s *Scheduler) Advance(dt time.Duration) {
	if s.running.Load() {
		return
	}
	if dt < 0 {
		dt = 0
	}
	now := s.lastTick
	if now.IsZero() {
		now = time.Now()
	}
	now = now.Add(dt)
	s.tick(now, dt)
}

// tick executes one scheduler tick.
func (s *Scheduler) tick(now time.Time, frame time.Duration) {
	s.tickNumber.Add(1)
	s.lastTick = now

	entities := s.world.All()

	// Execute loops by stage
	for stage := Before; stage < stageCount; stage++ {
		s.runLoopsForStage(now, frame, stage, entities)
	}

	// Process due tasks
	s.processTasks(now)
}

// runLoopsForStage executes all due loops for a given stage, in
// deterministic (name) order.
func (s *Scheduler) runLoopsForStage(now time.Time, frame time.Duration, stage Stage, entities []*Entity) {
	s.loopsMu.RLock()
	loops := s.loops[stage]
	s.loopsMu.RUnlock()

	for _, loop := range loops {
		if !loop.ShouldRun(now) {
			continue
		}
		dt := loop.delta(now, frame)
		if loop.global {
			s.executeGlobalLoop(loop, dt)
		} else {
			s.executeLoopForEntities(entities, loop, dt)
		}
		loop.MarkRun(now)
	}
}

// executeLoopForEntities runs a single loop system for all matching entities.
func (s *Scheduler) executeLoopForEntities(entities []*Entity, loop *loopState, dt Delta) {
	system := loop.meta.Pool.Get().(Runnable)
	defer func() {
		zeroSystem(system, loop.meta)
		loop.meta.Pool.Put(system)
	}()

	for _, e := range entities {
		if e.closed.Load() {
			continue
		}

		// Check bitmask
		if !e.canRun(loop.meta) {
			continue
		}

		// Inject dependencies
		if !injectSystem(system, e, loop.meta, s.world, dt) {
			// Zero before next iteration to prevent stale data
			zeroSystem(system, loop.meta)
			continue
		}

		s.runGuarded("loop", loop.meta.Name, system)

		// Zero after each execution for safety
		zeroSystem(system, loop.meta)
	}
}

// executeGlobalLoop runs a loop system that is not tied to any entity.
// Global loops may only declare *World, injection, and Delta fields.
func (s *Scheduler) executeGlobalLoop(loop *loopState, dt Delta) {
	system := loop.meta.Pool.Get().(Runnable)
	defer func() {
		zeroSystem(system, loop.meta)
		loop.meta.Pool.Put(system)
	}()

	if !injectSystem(system, nil, loop.meta, s.world, dt) {
		return
	}

	s.runGuarded("loop", loop.meta.Name, system)
}

// runGuarded executes a system with panic containment.
func (s *Scheduler) runGuarded(kind, name string, system Runnable) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("volt: panic in system",
				"kind", kind,
				"system", name,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	system.Run()
}

// addLoop registers a loop with the scheduler.
func (s *Scheduler) addLoop(meta *SystemMeta, bundle *Bundle, interval time.Duration, stage Stage, global bool) {
	s.loopsMu.Lock()
	defer s.loopsMu.Unlock()

	state := &loopState{
		meta:     meta,
		bundle:   bundle,
		interval: interval,
		nextRun:  time.Now(),
		global:   global,
	}

	s.loops[stage] = append(s.loops[stage], state)

	// Deterministic execution order within a stage
	sort.Slice(s.loops[stage], func(i, j int) bool {
		return s.loops[stage][i].meta.Name < s.loops[stage][j].meta.Name
	})
}

// processTasks processes all due tasks.
func (s *Scheduler) processTasks(now time.Time) {
	dueTasks := s.world.taskQueue.PopDue(now)
	if len(dueTasks) == 0 {
		return
	}

	// Group tasks by stage
	tasksByStage := make([][]*scheduledTask, stageCount)
	for _, task := range dueTasks {
		stage := task.meta.Stage
		tasksByStage[stage] = append(tasksByStage[stage], task)
	}

	// Execute by stage
	for stage := Before; stage < stageCount; stage++ {
		for _, task := range tasksByStage[stage] {
			s.executeTask(task)
		}
	}
}

// executeTask executes a single task.
func (s *Scheduler) executeTask(task *scheduledTask) {
	if task.cancelled.Load() {
		return
	}

	e := task.entity
	if e != nil {
		if e.closed.Load() {
			return
		}
		if !e.canRun(task.meta) {
			return
		}
	}

	// Inject dependencies. Repeating tasks are wrapped; the metadata
	// describes the inner system, so injection targets it directly.
	target := task.task
	if wrapper, ok := target.(*repeatingTaskWrapper); ok {
		target = wrapper.inner
	}
	if !injectSystem(target, e, task.meta, s.world, 0) {
		return
	}

	s.runGuarded("task", task.meta.Name, task.task)

	if e != nil {
		e.removeTask(task)
	}
}
