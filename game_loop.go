package spheres

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Engines bundles the engines aspects can reach.
type Engines struct {
	Entity    *EntityEngine
	Input     *InputEngine
	Render    *RenderEngine
	Animation *AnimationEngine
	Physics   *PhysicsEngine
}

func NewEngines(backend Backend, loader ResourceLoader, logger Logger) *Engines {
	return &Engines{
		Entity:    NewEntityEngine(logger),
		Input:     NewInputEngine(),
		Render:    NewRenderEngine(backend, loader, logger),
		Animation: NewAnimationEngine(),
		Physics:   NewPhysicsEngine(),
	}
}

// RemoveEntity drops e from every engine that may hold it.
func (e *Engines) RemoveEntity(entity *Entity) bool {
	removed := e.Entity.RemoveEntity(entity)
	if e.Physics.RemoveBody(entity) {
		removed = true
	}
	return removed
}

// EventPump delivers platform events, e.g. window key presses, to the logic
// thread. It is drained at the start of every logic tick.
type EventPump interface {
	PumpEvents() []UserInput
}

// GameLoop runs the logic and the render stage on two threads at their own
// rates. The threads only share three buffers, each behind its own mutex:
//
//	snapshot  logic replaces it, render copies it
//	prepared  render appends prepared visuals, logic drains them
//	changes   render appends render change events, logic drains them
//
// Platforms that drive rendering from their own callbacks call the stage
// functions directly instead of Run.
type GameLoop struct {
	engines  *Engines
	cfg      LoopConfig
	logger   Logger
	profiler *Profiler

	terminate atomic.Bool

	snapshotMu sync.Mutex
	snapshot   SceneSnapshot

	preparedMu sync.Mutex
	prepared   []PendingVisual

	changesMu sync.Mutex
	changes   []RenderChangeEvent

	pump       EventPump
	pumpSource *QueueSource

	logicTicks int
}

func NewGameLoop(engines *Engines, cfg LoopConfig, logger Logger) *GameLoop {
	gl := &GameLoop{
		engines: engines,
		cfg:     cfg,
		logger:  orNop(logger),
	}
	if cfg.Profile {
		gl.profiler = NewProfiler()
		engines.Render.SetProfiler(gl.profiler)
	}
	return gl
}

func (gl *GameLoop) Engines() *Engines { return gl.engines }

// Profiler returns nil unless profiling is enabled.
func (gl *GameLoop) Profiler() *Profiler { return gl.profiler }

// SetEventPump makes the logic stage feed the events of p to the input
// engine.
func (gl *GameLoop) SetEventPump(p EventPump) {
	gl.pump = p
	if gl.pumpSource == nil {
		gl.pumpSource = NewQueueSource()
		gl.engines.Input.AddSource(gl.pumpSource)
	}
}

// Terminate asks both threads to stop after their current iteration.
func (gl *GameLoop) Terminate() { gl.terminate.Store(true) }

func (gl *GameLoop) Terminated() bool { return gl.terminate.Load() }

// LogicStage returns one logic tick.
func (gl *GameLoop) LogicStage() func(dt time.Duration) {
	return gl.logicStep
}

func (gl *GameLoop) logicStep(dt time.Duration) {
	e := gl.engines
	p := gl.profiler

	if gl.pump != nil {
		for _, ui := range gl.pump.PumpEvents() {
			gl.pumpSource.Push(ui.User, ui.Input)
		}
	}

	func() {
		defer p.Track("input")()
		e.Input.Process()
	}()
	func() {
		defer p.Track("entities")()
		e.Entity.Step(dt)
	}()
	e.Input.ClearInputActions()
	func() {
		defer p.Track("animation")()
		e.Animation.Step(dt)
	}()
	func() {
		defer p.Track("physics")()
		e.Physics.Step(dt)
	}()

	gl.preparedMu.Lock()
	prepared := gl.prepared
	gl.prepared = nil
	gl.preparedMu.Unlock()
	e.Entity.UpdatePreparedVisuals(prepared)

	gl.changesMu.Lock()
	changes := gl.changes
	gl.changes = nil
	gl.changesMu.Unlock()
	e.Entity.UpdateVisuals(changes)

	var snapshot SceneSnapshot
	func() {
		defer p.Track("extract")()
		e.Entity.ExtractVisualData(&snapshot)
	}()

	gl.snapshotMu.Lock()
	gl.snapshot = snapshot
	gl.snapshotMu.Unlock()

	gl.logicTicks++
	if p != nil && gl.cfg.ProfileDumpRate > 0 && gl.logicTicks%gl.cfg.ProfileDumpRate == 0 {
		if err := p.Dump(gl.cfg.ProfileFile); err != nil {
			gl.logger.Warnf("cannot dump profile: %v", err)
		}
		p.Clear()
	}
}

// RenderInitStage opens the display and initializes the renderer. It must
// run on the thread issuing all later graphics calls. Failing to initialize
// is fatal.
func (gl *GameLoop) RenderInitStage() func() {
	return func() {
		if err := gl.initRender(); err != nil {
			fatalf(gl.logger, "%v", err)
		}
	}
}

func (gl *GameLoop) initRender() error {
	r := gl.engines.Render
	if err := r.OpenDisplay(); err != nil {
		return fmt.Errorf("cannot open display: %w", err)
	}
	if err := r.InitRenderer(); err != nil {
		r.CloseDisplay()
		return fmt.Errorf("cannot initialize renderer: %w", err)
	}
	return nil
}

// AddRenderersStage registers the default renderers.
func (gl *GameLoop) AddRenderersStage() func() {
	return func() {
		r := gl.engines.Render
		r.AddRenderer(NewMeshRenderer(gl.logger))
		r.AddRenderer(NewParticlesRenderer(gl.logger))
	}
}

// RenderStage returns one render tick.
func (gl *GameLoop) RenderStage() func(dt time.Duration) {
	return gl.renderStep
}

func (gl *GameLoop) renderStep(dt time.Duration) {
	r := gl.engines.Render

	gl.snapshotMu.Lock()
	snapshot := gl.snapshot.Clone()
	gl.snapshotMu.Unlock()
	r.UpdateVisualData(snapshot)

	func() {
		defer gl.profiler.Track("render")()
		r.Render()
	}()

	if prepared := r.PopPreparedVisuals(); len(prepared) > 0 {
		gl.preparedMu.Lock()
		gl.prepared = append(gl.prepared, prepared...)
		gl.preparedMu.Unlock()
	}
	if changes := r.PopVisualChanges(); len(changes) > 0 {
		gl.changesMu.Lock()
		gl.changes = append(gl.changes, changes...)
		gl.changesMu.Unlock()
	}
}

// Run blocks until both threads stopped. They stop on Terminate, when the
// display asks to be closed, or after ExitAfterIterations iterations each.
// The returned error is the render initialization error, if any.
//
// The logic thread gets its own goroutine; rendering runs on the calling one.
// Window systems that only work on the main thread (glfw on macOS) require
// Run to be called from main with the main thread locked in init.
func (gl *GameLoop) Run() error {
	var g errgroup.Group
	g.Go(gl.runLogic)
	renderErr := gl.runRender()
	if err := g.Wait(); err != nil && renderErr == nil {
		return err
	}
	return renderErr
}

func (gl *GameLoop) done(iterations int) bool {
	if gl.terminate.Load() {
		return true
	}
	return gl.cfg.ExitAfterIterations > 0 && iterations >= gl.cfg.ExitAfterIterations
}

func (gl *GameLoop) runLogic() error {
	logic := gl.LogicStage()
	limiter := NewLimiter(gl.cfg.LogicPeriod())
	dt := limiter.Period()
	for i := 0; !gl.done(i); i++ {
		limiter.Start()
		logic(dt)
		dt = limiter.EndWithWait()
	}
	gl.logger.Debugf("logic thread stopped after %d ticks", gl.logicTicks)
	return nil
}

func (gl *GameLoop) runRender() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := gl.initRender(); err != nil {
		gl.logger.Errorf("%v", err)
		gl.Terminate()
		return err
	}
	r := gl.engines.Render
	defer func() {
		r.CloseRenderer()
		r.CloseDisplay()
	}()
	gl.AddRenderersStage()()

	closer, _ := r.Backend().(CloseRequester)
	render := gl.RenderStage()
	limiter := NewLimiter(gl.cfg.FramePeriod())
	dt := limiter.Period()
	frames := 0
	for ; !gl.done(frames); frames++ {
		limiter.Start()
		render(dt)
		dt = limiter.EndWithWait()
		if closer != nil && closer.CloseRequested() {
			gl.logger.Infof("display closed")
			gl.Terminate()
		}
	}
	gl.logger.Debugf("render thread stopped after %d frames", frames)
	return nil
}
