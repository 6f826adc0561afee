package spheres

import (
	"reflect"
	"sync"
)

// VisualRenderer draws one kind of visual.
type VisualRenderer interface {
	// Prepare creates the backend resources of v and reports whether this
	// renderer took it. A renderer declines visuals of kinds it does not
	// draw.
	Prepare(v Visual, backend Backend, loader ResourceLoader) bool
	// Render draws the records of its kind from snapshot into one target.
	Render(backend Backend, snapshot *SceneSnapshot, target TargetData) []RenderChangeEvent
}

// RenderTarget is one pass over all renderers, e.g. the desktop camera or
// one eye of a stereo display.
type RenderTarget interface {
	BeforeRenderToTarget(snapshot *SceneSnapshot, details []BackendDetail) TargetData
	AfterRenderToTarget(snapshot *SceneSnapshot)
}

// RenderEngine owns the backend together with the renderers and targets, and
// prepares visuals submitted by the logic thread.
//
// Apart from AddToPrepareVisual every method belongs to the render thread.
type RenderEngine struct {
	backend  Backend
	loader   ResourceLoader
	logger   Logger
	profiler *Profiler

	renderers []VisualRenderer
	targets   []RenderTarget

	pendingMu sync.Mutex
	pending   []PendingVisual
	nextId    VisualId

	prepared []PendingVisual
	changes  []RenderChangeEvent
	snapshot SceneSnapshot
}

func NewRenderEngine(backend Backend, loader ResourceLoader, logger Logger) *RenderEngine {
	return &RenderEngine{
		backend: backend,
		loader:  loader,
		logger:  orNop(logger),
	}
}

func (re *RenderEngine) SetProfiler(p *Profiler) { re.profiler = p }

func (re *RenderEngine) Backend() Backend { return re.backend }

func (re *RenderEngine) Loader() ResourceLoader { return re.loader }

func (re *RenderEngine) OpenDisplay() error { return re.backend.OpenDisplay() }

func (re *RenderEngine) InitRenderer() error { return re.backend.InitRenderer() }

func (re *RenderEngine) CloseRenderer() { re.backend.CloseRenderer() }

func (re *RenderEngine) CloseDisplay() { re.backend.CloseDisplay() }

// AddRenderer registers r. Renderers are asked to prepare and render in
// registration order. Registering the same renderer twice is fatal.
func (re *RenderEngine) AddRenderer(r VisualRenderer) {
	for _, existing := range re.renderers {
		if sameRenderer(existing, r) {
			fatalf(re.logger, "Renderer %T registered twice", r)
		}
	}
	re.renderers = append(re.renderers, r)
}

func sameRenderer(a, b VisualRenderer) bool {
	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) || !t.Comparable() {
		return false
	}
	return a == b
}

func (re *RenderEngine) AddTarget(t RenderTarget) {
	re.targets = append(re.targets, t)
}

func (re *RenderEngine) Renderers() []VisualRenderer { return re.renderers }

func (re *RenderEngine) Targets() []RenderTarget { return re.targets }

// AddToPrepareVisual queues v for preparation on the next render tick and
// returns the id the prepared visual will be reported under. It may be called
// from any thread, also before the backend is initialized.
func (re *RenderEngine) AddToPrepareVisual(v Visual) VisualId {
	re.pendingMu.Lock()
	defer re.pendingMu.Unlock()
	id := re.nextId
	re.nextId++
	re.pending = append(re.pending, PendingVisual{Id: id, Visual: v})
	return id
}

func (re *RenderEngine) PendingCount() int {
	re.pendingMu.Lock()
	defer re.pendingMu.Unlock()
	return len(re.pending)
}

// UpdateVisualData replaces the working snapshot with s. The render engine
// owns s from now on; callers hand over a copy, not the snapshot the logic
// thread keeps writing.
func (re *RenderEngine) UpdateVisualData(s SceneSnapshot) {
	re.snapshot = s
}

// VisualData returns the working snapshot.
func (re *RenderEngine) VisualData() SceneSnapshot { return re.snapshot }

// PopPreparedVisuals returns the visuals prepared by the last Render call and
// forgets them.
func (re *RenderEngine) PopPreparedVisuals() []PendingVisual {
	out := re.prepared
	re.prepared = nil
	return out
}

// PopVisualChanges returns the change events gathered since the last call.
func (re *RenderEngine) PopVisualChanges() []RenderChangeEvent {
	out := re.changes
	re.changes = nil
	return out
}

func (re *RenderEngine) prepareVisual(v Visual) {
	for _, r := range re.renderers {
		if r.Prepare(v, re.backend, re.loader) {
			re.logger.Infof("Visual of type %s prepared", v.Kind())
			return
		}
	}
	fatalf(re.logger, "No renderer which can prepare %s", v.Kind())
}

// Render runs one frame: prepare pending visuals, check for shader reloads,
// draw every target with every renderer and present.
func (re *RenderEngine) Render() {
	if re.backend == nil {
		fatalf(re.logger, "render engine has no backend")
	}

	re.pendingMu.Lock()
	toPrepare := re.pending
	re.pending = nil
	re.pendingMu.Unlock()

	func() {
		defer re.profiler.Track("prepare")()
		for _, p := range toPrepare {
			re.prepareVisual(p.Visual)
		}
	}()
	re.prepared = toPrepare

	if reloads := re.backend.Shaders().CheckReload(); len(reloads) > 0 {
		re.changes = append(re.changes, reloads...)
	}

	details := re.backend.BeforeRender()
	for _, t := range re.targets {
		targetData := t.BeforeRenderToTarget(&re.snapshot, details)
		for _, r := range re.renderers {
			changes := r.Render(re.backend, &re.snapshot, targetData)
			for _, c := range changes {
				re.logger.Infof("Got a visual change: %s", c)
			}
			re.changes = append(re.changes, changes...)
		}
		t.AfterRenderToTarget(&re.snapshot)
	}

	defer re.profiler.Track("present")()
	re.backend.Present()
}
