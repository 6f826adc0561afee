package spheres

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// fakeBackend records every call the engines make to a Backend.
type fakeBackend struct {
	mu sync.Mutex

	openErr error
	initErr error

	calls     []string
	meshDraws []MeshDraw
	particle  []ParticleDraw
	uploads   int
	details   []BackendDetail
	closeReq  bool
	frames    int
	nextMesh  MeshHandle
	nextBuf   ParticleBufferHandle
	nextProg  ProgramHandle
	compiled  []string
	released  []ProgramHandle
	compileFn func(name string, sources []ShaderSource) error

	shaders *ShaderCache
}

func newFakeBackend(loader ResourceLoader) *fakeBackend {
	fb := &fakeBackend{}
	fb.shaders = NewShaderCache(fb, loader, DefaultShaderDefinitions(), nil)
	fb.shaders.ReloadInterval = 1
	return fb
}

func (fb *fakeBackend) record(call string) {
	fb.mu.Lock()
	fb.calls = append(fb.calls, call)
	fb.mu.Unlock()
}

func (fb *fakeBackend) Calls() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.calls...)
}

func (fb *fakeBackend) OpenDisplay() error {
	fb.record("OpenDisplay")
	return fb.openErr
}

func (fb *fakeBackend) InitRenderer() error {
	fb.record("InitRenderer")
	return fb.initErr
}

func (fb *fakeBackend) CloseRenderer() { fb.record("CloseRenderer") }

func (fb *fakeBackend) CloseDisplay() { fb.record("CloseDisplay") }

func (fb *fakeBackend) BeforeRender() []BackendDetail {
	fb.record("BeforeRender")
	return fb.details
}

func (fb *fakeBackend) Present() {
	fb.record("Present")
	fb.mu.Lock()
	fb.frames++
	fb.mu.Unlock()
}

func (fb *fakeBackend) DisplaySize() (int, int) { return 640, 480 }

func (fb *fakeBackend) Shaders() ShaderBackend { return fb.shaders }

func (fb *fakeBackend) Meshes() MeshBackend { return fb }

func (fb *fakeBackend) Textures() TextureBackend { return fb }

func (fb *fakeBackend) Particles() ParticleBackend { return fb }

func (fb *fakeBackend) CloseRequested() bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.closeReq
}

func (fb *fakeBackend) ReadPixels() (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 80), B: 200, A: 255})
		}
	}
	return img, nil
}

func (fb *fakeBackend) CompileProgram(name string, sources []ShaderSource) (ProgramHandle, error) {
	if fb.compileFn != nil {
		if err := fb.compileFn(name, sources); err != nil {
			return 0, err
		}
	}
	fb.nextProg++
	fb.compiled = append(fb.compiled, name)
	return fb.nextProg, nil
}

func (fb *fakeBackend) ReleaseProgram(h ProgramHandle) {
	fb.released = append(fb.released, h)
}

func (fb *fakeBackend) LoadMesh(name string, loader ResourceLoader) (MeshHandle, int, error) {
	m, err := loader.LoadMesh(name)
	if err != nil {
		return 0, 0, err
	}
	fb.nextMesh++
	return fb.nextMesh, len(m.Indices), nil
}

func (fb *fakeBackend) DrawMesh(target TargetData, draw MeshDraw) {
	fb.mu.Lock()
	fb.meshDraws = append(fb.meshDraws, draw)
	fb.mu.Unlock()
}

func (fb *fakeBackend) LoadTexture(name string, loader ResourceLoader) (TextureHandle, error) {
	if _, err := loader.LoadImage(name); err != nil {
		return 0, err
	}
	return 7, nil
}

func (fb *fakeBackend) CreateParticleBuffers(capacity int) (ParticleBufferHandle, error) {
	if capacity <= 0 {
		return 0, errors.New("invalid capacity")
	}
	fb.nextBuf++
	return fb.nextBuf, nil
}

func (fb *fakeBackend) UploadParticles(buffers ParticleBufferHandle, positionSizes []mgl32.Vec4, colors []ParticleColor) {
	fb.mu.Lock()
	fb.uploads++
	fb.mu.Unlock()
}

func (fb *fakeBackend) DrawParticles(target TargetData, draw ParticleDraw) {
	fb.mu.Lock()
	fb.particle = append(fb.particle, draw)
	fb.mu.Unlock()
}

// newShaderLoader returns a memory loader serving the default program sources.
func newShaderLoader() *MemoryLoader {
	ml := NewMemoryLoader()
	ml.Shaders["default.wgsl"] = "fn vs_main() {} fn fs_main() {}"
	ml.Shaders["particles.wgsl"] = "fn vs_main() {} fn fs_main() {}"
	return ml
}

// recordingRenderer claims visuals of one kind and logs what it is asked.
type recordingRenderer struct {
	kind     VisualKind
	log      *[]string
	name     string
	prepared []Visual
	changes  []RenderChangeEvent
}

func (r *recordingRenderer) Prepare(v Visual, backend Backend, loader ResourceLoader) bool {
	*r.log = append(*r.log, r.name+".Prepare")
	if v.Kind() != r.kind {
		return false
	}
	r.prepared = append(r.prepared, v)
	return true
}

func (r *recordingRenderer) Render(backend Backend, snapshot *SceneSnapshot, target TargetData) []RenderChangeEvent {
	*r.log = append(*r.log, r.name+".Render")
	out := r.changes
	r.changes = nil
	return out
}

type recordingTarget struct {
	log  *[]string
	name string
}

func (t *recordingTarget) BeforeRenderToTarget(snapshot *SceneSnapshot, details []BackendDetail) TargetData {
	*t.log = append(*t.log, t.name+".Before")
	return TargetData{Camera: mgl32.Ident4(), Projection: mgl32.Ident4(), Viewport: FullViewport()}
}

func (t *recordingTarget) AfterRenderToTarget(snapshot *SceneSnapshot) {
	*t.log = append(*t.log, t.name+".After")
}

// captureLogger returns a logger writing everything to buf.
func captureLogger(buf *bytes.Buffer) *DefaultLogger {
	return NewWriterLogger("test", true, buf, buf)
}
