package spheres

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// Backend handles. Zero never names a live resource.
type (
	ProgramHandle        uint32
	MeshHandle           uint32
	TextureHandle        uint32
	ParticleBufferHandle uint32
)

// Backend is the graphics API the render engine drives. Every method except
// the accessors must be called from the thread that ran OpenDisplay.
type Backend interface {
	OpenDisplay() error
	InitRenderer() error
	CloseRenderer()
	CloseDisplay()

	// BeforeRender starts a frame and returns the details render targets
	// may need, e.g. per-eye matrices.
	BeforeRender() []BackendDetail
	Present()
	DisplaySize() (width, height int)

	Shaders() ShaderBackend
	Meshes() MeshBackend
	Textures() TextureBackend
	Particles() ParticleBackend
}

// CloseRequester is implemented by backends whose display can be closed by
// the user.
type CloseRequester interface {
	CloseRequested() bool
}

// PixelReader is implemented by backends that can read back the last
// presented frame.
type PixelReader interface {
	ReadPixels() (*image.RGBA, error)
}

type ShaderBackend interface {
	// LoadProgram returns the cached program or builds it. A program that
	// failed to build is returned with Valid == false.
	LoadProgram(name string) ShaderProgram
	// CheckReload rebuilds programs whose sources changed.
	CheckReload() []RenderChangeEvent
}

type MeshBackend interface {
	// LoadMesh uploads the named mesh once and returns its handle and
	// index count.
	LoadMesh(name string, loader ResourceLoader) (MeshHandle, int, error)
	DrawMesh(target TargetData, draw MeshDraw)
}

type TextureBackend interface {
	LoadTexture(name string, loader ResourceLoader) (TextureHandle, error)
}

type ParticleBackend interface {
	CreateParticleBuffers(capacity int) (ParticleBufferHandle, error)
	UploadParticles(buffers ParticleBufferHandle, positionSizes []mgl32.Vec4, colors []ParticleColor)
	DrawParticles(target TargetData, draw ParticleDraw)
}

type MeshDraw struct {
	Mesh        MeshHandle
	VertexCount int
	Texture     TextureHandle
	Program     ShaderProgram
	Model       mgl32.Mat4
}

type ParticleDraw struct {
	Buffers ParticleBufferHandle
	Count   int
	Program ShaderProgram
	Model   mgl32.Mat4
}

// Viewport is a region of the display in fractions of its size.
type Viewport struct {
	X, Y, Width, Height float32
}

func FullViewport() Viewport { return Viewport{0, 0, 1, 1} }

// TargetData is what a render target computed for the renderers of one pass.
type TargetData struct {
	Camera     mgl32.Mat4
	Projection mgl32.Mat4
	Viewport   Viewport
}

func (t TargetData) ViewProjection() mgl32.Mat4 {
	return t.Projection.Mul4(t.Camera)
}

type BackendDetailKind int

const (
	BackendDetailStereo BackendDetailKind = iota
)

func (k BackendDetailKind) String() string {
	switch k {
	case BackendDetailStereo:
		return "stereo"
	default:
		return fmt.Sprintf("BackendDetailKind(%d)", int(k))
	}
}

type BackendDetail interface {
	DetailKind() BackendDetailKind
}

type Eye int

const (
	EyeLeft Eye = iota
	EyeRight
)

func (e Eye) String() string {
	if e == EyeLeft {
		return "left"
	}
	return "right"
}

type EyeDetail struct {
	// Offset applied after the camera matrix.
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Viewport   Viewport
}

// StereoDetails carries per-eye data for head mounted or side-by-side displays.
type StereoDetails struct {
	Eyes [2]EyeDetail
}

func (StereoDetails) DetailKind() BackendDetailKind { return BackendDetailStereo }

func findDetail(details []BackendDetail, kind BackendDetailKind) (BackendDetail, bool) {
	for _, d := range details {
		if d != nil && d.DetailKind() == kind {
			return d, true
		}
	}
	return nil, false
}
