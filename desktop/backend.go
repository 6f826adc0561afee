// Package desktop is the glfw + wgpu backend for desktop platforms.
package desktop

import (
	"errors"
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spheres3d/spheres"
)

// Distance between the eyes of side-by-side stereo rendering, in meters.
const EyeSeparation = 0.064

var ErrNotInitialized = errors.New("renderer not initialized")

type Options struct {
	Width, Height int
	Title         string
	// Stereo renders side-by-side with one half of the window per eye.
	Stereo bool
	// Capture keeps a copy of every presented frame for ReadPixels.
	Capture bool
	// Shader program definitions, by program name.
	Shaders map[string][]spheres.ShaderSourceFile
}

func OptionsFromConfig(cfg spheres.Config) Options {
	return Options{
		Width:   cfg.Display.Width,
		Height:  cfg.Display.Height,
		Title:   cfg.Display.Title,
		Stereo:  cfg.Display.Stereo,
		Capture: cfg.Screenshot != "",
		Shaders: cfg.Shaders,
	}
}

type gpuState struct {
	surface       *wgpu.Surface
	adapter       *wgpu.Adapter
	device        *wgpu.Device
	queue         *wgpu.Queue
	surfaceConfig *wgpu.SurfaceConfiguration
}

// Backend implements spheres.Backend on a glfw window rendered with wgpu.
// It also is the EventPump feeding window input to the logic thread.
type Backend struct {
	opts   Options
	logger spheres.Logger

	window *window
	gpu    *gpuState
	events eventQueue

	shaders  *spheres.ShaderCache
	programs map[spheres.ProgramHandle]*gpuProgram
	res      *resources
	frame    *frame
}

func New(opts Options, loader spheres.ResourceLoader, logger spheres.Logger) *Backend {
	if logger == nil {
		logger = spheres.NewNopLogger()
	}
	b := &Backend{
		opts:     opts,
		logger:   logger,
		programs: make(map[spheres.ProgramHandle]*gpuProgram),
		res:      newResources(),
	}
	b.shaders = spheres.NewShaderCache(b, loader, opts.Shaders, logger)
	b.frame = newFrame(b)
	return b
}

func (b *Backend) OpenDisplay() error {
	w, err := openWindow(b.opts.Width, b.opts.Height, b.opts.Title, &b.events)
	if err != nil {
		return err
	}
	w.onResize = b.resize
	b.window = w
	b.logger.Infof("window %q opened (%dx%d)", b.opts.Title, w.width, w.height)
	return nil
}

func (b *Backend) InitRenderer() error {
	if b.window == nil {
		return fmt.Errorf("no display: %w", ErrNotInitialized)
	}
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(b.window.win))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		surface.Release()
		return fmt.Errorf("request adapter: %w", err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "Spheres Device"})
	if err != nil {
		adapter.Release()
		surface.Release()
		return fmt.Errorf("request device: %w", err)
	}

	caps := surface.GetCapabilities(adapter)
	usage := wgpu.TextureUsageRenderAttachment
	if b.opts.Capture {
		usage |= wgpu.TextureUsageCopySrc
	}
	config := &wgpu.SurfaceConfiguration{
		Usage:       usage,
		Format:      caps.Formats[0],
		Width:       uint32(b.window.width),
		Height:      uint32(b.window.height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, config)

	b.gpu = &gpuState{
		surface:       surface,
		adapter:       adapter,
		device:        device,
		queue:         device.GetQueue(),
		surfaceConfig: config,
	}
	if err := b.res.init(b.gpu); err != nil {
		b.CloseRenderer()
		return err
	}
	b.logger.Infof("renderer initialized, surface format %v", config.Format)
	return nil
}

func (b *Backend) resize(width, height int) {
	if b.gpu == nil || width <= 0 || height <= 0 {
		return
	}
	b.gpu.surfaceConfig.Width = uint32(width)
	b.gpu.surfaceConfig.Height = uint32(height)
	b.gpu.surface.Configure(b.gpu.adapter, b.gpu.device, b.gpu.surfaceConfig)
	b.frame.dropCapture()
}

func (b *Backend) CloseRenderer() {
	if b.gpu == nil {
		return
	}
	b.frame.release()
	b.releasePrograms()
	b.res.release()
	b.gpu.queue.Release()
	b.gpu.device.Release()
	b.gpu.adapter.Release()
	b.gpu.surface.Release()
	b.gpu = nil
}

func (b *Backend) CloseDisplay() {
	if b.window == nil {
		return
	}
	b.window.close()
	b.window = nil
}

// BeforeRender polls window events and starts recording a frame.
func (b *Backend) BeforeRender() []spheres.BackendDetail {
	if b.window != nil {
		b.window.pollEvents()
	}
	b.frame.begin()
	if !b.opts.Stereo {
		return nil
	}
	return []spheres.BackendDetail{b.stereoDetails()}
}

// stereoDetails splits the window into a left and a right half.
func (b *Backend) stereoDetails() spheres.StereoDetails {
	w, h := b.DisplaySize()
	aspect := float32(1)
	if h > 0 {
		aspect = float32(w) / 2 / float32(h)
	}
	projection := mgl32.Perspective(mgl32.DegToRad(spheres.DefaultFieldOfView), aspect, spheres.DefaultNearPlane, spheres.DefaultFarPlane)
	half := float32(EyeSeparation / 2)
	return spheres.StereoDetails{Eyes: [2]spheres.EyeDetail{
		spheres.EyeLeft: {
			View:       mgl32.Translate3D(half, 0, 0),
			Projection: projection,
			Viewport:   spheres.Viewport{X: 0, Y: 0, Width: 0.5, Height: 1},
		},
		spheres.EyeRight: {
			View:       mgl32.Translate3D(-half, 0, 0),
			Projection: projection,
			Viewport:   spheres.Viewport{X: 0.5, Y: 0, Width: 0.5, Height: 1},
		},
	}}
}

func (b *Backend) Present() {
	if b.gpu == nil {
		return
	}
	if err := b.frame.present(); err != nil {
		b.logger.Errorf("present: %v", err)
	}
}

func (b *Backend) DisplaySize() (int, int) {
	if b.window == nil {
		return b.opts.Width, b.opts.Height
	}
	return b.window.width, b.window.height
}

func (b *Backend) Shaders() spheres.ShaderBackend { return b.shaders }

func (b *Backend) Meshes() spheres.MeshBackend { return meshBackend{b} }

func (b *Backend) Textures() spheres.TextureBackend { return textureBackend{b} }

func (b *Backend) Particles() spheres.ParticleBackend { return particleBackend{b} }

// CloseRequested reports whether the user closed the window.
func (b *Backend) CloseRequested() bool {
	return b.window != nil && b.window.shouldClose()
}

// PumpEvents hands the window input collected on the render thread to the
// logic thread.
func (b *Backend) PumpEvents() []spheres.UserInput {
	return b.events.drain()
}

func (b *Backend) ReadPixels() (*image.RGBA, error) {
	return b.frame.readPixels()
}
