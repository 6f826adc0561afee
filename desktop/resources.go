package desktop

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spheres3d/spheres"
)

type gpuMesh struct {
	vertexBuf  *wgpu.Buffer
	indexBuf   *wgpu.Buffer
	indexCount int
}

type gpuTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

type gpuParticles struct {
	positionSizes *wgpu.Buffer
	colors        *wgpu.Buffer
	capacity      int
}

// resources keeps every GPU object handed out as a handle. Handles start at
// one; zero means none.
type resources struct {
	gpu *gpuState

	nextHandle uint32

	meshes        map[spheres.MeshHandle]*gpuMesh
	meshByName    map[string]spheres.MeshHandle
	textures      map[spheres.TextureHandle]*gpuTexture
	textureByName map[string]spheres.TextureHandle
	particles     map[spheres.ParticleBufferHandle]*gpuParticles

	sampler *wgpu.Sampler
	// bound for meshes drawn without texture
	white *gpuTexture
}

func newResources() *resources {
	return &resources{
		meshes:        make(map[spheres.MeshHandle]*gpuMesh),
		meshByName:    make(map[string]spheres.MeshHandle),
		textures:      make(map[spheres.TextureHandle]*gpuTexture),
		textureByName: make(map[string]spheres.TextureHandle),
		particles:     make(map[spheres.ParticleBufferHandle]*gpuParticles),
	}
}

func (r *resources) init(gpu *gpuState) error {
	r.gpu = gpu
	sampler, err := gpu.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0.,
		LodMaxClamp:   1.,
		Compare:       wgpu.CompareFunctionUndefined,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}
	r.sampler = sampler

	white, err := r.createTexture(&spheres.ImageAsset{
		Name:   "white",
		Width:  1,
		Height: 1,
		Pixels: []uint8{255, 255, 255, 255},
	})
	if err != nil {
		return err
	}
	r.white = white
	return nil
}

func (r *resources) handle() uint32 {
	r.nextHandle++
	return r.nextHandle
}

func (r *resources) createTexture(img *spheres.ImageAsset) (*gpuTexture, error) {
	extent := wgpu.Extent3D{
		Width:              uint32(img.Width),
		Height:             uint32(img.Height),
		DepthOrArrayLayers: 1,
	}
	texture, err := r.gpu.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         img.Name,
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", img.Name, err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("create texture view %s: %w", img.Name, err)
	}
	err = r.gpu.queue.WriteTexture(
		texture.AsImageCopy(),
		img.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(img.Width) * 4,
			RowsPerImage: uint32(img.Height),
		},
		&extent,
	)
	if err != nil {
		view.Release()
		texture.Release()
		return nil, fmt.Errorf("upload texture %s: %w", img.Name, err)
	}
	return &gpuTexture{texture: texture, view: view}, nil
}

func (r *resources) textureView(h spheres.TextureHandle) *wgpu.TextureView {
	if t, ok := r.textures[h]; ok {
		return t.view
	}
	return r.white.view
}

func (r *resources) release() {
	for _, m := range r.meshes {
		m.vertexBuf.Release()
		m.indexBuf.Release()
	}
	for _, t := range r.textures {
		t.view.Release()
		t.texture.Release()
	}
	for _, p := range r.particles {
		p.positionSizes.Release()
		p.colors.Release()
	}
	if r.white != nil {
		r.white.view.Release()
		r.white.texture.Release()
	}
	if r.sampler != nil {
		r.sampler.Release()
	}
	clear(r.meshes)
	clear(r.meshByName)
	clear(r.textures)
	clear(r.textureByName)
	clear(r.particles)
	r.white, r.sampler = nil, nil
}

type meshBackend struct{ b *Backend }

func (m meshBackend) LoadMesh(name string, loader spheres.ResourceLoader) (spheres.MeshHandle, int, error) {
	r := m.b.res
	if h, ok := r.meshByName[name]; ok {
		return h, r.meshes[h].indexCount, nil
	}
	if r.gpu == nil {
		return 0, 0, ErrNotInitialized
	}
	asset, err := loader.LoadMesh(name)
	if err != nil {
		return 0, 0, err
	}
	vertexBuf, err := r.gpu.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    name + " vertices",
		Contents: wgpu.ToBytes(asset.Vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("create vertex buffer for %s: %w", name, err)
	}
	indices := asset.Indices
	if len(indices)%2 != 0 {
		// index buffer size must be a multiple of 4 bytes
		indices = append(indices[:len(indices):len(indices)], 0)
	}
	indexBuf, err := r.gpu.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    name + " indices",
		Contents: wgpu.ToBytes(indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		vertexBuf.Release()
		return 0, 0, fmt.Errorf("create index buffer for %s: %w", name, err)
	}

	h := spheres.MeshHandle(r.handle())
	r.meshes[h] = &gpuMesh{vertexBuf: vertexBuf, indexBuf: indexBuf, indexCount: len(asset.Indices)}
	r.meshByName[name] = h
	m.b.logger.Debugf("mesh %s uploaded as %d (%d vertices)", name, h, len(asset.Vertices))
	return h, len(asset.Indices), nil
}

func (m meshBackend) DrawMesh(target spheres.TargetData, draw spheres.MeshDraw) {
	m.b.frame.addMesh(target, draw)
}

type textureBackend struct{ b *Backend }

func (t textureBackend) LoadTexture(name string, loader spheres.ResourceLoader) (spheres.TextureHandle, error) {
	r := t.b.res
	if h, ok := r.textureByName[name]; ok {
		return h, nil
	}
	if r.gpu == nil {
		return 0, ErrNotInitialized
	}
	img, err := loader.LoadImage(name)
	if err != nil {
		return 0, err
	}
	tex, err := r.createTexture(img)
	if err != nil {
		return 0, err
	}
	h := spheres.TextureHandle(r.handle())
	r.textures[h] = tex
	r.textureByName[name] = h
	return h, nil
}

type particleBackend struct{ b *Backend }

const colorSize = 4

func (p particleBackend) CreateParticleBuffers(capacity int) (spheres.ParticleBufferHandle, error) {
	r := p.b.res
	if r.gpu == nil {
		return 0, ErrNotInitialized
	}
	if capacity <= 0 {
		return 0, fmt.Errorf("invalid particle capacity %d", capacity)
	}
	positions, err := r.gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "particle positions",
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		Size:  uint64(capacity) * uint64(len(mgl32.Vec4{})*4),
	})
	if err != nil {
		return 0, fmt.Errorf("create particle position buffer: %w", err)
	}
	colors, err := r.gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "particle colors",
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		Size:  uint64(capacity) * colorSize,
	})
	if err != nil {
		positions.Release()
		return 0, fmt.Errorf("create particle color buffer: %w", err)
	}
	h := spheres.ParticleBufferHandle(r.handle())
	r.particles[h] = &gpuParticles{positionSizes: positions, colors: colors, capacity: capacity}
	return h, nil
}

func (p particleBackend) UploadParticles(h spheres.ParticleBufferHandle, positionSizes []mgl32.Vec4, colors []spheres.ParticleColor) {
	r := p.b.res
	buf, ok := r.particles[h]
	if !ok || len(positionSizes) == 0 {
		return
	}
	n := min(len(positionSizes), len(colors), buf.capacity)
	if err := r.gpu.queue.WriteBuffer(buf.positionSizes, 0, wgpu.ToBytes(positionSizes[:n])); err != nil {
		p.b.logger.Errorf("upload particle positions: %v", err)
		return
	}
	if err := r.gpu.queue.WriteBuffer(buf.colors, 0, wgpu.ToBytes(colors[:n])); err != nil {
		p.b.logger.Errorf("upload particle colors: %v", err)
	}
}

func (p particleBackend) DrawParticles(target spheres.TargetData, draw spheres.ParticleDraw) {
	p.b.frame.addParticles(target, draw)
}
