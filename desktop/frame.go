package desktop

import (
	"errors"
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spheres3d/spheres"
)

const (
	// uniform buffer offsets must be aligned to 256 bytes
	uniformSlot = 256
	// two mat4x4<f32>
	uniformSize = 128
)

var errNoCapture = errors.New("no frame captured yet")

type drawCommand struct {
	kind     drawKind
	program  spheres.ProgramHandle
	viewport spheres.Viewport

	mesh       spheres.MeshHandle
	indexCount int
	texture    spheres.TextureHandle

	particles spheres.ParticleBufferHandle
	count     int

	uniform [32]float32
}

// frame records the draws of one render tick and encodes them in present.
type frame struct {
	b     *Backend
	draws []drawCommand

	uniformBuf   *wgpu.Buffer
	uniformSlots int

	capture       *wgpu.Buffer
	captureWidth  uint32
	captureHeight uint32
	captureRow    uint32
	captured      bool
}

func newFrame(b *Backend) *frame {
	return &frame{b: b}
}

func (f *frame) begin() {
	f.draws = f.draws[:0]
}

func (f *frame) addMesh(target spheres.TargetData, draw spheres.MeshDraw) {
	cmd := drawCommand{
		kind:       drawMesh,
		program:    draw.Program.Handle,
		viewport:   target.Viewport,
		mesh:       draw.Mesh,
		indexCount: draw.VertexCount,
		texture:    draw.Texture,
	}
	mvp := target.ViewProjection().Mul4(draw.Model)
	copy(cmd.uniform[:16], mvp[:])
	copy(cmd.uniform[16:], draw.Model[:])
	f.draws = append(f.draws, cmd)
}

func (f *frame) addParticles(target spheres.TargetData, draw spheres.ParticleDraw) {
	cmd := drawCommand{
		kind:      drawParticles,
		program:   draw.Program.Handle,
		viewport:  target.Viewport,
		particles: draw.Buffers,
		count:     draw.Count,
	}
	mvp := target.ViewProjection().Mul4(draw.Model)
	copy(cmd.uniform[:16], mvp[:])
	// the particle shader scales its billboards by the projection
	scale := mgl32.Vec4{target.Projection.At(0, 0), target.Projection.At(1, 1), 0, 0}
	copy(cmd.uniform[16:20], scale[:])
	f.draws = append(f.draws, cmd)
}

func (f *frame) ensureUniforms(n int) error {
	if n <= f.uniformSlots && f.uniformBuf != nil {
		return nil
	}
	slots := max(n, 2*f.uniformSlots, 16)
	buf, err := f.b.gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "draw uniforms",
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:  uint64(slots) * uniformSlot,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	if f.uniformBuf != nil {
		f.uniformBuf.Release()
	}
	f.uniformBuf = buf
	f.uniformSlots = slots
	return nil
}

func (f *frame) present() error {
	gpu := f.b.gpu
	res := f.b.res

	if err := f.ensureUniforms(len(f.draws)); err != nil {
		return err
	}
	if len(f.draws) > 0 {
		data := make([]byte, len(f.draws)*uniformSlot)
		for i := range f.draws {
			copy(data[i*uniformSlot:], wgpu.ToBytes(f.draws[i].uniform[:]))
		}
		if err := gpu.queue.WriteBuffer(f.uniformBuf, 0, data); err != nil {
			return fmt.Errorf("write uniforms: %w", err)
		}
	}

	nextTexture, err := gpu.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("get surface texture: %w", err)
	}
	defer nextTexture.Release()
	view, err := nextTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("create surface view: %w", err)
	}
	defer view.Release()

	encoder, err := gpu.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	defer encoder.Release()

	var bindGroups []*wgpu.BindGroup
	defer func() {
		for _, bg := range bindGroups {
			bg.Release()
		}
	}()

	renderPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0.02, G: 0.02, B: 0.05, A: 1.0},
			},
		},
	})
	defer renderPass.Release()

	width := float32(gpu.surfaceConfig.Width)
	height := float32(gpu.surfaceConfig.Height)
	for i, d := range f.draws {
		pipeline := f.b.pipeline(d.program, d.kind)
		if pipeline == nil {
			continue
		}
		entries := []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: f.uniformBuf, Offset: uint64(i * uniformSlot), Size: uniformSize},
		}
		if d.kind == drawMesh {
			entries = append(entries,
				wgpu.BindGroupEntry{Binding: 1, TextureView: res.textureView(d.texture)},
				wgpu.BindGroupEntry{Binding: 2, Sampler: res.sampler},
			)
		}
		layout := pipeline.GetBindGroupLayout(0)
		bg, err := gpu.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout:  layout,
			Entries: entries,
		})
		layout.Release()
		if err != nil {
			f.b.logger.Errorf("create bind group: %v", err)
			continue
		}
		bindGroups = append(bindGroups, bg)

		vp := d.viewport
		renderPass.SetViewport(vp.X*width, (1-vp.Y-vp.Height)*height, vp.Width*width, vp.Height*height, 0, 1)
		renderPass.SetPipeline(pipeline)
		renderPass.SetBindGroup(0, bg, nil)

		switch d.kind {
		case drawMesh:
			mesh, ok := res.meshes[d.mesh]
			if !ok {
				continue
			}
			renderPass.SetVertexBuffer(0, mesh.vertexBuf, 0, wgpu.WholeSize)
			renderPass.SetIndexBuffer(mesh.indexBuf, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
			renderPass.DrawIndexed(uint32(d.indexCount), 1, 0, 0, 0)
		case drawParticles:
			buf, ok := res.particles[d.particles]
			if !ok {
				continue
			}
			renderPass.SetVertexBuffer(0, buf.positionSizes, 0, wgpu.WholeSize)
			renderPass.SetVertexBuffer(1, buf.colors, 0, wgpu.WholeSize)
			// one quad of two triangles per particle
			renderPass.Draw(6, uint32(min(d.count, buf.capacity)), 0, 0)
		}
	}
	if err := renderPass.End(); err != nil {
		return fmt.Errorf("end render pass: %w", err)
	}

	if f.b.opts.Capture {
		if err := f.copyToCapture(encoder, nextTexture); err != nil {
			f.b.logger.Warnf("frame capture: %v", err)
		}
	}

	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish commands: %w", err)
	}
	defer cmdBuffer.Release()

	gpu.queue.Submit(cmdBuffer)
	gpu.surface.Present()
	return nil
}

func (f *frame) copyToCapture(encoder *wgpu.CommandEncoder, texture *wgpu.Texture) error {
	w := f.b.gpu.surfaceConfig.Width
	h := f.b.gpu.surfaceConfig.Height
	bytesPerRow := (w*4 + 255) & ^uint32(255)
	if f.capture == nil || f.captureWidth != w || f.captureHeight != h {
		f.dropCapture()
		buf, err := f.b.gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "frame capture",
			Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
			Size:  uint64(bytesPerRow) * uint64(h),
		})
		if err != nil {
			return err
		}
		f.capture = buf
		f.captureWidth, f.captureHeight, f.captureRow = w, h, bytesPerRow
	}
	encoder.CopyTextureToBuffer(
		texture.AsImageCopy(),
		&wgpu.ImageCopyBuffer{
			Buffer: f.capture,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  bytesPerRow,
				RowsPerImage: h,
			},
		},
		&wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	f.captured = true
	return nil
}

// readPixels maps the capture of the last presented frame.
func (f *frame) readPixels() (*image.RGBA, error) {
	if f.b.gpu == nil {
		return nil, ErrNotInitialized
	}
	if f.capture == nil || !f.captured {
		return nil, errNoCapture
	}
	size := f.capture.GetSize()
	var status wgpu.BufferMapAsyncStatus
	mapped := false
	f.capture.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
		mapped = true
	})
	f.b.gpu.device.Poll(true, nil)
	if !mapped || status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("map capture buffer: status %v", status)
	}
	defer f.capture.Unmap()

	data := f.capture.GetMappedRange(0, uint(size))
	w, h := int(f.captureWidth), int(f.captureHeight)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	bgra := isBGRA(f.b.gpu.surfaceConfig.Format)
	for y := 0; y < h; y++ {
		src := data[y*int(f.captureRow) : y*int(f.captureRow)+w*4]
		dst := img.Pix[y*img.Stride : y*img.Stride+w*4]
		copy(dst, src)
		if bgra {
			for x := 0; x < w*4; x += 4 {
				dst[x], dst[x+2] = dst[x+2], dst[x]
			}
		}
	}
	return img, nil
}

func isBGRA(format wgpu.TextureFormat) bool {
	return format == wgpu.TextureFormatBGRA8Unorm || format == wgpu.TextureFormatBGRA8UnormSrgb
}

func (f *frame) dropCapture() {
	if f.capture != nil {
		f.capture.Release()
		f.capture = nil
	}
	f.captured = false
}

func (f *frame) release() {
	f.dropCapture()
	if f.uniformBuf != nil {
		f.uniformBuf.Release()
		f.uniformBuf = nil
		f.uniformSlots = 0
	}
	f.draws = nil
}
