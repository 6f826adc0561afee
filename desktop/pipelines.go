package desktop

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/spheres3d/spheres"
)

// Entry points every program module has to define.
const (
	vertexEntryPoint   = "vs_main"
	fragmentEntryPoint = "fs_main"
)

type drawKind int

const (
	drawMesh drawKind = iota
	drawParticles
)

type gpuProgram struct {
	name      string
	module    *wgpu.ShaderModule
	pipelines map[drawKind]*wgpu.RenderPipeline
	// set when pipeline creation failed so the error is logged once
	broken map[drawKind]bool
}

func (p *gpuProgram) release() {
	for _, pl := range p.pipelines {
		pl.Release()
	}
	p.module.Release()
}

// CompileProgram builds one WGSL module from all sources of a program. The
// stages share a module, so vertex and fragment sources are concatenated.
func (b *Backend) CompileProgram(name string, sources []spheres.ShaderSource) (spheres.ProgramHandle, error) {
	if b.gpu == nil {
		return 0, ErrNotInitialized
	}
	var code strings.Builder
	for _, s := range sources {
		code.WriteString(s.Code)
		code.WriteString("\n")
	}
	src := code.String()
	for _, entry := range []string{vertexEntryPoint, fragmentEntryPoint} {
		if !strings.Contains(src, "fn "+entry) {
			return 0, fmt.Errorf("program %s has no entry point %s: %w", name, entry, spheres.ErrShaderLink)
		}
	}

	module, err := b.gpu.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src},
	})
	if err != nil {
		return 0, fmt.Errorf("program %s: %v: %w", name, err, spheres.ErrShaderCompile)
	}
	h := spheres.ProgramHandle(b.res.handle())
	b.programs[h] = &gpuProgram{
		name:      name,
		module:    module,
		pipelines: make(map[drawKind]*wgpu.RenderPipeline),
		broken:    make(map[drawKind]bool),
	}
	return h, nil
}

func (b *Backend) ReleaseProgram(h spheres.ProgramHandle) {
	p, ok := b.programs[h]
	if !ok {
		return
	}
	p.release()
	delete(b.programs, h)
}

func (b *Backend) releasePrograms() {
	for h, p := range b.programs {
		p.release()
		delete(b.programs, h)
	}
}

// pipeline returns the pipeline drawing kind with program h, creating it on
// first use. It returns nil if the program cannot draw kind.
func (b *Backend) pipeline(h spheres.ProgramHandle, kind drawKind) *wgpu.RenderPipeline {
	p, ok := b.programs[h]
	if !ok || p.broken[kind] {
		return nil
	}
	if pl, ok := p.pipelines[kind]; ok {
		return pl
	}
	pl, err := b.createPipeline(p, kind)
	if err != nil {
		b.logger.Errorf("cannot create pipeline for program %s: %v", p.name, err)
		p.broken[kind] = true
		return nil
	}
	p.pipelines[kind] = pl
	return pl
}

var meshVertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: 32,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
	},
}

var particleInstanceLayouts = []wgpu.VertexBufferLayout{
	{
		ArrayStride: 16,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},
		},
	},
	{
		ArrayStride: colorSize,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatUnorm8x4, Offset: 0, ShaderLocation: 1},
		},
	},
}

func (b *Backend) createPipeline(p *gpuProgram, kind drawKind) (*wgpu.RenderPipeline, error) {
	target := wgpu.ColorTargetState{
		Format:    b.gpu.surfaceConfig.Format,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	primitive := wgpu.PrimitiveState{
		Topology:  wgpu.PrimitiveTopologyTriangleList,
		FrontFace: wgpu.FrontFaceCCW,
		CullMode:  wgpu.CullModeBack,
	}
	var buffers []wgpu.VertexBufferLayout
	label := p.name + " mesh"

	switch kind {
	case drawMesh:
		buffers = []wgpu.VertexBufferLayout{meshVertexLayout}
	case drawParticles:
		label = p.name + " particles"
		buffers = particleInstanceLayouts
		primitive.CullMode = wgpu.CullModeNone
		target.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			},
			Alpha: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			},
		}
	default:
		return nil, fmt.Errorf("unknown draw kind %d", kind)
	}

	return b.gpu.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: label,
		Vertex: wgpu.VertexState{
			Module:     p.module,
			EntryPoint: vertexEntryPoint,
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.module,
			EntryPoint: fragmentEntryPoint,
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: primitive,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
}
