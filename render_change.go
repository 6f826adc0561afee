package spheres

import "fmt"

type RenderChangeKind int

const (
	// ShaderProgramReload reports that a shader program was rebuilt from
	// changed sources and received a new backend handle.
	ShaderProgramReload RenderChangeKind = iota
)

func (k RenderChangeKind) String() string {
	switch k {
	case ShaderProgramReload:
		return "ShaderProgramReload"
	default:
		return fmt.Sprintf("RenderChangeKind(%d)", int(k))
	}
}

// RenderChangeEvent carries a mutation discovered on the render thread back
// to the visuals owned by the logic thread.
type RenderChangeEvent struct {
	Kind          RenderChangeKind
	ShaderProgram ShaderProgram
}

func ShaderProgramReloaded(program ShaderProgram) RenderChangeEvent {
	return RenderChangeEvent{Kind: ShaderProgramReload, ShaderProgram: program}
}

func (e RenderChangeEvent) String() string {
	switch e.Kind {
	case ShaderProgramReload:
		return fmt.Sprintf("ShaderProgram %s reload", e.ShaderProgram.Name)
	default:
		return e.Kind.String()
	}
}
