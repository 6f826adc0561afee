package spheres

// MeshRenderer prepares and draws MeshVisuals with the "default" program.
type MeshRenderer struct {
	logger Logger
}

func NewMeshRenderer(logger Logger) *MeshRenderer {
	return &MeshRenderer{logger: orNop(logger)}
}

func (r *MeshRenderer) Prepare(v Visual, backend Backend, loader ResourceLoader) bool {
	if v.Kind() != VisualKindMesh {
		return false
	}
	mv, ok := v.(*MeshVisual)
	if !ok {
		return false
	}

	var texture TextureHandle
	if mv.TextureName != "" {
		tex, err := backend.Textures().LoadTexture(mv.TextureName, loader)
		if err != nil {
			r.logger.Errorf("mesh %s: texture %s not loaded, drawing untextured: %v", mv.MeshName, mv.TextureName, err)
		} else {
			texture = tex
		}
	}

	program := backend.Shaders().LoadProgram(MeshProgramName)

	mesh, count, err := backend.Meshes().LoadMesh(mv.MeshName, loader)
	if err != nil {
		fatalf(r.logger, "cannot load mesh %s: %v", mv.MeshName, err)
	}

	mv.Data.Mesh = mesh
	mv.Data.VertexCount = count
	mv.Data.Texture = texture
	mv.Data.Program = program
	return true
}

func (r *MeshRenderer) Render(backend Backend, snapshot *SceneSnapshot, target TargetData) []RenderChangeEvent {
	meshes := backend.Meshes()
	for _, d := range snapshot.Meshes {
		if !d.Visible || !d.Program.Valid {
			continue
		}
		meshes.DrawMesh(target, MeshDraw{
			Mesh:        d.Mesh,
			VertexCount: d.VertexCount,
			Texture:     d.Texture,
			Program:     d.Program,
			Model:       d.Transform.Matrix(),
		})
	}
	return nil
}
