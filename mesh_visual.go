package spheres

// MeshVisual draws a textured mesh loaded by name.
type MeshVisual struct {
	MeshName    string
	TextureName string
	// Local placement relative to the owning entity.
	Local Transform
	// Filled in by the mesh renderer when the visual is prepared.
	Data MeshData
}

func NewMeshVisual(meshName, textureName string) *MeshVisual {
	return &MeshVisual{
		MeshName:    meshName,
		TextureName: textureName,
		Local:       IdentityTransform(),
		Data:        MeshData{Visible: true},
	}
}

func (v *MeshVisual) Kind() VisualKind { return VisualKindMesh }

func (v *MeshVisual) Update(change RenderChangeEvent) {
	if change.Kind != ShaderProgramReload {
		return
	}
	if change.ShaderProgram.Name == v.Data.Program.Name {
		v.Data.Program = change.ShaderProgram
	}
}

func (v *MeshVisual) Extract(owner Transform, snapshot *SceneSnapshot) {
	d := v.Data
	d.Transform = Compose(owner, v.Local)
	snapshot.Meshes = append(snapshot.Meshes, d)
}

func (v *MeshVisual) SetVisible(visible bool) { v.Data.Visible = visible }
