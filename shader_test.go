package spheres

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShaderCacheBuildsOnce(t *testing.T) {
	loader := newShaderLoader()
	fb := newFakeBackend(loader)
	sc := fb.shaders

	p1 := sc.LoadProgram(MeshProgramName)
	p2 := sc.LoadProgram(MeshProgramName)
	require.True(t, p1.Valid)
	assert.Equal(t, p1, p2)
	assert.Equal(t, []string{MeshProgramName}, fb.compiled)
}

func TestShaderCacheInvalidProgram(t *testing.T) {
	var buf bytes.Buffer
	loader := NewMemoryLoader()
	fb := newFakeBackend(loader)
	sc := NewShaderCache(fb, loader, DefaultShaderDefinitions(), captureLogger(&buf))

	p := sc.LoadProgram(MeshProgramName)
	assert.False(t, p.Valid)
	assert.Contains(t, p.FailReason, "default.wgsl")
	assert.Contains(t, buf.String(), "Cannot build shader program default")

	// fixed sources bring it back
	sc.ReloadInterval = 1
	loader.SetShader("default.wgsl", "fn vs_main() {} fn fs_main() {}")
	events := sc.CheckReload()
	require.Len(t, events, 1)
	assert.True(t, events[0].ShaderProgram.Valid)
	assert.True(t, sc.LoadProgram(MeshProgramName).Valid)
}

func TestShaderCacheUnknownDefinitionIsFatal(t *testing.T) {
	sc := NewShaderCache(newFakeBackend(nil), newShaderLoader(), nil, nil)
	assert.PanicsWithValue(t, "Shader Program definition missing not registered", func() {
		sc.LoadProgram("missing")
	})
}

func TestShaderCacheReloadKeepsProgramOnFailure(t *testing.T) {
	loader := newShaderLoader()
	fb := newFakeBackend(loader)
	sc := fb.shaders
	old := sc.LoadProgram(ParticlesProgramName)
	require.True(t, old.Valid)

	fb.compileFn = func(name string, sources []ShaderSource) error {
		return errors.New("syntax error")
	}
	loader.SetShader("particles.wgsl", "broken")
	assert.Empty(t, sc.CheckReload())
	assert.Equal(t, old, sc.LoadProgram(ParticlesProgramName))
	assert.Empty(t, fb.released)

	fb.compileFn = nil
	loader.SetShader("particles.wgsl", "fixed")
	events := sc.CheckReload()
	require.Len(t, events, 1)
	assert.NotEqual(t, old.Handle, events[0].ShaderProgram.Handle)
	assert.Equal(t, []ProgramHandle{old.Handle}, fb.released)
}

func TestShaderCacheReloadInterval(t *testing.T) {
	loader := newShaderLoader()
	fb := newFakeBackend(loader)
	sc := fb.shaders
	sc.ReloadInterval = 3
	sc.LoadProgram(MeshProgramName)

	loader.SetShader("default.wgsl", "fn vs_main() {} fn fs_main() {}")
	assert.Empty(t, sc.CheckReload())
	assert.Empty(t, sc.CheckReload())
	assert.Len(t, sc.CheckReload(), 1)
}

func TestShaderCacheIgnoresUnrelatedChanges(t *testing.T) {
	loader := newShaderLoader()
	fb := newFakeBackend(loader)
	sc := fb.shaders
	sc.LoadProgram(MeshProgramName)

	loader.SetShader("particles.wgsl", "fn vs_main() {} fn fs_main() {}")
	assert.Empty(t, sc.CheckReload(), "particles program was never loaded")
	assert.Len(t, fb.compiled, 1)
}

func TestParseShaderStage(t *testing.T) {
	for in, want := range map[string]ShaderStage{
		"vertex": ShaderStageVertex, "FRAG": ShaderStageFragment, "": ShaderStageModule,
	} {
		got, err := ParseShaderStage(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseShaderStage("compute")
	assert.Error(t, err)
	assert.Equal(t, "module", ShaderStageModule.String())
}
