package desktop

import (
	"strings"
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spheres3d/spheres"
)

func TestBuiltinShadersDefineEntryPoints(t *testing.T) {
	for name := range spheres.DefaultShaderDefinitions() {
		for _, f := range spheres.DefaultShaderDefinitions()[name] {
			src, ok := BuiltinShaderSource(f.File)
			require.True(t, ok, f.File)
			assert.True(t, strings.Contains(src, "fn "+vertexEntryPoint), f.File)
			assert.True(t, strings.Contains(src, "fn "+fragmentEntryPoint), f.File)
		}
	}
}

func TestWithBuiltinShadersPrefersLoader(t *testing.T) {
	ml := spheres.NewMemoryLoader()
	ml.Shaders["default.wgsl"] = "custom"
	loader := WithBuiltinShaders(ml)

	src, err := loader.LoadShaderSource("default.wgsl")
	require.NoError(t, err)
	assert.Equal(t, "custom", src)

	src, err = loader.LoadShaderSource("particles.wgsl")
	require.NoError(t, err)
	assert.Contains(t, src, "vertex_index")

	_, err = loader.LoadShaderSource("missing.wgsl")
	assert.ErrorIs(t, err, spheres.ErrUnknownAsset)
}

func TestKeyInputDropsRepeat(t *testing.T) {
	in, ok := keyInput(glfw.KeyA, glfw.Press)
	require.True(t, ok)
	assert.Equal(t, spheres.KeyA, in.Key)
	assert.True(t, in.Pressed)

	_, ok = keyInput(glfw.KeyA, glfw.Repeat)
	assert.False(t, ok)
}

func TestStereoDetailsSplitWindow(t *testing.T) {
	b := New(Options{Width: 800, Height: 600, Stereo: true}, spheres.NewMemoryLoader(), nil)
	details := b.stereoDetails()
	left := details.Eyes[spheres.EyeLeft]
	right := details.Eyes[spheres.EyeRight]
	assert.Equal(t, spheres.Viewport{X: 0, Y: 0, Width: 0.5, Height: 1}, left.Viewport)
	assert.Equal(t, spheres.Viewport{X: 0.5, Y: 0, Width: 0.5, Height: 1}, right.Viewport)
	assert.InDelta(t, EyeSeparation, left.View.Col(3).X()-right.View.Col(3).X(), 1e-6)
}

func TestReadPixelsNeedsRenderer(t *testing.T) {
	b := New(Options{Width: 4, Height: 4}, spheres.NewMemoryLoader(), nil)
	_, err := b.ReadPixels()
	assert.ErrorIs(t, err, ErrNotInitialized)
}
