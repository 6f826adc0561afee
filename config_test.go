package spheres

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultMaxLogicRate, cfg.Loop.MaxLogicRate)
	assert.Equal(t, DefaultMaxFrameRate, cfg.Loop.MaxFrameRate)
	assert.Equal(t, 800, cfg.Display.Width)
	assert.Equal(t, 600, cfg.Display.Height)
	assert.Equal(t, DefaultShaderDefinitions(), cfg.Shaders)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second/60, cfg.Loop.LogicPeriod())
	assert.Equal(t, 10*time.Millisecond, cfg.Loop.FramePeriod())
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
loop:
  max_logic_rate: 30
  exit_after_iterations: 3
display:
  width: 1024
  stereo: true
shaders:
  default:
    - file: mesh.vert.wgsl
      stage: vertex
    - file: mesh.frag.wgsl
      stage: fragment
screenshot: out.bmp
`))
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Loop.MaxLogicRate)
	assert.Equal(t, DefaultMaxFrameRate, cfg.Loop.MaxFrameRate)
	assert.Equal(t, 3, cfg.Loop.ExitAfterIterations)
	assert.Equal(t, 1024, cfg.Display.Width)
	assert.Equal(t, 600, cfg.Display.Height)
	assert.True(t, cfg.Display.Stereo)
	assert.Equal(t, "out.bmp", cfg.Screenshot)
	require.Len(t, cfg.Shaders["default"], 2)
	assert.Equal(t, "fragment", cfg.Shaders["default"][1].Stage)
}

func TestParseConfigRejectsInvalid(t *testing.T) {
	_, err := ParseConfig([]byte("loop:\n  exit_after_iterations: -1\n"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("shaders:\n  default:\n    - file: a.wgsl\n      stage: geometry\n"))
	assert.ErrorContains(t, err, "geometry")

	_, err = ParseConfig([]byte("loop: [1, 2"))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spheres.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: true\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
