package spheres

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriterLogger("spheres", false, &out, &errOut)

	l.Debugf("hidden %d", 1)
	l.Infof("shown %d", 2)
	l.Warnf("careful")
	l.Errorf("broken")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[spheres] INFO: shown 2")
	assert.Contains(t, errOut.String(), "[spheres] WARN: careful")
	assert.Contains(t, errOut.String(), "[spheres] ERROR: broken")

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("visible")
	assert.Contains(t, out.String(), "DEBUG: visible")
}

func TestFatalfLogsBeforePanicking(t *testing.T) {
	var buf bytes.Buffer
	assert.PanicsWithValue(t, "lost 3 frames", func() {
		fatalf(captureLogger(&buf), "lost %d frames", 3)
	})
	assert.Contains(t, buf.String(), "ERROR: lost 3 frames")
	assert.Panics(t, func() { fatalf(nil, "no logger") })
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	s := SceneSnapshot{
		Meshes: []MeshData{{Mesh: 1}},
		ParticleSystems: []ParticleSystemData{{
			PositionSizes: []mgl32.Vec4{{1, 2, 3, 4}},
			Colors:        []ParticleColor{White()},
		}},
	}
	c := s.Clone()
	s.Meshes[0].Mesh = 9
	s.ParticleSystems[0].PositionSizes[0][0] = 9
	s.ParticleSystems[0].Colors[0].R = 0

	assert.Equal(t, MeshHandle(1), c.Meshes[0].Mesh)
	assert.Equal(t, float32(1), c.ParticleSystems[0].PositionSizes[0][0])
	assert.Equal(t, uint8(255), c.ParticleSystems[0].Colors[0].R)

	c.Clear()
	assert.Empty(t, c.Meshes)
	assert.Empty(t, c.ParticleSystems)
}
