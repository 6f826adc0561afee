package spheres

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilerAverages(t *testing.T) {
	p := NewProfiler()
	p.Record("logic", 2*time.Millisecond)
	p.Record("logic", 4*time.Millisecond)
	p.Record("render", time.Millisecond)

	report := p.Report()
	require.Len(t, report, 2)
	assert.Equal(t, SectionReport{Name: "logic", Average: 3 * time.Millisecond, Samples: 2}, report[0])
	assert.Equal(t, "render", report[1].Name)
	assert.Contains(t, p.String(), "logic")
}

func TestProfilerRingBuffer(t *testing.T) {
	p := NewProfiler()
	for i := 0; i < profileRingSize; i++ {
		p.Record("s", time.Millisecond)
	}
	for i := 0; i < profileRingSize; i++ {
		p.Record("s", 3*time.Millisecond)
	}
	r := p.Report()[0]
	assert.Equal(t, profileRingSize, r.Samples)
	assert.Equal(t, 3*time.Millisecond, r.Average)
}

func TestNilProfiler(t *testing.T) {
	var p *Profiler
	p.Track("x")()
	p.Record("x", time.Second)
	p.Clear()
	assert.Nil(t, p.Report())
	assert.NoError(t, p.Dump(filepath.Join(t.TempDir(), "never")))
}

func TestProfilerDumpAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.txt")
	p := NewProfiler()
	p.Record("physics", time.Millisecond)
	require.NoError(t, p.Dump(path))
	require.NoError(t, p.Dump(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "Timings (CPU):"))
}
