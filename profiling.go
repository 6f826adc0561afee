package spheres

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

const profileRingSize = 10000

type sectionTimings struct {
	samples []time.Duration
	next    int
	full    bool
}

func (s *sectionTimings) add(d time.Duration) {
	if len(s.samples) < profileRingSize && !s.full {
		s.samples = append(s.samples, d)
		if len(s.samples) == profileRingSize {
			s.full = true
		}
		return
	}
	s.samples[s.next] = d
	s.next = (s.next + 1) % profileRingSize
}

func (s *sectionTimings) average() time.Duration {
	if len(s.samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s.samples {
		total += d
	}
	return total / time.Duration(len(s.samples))
}

// Profiler collects wall-clock timings of named sections. It belongs to a
// single GameLoop and is shared by its logic and render threads. A nil
// *Profiler records nothing.
type Profiler struct {
	mu       sync.Mutex
	sections map[string]*sectionTimings
	order    []string
}

func NewProfiler() *Profiler {
	return &Profiler{
		sections: make(map[string]*sectionTimings),
	}
}

// Track starts timing a section; the returned func stops it:
//
//	defer p.Track("physics")()
func (p *Profiler) Track(section string) func() {
	if p == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		p.Record(section, time.Since(start))
	}
}

func (p *Profiler) Record(section string, d time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.sections[section]
	if !ok {
		st = &sectionTimings{}
		p.sections[section] = st
		p.order = append(p.order, section)
	}
	st.add(d)
}

type SectionReport struct {
	Name    string
	Average time.Duration
	Samples int
}

// Report lists every section in order of first use.
func (p *Profiler) Report() []SectionReport {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SectionReport, 0, len(p.order))
	for _, name := range p.order {
		st := p.sections[name]
		out = append(out, SectionReport{Name: name, Average: st.average(), Samples: len(st.samples)})
	}
	return out
}

func (p *Profiler) String() string {
	var sb strings.Builder
	sb.WriteString("Timings (CPU):\n")
	for _, r := range p.Report() {
		ms := float64(r.Average.Microseconds()) / 1000.0
		sb.WriteString(fmt.Sprintf("  %-15s: %.3f ms (%d samples)\n", r.Name, ms, r.Samples))
	}
	return sb.String()
}

// Dump appends the current report to the file at path.
func (p *Profiler) Dump(path string) error {
	if p == nil {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open profile file: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s\n", p.String()); err != nil {
		return fmt.Errorf("write profile file: %w", err)
	}
	return nil
}

func (p *Profiler) Clear() {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.sections = make(map[string]*sectionTimings)
	p.order = nil
	p.mu.Unlock()
}
