package spheres

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Shader program names used by the built-in renderers.
const (
	MeshProgramName      = "default"
	ParticlesProgramName = "particles"
)

const DefaultReloadCheckInterval = 50

var (
	ErrShaderCompile = errors.New("shader compile failed")
	ErrShaderLink    = errors.New("shader link failed")
)

type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
	// ShaderStageModule holds several entry points in one source.
	ShaderStageModule
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	case ShaderStageModule:
		return "module"
	default:
		return fmt.Sprintf("ShaderStage(%d)", int(s))
	}
}

func ParseShaderStage(s string) (ShaderStage, error) {
	switch strings.ToLower(s) {
	case "vertex", "vert":
		return ShaderStageVertex, nil
	case "fragment", "frag":
		return ShaderStageFragment, nil
	case "module", "":
		return ShaderStageModule, nil
	default:
		return 0, fmt.Errorf("unknown shader stage %q", s)
	}
}

// ShaderSourceFile is one entry of a program definition.
type ShaderSourceFile struct {
	File  string `yaml:"file"`
	Stage string `yaml:"stage"`
}

type ShaderSource struct {
	Name  string
	Stage ShaderStage
	Code  string
}

// ShaderProgram is a built program as handed out to visuals. Programs that
// failed to build have Valid == false and must not be drawn with.
type ShaderProgram struct {
	Name       string
	Handle     ProgramHandle
	Valid      bool
	FailReason string
}

func InvalidShaderProgram(name string, reason string) ShaderProgram {
	return ShaderProgram{Name: name, FailReason: reason}
}

// ShaderCompiler turns sources into a program of one graphics API.
type ShaderCompiler interface {
	CompileProgram(name string, sources []ShaderSource) (ProgramHandle, error)
	ReleaseProgram(h ProgramHandle)
}

func DefaultShaderDefinitions() map[string][]ShaderSourceFile {
	return map[string][]ShaderSourceFile{
		MeshProgramName:      {{File: "default.wgsl", Stage: "module"}},
		ParticlesProgramName: {{File: "particles.wgsl", Stage: "module"}},
	}
}

type loadedProgram struct {
	program ShaderProgram
	files   []string
}

func (lp loadedProgram) usesFile(changed string) bool {
	return slices.Contains(lp.files, changed)
}

// ShaderCache implements ShaderBackend on top of any ShaderCompiler. Programs
// are built from registered definitions on first use and rebuilt when one of
// their source files changes.
type ShaderCache struct {
	compiler ShaderCompiler
	loader   ResourceLoader
	logger   Logger

	definitions map[string][]ShaderSourceFile
	programs    map[string]loadedProgram

	// CheckReload only looks at changed files every ReloadInterval calls.
	ReloadInterval int
	reloadCheck    int
}

func NewShaderCache(compiler ShaderCompiler, loader ResourceLoader, definitions map[string][]ShaderSourceFile, logger Logger) *ShaderCache {
	sc := &ShaderCache{
		compiler:       compiler,
		loader:         loader,
		logger:         orNop(logger),
		definitions:    make(map[string][]ShaderSourceFile),
		programs:       make(map[string]loadedProgram),
		ReloadInterval: DefaultReloadCheckInterval,
	}
	for name, files := range definitions {
		sc.AddProgramDefinition(name, files)
	}
	return sc
}

func (sc *ShaderCache) SetLoader(loader ResourceLoader) { sc.loader = loader }

func (sc *ShaderCache) AddProgramDefinition(name string, files []ShaderSourceFile) {
	sc.definitions[name] = slices.Clone(files)
}

func (sc *ShaderCache) ClearProgramDefinitions() {
	sc.definitions = make(map[string][]ShaderSourceFile)
}

// LoadProgram returns the cached program or builds it. A program that fails
// to build is cached as invalid and rebuilt once its sources change. Asking
// for a program without definition is a setup error.
func (sc *ShaderCache) LoadProgram(name string) ShaderProgram {
	if lp, ok := sc.programs[name]; ok {
		return lp.program
	}
	lp, err := sc.build(name)
	if err != nil {
		sc.logger.Errorf("Cannot build shader program %s: %v", name, err)
		lp.program = InvalidShaderProgram(name, err.Error())
	}
	sc.programs[name] = lp
	return lp.program
}

// build always returns the resource names the program depends on, also when
// it fails.
func (sc *ShaderCache) build(name string) (loadedProgram, error) {
	def, ok := sc.definitions[name]
	if !ok {
		fatalf(sc.logger, "Shader Program definition %s not registered", name)
	}
	lp := loadedProgram{files: make([]string, 0, len(def))}
	for _, f := range def {
		lp.files = append(lp.files, ShaderResourceName(f.File))
	}
	if sc.loader == nil {
		return lp, fmt.Errorf("no resource loader for shader program %s", name)
	}

	sources := make([]ShaderSource, 0, len(def))
	for _, f := range def {
		stage, err := ParseShaderStage(f.Stage)
		if err != nil {
			return lp, err
		}
		code, err := sc.loader.LoadShaderSource(f.File)
		if err != nil {
			return lp, fmt.Errorf("load shader %s: %w", f.File, err)
		}
		sc.logger.Infof("Shader %s loaded", f.File)
		sources = append(sources, ShaderSource{Name: f.File, Stage: stage, Code: code})
	}

	handle, err := sc.compiler.CompileProgram(name, sources)
	if err != nil {
		return lp, err
	}
	lp.program = ShaderProgram{Name: name, Handle: handle, Valid: true}
	return lp, nil
}

// CheckReload rebuilds every loaded program using a changed source file. A
// program that fails to rebuild keeps its previous version and no event is
// reported for it.
func (sc *ShaderCache) CheckReload() []RenderChangeEvent {
	sc.reloadCheck++
	if sc.reloadCheck < sc.ReloadInterval || sc.loader == nil {
		return nil
	}
	sc.reloadCheck = 0

	changed := sc.loader.ChangedFiles()
	if len(changed) == 0 {
		return nil
	}

	names := make([]string, 0, len(sc.programs))
	for name := range sc.programs {
		names = append(names, name)
	}
	slices.Sort(names)

	var events []RenderChangeEvent
	for _, name := range names {
		old := sc.programs[name]
		if !slices.ContainsFunc(changed, old.usesFile) {
			continue
		}
		lp, err := sc.build(name)
		if err != nil {
			sc.logger.Errorf("Shader update of %s skipped due to loading error: %v", name, err)
			continue
		}
		sc.programs[name] = lp
		if old.program.Valid && old.program.Handle != lp.program.Handle {
			sc.compiler.ReleaseProgram(old.program.Handle)
		}
		sc.logger.Infof("Reloaded shader program %s due to file change", name)
		events = append(events, ShaderProgramReloaded(lp.program))
	}
	return events
}
