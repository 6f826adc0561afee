package spheres

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"golang.org/x/image/bmp"
)

// Resource name prefixes below the resource root.
const (
	ImagePrefix  = "images/"
	ShaderPrefix = "shader/"
	ModelPrefix  = "models/"
)

var ErrUnknownAsset = errors.New("unknown asset")

type AssetId string

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

type ImageAsset struct {
	Id     AssetId
	Name   string
	Width  int
	Height int
	// RGBA8, row major, top row first.
	Pixels []uint8
}

type MeshAsset struct {
	Id       AssetId
	Name     string
	Vertices []MeshVertex
	Indices  []uint16
}

// ResourceLoader reads assets synchronously. Only renderers call it, from the
// render thread, while preparing visuals.
type ResourceLoader interface {
	LoadImage(name string) (*ImageAsset, error)
	LoadMesh(name string) (*MeshAsset, error)
	LoadShaderSource(name string) (string, error)
	// ChangedFiles returns the resource names modified since the last call.
	ChangedFiles() []string
}

func ShaderResourceName(file string) string { return ShaderPrefix + file }

func ImageResourceName(file string) string { return ImagePrefix + file }

// FileLoader loads resources below a root directory. Images and meshes are
// cached by name and get a unique AssetId on first load.
type FileLoader struct {
	root   string
	logger Logger

	mu         sync.Mutex
	images     map[string]*ImageAsset
	meshes     map[string]*MeshAsset
	generators map[string]MeshGenerator
	changed    map[string]struct{}

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewFileLoader(root string, logger Logger) *FileLoader {
	fl := &FileLoader{
		root:       root,
		logger:     orNop(logger),
		images:     make(map[string]*ImageAsset),
		meshes:     make(map[string]*MeshAsset),
		generators: make(map[string]MeshGenerator),
		changed:    make(map[string]struct{}),
	}
	fl.RegisterMesh(DebugBoxMesh, func() ([]MeshVertex, []uint16) {
		return BoxMesh(mgl32.Vec3{0.5, 0.5, 0.5})
	})
	return fl
}

func (fl *FileLoader) Root() string { return fl.root }

// RegisterMesh makes a procedural mesh loadable under name.
func (fl *FileLoader) RegisterMesh(name string, gen MeshGenerator) {
	fl.mu.Lock()
	fl.generators[name] = gen
	fl.mu.Unlock()
}

func (fl *FileLoader) resourcePath(name string) string {
	return filepath.Join(fl.root, filepath.FromSlash(name))
}

func (fl *FileLoader) LoadImage(name string) (*ImageAsset, error) {
	fl.mu.Lock()
	if img, ok := fl.images[name]; ok {
		fl.mu.Unlock()
		return img, nil
	}
	fl.mu.Unlock()

	file, err := os.Open(fl.resourcePath(ImageResourceName(name)))
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", name, err)
	}
	defer file.Close()

	var img image.Image
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		img, err = png.Decode(file)
	case ".bmp":
		img, err = bmp.Decode(file)
	default:
		return nil, fmt.Errorf("image %s: unsupported format: %w", name, ErrUnknownAsset)
	}
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", name, err)
	}

	asset := imageAsset(name, img)
	fl.mu.Lock()
	fl.images[name] = asset
	fl.mu.Unlock()
	fl.logger.Debugf("image %s loaded as %s (%dx%d)", name, asset.Id, asset.Width, asset.Height)
	return asset, nil
}

func imageAsset(name string, img image.Image) *ImageAsset {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*bounds.Dx() || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return &ImageAsset{
		Id:     makeAssetId(),
		Name:   name,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: rgba.Pix,
	}
}

func (fl *FileLoader) LoadMesh(name string) (*MeshAsset, error) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if m, ok := fl.meshes[name]; ok {
		return m, nil
	}
	gen, ok := fl.generators[name]
	if !ok {
		return nil, fmt.Errorf("mesh %s: %w", name, ErrUnknownAsset)
	}
	vertices, indices := gen()
	m := &MeshAsset{Id: makeAssetId(), Name: name, Vertices: vertices, Indices: indices}
	fl.meshes[name] = m
	return m, nil
}

func (fl *FileLoader) LoadShaderSource(name string) (string, error) {
	data, err := os.ReadFile(fl.resourcePath(ShaderResourceName(name)))
	if err != nil {
		return "", fmt.Errorf("read shader %s: %w", name, err)
	}
	return string(data), nil
}

// Watch starts reporting modified files below the shader and image
// directories through ChangedFiles.
func (fl *FileLoader) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	for _, dir := range []string{ShaderPrefix, ImagePrefix} {
		p := fl.resourcePath(dir)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := w.Add(p); err != nil {
			w.Close()
			return fmt.Errorf("watch %s: %w", p, err)
		}
	}
	fl.watcher = w
	fl.done = make(chan struct{})
	go fl.watchLoop(w, fl.done)
	return nil
}

func (fl *FileLoader) watchLoop(w *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			rel, err := filepath.Rel(fl.root, ev.Name)
			if err != nil {
				continue
			}
			fl.MarkChanged(filepath.ToSlash(rel))
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			fl.logger.Warnf("file watcher: %v", err)
		}
	}
}

// MarkChanged records a resource as modified.
func (fl *FileLoader) MarkChanged(name string) {
	fl.mu.Lock()
	fl.changed[name] = struct{}{}
	if strings.HasPrefix(name, ImagePrefix) {
		delete(fl.images, strings.TrimPrefix(name, ImagePrefix))
	}
	fl.mu.Unlock()
	fl.logger.Debugf("resource %s changed", name)
}

func (fl *FileLoader) ChangedFiles() []string {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if len(fl.changed) == 0 {
		return nil
	}
	out := make([]string, 0, len(fl.changed))
	for name := range fl.changed {
		out = append(out, name)
	}
	clear(fl.changed)
	sort.Strings(out)
	return out
}

func (fl *FileLoader) Close() error {
	if fl.watcher == nil {
		return nil
	}
	err := fl.watcher.Close()
	<-fl.done
	fl.watcher = nil
	return err
}

// MemoryLoader serves resources from memory; benchmarks and tests use it in
// place of a FileLoader.
type MemoryLoader struct {
	mu      sync.Mutex
	Images  map[string]*ImageAsset
	Meshes  map[string]*MeshAsset
	Shaders map[string]string
	changed []string
}

func NewMemoryLoader() *MemoryLoader {
	ml := &MemoryLoader{
		Images:  make(map[string]*ImageAsset),
		Meshes:  make(map[string]*MeshAsset),
		Shaders: make(map[string]string),
	}
	vertices, indices := BoxMesh(mgl32.Vec3{0.5, 0.5, 0.5})
	ml.Meshes[DebugBoxMesh] = &MeshAsset{Id: makeAssetId(), Name: DebugBoxMesh, Vertices: vertices, Indices: indices}
	return ml
}

func (ml *MemoryLoader) LoadImage(name string) (*ImageAsset, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if img, ok := ml.Images[name]; ok {
		return img, nil
	}
	return nil, fmt.Errorf("image %s: %w", name, ErrUnknownAsset)
}

func (ml *MemoryLoader) LoadMesh(name string) (*MeshAsset, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if m, ok := ml.Meshes[name]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("mesh %s: %w", name, ErrUnknownAsset)
}

func (ml *MemoryLoader) LoadShaderSource(name string) (string, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if src, ok := ml.Shaders[name]; ok {
		return src, nil
	}
	return "", fmt.Errorf("shader %s: %w", name, ErrUnknownAsset)
}

// SetShader replaces a shader source and reports it as changed.
func (ml *MemoryLoader) SetShader(name, src string) {
	ml.mu.Lock()
	ml.Shaders[name] = src
	ml.changed = append(ml.changed, ShaderResourceName(name))
	ml.mu.Unlock()
}

func (ml *MemoryLoader) ChangedFiles() []string {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	out := ml.changed
	ml.changed = nil
	return out
}
