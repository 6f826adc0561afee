package desktop

import (
	"embed"

	"github.com/spheres3d/spheres"
)

//go:embed shaders/*.wgsl
var builtinShaders embed.FS

// BuiltinShaderSource returns the WGSL source shipped with the backend.
func BuiltinShaderSource(file string) (string, bool) {
	data, err := builtinShaders.ReadFile("shaders/" + file)
	if err != nil {
		return "", false
	}
	return string(data), true
}

type builtinLoader struct {
	spheres.ResourceLoader
}

// WithBuiltinShaders wraps loader so that shader files missing from it are
// served from the sources compiled into the backend.
func WithBuiltinShaders(loader spheres.ResourceLoader) spheres.ResourceLoader {
	return builtinLoader{loader}
}

func (l builtinLoader) LoadShaderSource(name string) (string, error) {
	src, err := l.ResourceLoader.LoadShaderSource(name)
	if err == nil {
		return src, nil
	}
	if builtin, ok := BuiltinShaderSource(name); ok {
		return builtin, nil
	}
	return "", err
}
