package libgl

import (
	"fmt"
	"os"

	"pbrview/logger"

	"github.com/go-gl/gl/v4.5-core/gl"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

const StageLink = "link"

// ShaderError describes a shader that could not be read, compiled or linked.
type ShaderError struct {
	Program string
	// Stage is "vertex", "fragment" or "link".
	Stage string
	Path  string
	Log   string
}

func (err *ShaderError) Error() string {
	if err.Program == "" {
		return fmt.Sprintf("%s shader %q: %s", err.Stage, err.Path, err.Log)
	}
	return fmt.Sprintf("%s shader %q of program %q: %s", err.Stage, err.Path, err.Program, err.Log)
}

// Registry owns every shader pipeline by name.
type Registry struct {
	cache     *ProgramCache
	pipelines map[string]UnboundShaderPipeline
}

func NewRegistry(cache *ProgramCache) *Registry {
	return &Registry{
		cache:     cache,
		pipelines: map[string]UnboundShaderPipeline{},
	}
}

func readShaderSource(name, path string, stage int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ShaderError{
			Program: name,
			Stage:   StageName(stage),
			Path:    path,
			Log:     err.Error(),
		}
	}
	return string(data), nil
}

func (reg *Registry) compile(name, path, source string, stage int) (ShaderProgram, error) {
	prog := NewShader(source, stage).(*program)
	prog.path = path
	prog.cache = reg.cache
	if prog.name == "untitled" {
		prog.name = name
	}
	if err := prog.Compile(); err != nil {
		return nil, err
	}
	return prog, nil
}

// Load reads, compiles and links a vertex and fragment program pair and registers the
// resulting pipeline under name. A previous pipeline of the same name is released.
func (reg *Registry) Load(name, vertexPath, fragmentPath string) (UnboundShaderPipeline, error) {
	vertexSrc, err := readShaderSource(name, vertexPath, gl.VERTEX_SHADER)
	if err != nil {
		return nil, err
	}
	fragmentSrc, err := readShaderSource(name, fragmentPath, gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, err
	}

	vertexSh, err := reg.compile(name, vertexPath, vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return nil, err
	}
	fragmentSh, err := reg.compile(name, fragmentPath, fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		vertexSh.Delete()
		return nil, err
	}

	pipeline := NewPipeline(name)
	pipeline.Attach(vertexSh, gl.VERTEX_SHADER_BIT)
	pipeline.Attach(fragmentSh, gl.FRAGMENT_SHADER_BIT)
	pipeline.SetDebugLabel(name)

	if old, ok := reg.pipelines[name]; ok {
		old.Delete()
	}
	reg.pipelines[name] = pipeline
	logger.Log.Debug("Loaded shader pipeline", zap.String("name", name), zap.String("vertex", vertexPath), zap.String("fragment", fragmentPath))

	return pipeline, nil
}

func (reg *Registry) Get(name string) (UnboundShaderPipeline, bool) {
	pipeline, ok := reg.pipelines[name]
	return pipeline, ok
}

func (reg *Registry) MustGet(name string) UnboundShaderPipeline {
	pipeline, ok := reg.pipelines[name]
	if !ok {
		panic(fmt.Sprintf("shader pipeline %q is not loaded", name))
	}
	return pipeline
}

// Names returns the registered pipeline names in sorted order.
func (reg *Registry) Names() []string {
	names := make([]string, 0, len(reg.pipelines))
	for name := range reg.pipelines {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (reg *Registry) Delete() {
	for name, pipeline := range reg.pipelines {
		pipeline.Delete()
		delete(reg.pipelines, name)
	}
}
