package libgl

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"pbrview/logger"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

var shaderMetaPattern = regexp.MustCompile(`(?m)^\/\/meta:(\w+)(.+)$`)
var shaderDefinePattern = regexp.MustCompile(`(?m)^[ \t]*(\/\/)?[ \t]*#define ([\w\d]+)[ \t]?(.*)$`)
var shaderVersionPattern = regexp.MustCompile(`(?m)^\s*#version.+$`)

type shaderPipeline struct {
	glId      uint32
	name      string
	vertStage ShaderProgram
	fragStage ShaderProgram
}

type UnboundShaderPipeline interface {
	LabeledGlObject
	Bind() BoundShaderPipeline
	Attach(program ShaderProgram, stages int)
	Get(stage int) ShaderProgram
	// SetUniform sets the uniform on every attached stage that declares it.
	SetUniform(name string, value any)
	SetUniformIndexed(name string, index int, value any)
	Name() string
	Id() uint32
	Delete()
}

type BoundShaderPipeline interface {
	UnboundShaderPipeline
}

func NewPipeline(name string) UnboundShaderPipeline {
	var id uint32
	gl.CreateProgramPipelines(1, &id)
	return &shaderPipeline{
		glId: id,
		name: name,
	}
}

func (pipeline *shaderPipeline) SetDebugLabel(label string) {
	setObjectLabel(gl.PROGRAM_PIPELINE, pipeline.glId, label)
}

func (pipeline *shaderPipeline) Attach(program ShaderProgram, stages int) {
	gl.UseProgramStages(pipeline.glId, uint32(stages), program.Id())
	if stages&gl.VERTEX_SHADER_BIT != 0 {
		pipeline.vertStage = program
	}
	if stages&gl.FRAGMENT_SHADER_BIT != 0 {
		pipeline.fragStage = program
	}
}

func (pipeline *shaderPipeline) Get(stage int) ShaderProgram {
	switch stage {
	case gl.VERTEX_SHADER:
		return pipeline.vertStage
	case gl.FRAGMENT_SHADER:
		return pipeline.fragStage
	}
	logger.Log.Panic("Invalid shader stage", zap.Int("stage", stage))
	return nil
}

func (pipeline *shaderPipeline) stages() []ShaderProgram {
	stages := make([]ShaderProgram, 0, 2)
	if pipeline.vertStage != nil {
		stages = append(stages, pipeline.vertStage)
	}
	if pipeline.fragStage != nil && pipeline.fragStage != pipeline.vertStage {
		stages = append(stages, pipeline.fragStage)
	}
	return stages
}

func (pipeline *shaderPipeline) SetUniform(name string, value any) {
	for _, prog := range pipeline.stages() {
		prog.SetUniform(name, value)
	}
}

func (pipeline *shaderPipeline) SetUniformIndexed(name string, index int, value any) {
	for _, prog := range pipeline.stages() {
		prog.SetUniformIndexed(name, index, value)
	}
}

func (pipeline *shaderPipeline) Bind() BoundShaderPipeline {
	State.BindProgramPipeline(pipeline.glId)
	return BoundShaderPipeline(pipeline)
}

func (pipeline *shaderPipeline) Name() string {
	return pipeline.name
}

func (pipeline *shaderPipeline) Id() uint32 {
	return pipeline.glId
}

// Delete releases the pipeline together with its stage programs.
func (pipeline *shaderPipeline) Delete() {
	for _, prog := range pipeline.stages() {
		prog.Delete()
	}
	if State != nil && State.ProgramPipeline == pipeline.glId {
		State.ProgramPipeline = 0
	}
	gl.DeleteProgramPipelines(1, &pipeline.glId)
	pipeline.glId = 0
}

type glslDef struct {
	marker  string
	name    string
	value   string
	boolean bool
}

// shaderTemplate is shader source with its #define lines replaced by markers so they can be
// overridden per compilation.
type shaderTemplate struct {
	source      string
	definitions map[string]glslDef
	versionEnd  int
}

func parseShaderTemplate(source string) *shaderTemplate {
	defineMatches := shaderDefinePattern.FindAllStringSubmatch(source, -1)
	definitions := make(map[string]glslDef, len(defineMatches))
	defineMarkers := make(map[string]string, len(defineMatches))
	for i, match := range defineMatches {
		value := strings.TrimSpace(match[3])
		marker := fmt.Sprintf("$def_%v$", i)
		boolean := value == ""
		if boolean && match[1] == "//" {
			value = "false"
		}
		definitions[strings.ToLower(match[2])] = glslDef{
			marker:  marker,
			name:    match[2],
			value:   value,
			boolean: boolean,
		}
		defineMarkers[match[0]] = marker
	}
	source = shaderDefinePattern.ReplaceAllStringFunc(source, func(s string) string {
		return defineMarkers[s]
	})

	versionEnd := 0
	if loc := shaderVersionPattern.FindStringIndex(source); loc != nil {
		versionEnd = loc[1]
	}

	return &shaderTemplate{
		source:      source,
		definitions: definitions,
		versionEnd:  versionEnd,
	}
}

func expandDefines(template string, defs map[string]string) string {
	return parseShaderTemplate(template).expand(defs)
}

// expand produces compilable source. Known defines take the override value; a boolean
// define is commented out by "false". Unknown names are inserted after #version.
func (tmpl *shaderTemplate) expand(defs map[string]string) string {
	source := tmpl.source
	values := make(map[string]string, len(tmpl.definitions))
	for k, def := range tmpl.definitions {
		values[k] = def.value
	}

	var extra strings.Builder
	for n, v := range defs {
		k := strings.ToLower(n)
		if _, ok := tmpl.definitions[k]; ok {
			values[k] = v
		} else {
			fmt.Fprintf(&extra, "\n#define %v %v", n, v)
		}
	}

	for k, def := range tmpl.definitions {
		value := values[k]
		sub := fmt.Sprintf("#define %v %v", def.name, value)
		if def.boolean {
			sub = fmt.Sprintf("#define %v", def.name)
			if value == "false" {
				sub = "// " + sub
			}
		}
		source = strings.Replace(source, def.marker, sub, 1)
	}

	if extra.Len() > 0 {
		source = source[:tmpl.versionEnd] + extra.String() + source[tmpl.versionEnd:]
	}
	return source
}

// uniformTable caches name to location lookups. A miss is cached as -1.
type uniformTable struct {
	locations map[string]int32
	resolve   func(name string) int32
}

func newUniformTable(resolve func(name string) int32) *uniformTable {
	return &uniformTable{
		locations: map[string]int32{},
		resolve:   resolve,
	}
}

// put records a location known at link time. Array uniforms are also recorded under
// their base name.
func (t *uniformTable) put(name string, location int32) {
	t.locations[name] = location
	if base, ok := strings.CutSuffix(name, "[0]"); ok {
		t.locations[base] = location
	}
}

func (t *uniformTable) lookup(name string) (location int32, ok bool, cached bool) {
	if location, ok := t.locations[name]; ok {
		return location, location != -1, true
	}
	location = t.resolve(name)
	t.locations[name] = location
	return location, location != -1, false
}

type program struct {
	uniforms   *uniformTable
	template   *shaderTemplate
	glId       uint32
	name       string
	path       string
	sourceLive string
	stage      int
	cache      *ProgramCache
}

type ShaderProgram interface {
	Id() uint32
	Name() string
	Path() string
	Stage() int
	Compile() error
	CompileWith(defs map[string]string) error
	Delete()
	// Uniform returns the location of a uniform and whether the program declares it.
	Uniform(name string) (location int32, ok bool)
	SetUniform(name string, value any)
	SetUniformIndexed(name string, index int, value any)
	Source() string
}

func NewShader(source string, stage int) ShaderProgram {
	name := "untitled"

	metaMatches := shaderMetaPattern.FindAllStringSubmatch(source, -1)
	for _, match := range metaMatches {
		key, value := match[1], strings.TrimSpace(match[2])
		if strings.EqualFold(key, "name") {
			name = value
		}
	}

	return &program{
		name:     name,
		stage:    stage,
		template: parseShaderTemplate(source),
	}
}

func StageName(stage int) string {
	switch stage {
	case gl.VERTEX_SHADER:
		return "vertex"
	case gl.FRAGMENT_SHADER:
		return "fragment"
	}
	return fmt.Sprintf("stage 0x%04x", stage)
}

func (prog *program) Name() string {
	return prog.name
}

func (prog *program) Path() string {
	return prog.path
}

func (prog *program) Stage() int {
	return prog.stage
}

func (prog *program) Compile() error {
	return prog.CompileWith(nil)
}

func (prog *program) CompileWith(defs map[string]string) error {
	source := prog.template.expand(defs)

	id, err := prog.loadCached(source)
	if err != nil {
		return err
	}
	if id == 0 {
		id, err = prog.compileSource(source)
		if err != nil {
			return err
		}
		prog.cache.Put(source, id)
	}

	if prog.glId != 0 {
		gl.DeleteProgram(prog.glId)
	}
	prog.glId = id
	prog.sourceLive = source
	prog.uniforms = newUniformTable(prog.resolveUniform)

	var count int32
	gl.GetProgramiv(id, gl.ACTIVE_UNIFORMS, &count)
	nameBuf := make([]uint8, 256)
	for i := uint32(0); i < uint32(count); i++ {
		var length, size int32
		var kind uint32
		gl.GetActiveUniform(id, i, int32(len(nameBuf)), &length, &size, &kind, &nameBuf[0])
		name := string(nameBuf[:length])
		prog.uniforms.put(name, gl.GetUniformLocation(id, gl.Str(name+"\x00")))
	}

	return nil
}

func (prog *program) loadCached(source string) (uint32, error) {
	ok, buf, format := prog.cache.Get(source)
	if !ok {
		return 0, nil
	}
	id := gl.CreateProgram()
	gl.ProgramParameteri(id, gl.PROGRAM_SEPARABLE, gl.TRUE)
	gl.ProgramBinary(id, format, Pointer(buf), int32(len(buf)))
	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		// stale binary, e.g. after a driver update
		gl.DeleteProgram(id)
		return 0, nil
	}
	logger.Log.Debug("Shader program loaded from cache", zap.String("name", prog.name), zap.String("path", prog.path))
	return id, nil
}

func (prog *program) compileSource(source string) (uint32, error) {
	shader := gl.CreateShader(uint32(prog.stage))
	defer gl.DeleteShader(shader)
	cStrs, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, cStrs, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		return 0, &ShaderError{
			Program: prog.name,
			Stage:   StageName(prog.stage),
			Path:    prog.path,
			Log:     readShaderInfoLog(shader),
		}
	}

	id := gl.CreateProgram()
	gl.ProgramParameteri(id, gl.PROGRAM_SEPARABLE, gl.TRUE)
	gl.ProgramParameteri(id, gl.PROGRAM_BINARY_RETRIEVABLE_HINT, gl.TRUE)
	gl.AttachShader(id, shader)
	gl.LinkProgram(id)
	gl.DetachShader(id, shader)

	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		infoLog := readProgramInfoLog(id)
		gl.DeleteProgram(id)
		return 0, &ShaderError{
			Program: prog.name,
			Stage:   StageLink,
			Path:    prog.path,
			Log:     infoLog,
		}
	}
	return id, nil
}

func (prog *program) Source() string {
	return prog.sourceLive
}

func (prog *program) Id() uint32 {
	return prog.glId
}

func (prog *program) Delete() {
	gl.DeleteProgram(prog.glId)
	prog.glId = 0
}

func readShaderInfoLog(id uint32) string {
	var logLength int32
	gl.GetShaderiv(id, gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	buf := make([]uint8, logLength+1)
	gl.GetShaderInfoLog(id, logLength, nil, &buf[0])
	return strings.TrimRight(string(buf), "\x00\n")
}

func readProgramInfoLog(id uint32) string {
	var logLength int32
	gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	buf := make([]uint8, logLength+1)
	gl.GetProgramInfoLog(id, logLength, nil, &buf[0])
	return strings.TrimRight(string(buf), "\x00\n")
}

func (prog *program) resolveUniform(name string) int32 {
	location := gl.GetUniformLocation(prog.glId, gl.Str(name+"\x00"))
	if location == -1 {
		logger.Log.Debug("Uniform not declared, ignoring", zap.String("shader", prog.name), zap.String("uniform", name))
	}
	return location
}

func (prog *program) Uniform(name string) (int32, bool) {
	if prog.uniforms == nil {
		return -1, false
	}
	location, ok, _ := prog.uniforms.lookup(name)
	return location, ok
}

func (prog *program) SetUniformIndexed(name string, index int, value any) {
	location, ok := prog.Uniform(name)
	if !ok {
		return
	}
	setProgramUniformAny(prog.glId, location+int32(index), value)
}

func (prog *program) SetUniform(name string, value any) {
	location, ok := prog.Uniform(name)
	if !ok {
		return
	}
	setProgramUniformAny(prog.glId, location, value)
}

func setProgramUniformAny(prog uint32, location int32, value any) {
	for refVal := reflect.ValueOf(value); refVal.Kind() == reflect.Ptr; refVal = reflect.ValueOf(value) {
		value = refVal.Elem().Interface()
	}

	switch v := value.(type) {
	case bool:
		var i int32
		if v {
			i = 1
		}
		gl.ProgramUniform1i(prog, location, i)
	case float64:
		gl.ProgramUniform1d(prog, location, v)
	case float32:
		gl.ProgramUniform1f(prog, location, v)
	case int:
		gl.ProgramUniform1i(prog, location, int32(v))
	case int32:
		gl.ProgramUniform1i(prog, location, v)
	case uint32:
		gl.ProgramUniform1ui(prog, location, v)
	case mgl32.Vec2:
		gl.ProgramUniform2f(prog, location, v.X(), v.Y())
	case mgl64.Vec2:
		gl.ProgramUniform2d(prog, location, v.X(), v.Y())
	case mgl32.Vec3:
		gl.ProgramUniform3f(prog, location, v.X(), v.Y(), v.Z())
	case mgl64.Vec3:
		gl.ProgramUniform3d(prog, location, v.X(), v.Y(), v.Z())
	case mgl32.Vec4:
		gl.ProgramUniform4f(prog, location, v.X(), v.Y(), v.Z(), v.W())
	case mgl64.Vec4:
		gl.ProgramUniform4d(prog, location, v.X(), v.Y(), v.Z(), v.W())
	case mgl32.Mat3:
		gl.ProgramUniformMatrix3fv(prog, location, 1, false, &v[0])
	case mgl32.Mat4:
		gl.ProgramUniformMatrix4fv(prog, location, 1, false, &v[0])
	case mgl64.Mat4:
		gl.ProgramUniformMatrix4dv(prog, location, 1, false, &v[0])
	default:
		logger.Log.Panic("Unsupported uniform type", zap.Stringer("type", reflect.TypeOf(value)))
	}
}
