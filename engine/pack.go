package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"pbrview/ibl"
	"pbrview/libgl"
	"pbrview/libimg"
	"pbrview/libio"
	"pbrview/logger"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// ErrEnvironmentLoad is returned when an environment image cannot be loaded or decoded.
var ErrEnvironmentLoad = errors.New("could not load environment")

// RequiredShaders are the pipelines a pack must provide.
var RequiredShaders = []string{"screen", "text", "light", "pbr", "skybox", "cubemap", "irradiance", "prefilter", "brdf", "imgui"}

type AssetIndex struct {
	Shaders      []string `json:"shaders"`
	Materials    []string `json:"materials"`
	Environments []string `json:"environments"`
	Fonts        []string `json:"fonts"`
}

type ShaderPipelineDesc struct {
	Vertex   string `json:"vertex"`
	Fragment string `json:"fragment"`
}

type MaterialDesc struct {
	Albedo    string `json:"albedo"`
	Normal    string `json:"normal"`
	Metallic  string `json:"metallic"`
	Roughness string `json:"roughness"`
	Ao        string `json:"ao"`
}

// DirPack resolves assets by base name from globs in index files.
type DirPack struct {
	ShaderIndex      map[string]string
	MaterialIndex    map[string]string
	EnvironmentIndex map[string]string
	FontIndex        map[string]string
}

func (pack *DirPack) AddIndexFile(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("could not add index file %q: %w", name, err)
	}
	defer f.Close()

	return pack.AddIndex(f, path.Dir(filepath.ToSlash(name)))
}

func (pack *DirPack) AddIndex(r io.Reader, root string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	index := AssetIndex{}
	err = json.Unmarshal(data, &index)
	if err != nil {
		return fmt.Errorf("could not unmarshal asset index: %w", err)
	}

	if pack.ShaderIndex == nil {
		pack.ShaderIndex = map[string]string{}
	}
	if pack.MaterialIndex == nil {
		pack.MaterialIndex = map[string]string{}
	}
	if pack.EnvironmentIndex == nil {
		pack.EnvironmentIndex = map[string]string{}
	}
	if pack.FontIndex == nil {
		pack.FontIndex = map[string]string{}
	}

	root = path.Clean(root)
	for _, group := range []struct {
		patterns []string
		index    map[string]string
	}{
		{index.Shaders, pack.ShaderIndex},
		{index.Materials, pack.MaterialIndex},
		{index.Environments, pack.EnvironmentIndex},
		{index.Fonts, pack.FontIndex},
	} {
		if err := pack.addAllMatches(root, group.patterns, group.index); err != nil {
			return err
		}
	}

	return nil
}

func (pack *DirPack) addAllMatches(root string, patterns []string, index map[string]string) error {
	for _, pattern := range patterns {
		matches, err := filepath.Glob(path.Join(root, pattern))
		if err != nil {
			return err
		}
		for _, match := range matches {
			match = filepath.ToSlash(match)
			name := strings.TrimSuffix(path.Base(match), path.Ext(match))
			index[name] = match
		}
	}
	return nil
}

func lookup(index map[string]string, kind, name string) (string, error) {
	filename, ok := index[name]
	if !ok {
		return "", fmt.Errorf("%s %q is not registered in this pack", kind, name)
	}
	return filename, nil
}

func readJson(filename, kind string, v any) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("could not read %s file %q: %w", kind, filename, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("could not unmarshal %s file %q: %w", kind, filename, err)
	}
	return nil
}

// ShaderPaths resolves the stage source files of a pipeline descriptor.
func (pack *DirPack) ShaderPaths(name string) (vertex, fragment string, err error) {
	filename, err := lookup(pack.ShaderIndex, "shader pipeline", name)
	if err != nil {
		return "", "", err
	}
	desc := ShaderPipelineDesc{}
	if err := readJson(filename, "shader pipeline", &desc); err != nil {
		return "", "", err
	}
	root := path.Dir(filename)
	return path.Join(root, desc.Vertex), path.Join(root, desc.Fragment), nil
}

// LoadShaders compiles every pipeline in the pack into reg. Missing required pipelines are
// reported before anything is compiled.
func (pack *DirPack) LoadShaders(reg *libgl.Registry) error {
	for _, name := range RequiredShaders {
		if _, ok := pack.ShaderIndex[name]; !ok {
			return fmt.Errorf("shader pipeline %q is required but not registered in this pack", name)
		}
	}

	names := make([]string, 0, len(pack.ShaderIndex))
	for name := range pack.ShaderIndex {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		vertex, fragment, err := pack.ShaderPaths(name)
		if err != nil {
			return err
		}
		if _, err := reg.Load(name, vertex, fragment); err != nil {
			return err
		}
		logger.Log.Debug("Loaded shader pipeline", zap.String("name", name))
	}
	return nil
}

type Material struct {
	Name      string
	Albedo    libgl.UnboundTexture
	Normal    libgl.UnboundTexture
	Metallic  libgl.UnboundTexture
	Roughness libgl.UnboundTexture
	Ao        libgl.UnboundTexture
}

// Textures are the material maps in texture unit order, starting at UnitAlbedo.
func (mat *Material) Textures() []libgl.UnboundTexture {
	return []libgl.UnboundTexture{mat.Albedo, mat.Normal, mat.Metallic, mat.Roughness, mat.Ao}
}

func (mat *Material) Delete() {
	for _, tex := range mat.Textures() {
		if tex != nil {
			tex.Delete()
		}
	}
}

func (pack *DirPack) LoadMaterial(name string) (_ *Material, err error) {
	filename, err := lookup(pack.MaterialIndex, "material", name)
	if err != nil {
		return nil, err
	}
	desc := MaterialDesc{}
	if err := readJson(filename, "material", &desc); err != nil {
		return nil, err
	}

	root := path.Dir(filename)
	mat := &Material{Name: name}
	defer func() {
		if err != nil {
			mat.Delete()
		}
	}()

	maps := []struct {
		name string
		file string
		srgb bool
		dst  *libgl.UnboundTexture
	}{
		{"albedo", desc.Albedo, true, &mat.Albedo},
		{"normal", desc.Normal, false, &mat.Normal},
		{"metallic", desc.Metallic, false, &mat.Metallic},
		{"roughness", desc.Roughness, false, &mat.Roughness},
		{"ao", desc.Ao, false, &mat.Ao},
	}
	for _, m := range maps {
		if m.file == "" {
			return nil, fmt.Errorf("material %q has no %q texture", filename, m.name)
		}
		tex, err := LoadTexture(path.Join(root, m.file), m.srgb)
		if err != nil {
			return nil, fmt.Errorf("could not load %q texture for material %q: %w", m.name, filename, err)
		}
		*m.dst = tex
	}

	return mat, nil
}

// LoadEnvironment decodes an environment image. Failures wrap ErrEnvironmentLoad.
func (pack *DirPack) LoadEnvironment(name string) (*libimg.Hdr, error) {
	filename, err := lookup(pack.EnvironmentIndex, "environment", name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvironmentLoad, err)
	}
	hdr, err := libimg.LoadHdrFile(filename)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrEnvironmentLoad, filename, err)
	}
	if hdr.Width() == 0 || hdr.Height() == 0 {
		return nil, fmt.Errorf("%w %q: %v", ErrEnvironmentLoad, filename, ibl.ErrEmptyImage)
	}
	logger.Log.Info("Loaded environment", zap.String("path", filename), zap.Int("width", hdr.Width()), zap.Int("height", hdr.Height()))
	return hdr, nil
}

func (pack *DirPack) FontPath(name string) (string, error) {
	return lookup(pack.FontIndex, "font", name)
}

// Prebaked are the file names cmd/iblbake and cmd/brdflut produce for an environment.
type Prebaked struct {
	Skybox, Irradiance, Prefilter, BrdfLut string
}

func PrebakedFiles(dir, environment string) Prebaked {
	return Prebaked{
		Skybox:     filepath.Join(dir, environment+"_skybox.iblenv"),
		Irradiance: filepath.Join(dir, environment+"_irradiance.iblenv"),
		Prefilter:  filepath.Join(dir, environment+"_prefilter.iblenv"),
		BrdfLut:    filepath.Join(dir, "brdf_lut.f32"),
	}
}

func decodeIblEnvFile(filename string) (*ibl.IblEnv, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	env, err := ibl.DecodeIblEnv(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode %q: %w", filename, err)
	}
	return env, nil
}

func decodeFloatImageFile(filename string) (*libio.FloatImage, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := libio.DecodeFloatImage(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode %q: %w", filename, err)
	}
	return img, nil
}

// Load reads the cube maps and lookup table of a prebaked environment.
func (files Prebaked) Load() (skybox, irradiance, prefilter *ibl.IblEnv, lut *libio.FloatImage, err error) {
	if skybox, err = decodeIblEnvFile(files.Skybox); err != nil {
		return
	}
	if irradiance, err = decodeIblEnvFile(files.Irradiance); err != nil {
		return
	}
	if prefilter, err = decodeIblEnvFile(files.Prefilter); err != nil {
		return
	}
	lut, err = decodeFloatImageFile(files.BrdfLut)
	return
}
