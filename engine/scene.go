package engine

import (
	"fmt"
	"time"

	"pbrview/ibl"
	"pbrview/libgl"
	"pbrview/libscn"
	"pbrview/libtext"
	"pbrview/libutil"
	"pbrview/logger"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

const (
	SphereSegments = 64
	FontSize       = 24
)

type SceneOptions struct {
	Environment string
	Material    string
	Font        string
	// Prebaked is a directory with baked environment files. Empty bakes at startup.
	Prebaked string
	Lights   bool
}

// Scene owns every GPU resource used to draw a frame.
type Scene struct {
	Shaders     *libgl.Registry
	Environment *ibl.Environment
	Material    *Material
	Sphere      *libscn.GpuMesh
	Cube        *libscn.GpuMesh
	Lights      *Lights
	Text        *libtext.Renderer
	LoadTime    time.Duration

	deleters []libutil.Deleter
}

func (scene *Scene) own(obj libutil.Deleter) {
	scene.deleters = append(scene.deleters, obj)
}

// NewScene compiles the shaders, prepares the environment lighting, loads the material and
// builds the geometry. Everything created so far is released when an error is returned.
func NewScene(pack *DirPack, cache *libgl.ProgramCache, opts SceneOptions) (_ *Scene, err error) {
	start := time.Now()
	scene := &Scene{Lights: NewLights(opts.Lights)}
	defer func() {
		if err != nil {
			scene.Delete()
		}
	}()

	scene.Shaders = libgl.NewRegistry(cache)
	scene.own(scene.Shaders)
	if err := pack.LoadShaders(scene.Shaders); err != nil {
		return nil, err
	}

	if opts.Prebaked != "" {
		scene.Environment, err = uploadPrebaked(opts.Prebaked, opts.Environment)
	} else {
		scene.Environment, err = bakeEnvironment(pack, scene.Shaders, opts.Environment)
	}
	if err != nil {
		return nil, err
	}
	scene.own(scene.Environment)

	scene.Material, err = pack.LoadMaterial(opts.Material)
	if err != nil {
		return nil, err
	}
	scene.own(scene.Material)

	scene.Sphere = libscn.Upload(libscn.NewUvSphere(SphereSegments, SphereSegments))
	scene.own(scene.Sphere)
	scene.Cube = libscn.Upload(libscn.NewUnitCube())
	scene.own(scene.Cube)

	face, err := loadFace(pack, opts.Font)
	if err != nil {
		return nil, err
	}
	atlas, err := libtext.NewAtlas(face)
	if err != nil {
		return nil, fmt.Errorf("could not build font atlas: %w", err)
	}
	scene.Text = libtext.NewRenderer(atlas, scene.Shaders.MustGet("text"))
	scene.own(scene.Text)

	scene.LoadTime = time.Since(start)
	logger.Log.Info("Scene ready", zap.Duration("took", scene.LoadTime), zap.Strings("shaders", scene.Shaders.Names()))
	return scene, nil
}

// loadFace falls back to Go Mono when no font name is given.
func loadFace(pack *DirPack, name string) (font.Face, error) {
	if name == "" {
		return libtext.ParseFace(gomono.TTF, FontSize)
	}
	path, err := pack.FontPath(name)
	if err != nil {
		return nil, err
	}
	return libtext.LoadFace(path, FontSize)
}

func bakeEnvironment(pack *DirPack, programs ibl.ProgramSource, name string) (*ibl.Environment, error) {
	hdr, err := pack.LoadEnvironment(name)
	if err != nil {
		return nil, err
	}
	baker, err := ibl.NewBaker(programs)
	if err != nil {
		return nil, err
	}
	defer baker.Delete()

	env, err := baker.Bake(hdr)
	if err != nil {
		return nil, fmt.Errorf("could not bake environment %q: %w", name, err)
	}
	return env, nil
}

func uploadPrebaked(dir, name string) (*ibl.Environment, error) {
	files := PrebakedFiles(dir, name)
	skybox, irradiance, prefilter, lut, err := files.Load()
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrEnvironmentLoad, name, err)
	}
	env, err := ibl.Upload(skybox, irradiance, prefilter, lut)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrEnvironmentLoad, name, err)
	}
	logger.Log.Info("Uploaded prebaked environment", zap.String("dir", dir), zap.String("name", name))
	return env, nil
}

// Delete releases all resources in reverse creation order.
func (scene *Scene) Delete() {
	libutil.DeleteAll(scene.deleters)
	scene.deleters = nil
	libscn.DeleteSharedQuad()
}
