package main

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"time"
	"unsafe"

	"pbrview/engine"
	"pbrview/libgl"
	"pbrview/logger"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

var Arguments = struct {
	Assets                     string
	Environment                string
	Material                   string
	Font                       string
	Prebaked                   string
	Width, Height              int
	Msaa                       int
	Lights                     bool
	Vsync                      bool
	Debug                      bool
	DisableShaderCache         bool
	EnableCompatibilityProfile bool
}{
	Assets:      "assets/index.json",
	Environment: "newport_loft",
	Material:    "rusted_iron",
	Width:       1280,
	Height:      720,
	Msaa:        4,
	Vsync:       true,
}

func main() {
	flag.StringVar(&Arguments.Assets, "assets", Arguments.Assets, "asset pack index")
	flag.StringVar(&Arguments.Environment, "environment", Arguments.Environment, "name of the HDR environment in the asset pack")
	flag.StringVar(&Arguments.Material, "material", Arguments.Material, "name of the sphere material in the asset pack")
	flag.StringVar(&Arguments.Font, "font", Arguments.Font, "name of the overlay font in the asset pack, Go Mono when empty")
	flag.StringVar(&Arguments.Prebaked, "prebaked", Arguments.Prebaked, "directory with prebaked environment maps, baked at startup when empty")
	flag.IntVar(&Arguments.Width, "width", Arguments.Width, "window width")
	flag.IntVar(&Arguments.Height, "height", Arguments.Height, "window height")
	flag.IntVar(&Arguments.Msaa, "msaa", Arguments.Msaa, "multisample count")
	flag.BoolVar(&Arguments.Lights, "lights", Arguments.Lights, "enable the point lights")
	flag.BoolVar(&Arguments.Vsync, "vsync", Arguments.Vsync, "wait for vertical sync")
	flag.BoolVar(&Arguments.Debug, "debug", Arguments.Debug, "verbose logging and GL debug output")
	flag.BoolVar(&Arguments.DisableShaderCache, "disable-shader-cache", Arguments.DisableShaderCache, "do not cache program binaries")
	flag.BoolVar(&Arguments.EnableCompatibilityProfile, "enable-compatibility-profile", Arguments.EnableCompatibilityProfile, "request a compatibility context")
	flag.Parse()

	if err := logger.Init(Arguments.Debug); err != nil {
		panic(err)
	}
	defer logger.Sync()

	runtime.LockOSThread()
	err := glfw.Init()
	check(err)
	defer glfw.Terminate()

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	if Arguments.Debug {
		glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	}
	if Arguments.EnableCompatibilityProfile {
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCompatProfile)
	} else {
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	}
	glfw.WindowHint(glfw.Samples, 0)
	ctx, err := glfw.CreateWindow(Arguments.Width, Arguments.Height, "PBR Viewer", nil, nil)
	check(err)
	ctx.MakeContextCurrent()
	if Arguments.Vsync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	err = gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
		addr := glfw.GetProcAddress(name)
		if addr == nil {
			return unsafe.Pointer(uintptr(0xffff_ffff_ffff_ffff))
		}
		return addr
	})
	check(err)

	libgl.Init()
	if Arguments.Debug {
		libgl.EnableDebugOutput()
	}
	logger.Log.Info("OpenGL context",
		zap.String("vendor", libgl.Env.Vendor),
		zap.String("renderer", libgl.Env.Renderer),
		zap.String("version", libgl.Env.Version))

	cache := libgl.NewProgramCache(shaderCacheDir())
	cache.Disabled = Arguments.DisableShaderCache

	pack := &engine.DirPack{}
	check(pack.AddIndexFile(Arguments.Assets))

	scene, err := engine.NewScene(pack, cache, engine.SceneOptions{
		Environment: Arguments.Environment,
		Material:    Arguments.Material,
		Font:        Arguments.Font,
		Prebaked:    Arguments.Prebaked,
		Lights:      Arguments.Lights,
	})
	check(err)
	defer scene.Delete()

	renderer, err := engine.NewRenderer(ctx, Arguments.Msaa)
	check(err)
	defer renderer.Delete()
	renderer.Gui = engine.NewGui(ctx, scene.Shaders.MustGet("imgui"))

	cam := engine.NewCamera(mgl32.Vec3{0, 0, 20})
	controls := &engine.Controls{
		Input:  engine.NewInput(ctx),
		Camera: cam,
		Lights: scene.Lights,
	}
	timekeeper := engine.NewTimekeeper(nil)

	for !ctx.ShouldClose() {
		glfw.PollEvents()
		if !timekeeper.Tick() {
			if wait := timekeeper.Remaining(); wait > time.Millisecond {
				time.Sleep(wait - time.Millisecond)
			}
			continue
		}

		if !controls.Update(ctx, timekeeper.Delta) {
			ctx.SetShouldClose(true)
			continue
		}
		renderer.ShowGui = controls.ShowGui
		if controls.ShowGui {
			renderer.Gui.Update(ctx, controls.Input)
		}

		if err := renderer.Render(scene, cam, timekeeper); err != nil {
			logger.Log.Error("Frame failed", zap.Error(err))
		}
		ctx.SwapBuffers()
		timekeeper.FrameRendered()
	}
}

func shaderCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "pbrview", "shaders")
	}
	return filepath.Join(dir, "pbrview", "shaders")
}

func check(err error) {
	if err != nil {
		logger.Log.Fatal("Fatal error", zap.Error(err))
	}
}
