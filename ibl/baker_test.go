package ibl_test

import (
	"math"
	"path/filepath"
	"testing"

	"pbrview/ibl"
	"pbrview/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
)

var bakePrograms = map[string][2]string{
	"cubemap":    {"cubemap.vert", "cubemap.frag"},
	"irradiance": {"cubemap.vert", "irradiance.frag"},
	"prefilter":  {"cubemap.vert", "prefilter.frag"},
	"brdf":       {"brdf.vert", "brdf.frag"},
}

// newTestBaker runs on the context thread, so it reports errors instead of failing the test.
func newTestBaker() (*ibl.Baker, *libgl.Registry, error) {
	reg := libgl.NewRegistry(nil)
	for name, files := range bakePrograms {
		vert := filepath.Join("..", "assets", "shaders", files[0])
		frag := filepath.Join("..", "assets", "shaders", files[1])
		if _, err := reg.Load(name, vert, frag); err != nil {
			reg.Delete()
			return nil, nil, err
		}
	}
	baker, err := ibl.NewBaker(reg)
	if err != nil {
		reg.Delete()
		return nil, nil, err
	}
	// keep the test fast, the sizes do not change the properties checked
	baker.SkyboxSize = 64
	baker.IrradianceSize = 8
	baker.PrefilterSize = 32
	baker.BrdfLutSize = 32
	return baker, reg, nil
}

func downloadFace(tex libgl.UnboundTexture, level, face, size int) []float32 {
	pix := make([]float32, size*size*3)
	tex.Download(level, face, gl.RGB, pix)
	return pix
}

func mean(pix []float32) float32 {
	var sum float32
	for _, v := range pix {
		sum += v
	}
	return sum / float32(len(pix))
}

func TestBakeConstant(t *testing.T) {
	const value = 0.5
	var env *ibl.Environment
	var err error
	var faces [][]float32
	var names []string

	runOnMain(t, func() {
		var baker *ibl.Baker
		var reg *libgl.Registry
		baker, reg, err = newTestBaker()
		if err != nil {
			return
		}
		defer reg.Delete()
		defer baker.Delete()

		env, err = baker.Bake(constantHdr(32, 16, value))
		if err != nil {
			return
		}
		defer env.Delete()

		for face := 0; face < 6; face++ {
			faces = append(faces, downloadFace(env.Skybox, 0, face, baker.SkyboxSize))
			names = append(names, "skybox "+ibl.CubeMapFace(face).String())
			faces = append(faces, downloadFace(env.Irradiance, 0, face, baker.IrradianceSize))
			names = append(names, "irradiance "+ibl.CubeMapFace(face).String())
			faces = append(faces, downloadFace(env.Prefilter, 0, face, baker.PrefilterSize))
			names = append(names, "prefilter "+ibl.CubeMapFace(face).String())
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(env.Timings) != 4 {
		t.Errorf("expected 4 stage timings, got %d", len(env.Timings))
	}
	for i, pix := range faces {
		// half floats keep about 3 decimal digits
		checkConstant(t, names[i], pix, value, 2e-3)
	}
}

func TestBakeOrientation(t *testing.T) {
	var up, down float32
	var err error

	runOnMain(t, func() {
		var baker *ibl.Baker
		var reg *libgl.Registry
		baker, reg, err = newTestBaker()
		if err != nil {
			return
		}
		defer reg.Delete()
		defer baker.Delete()

		var env *ibl.Environment
		env, err = baker.Bake(topBottomHdr(1, 0))
		if err != nil {
			return
		}
		defer env.Delete()

		up = mean(downloadFace(env.Skybox, 0, int(ibl.CubeMapPositiveY), baker.SkyboxSize))
		down = mean(downloadFace(env.Skybox, 0, int(ibl.CubeMapNegativeY), baker.SkyboxSize))
	})
	if err != nil {
		t.Fatal(err)
	}

	if up < 0.9 || down > 0.1 {
		t.Errorf("+y face should be bright and -y dark, got %.4f and %.4f", up, down)
	}
}

func TestBakeBrdfLutRange(t *testing.T) {
	var lut []float32
	var err error

	runOnMain(t, func() {
		var baker *ibl.Baker
		var reg *libgl.Registry
		baker, reg, err = newTestBaker()
		if err != nil {
			return
		}
		defer reg.Delete()
		defer baker.Delete()

		var env *ibl.Environment
		env, err = baker.Bake(constantHdr(4, 2, 1))
		if err != nil {
			return
		}
		defer env.Delete()

		lut = make([]float32, baker.BrdfLutSize*baker.BrdfLutSize*2)
		env.BrdfLut.Download(0, 0, gl.RG, lut)
	})
	if err != nil {
		t.Fatal(err)
	}

	for i, v := range lut {
		if v < 0 || v > 1+2e-3 || math.IsNaN(float64(v)) {
			t.Fatalf("value %d out of range: %f", i, v)
		}
	}
}

func TestBakeEmpty(t *testing.T) {
	var err error
	runOnMain(t, func() {
		var baker *ibl.Baker
		var reg *libgl.Registry
		baker, reg, err = newTestBaker()
		if err != nil {
			return
		}
		defer reg.Delete()
		defer baker.Delete()
		_, err = baker.Bake(nil)
	})
	if err != ibl.ErrEmptyImage {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
}

func TestNewBakerMissingProgram(t *testing.T) {
	reg := libgl.NewRegistry(nil)
	if _, err := ibl.NewBaker(reg); err == nil {
		t.Errorf("expected an error for a registry without bake programs")
	}
}

func TestBakeIncompleteTarget(t *testing.T) {
	var env *ibl.Environment
	var err error
	runOnMain(t, func() {
		var baker *ibl.Baker
		var reg *libgl.Registry
		baker, reg, err = newTestBaker()
		if err != nil {
			t.Errorf("could not create baker: %v", err)
			return
		}
		defer reg.Delete()
		defer baker.Delete()

		// depth textures are not color renderable, so the first face cannot be attached
		baker.CubeFormat = gl.DEPTH_COMPONENT24
		env, err = baker.Bake(constantHdr(4, 2, 1))
	})
	if err == nil {
		t.Fatalf("expected an incomplete framebuffer error")
	}
	if env != nil {
		t.Errorf("no environment should be returned on error")
	}
}
