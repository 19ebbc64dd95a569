package engine_test

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pbrview/engine"
	"pbrview/ibl"
	"pbrview/libgl"
	"pbrview/libimg"
	"pbrview/libio"
)

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(name, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeRadiance(t *testing.T, name string, w, h int, value float32) {
	t.Helper()
	pix := make([]float32, w*h*3)
	for i := range pix {
		pix[i] = value
	}
	hdr := &libimg.Hdr{Pix: pix, Stride: w * 3, Rect: image.Rect(0, 0, w, h)}
	buf := new(bytes.Buffer)
	if err := libimg.Default.EncodeRadiance(buf, hdr); err != nil {
		t.Fatal(err)
	}
	writeFile(t, name, buf.String())
}

func newTestPack(t *testing.T) (*engine.DirPack, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "shaders", "pbr.json"), `{"vertex": "pbr.vert", "fragment": "pbr.frag"}`)
	writeFile(t, filepath.Join(dir, "shaders", "skybox.json"), `{"vertex": "skybox.vert", "fragment": "skybox.frag"}`)
	writeFile(t, filepath.Join(dir, "materials", "rusted_iron.json"), `{"albedo": "albedo.png"}`)
	writeRadiance(t, filepath.Join(dir, "environments", "grey.hdr"), 4, 2, 0.25)
	writeFile(t, filepath.Join(dir, "environments", "broken.hdr"), "#?RADIANCE\nnot really\n")
	writeFile(t, filepath.Join(dir, "index.json"), `{
		"shaders": ["shaders/*.json"],
		"materials": ["materials/*.json"],
		"environments": ["environments/*.hdr"],
		"fonts": ["fonts/*.ttf"]
	}`)

	pack := &engine.DirPack{}
	if err := pack.AddIndexFile(filepath.Join(dir, "index.json")); err != nil {
		t.Fatal(err)
	}
	return pack, dir
}

func TestPackIndex(t *testing.T) {
	pack, _ := newTestPack(t)

	for _, name := range []string{"pbr", "skybox"} {
		if _, ok := pack.ShaderIndex[name]; !ok {
			t.Errorf("shader %q should be registered", name)
		}
	}
	if _, ok := pack.MaterialIndex["rusted_iron"]; !ok {
		t.Errorf("material should be registered")
	}
	if len(pack.FontIndex) != 0 {
		t.Errorf("no fonts should be registered, got %v", pack.FontIndex)
	}

	vertex, fragment, err := pack.ShaderPaths("pbr")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(vertex, "shaders/pbr.vert") || !strings.HasSuffix(fragment, "shaders/pbr.frag") {
		t.Errorf("stage paths should be relative to the descriptor, got %q and %q", vertex, fragment)
	}

	if _, _, err := pack.ShaderPaths("missing"); err == nil {
		t.Errorf("unregistered pipeline should fail")
	}
	if _, err := pack.FontPath("missing"); err == nil {
		t.Errorf("unregistered font should fail")
	}
}

func TestPackLoadEnvironment(t *testing.T) {
	pack, _ := newTestPack(t)

	hdr, err := pack.LoadEnvironment("grey")
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Width() != 4 || hdr.Height() != 2 {
		t.Errorf("environment should be 4x2 but is %dx%d", hdr.Width(), hdr.Height())
	}

	for _, name := range []string{"broken", "missing"} {
		_, err := pack.LoadEnvironment(name)
		if !errors.Is(err, engine.ErrEnvironmentLoad) {
			t.Errorf("%s: error should wrap ErrEnvironmentLoad but is %v", name, err)
		}
	}
}

func TestPackBadIndex(t *testing.T) {
	pack := &engine.DirPack{}
	if err := pack.AddIndex(strings.NewReader("{"), "."); err == nil {
		t.Errorf("malformed index should fail")
	}
	if err := pack.AddIndexFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("missing index should fail")
	}
}

func TestPrebakedLoad(t *testing.T) {
	dir := t.TempDir()
	files := engine.PrebakedFiles(dir, "grey")

	for _, name := range []string{files.Skybox, files.Irradiance, files.Prefilter} {
		f, err := os.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if err := ibl.EncodeIblEnv(f, ibl.NewEmptyIblEnv(4, 2), ibl.OptCompress(0)); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}

	if _, _, _, _, err := files.Load(); err == nil {
		t.Fatalf("loading without a lookup table should fail")
	}

	f, err := os.Create(files.BrdfLut)
	if err != nil {
		t.Fatal(err)
	}
	lut := libio.NewFloatImage(make([]float32, 4*4*2), 2, 4, 4)
	if err := libio.EncodeFloatImage(f, lut, libio.FloatImageCompressionFixedPoint16Lz4); err != nil {
		t.Fatal(err)
	}
	f.Close()

	skybox, irradiance, prefilter, decodedLut, err := files.Load()
	if err != nil {
		t.Fatal(err)
	}
	if skybox.BaseSize != 4 || irradiance.Levels != 2 || prefilter.Levels != 2 {
		t.Errorf("unexpected cube maps %d/%d/%d", skybox.BaseSize, irradiance.Levels, prefilter.Levels)
	}
	if decodedLut.Channels != 2 || decodedLut.Width != 4 {
		t.Errorf("unexpected lookup table %dx%d", decodedLut.Width, decodedLut.Channels)
	}
}

func TestPackLoadMaterialMissingMap(t *testing.T) {
	pack, _ := newTestPack(t)

	// albedo.png is referenced but never written, so decoding fails before anything is uploaded
	mat, err := pack.LoadMaterial("rusted_iron")
	if err == nil {
		t.Fatalf("expected an error for a missing texture")
	}
	if mat != nil {
		t.Errorf("no material should be returned on error")
	}
	if !strings.Contains(err.Error(), "albedo") {
		t.Errorf("error should name the failing map, got %v", err)
	}

	if _, err := pack.LoadMaterial("missing"); err == nil {
		t.Errorf("unregistered material should fail")
	}
}

func TestNewSceneMissingShaderSource(t *testing.T) {
	dir := t.TempDir()
	for _, name := range engine.RequiredShaders {
		writeFile(t, filepath.Join(dir, "shaders", name+".json"),
			`{"vertex": "`+name+`.vert", "fragment": "`+name+`.frag"}`)
	}
	writeFile(t, filepath.Join(dir, "index.json"), `{"shaders": ["shaders/*.json"]}`)

	pack := &engine.DirPack{}
	if err := pack.AddIndexFile(filepath.Join(dir, "index.json")); err != nil {
		t.Fatal(err)
	}

	scene, err := engine.NewScene(pack, nil, engine.SceneOptions{})
	if scene != nil {
		t.Errorf("no scene should be returned on error")
	}
	var shaderErr *libgl.ShaderError
	if !errors.As(err, &shaderErr) {
		t.Fatalf("expected a shader error, got %v", err)
	}
	if shaderErr.Stage != "vertex" {
		t.Errorf("the vertex stage is read first, got %q", shaderErr.Stage)
	}
}
