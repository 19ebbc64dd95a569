package libgl_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pbrview/libgl"
)

func TestRegistryMissingFile(t *testing.T) {
	dir := t.TempDir()
	vertexPath := filepath.Join(dir, "pbr.vert")
	if err := os.WriteFile(vertexPath, []byte("#version 450 core\nvoid main() {}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	fragmentPath := filepath.Join(dir, "missing.frag")

	reg := libgl.NewRegistry(nil)
	_, err := reg.Load("pbr", vertexPath, fragmentPath)

	var shaderErr *libgl.ShaderError
	if !errors.As(err, &shaderErr) {
		t.Fatalf("error should be a *ShaderError but was %v", err)
	}
	if shaderErr.Path != fragmentPath {
		t.Errorf("error path should be %q but was %q", fragmentPath, shaderErr.Path)
	}
	if shaderErr.Stage != "fragment" {
		t.Errorf("error stage should be fragment but was %q", shaderErr.Stage)
	}
	if _, ok := reg.Get("pbr"); ok {
		t.Errorf("failed pipeline should not be registered")
	}
	if names := reg.Names(); len(names) != 0 {
		t.Errorf("failed pipeline should not be listed, got %v", names)
	}
}

func TestProgramCacheExpiry(t *testing.T) {
	cache := libgl.NewProgramCache(t.TempDir())
	source := "#version 450 core\nvoid main() {}\n"
	if err := cache.Write(source, 7, []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}

	ok, buf, format := cache.Get(source)
	if !ok || format != 7 || len(buf) != 3 {
		t.Fatalf("cache should return the stored binary but was (%v, %v, %d)", ok, buf, format)
	}

	if ok, _, _ := cache.Get(source + " "); ok {
		t.Errorf("different source should miss")
	}

	cache.SetClock(func() time.Time { return time.Now().Add(libgl.ProgramCacheExpiry + time.Hour) })
	if ok, _, _ := cache.Get(source); ok {
		t.Errorf("expired entry should miss")
	}

	cache.Disabled = true
	cache.SetClock(time.Now)
	if ok, _, _ := cache.Get(source); ok {
		t.Errorf("disabled cache should miss")
	}
}
