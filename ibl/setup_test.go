package ibl_test

import (
	"fmt"
	"os"
	"runtime"
	"testing"
	"unsafe"

	"pbrview/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var onMain chan func()
var onMainDone chan struct{}

// glAvailable is false when no hidden window with a 4.5 context could be created.
var glAvailable bool

func createContext() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	if err := glfw.Init(); err != nil {
		return err
	}
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	ctx, err := glfw.CreateWindow(640, 480, "Testing Window", nil, nil)
	if err != nil {
		glfw.Terminate()
		return err
	}
	ctx.MakeContextCurrent()

	err = gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
		addr := glfw.GetProcAddress(name)
		if addr == nil {
			return unsafe.Pointer(uintptr(0xffff_ffff_ffff_ffff))
		}
		return addr
	})
	if err != nil {
		return err
	}

	libgl.Init()
	libgl.EnableDebugOutput()
	return nil
}

func TestMain(m *testing.M) {
	runtime.LockOSThread()

	if err := createContext(); err != nil {
		fmt.Printf("GL tests disabled: %v\n", err)
		os.Exit(m.Run())
	}
	glAvailable = true

	onMain = make(chan func())
	onMainDone = make(chan struct{})

	go func() {
		os.Exit(m.Run())
	}()

	for fn := range onMain {
		fn()
		onMainDone <- struct{}{}
	}
}

// runOnMain runs fn on the thread that owns the context. Tests calling it are skipped
// without a context.
func runOnMain(t *testing.T, fn func()) {
	t.Helper()
	if !glAvailable {
		t.Skip("no OpenGL 4.5 context available")
	}
	onMain <- fn
	<-onMainDone
}
