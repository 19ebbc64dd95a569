package libgl

import (
	"fmt"
	"strings"
	"unsafe"

	"pbrview/logger"

	"github.com/go-gl/gl/v4.5-core/gl"
	"go.uber.org/zap"
)

type LabeledGlObject interface {
	SetDebugLabel(string)
}

func setObjectLabel(namespace, id uint32, label string) {
	if label == "" {
		return
	}
	bytes := []byte(label)
	gl.ObjectLabel(namespace, id, int32(len(bytes)), (*uint8)(unsafe.Pointer(&bytes[0])))
}

func PushDebugGroup(name string) {
	gl.PushDebugGroup(gl.DEBUG_SOURCE_APPLICATION, 0, -1, gl.Str(name+"\x00"))
}

func PopDebugGroup() {
	gl.PopDebugGroup()
}

// EnableDebugOutput routes driver messages to the logger. High severity messages panic
// with the current debug group stack.
func EnableDebugOutput() {
	gl.Enable(gl.DEBUG_OUTPUT)
	gl.Enable(gl.DEBUG_OUTPUT_SYNCHRONOUS)
	groupStack := []string{"top"}
	gl.DebugMessageCallback(func(source, gltype, id, severity uint32, length int32, message string, userParam unsafe.Pointer) {
		if gltype == gl.DEBUG_TYPE_PUSH_GROUP {
			groupStack = append(groupStack, message)
			return
		} else if gltype == gl.DEBUG_TYPE_POP_GROUP {
			groupStack = groupStack[:len(groupStack)-1]
			return
		}
		fields := []zap.Field{
			zap.Uint32("id", id),
			zap.String("type", debugTypeString(gltype)),
			zap.String("source", debugSourceString(source)),
		}
		switch severity {
		case gl.DEBUG_SEVERITY_HIGH:
			stack := strings.Join(groupStack, " > ")
			logger.Log.Error(message, append(fields, zap.String("stack", stack))...)
			panic(fmt.Errorf("gl: %v\ndebug stack: %v", message, stack))
		case gl.DEBUG_SEVERITY_MEDIUM:
			logger.Log.Warn(message, fields...)
		case gl.DEBUG_SEVERITY_LOW:
			logger.Log.Info(message, fields...)
		default:
			logger.Log.Debug(message, fields...)
		}
	}, nil)

	// buffer detailed info, dominates the output on nvidia
	disabledMessages := []uint32{131185}
	gl.DebugMessageControl(gl.DEBUG_SOURCE_API, gl.DEBUG_TYPE_OTHER, gl.DONT_CARE, int32(len(disabledMessages)), &disabledMessages[0], false)
}

func debugTypeString(gltype uint32) string {
	switch gltype {
	case gl.DEBUG_TYPE_ERROR:
		return "ERROR"
	case gl.DEBUG_TYPE_DEPRECATED_BEHAVIOR:
		return "DEPRECATED_BEHAVIOR"
	case gl.DEBUG_TYPE_UNDEFINED_BEHAVIOR:
		return "UNDEFINED_BEHAVIOR"
	case gl.DEBUG_TYPE_PERFORMANCE:
		return "PERFORMANCE"
	case gl.DEBUG_TYPE_PORTABILITY:
		return "PORTABILITY"
	case gl.DEBUG_TYPE_MARKER:
		return "MARKER"
	}
	return "OTHER"
}

func debugSourceString(source uint32) string {
	switch source {
	case gl.DEBUG_SOURCE_API:
		return "GRAPHICS_LIBRARY"
	case gl.DEBUG_SOURCE_SHADER_COMPILER:
		return "SHADER_COMPILER"
	case gl.DEBUG_SOURCE_WINDOW_SYSTEM:
		return "WINDOW_SYSTEM"
	case gl.DEBUG_SOURCE_THIRD_PARTY:
		return "THIRD_PARTY"
	case gl.DEBUG_SOURCE_APPLICATION:
		return "APPLICATION"
	}
	return "OTHER"
}
