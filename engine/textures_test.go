package engine_test

import (
	"testing"

	"pbrview/engine"

	"github.com/go-gl/gl/v4.5-core/gl"
)

func TestTextureFormat(t *testing.T) {
	tests := []struct {
		channels       int
		srgb           bool
		format         uint32
		internalFormat uint32
	}{
		{1, false, gl.RED, gl.R8},
		{1, true, gl.RED, gl.R8},
		{2, false, gl.RG, gl.RG8},
		{3, false, gl.RGB, gl.RGB8},
		{3, true, gl.RGB, gl.SRGB8},
		{4, false, gl.RGBA, gl.RGBA8},
		{4, true, gl.RGBA, gl.SRGB8_ALPHA8},
	}

	for _, test := range tests {
		format, internalFormat, err := engine.TextureFormat(test.channels, test.srgb)
		if err != nil {
			t.Errorf("%d channels: %v", test.channels, err)
			continue
		}
		if format != test.format || internalFormat != test.internalFormat {
			t.Errorf("%d channels (srgb %v) should be %04x/%04x but is %04x/%04x", test.channels, test.srgb, test.format, test.internalFormat, format, internalFormat)
		}
	}

	for _, channels := range []int{0, 5, -1} {
		if _, _, err := engine.TextureFormat(channels, false); err == nil {
			t.Errorf("%d channels should be rejected", channels)
		}
	}
}
