package engine

import (
	"fmt"

	"pbrview/libgl"
	"pbrview/libimg"
	"pbrview/logger"

	"github.com/go-gl/gl/v4.5-core/gl"
	"go.uber.org/zap"
)

// TextureFormat infers the upload and storage formats of an 8-bit image from its channel count.
// srgb only affects color formats.
func TextureFormat(channels int, srgb bool) (format, internalFormat uint32, err error) {
	switch channels {
	case 1:
		return gl.RED, gl.R8, nil
	case 2:
		return gl.RG, gl.RG8, nil
	case 3:
		if srgb {
			return gl.RGB, gl.SRGB8, nil
		}
		return gl.RGB, gl.RGB8, nil
	case 4:
		if srgb {
			return gl.RGBA, gl.SRGB8_ALPHA8, nil
		}
		return gl.RGBA, gl.RGBA8, nil
	}
	return 0, 0, fmt.Errorf("unsupported channel count %d", channels)
}

// LoadTexture decodes an image file into a mipmapped 2D texture.
func LoadTexture(path string, srgb bool) (libgl.UnboundTexture, error) {
	img, err := libimg.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not load texture image %q: %w", path, err)
	}
	return UploadTexture(img, srgb, path)
}

// UploadTexture uploads a decoded image with a full mip chain.
func UploadTexture(img *libimg.Ldr, srgb bool, label string) (libgl.UnboundTexture, error) {
	format, internalFormat, err := TextureFormat(img.Channels, srgb)
	if err != nil {
		return nil, fmt.Errorf("could not upload texture %q: %w", label, err)
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("could not upload texture %q: image is empty", label)
	}

	tex := libgl.NewTexture(gl.TEXTURE_2D)
	tex.Allocate(0, internalFormat, w, h, 0)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	tex.Load(0, w, h, 0, format, img.Pix)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	tex.GenerateMipmap()
	tex.FilterMode(gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR)
	tex.WrapMode(gl.REPEAT, gl.REPEAT, 0)
	tex.SetDebugLabel(label)

	logger.Log.Debug("Loaded texture", zap.String("name", label), zap.Int("width", w), zap.Int("height", h), zap.Int("channels", img.Channels))
	return tex, nil
}
