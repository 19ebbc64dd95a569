package libio

import (
	goimg "image"
	"unsafe"

	"github.com/chewxy/math32"
)

type image struct {
	Channels      int
	Width, Height int
}

// Index returns the offset of the first component of pixel (x, y).
//
// The origin (0,0) is in the bottom left, as opposed to Go's top left origin.
func (img *image) Index(x, y int) int {
	return (x + y*img.Width) * img.Channels
}

func (img *image) Count() int {
	return img.Width * img.Height
}

type IntImage struct {
	image
	Pix []uint8
}

func NewIntImage(pix []uint8, channels int, width, height int) *IntImage {
	return &IntImage{
		Pix:   pix,
		image: image{Channels: channels, Width: width, Height: height},
	}
}

func (img *IntImage) Pointer() unsafe.Pointer {
	return unsafe.Pointer(&img.Pix[0])
}

func (img *IntImage) Bytes() int {
	return img.Count() * img.Channels
}

func (img *IntImage) ToChannels(nr int, defaults ...uint8) *IntImage {
	return NewIntImage(toChannels(img.Channels, nr, img.Count(), img.Pix, defaults...), nr, img.Width, img.Height)
}

// ToNRGBA converts to a Go image, flipping rows so the result is upright.
func (img *IntImage) ToNRGBA() *goimg.NRGBA {
	rgba := goimg.NewNRGBA(goimg.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			src := img.Pix[img.Index(x, img.Height-y-1):]
			dst := rgba.Pix[rgba.PixOffset(x, y):]
			dst[3] = 0xff
			switch img.Channels {
			case 1:
				dst[0], dst[1], dst[2] = src[0], src[0], src[0]
			default:
				copy(dst[:min(img.Channels, 4)], src[:min(img.Channels, 4)])
			}
		}
	}
	return rgba
}

func toChannels[P ~[]E, E any](srcCh, dstCh int, count int, pix P, defaults ...E) P {
	if srcCh == dstCh {
		return pix
	}
	if len(defaults) < dstCh {
		defaults = append(defaults, make([]E, dstCh-len(defaults))...)
	}

	dst := make(P, count*dstCh)
	shared := min(srcCh, dstCh)
	for i := 0; i < count; i++ {
		copy(dst[i*dstCh:i*dstCh+shared], pix[i*srcCh:i*srcCh+shared])
		for c := shared; c < dstCh; c++ {
			dst[i*dstCh+c] = defaults[c]
		}
	}
	return dst
}

type FloatImage struct {
	image
	Pix []float32
}

func NewFloatImage(pix []float32, channels int, width, height int) *FloatImage {
	return &FloatImage{
		Pix:   pix,
		image: image{Channels: channels, Width: width, Height: height},
	}
}

func (img *FloatImage) Pointer() unsafe.Pointer {
	return unsafe.Pointer(&img.Pix[0])
}

func (img *FloatImage) Bytes() int {
	return img.Count() * img.Channels * 4
}

func (img *FloatImage) ToChannels(nr int, defaults ...float32) *FloatImage {
	return NewFloatImage(toChannels(img.Channels, nr, img.Count(), img.Pix, defaults...), nr, img.Width, img.Height)
}

// ToIntImage quantizes to 8 bits after applying exposure scale and display gamma.
func (img *FloatImage) ToIntImage(gamma, scale float32) *IntImage {
	pix := make([]uint8, len(img.Pix))
	for i, v := range img.Pix {
		pix[i] = uint8(tonemap(v, 1.0/gamma, scale)*0xff + 0.5)
	}
	return NewIntImage(pix, img.Channels, img.Width, img.Height)
}

func tonemap(value, invGamma, scale float32) float32 {
	value = math32.Pow(math32.Max(0, value*scale), invGamma)
	return math32.Min(value, 1.0)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
