// Package libimg decodes 8-bit images and Radiance HDR files into tightly packed pixel buffers
// ready for texture upload.
package libimg

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/chewxy/math32"
)

var ErrFormat = errors.New("unsupported image format")

type Configuration struct {
	LdrToHdrGamma, LdrToHdrScale float32
	// FlipVertically makes row 0 the bottom row of the file, which is what GL expects.
	FlipVertically bool
}

var Default Configuration = Configuration{
	LdrToHdrGamma:  2.2,
	LdrToHdrScale:  1.0,
	FlipVertically: true,
}

type Ldr struct {
	// Pix holds the image's pixels with Channels components each. The pixel at
	// (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*Channels].
	Pix []uint8
	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride   int
	Channels int
	Rect     image.Rectangle
}

func (p *Ldr) Bounds() image.Rectangle { return p.Rect }

func (p *Ldr) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*p.Channels
}

func (p *Ldr) At(x, y int) (color [4]uint8) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color
	}
	i := p.PixOffset(x, y)
	copy(color[:], p.Pix[i:i+p.Channels])
	return color
}

type Hdr struct {
	// Pix holds the image's pixels in R, G, B order. The pixel at
	// (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix []float32
	// Stride is the Pix stride (in floats) between vertically adjacent pixels.
	Stride int
	Rect   image.Rectangle
}

func (p *Hdr) Bounds() image.Rectangle { return p.Rect }

func (p *Hdr) Width() int { return p.Rect.Dx() }

func (p *Hdr) Height() int { return p.Rect.Dy() }

func (p *Hdr) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

func (p *Hdr) At(x, y int) (color [3]float32) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color
	}
	i := p.PixOffset(x, y)
	copy(color[:], p.Pix[i:i+3])
	return color
}

// channelCount infers how many components are needed to represent img without loss.
func channelCount(img image.Image) int {
	switch m := img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case interface{ Opaque() bool }:
		if m.Opaque() {
			return 3
		}
	}
	return 4
}

func (conf *Configuration) Load(r io.Reader) (*Ldr, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	channels := channelCount(img)
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	ldr := &Ldr{
		Pix:      make([]uint8, w*h*channels),
		Stride:   w * channels,
		Channels: channels,
		Rect:     image.Rect(0, 0, w, h),
	}

	for y := 0; y < h; y++ {
		row := y
		if conf.FlipVertically {
			row = h - 1 - y
		}
		offset := row * ldr.Stride
		for x := 0; x < w; x++ {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			px := ldr.Pix[offset+x*channels : offset+(x+1)*channels]
			switch channels {
			case 1:
				px[0] = color.GrayModel.Convert(c).(color.Gray).Y
			case 3:
				rgba := color.NRGBAModel.Convert(c).(color.NRGBA)
				px[0], px[1], px[2] = rgba.R, rgba.G, rgba.B
			default:
				rgba := color.NRGBAModel.Convert(c).(color.NRGBA)
				px[0], px[1], px[2], px[3] = rgba.R, rgba.G, rgba.B, rgba.A
			}
		}
	}

	return ldr, nil
}

func (conf *Configuration) LoadBytes(b []byte) (*Ldr, error) {
	return conf.Load(bytes.NewReader(b))
}

func (conf *Configuration) LoadFile(path string) (*Ldr, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return conf.Load(file)
}

// LoadHdr decodes a Radiance file. Other formats are decoded as 8-bit and linearized.
func (conf *Configuration) LoadHdr(r io.Reader) (*Hdr, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if isRadiance(data) {
		return conf.decodeRadiance(data)
	}

	ldr, err := conf.LoadBytes(data)
	if err != nil {
		return nil, err
	}
	return conf.ldrToHdr(ldr), nil
}

func (conf *Configuration) LoadHdrBytes(b []byte) (*Hdr, error) {
	return conf.LoadHdr(bytes.NewReader(b))
}

func (conf *Configuration) LoadHdrFile(path string) (*Hdr, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return conf.LoadHdr(file)
}

func (conf *Configuration) ldrToHdr(ldr *Ldr) *Hdr {
	w, h := ldr.Rect.Dx(), ldr.Rect.Dy()
	hdr := &Hdr{
		Pix:    make([]float32, w*h*3),
		Stride: w * 3,
		Rect:   ldr.Rect,
	}
	var lut [256]float32
	for i := range lut {
		lut[i] = math32.Pow(float32(i)/255, conf.LdrToHdrGamma) * conf.LdrToHdrScale
	}
	for i := 0; i < w*h; i++ {
		src := ldr.Pix[i*ldr.Channels : (i+1)*ldr.Channels]
		dst := hdr.Pix[i*3 : i*3+3]
		if ldr.Channels < 3 {
			dst[0], dst[1], dst[2] = lut[src[0]], lut[src[0]], lut[src[0]]
			continue
		}
		dst[0], dst[1], dst[2] = lut[src[0]], lut[src[1]], lut[src[2]]
	}
	return hdr
}

func Load(r io.Reader) (*Ldr, error) {
	return Default.Load(r)
}

func LoadFile(path string) (*Ldr, error) {
	return Default.LoadFile(path)
}

func LoadHdr(r io.Reader) (*Hdr, error) {
	return Default.LoadHdr(r)
}

func LoadHdrFile(path string) (*Hdr, error) {
	return Default.LoadHdrFile(path)
}
