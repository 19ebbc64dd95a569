package libimg

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/chewxy/math32"
)

var ErrRadianceHeader = errors.New("invalid radiance header")

const radianceMaxLine = 256

func isRadiance(data []byte) bool {
	return bytes.HasPrefix(data, []byte("#?RADIANCE\n")) || bytes.HasPrefix(data, []byte("#?RGBE\n"))
}

func readRadianceLine(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for sb.Len() < radianceMaxLine {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\n' {
			return sb.String(), nil
		}
		sb.WriteByte(b)
	}
	return "", fmt.Errorf("%w: line too long", ErrRadianceHeader)
}

// RgbeToFloat converts one shared exponent pixel into linear floats.
func RgbeToFloat(rgbe [4]byte, dst []float32) {
	if rgbe[3] == 0 {
		dst[0], dst[1], dst[2] = 0, 0, 0
		return
	}
	f := math32.Ldexp(1.0, int(rgbe[3])-(128+8))
	dst[0] = float32(rgbe[0]) * f
	dst[1] = float32(rgbe[1]) * f
	dst[2] = float32(rgbe[2]) * f
}

func (conf *Configuration) decodeRadiance(data []byte) (*Hdr, error) {
	r := bufio.NewReader(bytes.NewReader(data))

	if _, err := readRadianceLine(r); err != nil {
		return nil, err
	}

	for {
		line, err := readRadianceLine(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRadianceHeader, err)
		}
		if line == "" {
			break
		}
		if format, ok := strings.CutPrefix(line, "FORMAT="); ok && format != "32-bit_rle_rgbe" {
			return nil, fmt.Errorf("%w: unsupported format %q", ErrRadianceHeader, format)
		}
	}

	line, err := readRadianceLine(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRadianceHeader, err)
	}
	var w, h int
	if n, _ := fmt.Sscanf(line, "-Y %d +X %d", &h, &w); n != 2 {
		return nil, fmt.Errorf("%w: unsupported resolution %q", ErrRadianceHeader, line)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrRadianceHeader, w, h)
	}

	hdr := &Hdr{
		Pix:    make([]float32, w*h*3),
		Stride: w * 3,
		Rect:   image.Rect(0, 0, w, h),
	}

	scanline := make([]byte, w*4)
	for y := 0; y < h; y++ {
		if err := readRadianceScanline(r, scanline, w); err != nil {
			return nil, fmt.Errorf("could not read radiance scanline %d: %w", y, err)
		}
		row := y
		if conf.FlipVertically {
			row = h - 1 - y
		}
		dst := hdr.Pix[row*hdr.Stride : (row+1)*hdr.Stride]
		for x := 0; x < w; x++ {
			RgbeToFloat([4]byte(scanline[x*4:x*4+4]), dst[x*3:x*3+3])
		}
	}

	return hdr, nil
}

// readRadianceScanline reads one scanline into dst as interleaved RGBE.
// Both flat and adaptive run length encoded scanlines are handled.
func readRadianceScanline(r *bufio.Reader, dst []byte, width int) error {
	if width < 8 || width >= 0x8000 {
		_, err := io.ReadFull(r, dst)
		return err
	}

	peek, err := r.Peek(4)
	if err != nil {
		return err
	}
	if peek[0] != 2 || peek[1] != 2 || peek[2]&0x80 != 0 {
		_, err := io.ReadFull(r, dst)
		return err
	}
	if int(peek[2])<<8|int(peek[3]) != width {
		return errors.New("scanline width mismatch")
	}
	r.Discard(4)

	for c := 0; c < 4; c++ {
		for x := 0; x < width; {
			count, err := r.ReadByte()
			if err != nil {
				return err
			}
			if count > 128 {
				run := int(count) - 128
				if x+run > width {
					return errors.New("run exceeds scanline")
				}
				value, err := r.ReadByte()
				if err != nil {
					return err
				}
				for i := 0; i < run; i++ {
					dst[(x+i)*4+c] = value
				}
				x += run
				continue
			}
			if count == 0 || x+int(count) > width {
				return errors.New("bad literal count")
			}
			for i := 0; i < int(count); i++ {
				value, err := r.ReadByte()
				if err != nil {
					return err
				}
				dst[(x+i)*4+c] = value
			}
			x += int(count)
		}
	}
	return nil
}

// EncodeRadiance writes a flat (uncompressed) Radiance file of the RGB pixels.
// Rows are written top to bottom, undoing the flip convention if set.
func (conf *Configuration) EncodeRadiance(w io.Writer, hdr *Hdr) error {
	width, height := hdr.Width(), hdr.Height()
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y %d +X %d\n", height, width)
	for y := 0; y < height; y++ {
		row := y
		if conf.FlipVertically {
			row = height - 1 - y
		}
		src := hdr.Pix[row*hdr.Stride : row*hdr.Stride+width*3]
		for x := 0; x < width; x++ {
			rgbe := FloatToRgbe(src[x*3 : x*3+3])
			bw.Write(rgbe[:])
		}
	}
	return bw.Flush()
}

func FloatToRgbe(rgb []float32) (rgbe [4]byte) {
	v := math32.Max(rgb[0], math32.Max(rgb[1], rgb[2]))
	if v < 1e-32 {
		return
	}
	frac, exp := math32.Frexp(v)
	scale := frac * 256 / v
	rgbe[0] = byte(rgb[0] * scale)
	rgbe[1] = byte(rgb[1] * scale)
	rgbe[2] = byte(rgb[2] * scale)
	rgbe[3] = byte(exp + 128)
	return
}
