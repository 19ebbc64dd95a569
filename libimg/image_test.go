package libimg_test

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"pbrview/libimg"
)

func encodePng(t *testing.T, img image.Image) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadChannelInference(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	opaque := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	translucent := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range opaque.Pix {
		opaque.Pix[i] = 255
		translucent.Pix[i] = 255
	}
	translucent.Pix[3] = 10

	tests := []struct {
		name     string
		img      image.Image
		channels int
	}{
		{"gray", gray, 1},
		{"opaque", opaque, 3},
		{"translucent", translucent, 4},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ldr, err := libimg.Default.LoadBytes(encodePng(t, test.img))
			if err != nil {
				t.Fatal(err)
			}
			if ldr.Channels != test.channels {
				t.Errorf("channels should be %d but was %d", test.channels, ldr.Channels)
			}
			if len(ldr.Pix) != 4*test.channels {
				t.Errorf("pixel buffer should be %d bytes but was %d", 4*test.channels, len(ldr.Pix))
			}
		})
	}
}

func TestLoadFlipVertically(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 1, 2))
	img.SetGray(0, 0, color.Gray{Y: 200})
	img.SetGray(0, 1, color.Gray{Y: 50})
	data := encodePng(t, img)

	flipped, err := libimg.Default.LoadBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if flipped.Pix[0] != 50 || flipped.Pix[1] != 200 {
		t.Errorf("flipped rows should be [50 200] but were %v", flipped.Pix)
	}

	conf := libimg.Default
	conf.FlipVertically = false
	upright, err := conf.LoadBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if upright.Pix[0] != 200 || upright.Pix[1] != 50 {
		t.Errorf("rows should be [200 50] but were %v", upright.Pix)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	if _, err := libimg.Default.LoadBytes([]byte("not an image")); err == nil {
		t.Errorf("garbage should not decode")
	}
}

func radianceHeader(w, h int) string {
	return fmt.Sprintf("#?RADIANCE\n# made by hand\nFORMAT=32-bit_rle_rgbe\nEXPOSURE=1.0\n\n-Y %d +X %d\n", h, w)
}

func TestDecodeRadianceFlat(t *testing.T) {
	data := []byte(radianceHeader(1, 2))
	// top: (1, 0.5, 0), bottom: black
	data = append(data, 128, 64, 0, 129)
	data = append(data, 0, 0, 0, 0)

	conf := libimg.Default
	conf.FlipVertically = false
	hdr, err := conf.LoadHdrBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{1, 0.5, 0, 0, 0, 0}
	for i := range want {
		if math.Abs(float64(hdr.Pix[i]-want[i])) > 1e-6 {
			t.Errorf("component %d should be %v but was %v", i, want[i], hdr.Pix[i])
		}
	}

	flipped, err := libimg.Default.LoadHdrBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if flipped.Pix[0] != 0 || flipped.Pix[3] != 1 {
		t.Errorf("flipped image should have the top row last but was %v", flipped.Pix)
	}
}

func TestDecodeRadianceRle(t *testing.T) {
	const width = 10
	data := []byte(radianceHeader(width, 1))
	data = append(data, 2, 2, 0, width)
	// red: run of 10
	data = append(data, 128+width, 128)
	// green: literal 10
	data = append(data, width)
	for i := 0; i < width; i++ {
		data = append(data, byte(i*10))
	}
	// blue: run of 4 + run of 6
	data = append(data, 128+4, 0, 128+6, 255)
	// exponent
	data = append(data, 128+width, 129)

	hdr, err := libimg.Default.LoadHdrBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Width() != width || hdr.Height() != 1 {
		t.Fatalf("size should be %dx1 but was %dx%d", width, hdr.Width(), hdr.Height())
	}
	for x := 0; x < width; x++ {
		px := hdr.At(x, 0)
		wantB := float32(0)
		if x >= 4 {
			wantB = 255.0 / 128
		}
		want := [3]float32{1, float32(x*10) / 128, wantB}
		for c := 0; c < 3; c++ {
			if math.Abs(float64(px[c]-want[c])) > 1e-6 {
				t.Errorf("pixel %d component %d should be %v but was %v", x, c, want[c], px[c])
			}
		}
	}
}

func TestDecodeRadianceBadHeader(t *testing.T) {
	data := []byte("#?RADIANCE\nFORMAT=32-bit_rle_xyze\n\n-Y 1 +X 1\n\x00\x00\x00\x00")
	if _, err := libimg.Default.LoadHdrBytes(data); err == nil {
		t.Errorf("xyze format should be rejected")
	}
}

func TestEncodeRadianceRoundTrip(t *testing.T) {
	hdr := &libimg.Hdr{
		Pix:    []float32{0.25, 2, 8, 0, 0, 0, 100, 50, 25, 1, 1, 1},
		Stride: 6,
		Rect:   image.Rect(0, 0, 2, 2),
	}
	buf := &bytes.Buffer{}
	if err := libimg.Default.EncodeRadiance(buf, hdr); err != nil {
		t.Fatal(err)
	}
	decoded, err := libimg.Default.LoadHdr(buf)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range hdr.Pix {
		// rgbe keeps 8 bits of mantissa relative to the largest component
		if math.Abs(float64(decoded.Pix[i]-v)) > 100.0/128 {
			t.Errorf("component %d should be about %v but was %v", i, v, decoded.Pix[i])
		}
	}
}

func TestLdrAsHdr(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 1, 1))
	img.SetGray(0, 0, color.Gray{Y: 255})
	hdr, err := libimg.Default.LoadHdrBytes(encodePng(t, img))
	if err != nil {
		t.Fatal(err)
	}
	for c, v := range hdr.Pix {
		if math.Abs(float64(v-1)) > 1e-5 {
			t.Errorf("component %d should be 1 but was %v", c, v)
		}
	}
}
