package libio_test

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"testing"

	"pbrview/libio"
)

func randomImage(channels, w, h int) *libio.FloatImage {
	rng := rand.New(rand.NewSource(1))
	pix := make([]float32, channels*w*h)
	for i := range pix {
		pix[i] = rng.Float32() * 10
	}
	return libio.NewFloatImage(pix, channels, w, h)
}

func TestFloatImageRoundTrip(t *testing.T) {
	tests := []struct {
		name        string
		compression libio.FloatImageCompression
		eps         float64
	}{
		{"none", libio.FloatImageCompressionNone, 0},
		// range of 10 over 65535 steps, rounded
		{"fixed point", libio.FloatImageCompressionFixedPoint16Lz4, 10.0 / 0xffff},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			img := randomImage(2, 17, 9)
			buf := &bytes.Buffer{}
			if err := libio.EncodeFloatImage(buf, img, test.compression); err != nil {
				t.Fatal(err)
			}
			decoded, err := libio.DecodeFloatImage(buf)
			if err != nil {
				t.Fatal(err)
			}
			if decoded.Width != img.Width || decoded.Height != img.Height || decoded.Channels != img.Channels {
				t.Fatalf("decoded shape should be %dx%dx%d but was %dx%dx%d", img.Width, img.Height, img.Channels, decoded.Width, decoded.Height, decoded.Channels)
			}
			for i := range img.Pix {
				if math.Abs(float64(decoded.Pix[i]-img.Pix[i])) > test.eps {
					t.Errorf("value %d should be %v but was %v", i, img.Pix[i], decoded.Pix[i])
				}
			}
		})
	}
}

func TestFloatImageConstantChannel(t *testing.T) {
	img := libio.NewFloatImage([]float32{0.5, 1, 0.5, 2, 0.5, 3}, 2, 3, 1)
	buf := &bytes.Buffer{}
	if err := libio.EncodeFloatImage(buf, img, libio.FloatImageCompressionFixedPoint16Lz4); err != nil {
		t.Fatal(err)
	}
	decoded, err := libio.DecodeFloatImage(buf)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if decoded.Pix[i*2] != 0.5 {
			t.Errorf("constant channel should decode to 0.5 but was %v", decoded.Pix[i*2])
		}
	}
}

func TestFloatImageCorrupt(t *testing.T) {
	data := make([]byte, 40)
	_, err := libio.DecodeFloatImage(bytes.NewReader(data))
	if !errors.Is(err, libio.ErrCorrupt) {
		t.Errorf("zero header should be reported as corrupt but was %v", err)
	}

	_, err = libio.DecodeFloatImage(bytes.NewReader(data[:10]))
	if err == nil {
		t.Errorf("truncated header should fail")
	}
}

func TestToChannels(t *testing.T) {
	img := libio.NewFloatImage([]float32{1, 2, 3, 4}, 2, 2, 1)
	rgb := img.ToChannels(3, 0, 0, 9)
	want := []float32{1, 2, 9, 3, 4, 9}
	for i := range want {
		if rgb.Pix[i] != want[i] {
			t.Errorf("component %d should be %v but was %v", i, want[i], rgb.Pix[i])
		}
	}
	red := img.ToChannels(1)
	if len(red.Pix) != 2 || red.Pix[0] != 1 || red.Pix[1] != 3 {
		t.Errorf("single channel should be [1 3] but was %v", red.Pix)
	}
}

func TestToIntImage(t *testing.T) {
	img := libio.NewFloatImage([]float32{0, 0.25, 1, 4}, 1, 4, 1)
	ldr := img.ToIntImage(1, 1)
	want := []uint8{0, 64, 255, 255}
	for i := range want {
		if ldr.Pix[i] != want[i] {
			t.Errorf("value %d should be %d but was %d", i, want[i], ldr.Pix[i])
		}
	}

	rgba := ldr.ToNRGBA()
	if rgba.Pix[4] != 64 || rgba.Pix[7] != 0xff {
		t.Errorf("gray should expand to opaque rgb but was %v", rgba.Pix[4:8])
	}
}
