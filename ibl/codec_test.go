package ibl_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"testing"

	"pbrview/ibl"
)

func randomFloats(count int, min, max float32) []float32 {
	rng := rand.New(rand.NewSource(0))
	ret := make([]float32, count)
	for i := range ret {
		ret[i] = rng.Float32()*(max-min) + min
	}
	return ret
}

func randomEnv(size, levels int) *ibl.IblEnv {
	env := ibl.NewEmptyIblEnv(size, levels)
	copy(env.Concat(), randomFloats(len(env.Concat()), 0, 100))
	return env
}

// rgbe keeps 8 bits of mantissa relative to the largest component
func rgbeClose(a, b []float32) (int, bool) {
	for i := 0; i < len(a); i += 3 {
		maxc := math.Max(float64(a[i]), math.Max(float64(a[i+1]), float64(a[i+2])))
		for c := 0; c < 3; c++ {
			if math.Abs(float64(a[i+c]-b[i+c])) > maxc/128+1e-6 {
				return i + c, false
			}
		}
	}
	return 0, true
}

func TestIblEnvRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		option ibl.EncodeOption
	}{
		{"uncompressed", nil},
		{"lz4 fast", ibl.OptCompress(0)},
		{"lz4", ibl.OptCompress(1)},
	}

	env := randomEnv(8, 4)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			if err := ibl.EncodeIblEnv(buf, env, test.option); err != nil {
				t.Fatal(err)
			}
			decoded, err := ibl.DecodeIblEnv(buf)
			if err != nil {
				t.Fatal(err)
			}
			if decoded.BaseSize != env.BaseSize || decoded.Levels != env.Levels {
				t.Fatalf("decoded %dx%d, should be %dx%d", decoded.BaseSize, decoded.Levels, env.BaseSize, env.Levels)
			}
			if i, ok := rgbeClose(env.Concat(), decoded.Concat()); !ok {
				t.Errorf("value %d should be %f but was %f", i, env.Concat()[i], decoded.Concat()[i])
			}
		})
	}
}

func TestIblEnvVersion1001(t *testing.T) {
	env := randomEnv(4, 1)
	buf := new(bytes.Buffer)
	header := [4]uint32{ibl.MagicNumberIBLENV, uint32(ibl.IblEnvVersion1_001_000), uint32(ibl.IblEnvCompressionNone), 4}
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		t.Fatal(err)
	}
	if err := ibl.EncodeRgbe(buf, env.Concat()); err != nil {
		t.Fatal(err)
	}

	decoded, err := ibl.DecodeIblEnv(buf)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Levels != 1 {
		t.Errorf("old versions should decode with a single level, got %d", decoded.Levels)
	}
}

func TestIblEnvCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}},
	}

	for _, test := range tests {
		if _, err := ibl.DecodeIblEnv(bytes.NewReader(test.data)); err == nil {
			t.Errorf("%s: expected an error", test.name)
		}
	}

	buf := new(bytes.Buffer)
	if err := ibl.EncodeIblEnv(buf, randomEnv(4, 2)); err != nil {
		t.Fatal(err)
	}
	truncated := buf.Bytes()[:buf.Len()/2]
	if _, err := ibl.DecodeIblEnv(bytes.NewReader(truncated)); err == nil {
		t.Errorf("truncated: expected an error")
	}
}

func TestRgbeZero(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := ibl.EncodeRgbe(buf, []float32{0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	dst := []float32{1, 1, 1}
	if err := ibl.DecodeRgbe(buf, dst); err != nil {
		t.Fatal(err)
	}
	for i, v := range dst {
		if v != 0 {
			t.Errorf("channel %d should be 0 but was %f", i, v)
		}
	}
}
