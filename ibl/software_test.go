package ibl_test

import (
	"image"
	"math"
	"testing"

	"pbrview/ibl"
	"pbrview/libimg"
)

func constantHdr(w, h int, value float32) *libimg.Hdr {
	pix := make([]float32, w*h*3)
	for i := range pix {
		pix[i] = value
	}
	return &libimg.Hdr{Pix: pix, Stride: w * 3, Rect: image.Rect(0, 0, w, h)}
}

// topBottomHdr is a 1x2 image, row 0 is the bottom after flipping.
func topBottomHdr(top, bottom float32) *libimg.Hdr {
	return &libimg.Hdr{
		Pix:    []float32{bottom, bottom, bottom, top, top, top},
		Stride: 3,
		Rect:   image.Rect(0, 0, 1, 2),
	}
}

func checkConstant(t *testing.T, name string, pix []float32, value float32, eps float64) {
	t.Helper()
	for i, v := range pix {
		if math.Abs(float64(v-value)) > eps {
			t.Errorf("%s: value %d should be %.4f but is %.4f", name, i, value, v)
			return
		}
	}
}

func TestCubeMapDirectionInverse(t *testing.T) {
	coords := []float32{-0.75, -0.25, 0, 0.25, 0.75}
	for face := 0; face < 6; face++ {
		for _, s := range coords {
			for _, tc := range coords {
				dir := ibl.CubeMapDirection(face, s, tc)
				gotFace, u, v := ibl.SampleCubeMap(dir.Normalize())
				if gotFace != face {
					t.Fatalf("face %v (%.2f, %.2f) sampled as face %v", ibl.CubeMapFace(face), s, tc, ibl.CubeMapFace(gotFace))
				}
				if math.Abs(float64(u-(s+1)/2)) > 1e-5 || math.Abs(float64(v-(tc+1)/2)) > 1e-5 {
					t.Errorf("face %v (%.2f, %.2f) sampled at uv (%.4f, %.4f)", ibl.CubeMapFace(face), s, tc, u, v)
				}
			}
		}
	}
}

func TestSphericalMapPoles(t *testing.T) {
	tests := []struct {
		name string
		dir  [3]float32
		v    float32
	}{
		{"up", [3]float32{0, 1, 0}, 1},
		{"down", [3]float32{0, -1, 0}, 0},
		{"horizon", [3]float32{1, 0, 0}, 0.5},
	}
	for _, test := range tests {
		_, v := ibl.SampleSphericalMap(test.dir)
		if math.Abs(float64(v-test.v)) > 1e-5 {
			t.Errorf("%s: v should be %.2f but is %.4f", test.name, test.v, v)
		}
	}
}

func TestConvertEmpty(t *testing.T) {
	if _, err := ibl.ConvertSw(nil, 8); err != ibl.ErrEmptyImage {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
	if _, err := ibl.ConvertSw(&libimg.Hdr{}, 8); err != ibl.ErrEmptyImage {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
}

func TestConstantEnvironment(t *testing.T) {
	const value = 0.5
	skybox, err := ibl.ConvertSw(constantHdr(16, 8, value), 8)
	if err != nil {
		t.Fatal(err)
	}
	checkConstant(t, "skybox", skybox.Concat(), value, 1e-5)

	mipmapped := ibl.GenerateMipmapsSw(skybox)
	checkConstant(t, "skybox mips", mipmapped.Concat(), value, 1e-5)

	irradiance := ibl.ConvolveIrradianceSw(mipmapped, 4, 8)
	checkConstant(t, "irradiance", irradiance.Concat(), value, 1e-3)

	prefilter := ibl.PrefilterSw(mipmapped, 8, 4, 64)
	checkConstant(t, "prefilter level 0", prefilter.Level(0), value, 1e-5)
	for level := 1; level < prefilter.Levels; level++ {
		for i, v := range prefilter.Level(level) {
			if v > value+1e-3 {
				t.Errorf("prefilter level %d value %d exceeds the constant: %.4f", level, i, v)
				break
			}
		}
	}
}

func faceMean(env *ibl.IblEnv, level int, face ibl.CubeMapFace) float32 {
	pix := env.Face(level, int(face))
	var sum float32
	for _, v := range pix {
		sum += v
	}
	return sum / float32(len(pix))
}

func TestOrientation(t *testing.T) {
	skybox, err := ibl.ConvertSw(topBottomHdr(1, 0), 4)
	if err != nil {
		t.Fatal(err)
	}

	up, down := faceMean(skybox, 0, ibl.CubeMapPositiveY), faceMean(skybox, 0, ibl.CubeMapNegativeY)
	if up < 0.9 {
		t.Errorf("+y face should be bright but is %.4f", up)
	}
	if down > 0.1 {
		t.Errorf("-y face should be dark but is %.4f", down)
	}

	irradiance := ibl.ConvolveIrradianceSw(ibl.GenerateMipmapsSw(skybox), 4, 8)
	up, down = faceMean(irradiance, 0, ibl.CubeMapPositiveY), faceMean(irradiance, 0, ibl.CubeMapNegativeY)
	if up <= down {
		t.Errorf("irradiance from above (%.4f) should exceed irradiance from below (%.4f)", up, down)
	}
}

func TestGenerateMipmaps(t *testing.T) {
	env := ibl.NewEmptyIblEnv(8, 1)
	for i := range env.Concat() {
		env.Concat()[i] = float32(i % 7)
	}
	mipmapped := ibl.GenerateMipmapsSw(env)
	if mipmapped.Levels != 4 {
		t.Fatalf("expected 4 levels, got %d", mipmapped.Levels)
	}
	if mipmapped.Size(3) != 1 {
		t.Errorf("expected last level size 1, got %d", mipmapped.Size(3))
	}

	for face := 0; face < 6; face++ {
		var sum float64
		base := env.Face(0, face)
		for _, v := range base {
			sum += float64(v)
		}
		top := mipmapped.Face(3, face)
		got := float64(top[0]+top[1]+top[2]) * 64
		if math.Abs(got-sum) > 1e-2 {
			t.Errorf("face %d: the last level should preserve the mean, sum %.3f but got %.3f", face, sum, got)
		}
	}
}

func TestPrefilterRoughness(t *testing.T) {
	expected := []float32{0, 0.25, 0.5, 0.75, 1}
	for level, should := range expected {
		if is := ibl.PrefilterRoughness(level, 5); is != should {
			t.Errorf("level %d roughness should be %.2f but is %.4f", level, should, is)
		}
	}
}

func TestHammersleySequence(t *testing.T) {
	seq := ibl.HammersleySequence(8)
	expectedY := []float32{0, 0.5, 0.25, 0.75, 0.125, 0.625, 0.375, 0.875}
	for i, s := range seq {
		if s[0] != float32(i)/8 || s[1] != expectedY[i] {
			t.Errorf("sample %d should be (%.3f, %.3f) but is (%.3f, %.3f)", i, float32(i)/8, expectedY[i], s[0], s[1])
		}
	}
}

func TestIntegrateBrdfRange(t *testing.T) {
	const size = 16
	lut := ibl.IntegrateBrdfSw(size, 128)
	if lut.Channels != 2 || lut.Width != size || lut.Height != size {
		t.Fatalf("unexpected lut layout %dx%dx%d", lut.Width, lut.Height, lut.Channels)
	}
	for i, v := range lut.Pix {
		if v < 0 || v > 1+1e-4 || math.IsNaN(float64(v)) {
			t.Fatalf("value %d out of range: %f", i, v)
		}
	}

	// smooth surface seen head on reflects everything
	o := ((0*size)+size-1)*2
	if sum := lut.Pix[o] + lut.Pix[o+1]; sum < 0.9 {
		t.Errorf("scale + bias at low roughness and high n.v should be near 1 but is %.4f", sum)
	}
}

func TestRoundUpKernelSize(t *testing.T) {
	tests := []struct{ group, global, expected int }{
		{16, 512, 512},
		{16, 500, 512},
		{32, 1, 32},
	}
	for _, test := range tests {
		if is := ibl.RoundUpKernelSize(test.group, test.global); is != test.expected {
			t.Errorf("round up %d to %d should be %d but is %d", test.global, test.group, test.expected, is)
		}
	}
}
