package ibl

import (
	"sync"

	"pbrview/libimg"
	"pbrview/libio"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// cubeMapDirection returns the unnormalized direction through the face coordinates
// s, t in [-1, 1], following the GL cube map face layout.
func cubeMapDirection(face int, s, t float32) mgl32.Vec3 {
	switch CubeMapFace(face) {
	case CubeMapPositiveX:
		return mgl32.Vec3{1, -t, -s}
	case CubeMapNegativeX:
		return mgl32.Vec3{-1, -t, s}
	case CubeMapPositiveY:
		return mgl32.Vec3{s, 1, t}
	case CubeMapNegativeY:
		return mgl32.Vec3{s, -1, -t}
	case CubeMapPositiveZ:
		return mgl32.Vec3{s, -t, 1}
	default:
		return mgl32.Vec3{-s, -t, -1}
	}
}

// forEachCubeMapPixel calls cb for every pixel of a size² cube map, one goroutine per face.
// i is the pixel index across all six faces.
func forEachCubeMapPixel(size int, cb func(face, x, y int, dir mgl32.Vec3, i int)) {
	wg := sync.WaitGroup{}
	wg.Add(6)
	for face := 0; face < 6; face++ {
		go func(face int) {
			defer wg.Done()
			i := face * size * size
			for y := 0; y < size; y++ {
				// (2x+1)/r - 1 maps pixel x to its center in [-1, 1]
				t := (2*float32(y)+1)/float32(size) - 1
				for x := 0; x < size; x++ {
					s := (2*float32(x)+1)/float32(size) - 1
					cb(face, x, y, cubeMapDirection(face, s, t).Normalize(), i)
					i++
				}
			}
		}(face)
	}
	wg.Wait()
}

// 1/(2pi), 1/pi
var invAtan = [2]float32{0.15915494309, 0.31830988618}

func sampleSphericalMap(dir mgl32.Vec3) (u, v float32) {
	u = math32.Atan2(dir.Z(), dir.X())*invAtan[0] + 0.5
	v = math32.Asin(dir.Y())*invAtan[1] + 0.5
	return u, v
}

// sampleCubeMap maps a direction to a face and uv in [0, 1].
// Cube map face reference: https://www.khronos.org/opengl/wiki_opengl/images/CubeMapAxes.png
func sampleCubeMap(dir mgl32.Vec3) (face int, u, v float32) {
	rx, ry, rz := dir.X(), dir.Y(), dir.Z()
	ax, ay, az := math32.Abs(rx), math32.Abs(ry), math32.Abs(rz)

	var ma float32
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		v = -ry
		if rx >= 0 {
			face, u = 0, -rz
		} else {
			face, u = 1, rz
		}
	case ay >= ax && ay >= az:
		ma = ay
		u = rx
		if ry >= 0 {
			face, v = 2, rz
		} else {
			face, v = 3, -rz
		}
	default:
		ma = az
		v = -ry
		if rz >= 0 {
			face, u = 4, rx
		} else {
			face, u = 5, -rx
		}
	}

	u = u*0.5/ma + 0.5
	v = v*0.5/ma + 0.5
	return
}

// sampleBilinear filters an RGB image with clamp-to-edge addressing. v = 0 is row 0.
func sampleBilinear(w, h int, channels int, pix []float32, u, v float32) mgl32.Vec3 {
	// -0.5 to adjust for the pixel center offset
	u = u*float32(w) - 0.5
	v = v*float32(h) - 0.5
	u0, v0 := math32.Floor(u), math32.Floor(v)
	fu, fv := u-u0, v-v0

	x0 := clampIndex(int(u0), w)
	x1 := clampIndex(int(u0)+1, w)
	y0 := clampIndex(int(v0), h)
	y1 := clampIndex(int(v0)+1, h)

	at := func(x, y int) mgl32.Vec3 {
		o := (y*w + x) * channels
		return mgl32.Vec3{pix[o], pix[o+1], pix[o+2]}
	}

	top := lerp(at(x0, y0), at(x1, y0), fu)
	bottom := lerp(at(x0, y1), at(x1, y1), fu)
	return lerp(top, bottom, fv)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func lerp(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	if t == 0 {
		return a
	}
	return a.Mul(1 - t).Add(b.Mul(t))
}

// sampleCubeLod filters between two levels of the chain.
func sampleCubeLod(env *IblEnv, dir mgl32.Vec3, lod float32) mgl32.Vec3 {
	lod = mgl32.Clamp(lod, 0, float32(env.Levels-1))
	l0 := int(lod)
	face, u, v := sampleCubeMap(dir)
	s0 := env.Size(l0)
	c0 := sampleBilinear(s0, s0, 3, env.Face(l0, face), u, v)
	if l0+1 >= env.Levels || lod == float32(l0) {
		return c0
	}
	s1 := env.Size(l0 + 1)
	c1 := sampleBilinear(s1, s1, 3, env.Face(l0+1, face), u, v)
	return lerp(c0, c1, lod-float32(l0))
}

// ConvertSw projects an equirectangular image onto a size² cube map.
func ConvertSw(hdr *libimg.Hdr, size int) (*IblEnv, error) {
	if hdr == nil || hdr.Width() == 0 || hdr.Height() == 0 || size <= 0 {
		return nil, ErrEmptyImage
	}
	env := NewEmptyIblEnv(size, 1)
	result := env.Concat()

	forEachCubeMapPixel(size, func(face, x, y int, dir mgl32.Vec3, i int) {
		u, v := sampleSphericalMap(dir)
		c := sampleBilinear(hdr.Width(), hdr.Height(), 3, hdr.Pix, u, v)
		copy(result[i*3:i*3+3], c[:])
	})

	return env, nil
}

// GenerateMipmapsSw returns a copy of level 0 with a full box filtered chain.
func GenerateMipmapsSw(src *IblEnv) *IblEnv {
	levels := 1
	for s := src.BaseSize; s > 1; s /= 2 {
		levels++
	}
	env := NewEmptyIblEnv(src.BaseSize, levels)
	copy(env.Level(0), src.Level(0))

	for l := 1; l < levels; l++ {
		prevSize, size := env.Size(l-1), env.Size(l)
		for f := 0; f < 6; f++ {
			prev, dst := env.Face(l-1, f), env.Face(l, f)
			for y := 0; y < size; y++ {
				for x := 0; x < size; x++ {
					var sum mgl32.Vec3
					var n float32
					for dy := 0; dy < 2; dy++ {
						for dx := 0; dx < 2; dx++ {
							sx, sy := x*2+dx, y*2+dy
							if sx >= prevSize || sy >= prevSize {
								continue
							}
							o := (sy*prevSize + sx) * 3
							sum = sum.Add(mgl32.Vec3{prev[o], prev[o+1], prev[o+2]})
							n++
						}
					}
					o := (y*size + x) * 3
					dst[o], dst[o+1], dst[o+2] = sum[0]/n, sum[1]/n, sum[2]/n
				}
			}
		}
	}
	return env
}

type sample struct {
	// z is 'up'
	dir    mgl32.Vec3
	weight float32
}

// generateDiffuseConvolutionSamples places cosine weighted samples on rings around the
// hemisphere pole. quality >= 0
func generateDiffuseConvolutionSamples(quality int) []sample {
	if quality <= 0 {
		return []sample{{dir: mgl32.Vec3{0, 0, 1}, weight: 1}}
	}

	rings := quality + 1
	segments := quality * 4
	dPhi := (2.0 * math32.Pi) / float32(segments)
	dTheta := (math32.Pi / 2.0) / float32(rings)

	samples := make([]sample, 0, (rings-1)*segments+1)
	for ring := 0; ring < rings-1; ring++ {
		theta := (float32(ring) + 0.5) * dTheta
		for segment := 0; segment < segments; segment++ {
			phi := (float32(segment) + 0.5) * dPhi
			samples = append(samples, sample{
				dir: mgl32.Vec3{
					math32.Sin(theta) * math32.Cos(phi),
					math32.Sin(theta) * math32.Sin(phi),
					math32.Cos(theta),
				},
				// cos for lambert, sin for the ring's solid angle
				weight: math32.Cos(theta) * math32.Sin(theta),
			})
		}
	}

	// the last ring is collapsed into the pole cap
	poleTheta := (float32(rings-1) + 0.5) * dTheta
	samples = append(samples, sample{
		dir:    mgl32.Vec3{0, 0, 1},
		weight: float32(segments) * math32.Cos(poleTheta) * math32.Sin(poleTheta),
	})

	return samples
}

// tangentFrame builds an orthonormal basis around n.
func tangentFrame(n mgl32.Vec3) (t, b mgl32.Vec3) {
	up := mgl32.Vec3{0, 1, 0}
	if math32.Abs(n.Y()) >= 0.999 {
		up = mgl32.Vec3{0, 0, 1}
	}
	t = up.Cross(n).Normalize()
	b = n.Cross(t)
	return t, b
}

func toWorld(v, t, b, n mgl32.Vec3) mgl32.Vec3 {
	return t.Mul(v.X()).Add(b.Mul(v.Y())).Add(n.Mul(v.Z()))
}

// ConvolveIrradianceSw computes the cosine weighted mean radiance around every texel
// normal, normalized by the total weight.
func ConvolveIrradianceSw(env *IblEnv, size, quality int) *IblEnv {
	samples := generateDiffuseConvolutionSamples(quality)
	result := NewEmptyIblEnv(size, 1)
	pix := result.Concat()

	forEachCubeMapPixel(size, func(face, x, y int, n mgl32.Vec3, i int) {
		t, b := tangentFrame(n)
		var sum mgl32.Vec3
		var total float32
		for _, s := range samples {
			dir := toWorld(s.dir, t, b, n)
			sf, su, sv := sampleCubeMap(dir)
			sum = sum.Add(sampleBilinear(env.BaseSize, env.BaseSize, 3, env.Face(0, sf), su, sv).Mul(s.weight))
			total += s.weight
		}
		c := sum.Mul(1 / total)
		copy(pix[i*3:i*3+3], c[:])
	})

	return result
}

func radicalInverseVdC(bits uint32) float32 {
	bits = (bits << 16) | (bits >> 16)
	bits = ((bits & 0x55555555) << 1) | ((bits & 0xAAAAAAAA) >> 1)
	bits = ((bits & 0x33333333) << 2) | ((bits & 0xCCCCCCCC) >> 2)
	bits = ((bits & 0x0F0F0F0F) << 4) | ((bits & 0xF0F0F0F0) >> 4)
	bits = ((bits & 0x00FF00FF) << 8) | ((bits & 0xFF00FF00) >> 8)
	return float32(bits) * 2.3283064365386963e-10 // / 0x100000000
}

func hammersley(i, n uint32) (x, y float32) {
	return float32(i) / float32(n), radicalInverseVdC(i)
}

func generateHammersleySequence(count int) [][2]float32 {
	samples := make([][2]float32, count)
	for i := range samples {
		samples[i][0], samples[i][1] = hammersley(uint32(i), uint32(count))
	}
	return samples
}

// importanceSampleGGX returns a tangent space half vector distributed by the GGX lobe.
func importanceSampleGGX(su, sv float32, roughness float32) mgl32.Vec3 {
	a := roughness * roughness

	phi := 2.0 * math32.Pi * su
	cosTheta := math32.Sqrt((1.0 - sv) / (1.0 + (a*a-1.0)*sv))
	sinTheta := math32.Sqrt(1.0 - cosTheta*cosTheta)

	return mgl32.Vec3{math32.Cos(phi) * sinTheta, math32.Sin(phi) * sinTheta, cosTheta}
}

func distributionGGX(ndoth, roughness float32) float32 {
	a := roughness * roughness
	a2 := a * a
	d := ndoth*ndoth*(a2-1) + 1
	return a2 / (math32.Pi * d * d)
}

// PrefilterRoughness is the roughness baked into a prefilter level.
func PrefilterRoughness(level, levels int) float32 {
	if levels <= 1 {
		return 0
	}
	return float32(level) / float32(levels-1)
}

// PrefilterSw convolves env with the GGX lobe for each roughness level, assuming
// n = v = r. Samples read from a lower resolution level of env where their lobe
// footprint is large, so env should carry a mip chain.
func PrefilterSw(env *IblEnv, size, levels, samples int) *IblEnv {
	result := NewEmptyIblEnv(size, levels)
	sequence := generateHammersleySequence(samples)
	texelSolidAngle := 4 * math32.Pi / (6 * float32(env.BaseSize*env.BaseSize))

	for level := 0; level < levels; level++ {
		roughness := PrefilterRoughness(level, levels)
		pix := result.Level(level)
		forEachCubeMapPixel(result.Size(level), func(face, x, y int, n mgl32.Vec3, i int) {
			if roughness == 0 {
				c := sampleCubeLod(env, n, 0)
				copy(pix[i*3:i*3+3], c[:])
				return
			}

			t, b := tangentFrame(n)
			var sum mgl32.Vec3
			var total float32
			for _, hs := range sequence {
				h := toWorld(importanceSampleGGX(hs[0], hs[1], roughness), t, b, n).Normalize()
				vdoth := n.Dot(h)
				l := h.Mul(2 * vdoth).Sub(n).Normalize()
				ndotl := n.Dot(l)
				if ndotl <= 0 {
					continue
				}
				ndoth := math32.Max(vdoth, 0)
				pdf := distributionGGX(ndoth, roughness)*ndoth/(4*vdoth) + 0.0001
				sampleSolidAngle := 1 / (float32(samples)*pdf + 0.0001)
				lod := 0.5 * math32.Log2(sampleSolidAngle/texelSolidAngle)
				sum = sum.Add(sampleCubeLod(env, l, lod).Mul(ndotl))
				total += ndotl
			}
			c := sum.Mul(1 / total)
			copy(pix[i*3:i*3+3], c[:])
		})
	}

	return result
}

func geometrySchlickGGX(ndotv, roughness float32) float32 {
	// k for image based lighting
	k := roughness * roughness / 2
	return ndotv / (ndotv*(1-k) + k)
}

func geometrySmith(ndotv, ndotl, roughness float32) float32 {
	return geometrySchlickGGX(ndotv, roughness) * geometrySchlickGGX(ndotl, roughness)
}

// integrateBrdf returns the split-sum scale and bias for the Fresnel term.
func integrateBrdf(ndotv, roughness float32, sequence [][2]float32) (scale, bias float32) {
	v := mgl32.Vec3{math32.Sqrt(1 - ndotv*ndotv), 0, ndotv}
	for _, hs := range sequence {
		h := importanceSampleGGX(hs[0], hs[1], roughness)
		vdoth := v.Dot(h)
		l := h.Mul(2 * vdoth).Sub(v).Normalize()

		ndotl := math32.Max(l.Z(), 0)
		ndoth := math32.Max(h.Z(), 0)
		vdoth = math32.Max(vdoth, 0)
		if ndotl <= 0 {
			continue
		}
		g := geometrySmith(ndotv, ndotl, roughness)
		gVis := g * vdoth / (ndoth * ndotv)
		fc := math32.Pow(1-vdoth, 5)
		scale += (1 - fc) * gVis
		bias += fc * gVis
	}
	n := float32(len(sequence))
	return scale / n, bias / n
}

// IntegrateBrdfSw computes the size² BRDF lookup table. x is n·v and y is roughness,
// both sampled at texel centers.
func IntegrateBrdfSw(size, samples int) *libio.FloatImage {
	sequence := generateHammersleySequence(samples)
	pix := make([]float32, size*size*2)

	wg := sync.WaitGroup{}
	for y := 0; y < size; y++ {
		wg.Add(1)
		go func(y int) {
			defer wg.Done()
			roughness := (float32(y) + 0.5) / float32(size)
			for x := 0; x < size; x++ {
				ndotv := (float32(x) + 0.5) / float32(size)
				o := (y*size + x) * 2
				pix[o], pix[o+1] = integrateBrdf(ndotv, roughness, sequence)
			}
		}(y)
	}
	wg.Wait()

	return libio.NewFloatImage(pix, 2, size, size)
}
