package libgl

import (
	"strings"

	"github.com/go-gl/gl/v4.5-core/gl"
)

const (
	VendorIntel   = "intel"
	VendorNvidia  = "nvidia"
	VendorAmd     = "ati"
	VendorUnknown = "unknown"
)

type GlEnvironment struct {
	Vendor                     string
	Renderer                   string
	Version                    string
	UseIntelTextureBindingFix  bool
	UseIntelCubemapDsaFix      bool
	IntelTextureBindingTargets map[uint32]uint32
	Features                   GlFeatures
}

type GlFeatures struct {
	MaxTextureMaxAnisotropy float32
	MaxSamples              int32
}

var Env *GlEnvironment

func GetGlEnv() *GlEnvironment {
	rawVendor := gl.GoStr(gl.GetString(gl.VENDOR))
	vendor := strings.ToLower(rawVendor)
	switch {
	case strings.Contains(vendor, "intel"):
		vendor = VendorIntel
	case strings.Contains(vendor, "nvidia"):
		vendor = VendorNvidia
	case strings.Contains(vendor, "ati ") || strings.Contains(vendor, "amd"):
		vendor = VendorAmd
	default:
		vendor = VendorUnknown
	}

	features := GlFeatures{}
	gl.GetFloatv(gl.MAX_TEXTURE_MAX_ANISOTROPY, &features.MaxTextureMaxAnisotropy)
	gl.GetIntegerv(gl.MAX_SAMPLES, &features.MaxSamples)

	return &GlEnvironment{
		Vendor:                     vendor,
		Renderer:                   gl.GoStr(gl.GetString(gl.RENDERER)),
		Version:                    gl.GoStr(gl.GetString(gl.VERSION)),
		UseIntelTextureBindingFix:  vendor == VendorIntel,
		UseIntelCubemapDsaFix:      vendor == VendorIntel,
		IntelTextureBindingTargets: map[uint32]uint32{},
		Features:                   features,
	}
}
