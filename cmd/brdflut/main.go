package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strings"

	"pbrview/ibl"
	"pbrview/libio"
)

type impl string

const (
	implCl impl = "opencl"
	implSw impl = "software"
)

func (i *impl) String() string {
	return string(*i)
}

func (i *impl) Set(s string) error {
	switch impl(s) {
	case implCl:
		*i = implCl
	case implSw:
		*i = implSw
	default:
		return fmt.Errorf("%s is not a valid implementation", s)
	}
	return nil
}

var args = struct {
	impl        impl
	samples     int
	size        int
	preview     bool
	compression int
	quiet       bool
}{
	impl:        implCl,
	samples:     1024,
	size:        ibl.BrdfLutSize,
	compression: int(libio.FloatImageCompressionFixedPoint16Lz4),
}

func printGeneralUsage() {
	exe := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s [arguments] <out>\n\n", exe)
	fmt.Fprintf(os.Stderr, "The arguments are:\n\n")
	flag.CommandLine.SetOutput(os.Stderr)
	flag.PrintDefaults()
	os.Exit(1)
}

func main() {
	flag.Var(&args.impl, "impl", "the integration implementation; opencl or software")
	flag.IntVar(&args.samples, "samples", args.samples, "samples of the integral")
	flag.IntVar(&args.size, "size", args.size, "size of the lut")
	flag.BoolVar(&args.preview, "preview", args.preview, "generate a preview png")
	flag.IntVar(&args.compression, "compression", args.compression, "0=none, 1=fixed-point + lz4")
	flag.BoolVar(&args.quiet, "quiet", args.quiet, "disables informational logging")

	flag.Parse()

	if flag.NArg() != 1 || args.size < 1 || args.samples < 1 {
		printGeneralUsage()
	}

	img := generate()

	fileext := path.Ext(flag.Arg(0))
	filename := strings.TrimSuffix(flag.Arg(0), fileext)
	saveFloatImage(img, filename, fileext)
}

func generate() *libio.FloatImage {
	if args.impl == implCl {
		img, err := ibl.GenerateClBrdfLut(ibl.DeviceTypeGPU, args.size, args.samples)
		if err == nil {
			info("Used OpenCL implementation\n")
			return img
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		info("Falling back to software implementation\n")
	}
	return ibl.IntegrateBrdfSw(args.size, args.samples)
}

func saveFloatImage(img *libio.FloatImage, filename, fileext string) {
	file, err := os.OpenFile(filename+fileext, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	harderr(err)
	defer file.Close()

	info("Writing %q ...\n", filepath.ToSlash(filepath.Clean(filename+fileext)))
	err = libio.EncodeFloatImage(file, img, libio.FloatImageCompression(args.compression))
	harderr(err)

	if args.preview {
		preview, err := os.OpenFile(filename+".png", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
		harderr(err)
		defer preview.Close()

		nrgba := img.ToChannels(3).ToIntImage(1, 1).ToNRGBA()
		err = png.Encode(preview, nrgba)
		harderr(err)
	}
}

func info(format string, a ...any) {
	if !args.quiet {
		fmt.Printf(format, a...)
	}
}

func harderr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
