package main

import (
	"flag"
	"fmt"
	goimage "image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"pbrview/ibl"
	"pbrview/libio"
)

type previewArgs struct {
	commonArgs
	gamma    float64
	scale    float64
	reinhard bool
}

func createPreviewCommand() *command {

	args := previewArgs{
		gamma: 2.2,
		scale: 1.0,
	}

	flags := flag.NewFlagSet("preview", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)
	flags.Float64Var(&args.gamma, "gamma", args.gamma, "gamma correction value")
	flags.Float64Var(&args.scale, "scale", args.scale, "brightness scale factor")
	flags.BoolVar(&args.reinhard, "reinhard", args.reinhard, "apply reinhard tonemapping")

	return &command{
		Name: "preview",
		Help: "render ibl environments to png",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runPreview(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runPreview(args previewArgs, inputFiles []string) {
	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		info("Processing file %d/%d %q ...\n", i+1, len(inputFiles), filepath.ToSlash(filepath.Clean(p)))
		err := previewFile(args, p)
		softerr(err)
		if err == nil {
			success++
		}
	}
	took := float32(time.Since(start).Milliseconds()) / 1000
	info("Converted %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
}

func previewFile(args previewArgs, p string) error {
	inFile, err := os.Open(p)
	if err != nil {
		return err
	}
	defer close(inFile)

	env, err := ibl.DecodeIblEnv(inFile)
	if err != nil {
		return err
	}

	for level := 0; level < env.Levels; level++ {
		size := env.Size(level)
		img := libio.NewFloatImage(env.Level(level), 3, size, size*6)
		if args.reinhard {
			for i := range img.Pix {
				img.Pix[i] = img.Pix[i] / (1 + img.Pix[i])
			}
		}
		nrgba := img.ToIntImage(float32(args.gamma), float32(args.scale)).ToNRGBA()

		outFilename := filepath.Join(cargs.out, fmt.Sprintf("%s_%d.png", baseName(p), level))
		if err := writePng(outFilename, nrgba); err != nil {
			return err
		}
	}
	return nil
}

func writePng(outFilename string, img *goimage.NRGBA) error {
	outFile, err := os.OpenFile(outFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer close(outFile)

	info("Writing %q ...\n", filepath.ToSlash(filepath.Clean(outFilename)))
	return png.Encode(outFile, img)
}
