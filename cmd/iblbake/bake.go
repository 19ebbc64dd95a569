package main

import (
	"flag"
	"os"
	"path/filepath"
	"time"

	"pbrview/ibl"
	"pbrview/libimg"
)

type bakeArgs struct {
	commonArgs
	skyboxSize      int
	irradianceSize  int
	prefilterSize   int
	prefilterLevels int
	quality         int
	samples         int
}

func createBakeCommand() *command {

	args := bakeArgs{
		commonArgs: commonArgs{
			compress: 1,
		},
		skyboxSize:      ibl.SkyboxSize,
		irradianceSize:  ibl.IrradianceSize,
		prefilterSize:   ibl.PrefilterSize,
		prefilterLevels: ibl.PrefilterLevels,
		quality:         32,
		samples:         1024,
	}

	flags := flag.NewFlagSet("bake", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)
	flags.IntVar(&args.skyboxSize, "skybox-size", args.skyboxSize, "the skybox face resolution")
	flags.IntVar(&args.irradianceSize, "irradiance-size", args.irradianceSize, "the irradiance face resolution")
	flags.IntVar(&args.prefilterSize, "prefilter-size", args.prefilterSize, "the prefilter base face resolution")
	flags.IntVar(&args.prefilterLevels, "prefilter-levels", args.prefilterLevels, "the number of roughness levels")
	flags.IntVar(&args.quality, "quality", args.quality, "irradiance convolution samples per axis")
	flags.IntVar(&args.samples, "samples", args.samples, "prefilter samples per texel")

	return &command{
		Name: "bake",
		Help: "bake radiance hdr images to skybox, irradiance and prefilter environments",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 || args.compress < 0 || args.compress > 10 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runBake(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runBake(args bakeArgs, inputFiles []string) {
	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		info("Processing file %d/%d %q ...\n", i+1, len(inputFiles), filepath.ToSlash(filepath.Clean(p)))
		err := bakeFile(args, p)
		softerr(err)
		if err == nil {
			success++
		}
	}
	took := float32(time.Since(start).Milliseconds()) / 1000
	info("Baked %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
}

func bakeFile(args bakeArgs, p string) error {
	hdr, err := libimg.LoadHdrFile(p)
	if err != nil {
		return err
	}

	info("Converting to %dx%d cubemap ...\n", args.skyboxSize, args.skyboxSize)
	skybox, err := ibl.ConvertSw(hdr, args.skyboxSize)
	if err != nil {
		return err
	}
	skybox = ibl.GenerateMipmapsSw(skybox)

	info("Convolving irradiance at %dx%d ...\n", args.irradianceSize, args.irradianceSize)
	irradiance := ibl.ConvolveIrradianceSw(skybox, args.irradianceSize, args.quality)

	info("Prefiltering %d levels at %dx%d ...\n", args.prefilterLevels, args.prefilterSize, args.prefilterSize)
	prefilter := ibl.PrefilterSw(skybox, args.prefilterSize, args.prefilterLevels, args.samples)

	name := baseName(p)
	outputs := []struct {
		suffix string
		env    *ibl.IblEnv
	}{
		{"_skybox", skybox},
		{"_irradiance", irradiance},
		{"_prefilter", prefilter},
	}
	for _, o := range outputs {
		if err := writeIblEnv(filepath.Join(cargs.out, name+o.suffix+".iblenv"), o.env); err != nil {
			return err
		}
	}
	return nil
}

func writeIblEnv(outFilename string, env *ibl.IblEnv) error {
	outFile, err := os.OpenFile(outFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer close(outFile)

	info("Writing %q ...\n", filepath.ToSlash(filepath.Clean(outFilename)))
	err = ibl.EncodeIblEnv(outFile, env, ibl.OptCompress(cargs.compress-1))
	if err != nil {
		outFile.Close()
		os.Remove(outFilename)
		return err
	}
	return nil
}
