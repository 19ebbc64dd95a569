package ibl

import (
	"bufio"
	"fmt"
	"io"

	"pbrview/libimg"
	"pbrview/libio"

	"github.com/pierrec/lz4/v4"
)

type EncodeContext struct {
	Compression IblEnvCompression
	Writer      io.Writer
}

type EncodeOption func(ctx *EncodeContext) error

// OptCompress enables lz4 compression. Level 0 is the fast mode, 1 to 9 are the high
// compression levels. A negative level leaves the data uncompressed.
func OptCompress(level int) EncodeOption {
	levels := []lz4.CompressionLevel{lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9}
	if level < 0 {
		return nil
	}
	if level >= len(levels) {
		level = len(levels) - 1
	}

	return func(ctx *EncodeContext) error {
		if ctx.Compression != IblEnvCompressionNone {
			return fmt.Errorf("compression already configured")
		}
		lzw := lz4.NewWriter(ctx.Writer)
		if err := lzw.Apply(lz4.CompressionLevelOption(levels[level])); err != nil {
			return err
		}
		ctx.Compression = IblEnvCompressionLZ4
		if level == 0 {
			ctx.Compression = IblEnvCompressionLZ4Fast
		}
		ctx.Writer = lzw
		return nil
	}
}

func EncodeIblEnv(w io.Writer, env *IblEnv, options ...EncodeOption) (err error) {
	bw, ok := w.(*libio.BinaryWriter)
	if !ok {
		bw = libio.NewBinaryWriter(w)
		defer bw.MergeErr(&err)
	}

	ctx := EncodeContext{Writer: bw.Dst}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if err := opt(&ctx); err != nil {
			return err
		}
	}

	header := IblEnvHeader{
		iblEnvHeader1_001_000: iblEnvHeader1_001_000{
			Check:       MagicNumberIBLENV,
			Version:     IblEnvVersion1_002_000,
			Compression: ctx.Compression,
			Size:        uint32(env.BaseSize),
		},
		Levels: uint32(env.Levels),
	}
	if !bw.WriteRef(&header) {
		return fmt.Errorf("could not write ibl env header")
	}

	if err := EncodeRgbe(ctx.Writer, env.Concat()); err != nil {
		return fmt.Errorf("could not write ibl env encoded pixels: %w", err)
	}

	if lzw, ok := ctx.Writer.(*lz4.Writer); ok {
		return lzw.Close()
	}
	return nil
}

// EncodeRgbe writes RGB float triples as 4 byte shared exponent pixels.
func EncodeRgbe(w io.Writer, data []float32) error {
	if len(data)%3 != 0 {
		return fmt.Errorf("source not a multiple of 3 floats")
	}
	buf := bufio.NewWriterSize(w, 16384)
	for i := 0; i < len(data); i += 3 {
		rgbe := libimg.FloatToRgbe(data[i : i+3])
		if _, err := buf.Write(rgbe[:]); err != nil {
			return err
		}
	}
	return buf.Flush()
}

// DecodeRgbe reads pixels encoded by EncodeRgbe into dst until it is full.
func DecodeRgbe(r io.Reader, dst []float32) error {
	if len(dst)%3 != 0 {
		return fmt.Errorf("destination not a multiple of 3 floats")
	}
	buf := bufio.NewReaderSize(r, 16384)
	var rgbe [4]byte
	for i := 0; i < len(dst); i += 3 {
		if _, err := io.ReadFull(buf, rgbe[:]); err != nil {
			return err
		}
		libimg.RgbeToFloat(rgbe, dst[i:i+3])
	}
	return nil
}

// DecodeIblEnv reads an environment. Files of version 1.001 have a single level.
func DecodeIblEnv(r io.Reader) (env *IblEnv, err error) {
	br, ok := r.(*libio.BinaryReader)
	if !ok {
		br = libio.NewBinaryReader(r)
		defer br.MergeErr(&err)
	}

	header := IblEnvHeader{}
	if !br.ReadRef(&header.iblEnvHeader1_001_000) {
		return nil, fmt.Errorf("expected environment header; byte 0x%08x", br.LastOffset)
	}
	if header.Check != MagicNumberIBLENV {
		return nil, fmt.Errorf("environment header is corrupt; byte 0x%08x", br.LastOffset)
	}

	switch header.Version {
	case IblEnvVersion1_001_000:
		header.Levels = 1
	case IblEnvVersion1_002_000:
		if !br.ReadUInt32(&header.Levels) {
			return nil, fmt.Errorf("expected environment level count; byte 0x%08x", br.LastOffset)
		}
	default:
		return nil, fmt.Errorf("environment version %d unsupported; byte 0x%08x", header.Version, br.LastOffset)
	}

	if header.Size == 0 || header.Levels == 0 || header.Levels > 32 {
		return nil, fmt.Errorf("environment size %d with %d levels is invalid", header.Size, header.Levels)
	}

	var pixr io.Reader = br
	switch header.Compression {
	case IblEnvCompressionNone:
	case IblEnvCompressionLZ4, IblEnvCompressionLZ4Fast:
		pixr = lz4.NewReader(br)
	default:
		return nil, fmt.Errorf("environment compression id %d unsupported; byte 0x%08x", header.Compression, br.LastOffset)
	}

	env = NewEmptyIblEnv(int(header.Size), int(header.Levels))
	if err := DecodeRgbe(pixr, env.Concat()); err != nil {
		return nil, fmt.Errorf("expected %d encoded pixels: %w", len(env.Concat())/3, err)
	}

	return env, nil
}
