package libio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"github.com/pierrec/lz4/v4"
)

const MagicNumberF32 = 0x6d16837d

type FloatImageVersion uint32

const (
	F32Version1_001_000 = FloatImageVersion(1_001_000)
)

type FloatImageCompression uint32

const (
	FloatImageCompressionNone = FloatImageCompression(iota)
	FloatImageCompressionFixedPoint16Lz4
)

var ErrCorrupt = errors.New("f32 data is corrupt")

type FloatImageHeader struct {
	Check         uint32
	Version       FloatImageVersion
	Width, Height uint32
	Channels      uint8
	Compression   FloatImageCompression
	Unused        [14]uint8
}

func EncodeFloatImage(w io.Writer, img *FloatImage, compression FloatImageCompression) (err error) {
	bw, ok := w.(*BinaryWriter)
	if !ok {
		bw = NewBinaryWriter(w)
		defer bw.MergeErr(&err)
	}

	header := FloatImageHeader{
		Check:       MagicNumberF32,
		Version:     F32Version1_001_000,
		Width:       uint32(img.Width),
		Height:      uint32(img.Height),
		Channels:    uint8(img.Channels),
		Compression: compression,
	}
	if !bw.WriteRef(header) {
		return fmt.Errorf("could not write f32 header")
	}

	switch compression {
	case FloatImageCompressionNone:
		bw.WriteRef(img.Pix)
	case FloatImageCompressionFixedPoint16Lz4:
		lzw := lz4.NewWriter(bw)
		if err := lzw.Apply(lz4.CompressionLevelOption(lz4.Fast)); err != nil {
			return err
		}
		inner := NewBinaryWriter(lzw)
		for ch := 0; ch < img.Channels; ch++ {
			compressChannelFixedPoint16(img, ch, inner)
		}
		if inner.Err != nil {
			return fmt.Errorf("could not compress f32 pixels: %w", inner.Err)
		}
		if err := lzw.Close(); err != nil {
			return fmt.Errorf("could not compress f32 pixels: %w", err)
		}
	default:
		return fmt.Errorf("unknown f32 compression %d", compression)
	}

	if bw.Err != nil {
		return fmt.Errorf("could not write f32 pixels")
	}
	return nil
}

// compressChannelFixedPoint16 writes the channel's range followed by every value
// quantized to 16 bits within that range.
func compressChannelFixedPoint16(img *FloatImage, ch int, bw *BinaryWriter) {
	lo, hi := math32.Inf(1), math32.Inf(-1)
	for i := 0; i < img.Count(); i++ {
		v := img.Pix[i*img.Channels+ch]
		lo = math32.Min(lo, v)
		hi = math32.Max(hi, v)
	}
	if img.Count() == 0 {
		lo, hi = 0, 0
	}

	bw.WriteUInt32(math32.Float32bits(lo))
	bw.WriteUInt32(math32.Float32bits(hi))

	span := hi - lo
	fixed := make([]uint16, img.Count())
	if span > 0 {
		for i := range fixed {
			fixed[i] = uint16((img.Pix[i*img.Channels+ch]-lo)/span*0xffff + 0.5)
		}
	}
	bw.WriteRef(fixed)
}

func DecodeFloatImage(r io.Reader) (img *FloatImage, err error) {
	br, ok := r.(*BinaryReader)
	if !ok {
		br = NewBinaryReader(r)
		defer br.MergeErr(&err)
	}

	header := FloatImageHeader{}
	if !br.ReadRef(&header) {
		return nil, fmt.Errorf("expected f32 header; byte 0x%08x", br.LastOffset)
	}
	if header.Check != MagicNumberF32 {
		return nil, fmt.Errorf("%w: bad magic number; byte 0x%08x", ErrCorrupt, br.LastOffset)
	}
	if header.Version != F32Version1_001_000 {
		return nil, fmt.Errorf("f32 version %d unsupported; byte 0x%08x", header.Version, br.LastOffset)
	}

	channels := int(header.Channels)
	count := int(header.Width) * int(header.Height)
	pix := make([]float32, count*channels)

	switch header.Compression {
	case FloatImageCompressionNone:
		br.ReadRef(pix)
	case FloatImageCompressionFixedPoint16Lz4:
		buf, err := io.ReadAll(lz4.NewReader(br))
		if err != nil {
			return nil, fmt.Errorf("could not decompress f32 pixels: %w", err)
		}
		inner := NewBinaryReader(bytes.NewReader(buf))
		for ch := 0; ch < channels; ch++ {
			decompressChannelFixedPoint16(pix, channels, ch, inner)
		}
		if inner.Err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, inner.Err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, header.Compression)
	}

	if br.Err != nil {
		return nil, fmt.Errorf("could not read f32 pixels")
	}
	return NewFloatImage(pix, channels, int(header.Width), int(header.Height)), nil
}

func decompressChannelFixedPoint16(pix []float32, channels, ch int, br *BinaryReader) {
	var loBits, hiBits uint32
	br.ReadUInt32(&loBits)
	br.ReadUInt32(&hiBits)
	lo, hi := math32.Float32frombits(loBits), math32.Float32frombits(hiBits)

	fixed := make([]uint16, len(pix)/channels)
	if !br.ReadRef(fixed) {
		return
	}
	span := hi - lo
	for i, v := range fixed {
		pix[i*channels+ch] = float32(v)/0xffff*span + lo
	}
}
