// Package libtext rasterizes a monospace glyph atlas and draws text overlays from it.
package libtext

import (
	"errors"
	"fmt"
	"image"
	"os"

	"pbrview/libutil"

	"golang.org/x/exp/slices"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	FirstGlyph = 32
	GlyphCount = 96
	// FallbackGlyph replaces runes the atlas does not contain.
	FallbackGlyph = '?'
)

var ErrEmptyFace = errors.New("font face has no glyph extents")

// Atlas holds glyphs FirstGlyph to FirstGlyph+GlyphCount-1 in a single row of equal cells.
type Atlas struct {
	Image      *image.Alpha
	CellWidth  int
	CellHeight int
	Width      int
	Height     int
}

type glyphExtent struct {
	width  int
	offset fixed.Int26_6
}

func measureGlyph(face font.Face, r rune) glyphExtent {
	bounds, advance, ok := face.GlyphBounds(r)
	if !ok {
		return glyphExtent{}
	}
	width := libutil.MaxI(advance.Ceil(), (bounds.Max.X - bounds.Min.X).Ceil())
	// glyphs with a negative left bearing are shifted into their cell
	offset := fixed.Int26_6(0)
	if bounds.Min.X < 0 {
		offset = -bounds.Min.X
	}
	return glyphExtent{width: width, offset: offset}
}

func NewAtlas(face font.Face) (*Atlas, error) {
	extents := make([]glyphExtent, GlyphCount)
	for i := range extents {
		extents[i] = measureGlyph(face, rune(FirstGlyph+i))
	}
	widest := slices.MaxFunc(extents, func(a, b glyphExtent) int {
		return a.width - b.width
	})

	metrics := face.Metrics()
	cellW := widest.width
	cellH := (metrics.Ascent + metrics.Descent).Ceil()
	if cellW <= 0 || cellH <= 0 {
		return nil, ErrEmptyFace
	}

	atlas := &Atlas{
		CellWidth:  cellW,
		CellHeight: cellH,
		Width:      libutil.NextPowerOfTwo(GlyphCount * cellW),
		Height:     libutil.NextPowerOfTwo(cellH),
	}
	atlas.Image = image.NewAlpha(image.Rect(0, 0, atlas.Width, atlas.Height))

	drawer := font.Drawer{
		Dst:  atlas.Image,
		Src:  image.Opaque,
		Face: face,
	}
	for i, extent := range extents {
		drawer.Dot = fixed.Point26_6{
			X: fixed.I(i*cellW) + extent.offset,
			Y: metrics.Ascent,
		}
		drawer.DrawString(string(rune(FirstGlyph + i)))
	}

	return atlas, nil
}

// GlyphOffset returns the x pixel offset of the rune's cell. Runes outside the atlas
// map to FallbackGlyph and report ok = false.
func (atlas *Atlas) GlyphOffset(r rune) (x int, ok bool) {
	if r < FirstGlyph || r >= FirstGlyph+GlyphCount {
		return (FallbackGlyph - FirstGlyph) * atlas.CellWidth, false
	}
	return int(r-FirstGlyph) * atlas.CellWidth, true
}

// LoadFace parses a TrueType or OpenType font at the given pixel size.
func LoadFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read font %q: %w", path, err)
	}
	return ParseFace(data, size)
}

func ParseFace(data []byte, size float64) (font.Face, error) {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("could not parse font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create font face: %w", err)
	}
	return face, nil
}
