package libtext_test

import (
	"testing"

	"pbrview/libtext"

	"golang.org/x/image/font/gofont/gomono"
)

func newTestAtlas(t *testing.T, size float64) *libtext.Atlas {
	t.Helper()
	face, err := libtext.ParseFace(gomono.TTF, size)
	if err != nil {
		t.Fatal(err)
	}
	atlas, err := libtext.NewAtlas(face)
	if err != nil {
		t.Fatal(err)
	}
	return atlas
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func TestAtlasDimensions(t *testing.T) {
	for _, size := range []float64{12, 16, 31} {
		atlas := newTestAtlas(t, size)
		if atlas.CellWidth <= 0 || atlas.CellHeight <= 0 {
			t.Fatalf("size %v: cell should not be empty but was %dx%d", size, atlas.CellWidth, atlas.CellHeight)
		}
		if !isPowerOfTwo(atlas.Width) || !isPowerOfTwo(atlas.Height) {
			t.Errorf("size %v: atlas %dx%d should be a power of two", size, atlas.Width, atlas.Height)
		}
		if atlas.Width < libtext.GlyphCount*atlas.CellWidth || atlas.Height < atlas.CellHeight {
			t.Errorf("size %v: atlas %dx%d is too small for %d cells of %dx%d", size, atlas.Width, atlas.Height, libtext.GlyphCount, atlas.CellWidth, atlas.CellHeight)
		}
		if atlas.Image.Bounds().Dx() != atlas.Width || atlas.Image.Bounds().Dy() != atlas.Height {
			t.Errorf("size %v: image bounds %v should match atlas size", size, atlas.Image.Bounds())
		}
	}
}

func cellCoverage(atlas *libtext.Atlas, r rune) int {
	x0, _ := atlas.GlyphOffset(r)
	sum := 0
	for y := 0; y < atlas.CellHeight; y++ {
		for x := x0; x < x0+atlas.CellWidth; x++ {
			sum += int(atlas.Image.AlphaAt(x, y).A)
		}
	}
	return sum
}

func TestAtlasGlyphsAreRasterized(t *testing.T) {
	atlas := newTestAtlas(t, 16)
	if cellCoverage(atlas, ' ') != 0 {
		t.Errorf("space should be blank")
	}
	for _, r := range "AFPS0123456789:" {
		if cellCoverage(atlas, r) == 0 {
			t.Errorf("glyph %q should have coverage", r)
		}
	}
}

func TestGlyphOffset(t *testing.T) {
	atlas := newTestAtlas(t, 16)
	tests := []struct {
		r  rune
		x  int
		ok bool
	}{
		{' ', 0, true},
		{'A', ('A' - 32) * atlas.CellWidth, true},
		{127, 95 * atlas.CellWidth, true},
		{'\t', ('?' - 32) * atlas.CellWidth, false},
		{'é', ('?' - 32) * atlas.CellWidth, false},
	}
	for _, test := range tests {
		x, ok := atlas.GlyphOffset(test.r)
		if x != test.x || ok != test.ok {
			t.Errorf("offset of %q should be (%d, %v) but was (%d, %v)", test.r, test.x, test.ok, x, ok)
		}
	}
}
