package engine_test

import (
	"math"
	"testing"

	"pbrview/engine"
)

func TestSphereGridSize(t *testing.T) {
	cells := engine.SphereGrid()
	if len(cells) != engine.GridSize*engine.GridSize {
		t.Fatalf("expected %d cells but got %d", engine.GridSize*engine.GridSize, len(cells))
	}
}

func TestSphereGridLayout(t *testing.T) {
	cells := engine.SphereGrid()
	half := float32(engine.GridSize-1) / 2 * engine.GridSpacing

	tests := []struct {
		row, col  int
		x, y      float32
		metallic  float32
		roughness float32
	}{
		{0, 0, -half, -half, 0, engine.MinRoughness},
		{0, 6, half, -half, 0, 1},
		{6, 0, -half, half, 1, engine.MinRoughness},
		{3, 3, 0, 0, 0.5, 0.5},
		{2, 1, -half + engine.GridSpacing, -half + 2*engine.GridSpacing, 2.0 / 6, 1.0 / 6},
	}

	const eps = 1e-5
	for _, test := range tests {
		cell := cells[test.row*engine.GridSize+test.col]
		if math.Abs(float64(cell.Position.X()-test.x)) > eps || math.Abs(float64(cell.Position.Y()-test.y)) > eps || cell.Position.Z() != 0 {
			t.Errorf("cell (%d, %d): expected position (%v, %v, 0) but got %v", test.row, test.col, test.x, test.y, cell.Position)
		}
		if math.Abs(float64(cell.Metallic-test.metallic)) > eps {
			t.Errorf("cell (%d, %d): expected metallic %v but got %v", test.row, test.col, test.metallic, cell.Metallic)
		}
		if math.Abs(float64(cell.Roughness-test.roughness)) > eps {
			t.Errorf("cell (%d, %d): expected roughness %v but got %v", test.row, test.col, test.roughness, cell.Roughness)
		}
	}
}

func TestSphereGridRoughnessClamped(t *testing.T) {
	for i, cell := range engine.SphereGrid() {
		if cell.Roughness < engine.MinRoughness || cell.Roughness > 1 {
			t.Errorf("cell %d roughness %v outside [%v, 1]", i, cell.Roughness, engine.MinRoughness)
		}
		if cell.Metallic < 0 || cell.Metallic > 1 {
			t.Errorf("cell %d metallic %v outside [0, 1]", i, cell.Metallic)
		}
	}
}
