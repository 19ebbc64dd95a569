package engine_test

import (
	"testing"

	"pbrview/engine"
)

func TestLightsToggle(t *testing.T) {
	lights := engine.NewLights(false)
	if lights.Count() != 0 {
		t.Errorf("disabled lights should count 0 but count %d", lights.Count())
	}
	lights.Toggle()
	if lights.Count() != engine.LightCount {
		t.Errorf("enabled lights should count %d but count %d", engine.LightCount, lights.Count())
	}
	lights.Toggle()
	if lights.Count() != 0 {
		t.Errorf("toggling twice should disable the lights again")
	}
}

func TestLightsLayout(t *testing.T) {
	lights := engine.NewLights(true)
	for i, pos := range lights.Positions {
		if pos.Z() != 10 || (pos.X() != 10 && pos.X() != -10) || (pos.Y() != 10 && pos.Y() != -10) {
			t.Errorf("light %d at unexpected position %v", i, pos)
		}
		if lights.Colors[i] != [3]float32{300, 300, 300} {
			t.Errorf("light %d has unexpected color %v", i, lights.Colors[i])
		}
	}
}
