package libgl_test

import (
	"strings"
	"testing"

	"pbrview/libgl"
)

const templateSource = `#version 450 core
//meta:name test
#define SAMPLES 64
#define USE_NORMAL_MAP
// #define DEBUG_VIEW

void main() {}
`

func TestExpandDefinesKeepsDefaults(t *testing.T) {
	out := libgl.ExpandDefines(templateSource, nil)
	for _, want := range []string{"#define SAMPLES 64", "#define USE_NORMAL_MAP", "// #define DEBUG_VIEW"} {
		if !strings.Contains(out, want) {
			t.Errorf("expanded source should contain %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "$def_") {
		t.Errorf("expanded source still contains markers\n%s", out)
	}
}

func TestExpandDefinesOverrides(t *testing.T) {
	tests := []struct {
		name    string
		defs    map[string]string
		want    []string
		notWant []string
	}{
		{
			name: "value",
			defs: map[string]string{"samples": "256"},
			want: []string{"#define SAMPLES 256"},
		},
		{
			name:    "disable boolean",
			defs:    map[string]string{"USE_NORMAL_MAP": "false"},
			want:    []string{"// #define USE_NORMAL_MAP"},
			notWant: []string{"\n#define USE_NORMAL_MAP"},
		},
		{
			name: "enable boolean",
			defs: map[string]string{"debug_view": "true"},
			want: []string{"\n#define DEBUG_VIEW\n"},
		},
		{
			name: "unknown is inserted after version",
			defs: map[string]string{"EXTRA": "1"},
			want: []string{"#version 450 core\n#define EXTRA 1\n"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out := libgl.ExpandDefines(templateSource, test.defs)
			for _, want := range test.want {
				if !strings.Contains(out, want) {
					t.Errorf("expanded source should contain %q\n%s", want, out)
				}
			}
			for _, notWant := range test.notWant {
				if strings.Contains(out, notWant) {
					t.Errorf("expanded source should not contain %q\n%s", notWant, out)
				}
			}
		})
	}
}

func TestUniformTableLookup(t *testing.T) {
	calls := map[string]int{}
	table := libgl.NewUniformTable(func(name string) int32 {
		calls[name]++
		if name == "u_light_positions[2]" {
			return 12
		}
		return -1
	})
	table.Put("u_model_mat", 3)
	table.Put("u_light_positions[0]", 10)

	tests := []struct {
		name     string
		location int32
		ok       bool
	}{
		{"u_model_mat", 3, true},
		{"u_light_positions", 10, true},
		{"u_light_positions[2]", 12, true},
		{"u_missing", -1, false},
	}

	for _, test := range tests {
		for i := 0; i < 2; i++ {
			location, ok, _ := table.Lookup(test.name)
			if location != test.location || ok != test.ok {
				t.Errorf("lookup %q should be (%d, %v) but was (%d, %v)", test.name, test.location, test.ok, location, ok)
			}
		}
	}

	for name, n := range calls {
		if n != 1 {
			t.Errorf("resolver should be called once for %q but was called %d times", name, n)
		}
	}
	if calls["u_model_mat"] != 0 {
		t.Errorf("resolver should not be called for uniforms known at link time")
	}
}
