package libutil_test

import (
	"testing"

	"pbrview/libutil"
)

func TestNextPowerOfTwo(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {96, 128}, {128, 128}, {129, 256}, {672, 1024},
	}
	for _, c := range cases {
		if got := libutil.NextPowerOfTwo(c.in); got != c.want {
			t.Errorf("NextPowerOfTwo(%d) should be %d but is %d", c.in, c.want, got)
		}
	}
}

func TestMipLevels(t *testing.T) {
	cases := []struct{ in, want int }{
		{1, 1}, {2, 2}, {32, 6}, {128, 8}, {512, 10}, {600, 10},
	}
	for _, c := range cases {
		if got := libutil.MipLevels(c.in); got != c.want {
			t.Errorf("MipLevels(%d) should be %d but is %d", c.in, c.want, got)
		}
	}
}

func TestClamp(t *testing.T) {
	if v := libutil.Clamp(0, 0.05, 1); v != 0.05 {
		t.Errorf("clamp below range should be 0.05 but is %v", v)
	}
	if v := libutil.Clamp(2, 0.05, 1); v != 1 {
		t.Errorf("clamp above range should be 1 but is %v", v)
	}
	if v := libutil.Clamp(0.5, 0.05, 1); v != 0.5 {
		t.Errorf("clamp inside range should be 0.5 but is %v", v)
	}
}

type recorder struct {
	id  int
	log *[]int
}

func (r recorder) Delete() { *r.log = append(*r.log, r.id) }

func TestDeleteAllReverseOrder(t *testing.T) {
	var log []int
	libutil.DeleteAll([]libutil.Deleter{recorder{1, &log}, nil, recorder{2, &log}, recorder{3, &log}})
	want := []int{3, 2, 1}
	if len(log) != len(want) {
		t.Fatalf("expected %d deletions but got %d", len(want), len(log))
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("deletion %d should be %d but is %d", i, want[i], log[i])
		}
	}
}
