package libutil

import (
	"math"
	"math/bits"
)

const (
	Rad2Deg = float32(180 / math.Pi)
	Deg2Rad = float32(math.Pi / 180)
)

type Deleter interface {
	Delete()
}

// DeleteAll releases in reverse creation order.
func DeleteAll(objects []Deleter) {
	for i := len(objects) - 1; i >= 0; i-- {
		if objects[i] != nil {
			objects[i].Delete()
		}
	}
}

func MaxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func MinI(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NextPowerOfTwo returns the smallest power of two >= n, and 1 for n <= 1.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// MipLevels is the length of a full mip chain for a texture of the given extent.
func MipLevels(size int) int {
	if size <= 1 {
		return 1
	}
	return bits.Len(uint(size))
}
