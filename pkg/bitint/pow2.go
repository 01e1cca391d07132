// SPDX-License-Identifier: MIT
// Package bitint provides power-of-2 helpers for FFT and ring buffer
// sizing. All operations are O(1), allocation-free and real-time safe.
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size. Powers of 2 are
// returned unchanged; non-positive inputs return 1. The size-1
// subtraction is what keeps exact powers of 2 from doubling.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	if bits.UintSize == 64 {
		return int(1 << bits.Len64(uint64(size-1)))
	}
	return int(1 << bits.Len32(uint32(size-1)))
}

// IsPowerOfTwo reports whether n is a positive power of 2. Powers of 2
// have exactly one bit set, so n&(n-1) is zero only for them.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
