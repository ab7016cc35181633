// SPDX-License-Identifier: MIT

// Package bitint holds power-of-2 helpers used to size FFT windows.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 that is >= size. Sizes
// below 1 return 1.
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	// size-1 keeps exact powers of 2 unchanged.
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
