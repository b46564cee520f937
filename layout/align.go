// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package layout

import (
	"math"
)

// minAlign is the word alignment applied after alias padding.
const minAlign = 4

// AlignUp rounds v up to the next multiple of the power of two a, it
// saturates instead of wrapping around.
func AlignUp(v uint64, a uint64) uint64 {
	if a <= 1 {
		return v
	}

	if v > math.MaxUint64-(a-1) {
		return math.MaxUint64 &^ (a - 1)
	}

	return (v + a - 1) &^ (a - 1)
}

// AlignDown rounds v down to a multiple of the power of two a.
func AlignDown(v uint64, a uint64) uint64 {
	if a <= 1 {
		return v
	}

	return v &^ (a - 1)
}

func isPow2(a uint64) bool {
	return a != 0 && a&(a-1) == 0
}

// add is a saturating addition.
func add(a uint64, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}

	return a + b
}
