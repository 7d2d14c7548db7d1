package common

import (
	"fmt"
	"math"
	"strings"
)

// Float64ToWords splits a double into the two little-endian int32 words used
// by PUSH operands.
func Float64ToWords(v float64) (lo, hi int32) {
	bits := math.Float64bits(v)
	return int32(uint32(bits)), int32(uint32(bits >> 32))
}

// WordsToFloat64 is the inverse of Float64ToWords.
func WordsToFloat64(lo, hi int32) float64 {
	return math.Float64frombits(uint64(uint32(lo)) | uint64(uint32(hi))<<32)
}

// HexBytes renders b as space separated hex pairs.
func HexBytes(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02x", c)
	}
	return strings.Join(parts, " ")
}

// AlignUp rounds n up to a multiple of align, which must be a power of two.
func AlignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
