package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat64Words(t *testing.T) {
	for _, v := range []float64{0, 1, -2.5, math.Pi, math.Inf(-1), 1e300} {
		lo, hi := Float64ToWords(v)
		assert.Equal(t, v, WordsToFloat64(lo, hi))
	}
	lo, hi := Float64ToWords(1.0)
	assert.Equal(t, int32(0), lo)
	assert.Equal(t, int32(0x3ff00000), hi)
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, 0, AlignUp(0, 4096))
	assert.Equal(t, 4096, AlignUp(1, 4096))
	assert.Equal(t, 8192, AlignUp(8192, 4096))
}

func TestBlake2Hash(t *testing.T) {
	a := Blake2Hash([]byte("push 1.0"))
	b := Blake2Hash([]byte("push 2.0"))
	require.NotEqual(t, a, b)
	assert.Equal(t, uint32(0x3ff00000), BytesToUint32(Uint32ToBytes(0x3ff00000)))
	assert.Len(t, a.Hex(), 66)
	assert.Equal(t, "00 ff 10", HexBytes([]byte{0, 0xff, 0x10}))
}
