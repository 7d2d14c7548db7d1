package console

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream(t *testing.T) {
	var out bytes.Buffer
	s := NewStream(strings.NewReader("1.5  -2\n3e2"), &out)

	for _, want := range []float64{1.5, -2, 300} {
		v, err := s.Scan()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	_, err := s.Scan()
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, s.Print(7))
	require.NoError(t, s.Print(0.125))
	assert.Equal(t, "7.000000\n0.125000\n", out.String())
}

func TestStreamBadInput(t *testing.T) {
	s := NewStream(strings.NewReader("seven"), io.Discard)
	_, err := s.Scan()
	assert.ErrorIs(t, err, ErrBadInput)
}

func TestScript(t *testing.T) {
	s := &Script{Inputs: []float64{4}}
	v, err := s.Scan()
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)
	_, err = s.Scan()
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, s.Print(2))
	assert.Equal(t, []float64{2}, s.Outputs)
}

func TestNewNonInteractive(t *testing.T) {
	var out bytes.Buffer
	c, closer, err := New(strings.NewReader("9"), &out, false)
	require.NoError(t, err)
	defer closer()
	_, ok := c.(*Stream)
	assert.True(t, ok)
}
