package jit

import (
	"testing"

	"github.com/colorfulnotion/hostjit/x86"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelTable(t *testing.T) {
	lt := NewLabelTable()
	_, ok := lt.Lookup(4)
	assert.False(t, ok)

	back := lt.Add(4, 10, SiteJump)
	fwd := lt.Add(4, 0, SiteBranch)
	lt.Add(12, 2, SiteCall)
	assert.Equal(t, 3, lt.Len())
	assert.Equal(t, []int{4, 12}, lt.Labels())

	sites, ok := lt.Lookup(4)
	require.True(t, ok)
	assert.Len(t, sites, 2)

	s, err := lt.Site(4, 0)
	require.NoError(t, err)
	assert.Same(t, fwd, s)
	assert.False(t, s.Backward())
	assert.True(t, back.Backward())

	_, err = lt.Site(4, 7)
	assert.ErrorIs(t, err, ErrLabelNotFound)

	assert.Len(t, lt.Pending(), 3)
	back.CodePos = 40
	fwd.CodePos = 21
	assert.Len(t, lt.Pending(), 2)
	fwd.Patched = true
	pending := lt.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 12, pending[0].Label)

	tree := lt.Tree()
	assert.Contains(t, tree, "L0004")
	assert.Contains(t, tree, "jmp from 0010 back code 0x0028")
	assert.Contains(t, tree, "call from 0002 fwd pending")

	lt.Reset()
	assert.Zero(t, lt.Len())
	assert.Empty(t, lt.Labels())
}

func TestBuffer(t *testing.T) {
	b := NewBuffer(2)
	for i := 0; i < 10; i++ {
		b.Emit(x86.Ret())
	}
	assert.Equal(t, 10, b.Pos())

	at := b.Emit(x86.JmpRel32(0))
	require.NoError(t, b.PatchRel32(at+1, -300))
	assert.EqualValues(t, -300, b.Rel32At(at+1))
	assert.Error(t, b.PatchRel32(at+2, 1))
	assert.Len(t, b.Bytes(), 15)

	b.Reset()
	assert.Zero(t, b.Pos())
}
