package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHashFromPath(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, computeHashFromPath(dir))

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	// no commits yet, so HEAD does not resolve
	assert.Empty(t, computeHashFromPath(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "loop.s"), []byte("push 1\nout\nhlt\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("loop.s")
	require.NoError(t, err)
	h, err := wt.Commit("add loop", &git.CommitOptions{
		Author: &object.Signature{Name: "hostjit", Email: "hostjit@example.com", When: time.Unix(0, 0)},
	})
	require.NoError(t, err)

	assert.Equal(t, h.String(), computeHashFromPath(dir))
	sub := filepath.Join(dir, "progs")
	require.NoError(t, os.Mkdir(sub, 0o755))
	assert.Equal(t, h.String(), computeHashFromPath(sub))
	assert.Len(t, shortHash(h.String()), 8)
}

func TestCommitHash(t *testing.T) {
	prev := Commit
	defer func() { Commit = prev }()

	Commit = "abc12345"
	assert.Equal(t, "abc12345", CommitHash())

	Commit = "none"
	assert.NotEmpty(t, CommitHash())
}
