package jit

import (
	"errors"
	"io"
	"testing"

	"github.com/colorfulnotion/hostjit/console"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeSlot(t *testing.T) {
	script := &console.Script{Inputs: []float64{4}}
	err := withRuntime(script, func() error {
		v, rc := hostScan()
		assert.Equal(t, 1, rc)
		assert.Equal(t, 1, hostPrint(v*2))
		_, rc = hostScan()
		assert.Equal(t, -1, rc)
		return nil
	})
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []float64{8}, script.Outputs)

	// with the slot empty the callbacks refuse
	assert.Equal(t, -1, hostPrint(1))
}

func TestRuntimeSlotErrorPrecedence(t *testing.T) {
	boom := errors.New("boom")
	err := withRuntime(&console.Script{}, func() error {
		hostScan()
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRuntimeSlotReleasedAfterPanic(t *testing.T) {
	func() {
		defer func() {
			require.NotNil(t, recover())
		}()
		_ = withRuntime(&console.Script{}, func() error {
			panic("native fault")
		})
	}()

	require.True(t, hostRuntime.mu.TryLock(), "runtime slot still held")
	hostRuntime.mu.Unlock()
	assert.NoError(t, withRuntime(&console.Script{}, func() error { return nil }))
}
