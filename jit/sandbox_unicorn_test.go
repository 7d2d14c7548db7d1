//go:build unicorn
// +build unicorn

package jit

import (
	"testing"

	"github.com/colorfulnotion/hostjit/bytecode"
	"github.com/colorfulnotion/hostjit/console"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandboxMatchesInterpreter(t *testing.T) {
	for _, tc := range programCases {
		t.Run(tc.name, func(t *testing.T) {
			p := bytecode.MustAssemble(tc.src)
			m, want := interpret(t, p, tc.inputs)

			code, err := Translate(p, Options{})
			require.NoError(t, err)
			io := &console.Script{Inputs: append([]float64(nil), tc.inputs...)}
			res, err := RunSandbox(code, io, 1<<22)
			require.NoError(t, err)
			assert.Equal(t, want, io.Outputs)
			for i := 0; i < bytecode.MemoryCells; i++ {
				require.Equal(t, m.Cell(i), res.Cell(i), "cell %d", i)
			}
		})
	}
}

func TestSandboxStepLimit(t *testing.T) {
	code, err := Translate(bytecode.MustAssemble("spin:\njmp spin"), Options{})
	require.NoError(t, err)
	_, err = RunSandbox(code, &console.Script{}, 1000)
	assert.Error(t, err)
}
