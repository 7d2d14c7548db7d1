package emulator

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/colorfulnotion/hostjit/bytecode"
	"github.com/colorfulnotion/hostjit/console"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string, inputs ...float64) (*Machine, []float64, error) {
	t.Helper()
	io := &console.Script{Inputs: inputs}
	m := NewMachine(bytecode.MustAssemble(src), io, Options{MaxSteps: 100000})
	err := m.Run(context.Background())
	return m, io.Outputs, err
}

func TestMachinePrograms(t *testing.T) {
	cases := []struct {
		name   string
		src    string
		inputs []float64
		want   []float64
	}{
		{"sub is top minus next", "push 2\npush 10\nsub\nout\nhlt", nil, []float64{8}},
		{"div is top over next", "push 4\npush 1\ndiv\nout", nil, []float64{0.25}},
		{"sqrt", "push 16\nsqrt\nout", nil, []float64{4}},
		{"in", "in\nin\nmul\nout", []float64{3, 4}, []float64{12}},
		{"out keeps value", "push 1.5\nout\nout\npop\nhlt", nil, []float64{1.5, 1.5}},
		{"call and return", `
			call f
			push ax
			out
			hlt
		f:
			push 7.0
			pop ax
			ret`, nil, []float64{7}},
		{"count to five", `
			push 0
			pop ax
		loop:
			push ax
			push 1
			add
			pop ax
			push 5
			push ax
			jb loop
			push ax
			out
			hlt`, nil, []float64{5}},
		{"ja", "push 1\npush 2\nja yes\npush 0\nout\nhlt\nyes:\npush 9\nout", nil, []float64{9}},
		{"je", "push 3\npush 3\nje end\npush 0\nout\nend:\nhlt", nil, nil},
		{"indexed memory", "push 7\npop ax\npush 2.5\npop [ax]\npush [7]\nout", nil, []float64{2.5}},
		{"memory", "push 1.25\npop [1000]\npush [1000]\nout", nil, []float64{1.25}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, out, err := run(t, tc.src, tc.inputs...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestMachineState(t *testing.T) {
	m, _, err := run(t, "push 1\npush 2\npush 3\npop cx\npop [4]")
	require.NoError(t, err)
	assert.True(t, m.Halted())
	assert.Equal(t, []float64{1}, m.Stack())
	assert.Equal(t, 3.0, m.Register(bytecode.CX))
	assert.Equal(t, 2.0, m.Cell(4))
	assert.EqualValues(t, 5, m.Steps())
}

func TestMachineErrors(t *testing.T) {
	_, _, err := run(t, "add")
	assert.ErrorIs(t, err, ErrStackUnderflow)

	_, _, err = run(t, "spin:\njmp spin")
	assert.ErrorIs(t, err, ErrStepLimit)

	_, _, err = run(t, "push 1\nret")
	assert.ErrorIs(t, err, ErrBadReturn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMachine(bytecode.MustAssemble("hlt"), &console.Script{}, Options{})
	assert.ErrorIs(t, m.Run(ctx), context.Canceled)
}

func TestMachineUnknownOpcode(t *testing.T) {
	src := "push 1\n.word 99\nout"
	_, out, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, out)

	m := NewMachine(bytecode.MustAssemble(src), &console.Script{}, Options{Strict: true})
	assert.Error(t, m.Run(context.Background()))
}

func TestCellIndex(t *testing.T) {
	assert.Equal(t, 3, CellIndex(3.9))
	assert.Equal(t, 1023, CellIndex(-1))
	assert.Equal(t, 1, CellIndex(1025))
	assert.Equal(t, 0, CellIndex(math.NaN()))
	assert.Equal(t, 0, CellIndex(1e300))
	assert.Equal(t, 0, CellIndex(math.Inf(-1)))
}

func TestRunExternal(t *testing.T) {
	var out bytes.Buffer
	err := RunExternal(context.Background(), "echo", "prog.bin", nil, &out, nil)
	require.NoError(t, err)
	assert.Equal(t, "prog.bin\n", out.String())

	err = RunExternal(context.Background(), "false", "prog.bin", nil, nil, nil)
	assert.ErrorIs(t, err, ErrExternalFailed)

	err = RunExternal(context.Background(), "./definitely-not-here", "prog.bin", nil, nil, nil)
	assert.ErrorIs(t, err, ErrExternalFailed)
}
