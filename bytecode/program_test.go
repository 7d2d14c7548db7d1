package bytecode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAndLoad(t *testing.T) {
	p := MustAssemble(`
		push 2.5
		out
		hlt
	`)
	require.Equal(t, 5, p.Len())

	path := filepath.Join(t.TempDir(), "prog.bin")
	require.NoError(t, os.WriteFile(path, p.Bytes(), 0644))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p.Words, loaded.Words)

	_, err = Decode([]byte{1, 0, 0})
	assert.ErrorIs(t, err, ErrMisaligned)

	_, err = Load(filepath.Join(t.TempDir(), "missing.bin"))
	assert.ErrorIs(t, err, ErrFileOpen)
}

func TestInstructionDecoding(t *testing.T) {
	p := MustAssemble(`
	top:
		push -1.25
		push ax
		pop [7]
		push [dx]
		jmp top
	`)
	insts, err := p.Instructions()
	require.NoError(t, err)
	require.Len(t, insts, 5)

	assert.Equal(t, int32(PUSH), insts[0].Opcode)
	assert.Equal(t, -1.25, insts[0].Imm())
	assert.Equal(t, int32(PUSHR), insts[1].Opcode)
	assert.Equal(t, int32(AX), insts[1].Reg())
	assert.Equal(t, int32(POPM), insts[2].Opcode)
	assert.Equal(t, int32(7), insts[2].Cell())
	assert.Equal(t, int32(PUSHRM), insts[3].Opcode)
	assert.Equal(t, int32(DX), insts[3].Reg())
	assert.Equal(t, int32(JMP), insts[4].Opcode)
	assert.Equal(t, 0, insts[4].Target())
	assert.Equal(t, 9, insts[4].Offset)
}

func TestTruncatedOperands(t *testing.T) {
	p := NewProgram(PUSH, 0)
	_, err := p.At(0)
	assert.ErrorIs(t, err, ErrTruncated)

	p = NewProgram(OUT, JMP)
	insts, err := p.Instructions()
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Len(t, insts, 1)
}

func TestUnknownOpcodeConsumesNoOperands(t *testing.T) {
	// 99 is not an opcode; the push after it must still decode at offset 1.
	p := NewProgram(99, PUSHR, AX, HLT)
	insts, err := p.Instructions()
	require.NoError(t, err)
	require.Len(t, insts, 3)
	assert.False(t, insts[0].Known())
	assert.Equal(t, 1, insts[1].Offset)
	assert.Equal(t, int32(PUSHR), insts[1].Opcode)
	assert.Equal(t, ".word 99", insts[0].String())

	stats := p.Analyze()
	assert.Equal(t, 1, stats.UnknownCount)
	assert.Equal(t, 2, stats.InstructionCount)
}

func TestAnalyze(t *testing.T) {
	p := MustAssemble(`
	a:	push 1.0
		jb b
		jmp a
	b:	call a
		hlt
	`)
	stats := p.Analyze()
	assert.Equal(t, 3, stats.JumpCount)
	assert.Equal(t, 1, stats.ForwardJumps)
	assert.Equal(t, 2, stats.BackwardJumps)
	assert.Equal(t, 1, stats.OpcodeDistribution[PUSH])
	assert.Equal(t, map[int]bool{0: true, 7: true}, p.Labels())
}
