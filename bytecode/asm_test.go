package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleForms(t *testing.T) {
	p, err := AssembleString(`
		push 1.0      ; immediate
		push_r bx     # explicit mnemonic
		pop cx
		pop [300]
		pop_rm [ax]
		pop
		.word 0x7f
	end:
		jmp end
	`)
	require.NoError(t, err)
	assert.Equal(t, []int32{
		PUSH, 0, 0x3ff00000,
		PUSHR, BX,
		POPR, CX,
		POPM, 300,
		POPRM, AX,
		POP,
		0x7f,
		JMP, 13,
	}, p.Words)
}

func TestAssembleErrors(t *testing.T) {
	cases := map[string]string{
		"unknown":   "frob",
		"operand":   "add 3",
		"missing":   "jmp",
		"label":     "jmp nowhere",
		"cell":      "push [5000]",
		"register":  "push_r ex",
		"pop imm":   "pop 1.0",
		"redefined": "a:\na:\nhlt",
		"imm":       "push one",
	}
	for name, src := range cases {
		_, err := AssembleString(src)
		var asmErr *AsmError
		assert.ErrorAs(t, err, &asmErr, name)
	}
}

func TestDisassembleReassembles(t *testing.T) {
	src := `
	loop:
		push [3]
		push 0.5
		mul
		pop [3]
		push_r ax
		push 1
		ja loop
		call sub
		hlt
	sub:
		ret
	`
	p := MustAssemble(src)
	listing := Disassemble(p)
	assert.Contains(t, listing, "L0:")
	assert.Contains(t, listing, "ja L0")

	again, err := AssembleString(listing)
	require.NoError(t, err)
	assert.Equal(t, p.Words, again.Words)
}
