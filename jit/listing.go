package jit

import (
	"fmt"

	"github.com/colorfulnotion/hostjit/bytecode"
	"github.com/colorfulnotion/hostjit/x86"
)

// Listing disassembles translated code with the bytecode instruction each
// native sequence came from.
func Listing(p *bytecode.Program, code *Code) string {
	return x86.DisassembleAnnotated(code.Bytes, func(pos int) string {
		switch pos {
		case 0:
			return "; prologue"
		case code.EpiloguePos:
			return "; epilogue"
		}
		off, ok := code.InstMapToBytecode[pos]
		if !ok {
			return ""
		}
		inst, err := p.At(off)
		if err != nil {
			return fmt.Sprintf("; %04d: %v", off, err)
		}
		return fmt.Sprintf("; %04d: %s", off, inst)
	})
}
