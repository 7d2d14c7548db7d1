package bytecode

import (
	"errors"
	"fmt"
	"os"

	"github.com/colorfulnotion/hostjit/common"
)

const WordSize = 4

var (
	ErrFileOpen   = errors.New("cannot open bytecode file")
	ErrMisaligned = errors.New("bytecode size is not a multiple of 4")
	ErrTruncated  = errors.New("instruction operands run past the end of the program")
)

// Program is an immutable sequence of opcode and operand words. Offsets used
// anywhere in the translator are word indices into Words.
type Program struct {
	Words []int32
}

// Instruction is one decoded opcode with its operand words.
type Instruction struct {
	Offset   int
	Opcode   int32
	Operands []int32
}

// Load reads a flat little-endian int32 bytecode file.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileOpen, path, err)
	}
	return Decode(data)
}

// Decode parses raw file contents. There is no header; length is file size.
func Decode(data []byte) (*Program, error) {
	if len(data)%WordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMisaligned, len(data))
	}
	words := make([]int32, len(data)/WordSize)
	for i := range words {
		words[i] = int32(common.BytesToUint32(data[i*WordSize:]))
	}
	return &Program{Words: words}, nil
}

func NewProgram(words ...int32) *Program {
	return &Program{Words: words}
}

// Bytes returns the file encoding of the program.
func (p *Program) Bytes() []byte {
	out := make([]byte, 0, len(p.Words)*WordSize)
	for _, w := range p.Words {
		out = append(out, common.Uint32ToBytes(uint32(w))...)
	}
	return out
}

// Len returns the number of words.
func (p *Program) Len() int { return len(p.Words) }

// Hash identifies the program contents.
func (p *Program) Hash() common.Hash {
	return common.Blake2Hash(p.Bytes())
}

// At decodes the instruction starting at word offset off.
func (p *Program) At(off int) (Instruction, error) {
	if off < 0 || off >= len(p.Words) {
		return Instruction{}, fmt.Errorf("offset %d out of range [0,%d)", off, len(p.Words))
	}
	op := p.Words[off]
	n := OperandWords(op)
	if off+1+n > len(p.Words) {
		return Instruction{}, fmt.Errorf("%w: %s at %d needs %d operand words", ErrTruncated, OpcodeToString(op), off, n)
	}
	return Instruction{Offset: off, Opcode: op, Operands: p.Words[off+1 : off+1+n]}, nil
}

// Instructions decodes the whole program in order.
func (p *Program) Instructions() ([]Instruction, error) {
	var out []Instruction
	for off := 0; off < len(p.Words); {
		inst, err := p.At(off)
		if err != nil {
			return out, err
		}
		out = append(out, inst)
		off += inst.Len()
	}
	return out, nil
}

// Len is the instruction size in words.
func (i Instruction) Len() int { return 1 + len(i.Operands) }

// Next is the offset of the following instruction.
func (i Instruction) Next() int { return i.Offset + i.Len() }

func (i Instruction) Known() bool { return IsKnown(i.Opcode) }

// Target is the jump/call destination. Only valid for control transfers.
func (i Instruction) Target() int { return int(i.Operands[0]) }

// Imm is the PUSH immediate.
func (i Instruction) Imm() float64 {
	return common.WordsToFloat64(i.Operands[0], i.Operands[1])
}

// Reg returns the register operand of the register variants.
func (i Instruction) Reg() int32 { return i.Operands[0] }

// Cell returns the memory operand of PUSHM/POPM.
func (i Instruction) Cell() int32 { return i.Operands[0] }

func (i Instruction) String() string {
	name := OpcodeToString(i.Opcode)
	switch i.Opcode {
	case PUSH:
		return fmt.Sprintf("%s %g", name, i.Imm())
	case PUSHR, POPR:
		return fmt.Sprintf("%s %s", name, RegisterToString(i.Reg()))
	case PUSHM, POPM:
		return fmt.Sprintf("%s [%d]", name, i.Cell())
	case PUSHRM, POPRM:
		return fmt.Sprintf("%s [%s]", name, RegisterToString(i.Reg()))
	case JMP, JB, JA, JE, CALL:
		return fmt.Sprintf("%s %d", name, i.Target())
	}
	if !i.Known() {
		return fmt.Sprintf(".word %d", i.Opcode)
	}
	return name
}
