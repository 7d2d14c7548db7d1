package jit

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/colorfulnotion/hostjit/bytecode"
	"github.com/colorfulnotion/hostjit/x86"
	"golang.org/x/exp/slices"
)

var (
	ErrFinalized    = errors.New("code already finalized")
	ErrNotSupported = errors.New("native execution not supported on this platform")
)

// Symbol names a host routine called from translated code.
type Symbol uint8

const (
	SymPrint Symbol = iota + 1
	SymScan
)

func (s Symbol) String() string {
	switch s {
	case SymPrint:
		return "print"
	case SymScan:
		return "scan"
	}
	return fmt.Sprintf("sym(%d)", uint8(s))
}

// Reloc is an absolute 64-bit address at Offset to be filled with Sym.
type Reloc struct {
	Offset int    `cbor:"1,keyasint" json:"offset"`
	Sym    Symbol `cbor:"2,keyasint" json:"sym"`
}

// Transfer is one linked jump, branch or call: the rel32 field at Field
// lands on code offset Target.
type Transfer struct {
	Field  int `cbor:"1,keyasint" json:"field"`
	Target int `cbor:"2,keyasint" json:"target"`
	Label  int `cbor:"3,keyasint" json:"label"` // bytecode offset
}

// SymbolResolver returns the runtime address of a host routine.
type SymbolResolver func(Symbol) (uint64, error)

// Code is translated, not yet relocated machine code. Offsets are relative
// to the first code byte; the data segment sits DataSize bytes before it.
type Code struct {
	Bytes       []byte
	Relocs      []Reloc
	Transfers   []Transfer
	HeaderSize  int
	EpiloguePos int

	InstMapToNative   map[int]int // bytecode offset -> code offset
	InstMapToBytecode map[int]int // code offset -> bytecode offset

	Stats *TranslationStats

	finalized bool
}

// Verify checks that the code is complete: every transfer displacement
// reaches its target and every relocation fits. Code loaded from outside
// the translator goes through this before it can become executable.
func (c *Code) Verify() error {
	n := len(c.Bytes)
	if c.HeaderSize <= 0 || c.HeaderSize > n || c.EpiloguePos < c.HeaderSize || c.EpiloguePos >= n {
		return fmt.Errorf("malformed code: header %d, epilogue %d, %d bytes", c.HeaderSize, c.EpiloguePos, n)
	}
	for _, tr := range c.Transfers {
		if tr.Field < 0 || tr.Field+x86.Rel32Size > n || tr.Target < 0 || tr.Target >= n {
			return fmt.Errorf("%w: transfer to %d at field %d outside code", ErrUnresolvedLabel, tr.Label, tr.Field)
		}
		rel := int32(binary.LittleEndian.Uint32(c.Bytes[tr.Field:]))
		if want := int32(tr.Target - (tr.Field + x86.Rel32Size)); rel != want {
			return fmt.Errorf("%w: transfer to %d at field %d has rel %d, want %d", ErrUnresolvedLabel, tr.Label, tr.Field, rel, want)
		}
	}
	for _, r := range c.Relocs {
		if r.Offset < 0 || r.Offset+8 > n {
			return fmt.Errorf("relocation %s at %d outside code", r.Sym, r.Offset)
		}
	}
	return nil
}

// Link returns a copy of the code with every relocation applied.
func (c *Code) Link(resolve SymbolResolver) ([]byte, error) {
	out := make([]byte, len(c.Bytes))
	copy(out, c.Bytes)
	for _, r := range c.Relocs {
		addr, err := resolve(r.Sym)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", r.Sym, err)
		}
		if r.Offset < 0 || r.Offset+8 > len(out) {
			return nil, fmt.Errorf("relocation %s at %d outside code", r.Sym, r.Offset)
		}
		binary.LittleEndian.PutUint64(out[r.Offset:], addr)
	}
	return out, nil
}

// BytecodeOffsets returns the code offsets that start a bytecode instruction, ascending.
func (c *Code) BytecodeOffsets() []int {
	out := make([]int, 0, len(c.InstMapToBytecode))
	for pos := range c.InstMapToBytecode {
		out = append(out, pos)
	}
	slices.Sort(out)
	return out
}

// TranslationStats summarises one translation.
type TranslationStats struct {
	Instructions   int            `json:"instructions"`
	Unknown        int            `json:"unknown"`
	CodeBytes      int            `json:"code_bytes"`
	BytesPerOpcode map[string]int `json:"bytes_per_opcode"`
	CountPerOpcode map[string]int `json:"count_per_opcode"`
	// BytesPerCategory groups BytesPerOpcode by stack/arithmetic/control/io.
	BytesPerCategory map[string]int `json:"bytes_per_category"`
	ForwardSites     int            `json:"forward_sites"`
	BackwardSites    int            `json:"backward_sites"`
}

func newTranslationStats() *TranslationStats {
	return &TranslationStats{
		BytesPerOpcode: make(map[string]int),
		CountPerOpcode: make(map[string]int),

		BytesPerCategory: make(map[string]int),
	}
}

func (s *TranslationStats) add(op int32, n int) {
	name := bytecode.OpcodeToString(op)
	s.Instructions++
	s.BytesPerOpcode[name] += n
	s.CountPerOpcode[name]++
	s.BytesPerCategory[bytecode.GetCategoryName(bytecode.GetInstructionCategory(op))] += n
}

func (s *TranslationStats) finish(lt *LabelTable) {
	for _, site := range lt.Sites() {
		if site.Backward() {
			s.BackwardSites++
		} else {
			s.ForwardSites++
		}
	}
}
