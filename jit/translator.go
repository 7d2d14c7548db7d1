package jit

import (
	"errors"
	"fmt"
	"time"

	"github.com/colorfulnotion/hostjit/bytecode"
	"github.com/colorfulnotion/hostjit/log"
	"github.com/colorfulnotion/hostjit/x86"
)

var (
	ErrBadTarget      = errors.New("jump target out of range")
	ErrBadRegister    = errors.New("register operand out of range")
	ErrBadMemoryIndex = errors.New("memory operand out of range")
	ErrUnknownOpcode  = errors.New("unknown opcode")
)

const (
	SlotSize = 16 // one virtual stack element
	CellSize = 8
	DataSize = bytecode.MemoryCells * CellSize

	MemoryMask = bytecode.MemoryCells - 1
)

type Options struct {
	// Strict rejects unknown opcodes instead of skipping them.
	Strict bool
}

// Translator turns one program into native code. It is single use.
type Translator struct {
	prog   *bytecode.Program
	opts   Options
	buf    *Buffer
	labels *LabelTable
	code   *Code
}

func NewTranslator(p *bytecode.Program, opts Options) *Translator {
	return &Translator{
		prog:   p,
		opts:   opts,
		buf:    NewBuffer(len(p.Words)*8 + initialBufferSize),
		labels: NewLabelTable(),
		code: &Code{
			InstMapToNative:   make(map[int]int),
			InstMapToBytecode: make(map[int]int),
			Stats:             newTranslationStats(),
		},
	}
}

// Translate runs both passes and returns the finished, unrelocated code.
func Translate(p *bytecode.Program, opts Options) (*Code, error) {
	return NewTranslator(p, opts).Run()
}

func (t *Translator) Labels() *LabelTable { return t.labels }

func (t *Translator) Run() (*Code, error) {
	start := time.Now()
	if err := t.prepass(); err != nil {
		return nil, err
	}
	if err := t.mainpass(); err != nil {
		t.buf.Reset()
		return nil, err
	}
	if pending := t.labels.Pending(); len(pending) > 0 {
		t.buf.Reset()
		s := pending[0]
		return nil, fmt.Errorf("%w: %s at %d targets %d (%d pending)", ErrUnresolvedLabel, s.Kind, s.Jmp, s.Label, len(pending))
	}
	t.code.Bytes = t.buf.Bytes()
	for i := range t.code.Transfers {
		tr := &t.code.Transfers[i]
		tr.Target = t.code.InstMapToNative[tr.Label]
	}
	if err := t.code.Verify(); err != nil {
		return nil, err
	}
	t.code.Stats.CodeBytes = len(t.code.Bytes)
	t.code.Stats.finish(t.labels)
	log.Debug(log.JitModule, "translated", "words", t.prog.Len(), "bytes", len(t.code.Bytes), "sites", t.labels.Len(), "elapsed", time.Since(start))
	return t.code, nil
}

// prepass records every control transfer target.
func (t *Translator) prepass() error {
	n := t.prog.Len()
	for off := 0; off < n; {
		inst, err := t.prog.At(off)
		if err != nil {
			return err
		}
		if !inst.Known() {
			if t.opts.Strict {
				return fmt.Errorf("%w: %d at %d", ErrUnknownOpcode, inst.Opcode, off)
			}
			log.Warn(log.JitModule, "skipping unknown opcode", "opcode", inst.Opcode, "offset", off)
		}
		if bytecode.IsControlTransfer(inst.Opcode) {
			target := inst.Target()
			if target < 0 || target > n {
				return fmt.Errorf("%w: %s at %d targets %d, program has %d words", ErrBadTarget, bytecode.OpcodeToString(inst.Opcode), off, target, n)
			}
			t.labels.Add(target, off, siteKind(inst.Opcode))
		}
		off = inst.Next()
	}
	log.Trace(log.JitModule, "prepass done", "sites", t.labels.Len())
	return nil
}

func siteKind(op int32) SiteKind {
	switch op {
	case bytecode.CALL:
		return SiteCall
	case bytecode.JMP:
		return SiteJump
	}
	return SiteBranch
}

func (t *Translator) mainpass() error {
	t.emitPrologue()
	n := t.prog.Len()
	for off := 0; off < n; {
		inst, err := t.prog.At(off)
		if err != nil {
			return err
		}
		if err := t.defineLabel(off); err != nil {
			return err
		}
		pos := t.buf.Pos()
		t.code.InstMapToNative[off] = pos
		t.code.InstMapToBytecode[pos] = off
		if err := t.translateInstruction(inst); err != nil {
			return err
		}
		t.code.Stats.add(inst.Opcode, t.buf.Pos()-pos)
		off = inst.Next()
	}
	if err := t.defineLabel(n); err != nil {
		return err
	}
	t.code.EpiloguePos = t.buf.Pos()
	t.code.InstMapToNative[n] = t.code.EpiloguePos
	t.emitEpilogue()
	return nil
}

// defineLabel fixes the physical position of bytecode offset off.
func (t *Translator) defineLabel(off int) error {
	sites, ok := t.labels.Lookup(off)
	if !ok {
		return nil
	}
	here := t.buf.Pos()
	for _, s := range sites {
		if s.Backward() {
			s.CodePos = here
			continue
		}
		if s.CodePos < 0 {
			return fmt.Errorf("%w: forward %s at %d reached label %d before emission", ErrUnresolvedLabel, s.Kind, s.Jmp, off)
		}
		if err := t.buf.PatchRel32(s.CodePos, int32(here-(s.CodePos+x86.Rel32Size))); err != nil {
			return err
		}
		s.Patched = true
		log.Trace(log.JitModule, "patched", "label", off, "site", s.Jmp, "field", s.CodePos)
	}
	return nil
}

func (t *Translator) translateInstruction(inst bytecode.Instruction) error {
	switch inst.Opcode {
	case bytecode.PUSH:
		t.emitPushImm(inst.Imm())
	case bytecode.POP:
		t.buf.Emit(x86.AddRSP(SlotSize))
	case bytecode.PUSHR, bytecode.POPR, bytecode.PUSHRM, bytecode.POPRM:
		reg, err := checkRegister(inst)
		if err != nil {
			return err
		}
		switch inst.Opcode {
		case bytecode.PUSHR:
			t.emitPushReg(reg)
		case bytecode.POPR:
			t.emitPopReg(reg)
		case bytecode.PUSHRM:
			t.emitPushIndexed(reg)
		case bytecode.POPRM:
			t.emitPopIndexed(reg)
		}
	case bytecode.PUSHM, bytecode.POPM:
		cell := inst.Cell()
		if cell < 0 || cell >= bytecode.MemoryCells {
			return fmt.Errorf("%w: %s at %d uses cell %d", ErrBadMemoryIndex, bytecode.OpcodeToString(inst.Opcode), inst.Offset, cell)
		}
		if inst.Opcode == bytecode.PUSHM {
			t.emitPushMem(int32(cell) * CellSize)
		} else {
			t.emitPopMem(int32(cell) * CellSize)
		}
	case bytecode.ADD:
		t.emitArith(x86.X86_OP2_ADD)
	case bytecode.SUB:
		t.emitArith(x86.X86_OP2_SUB)
	case bytecode.MUL:
		t.emitArith(x86.X86_OP2_MUL)
	case bytecode.DIV:
		t.emitArith(x86.X86_OP2_DIV)
	case bytecode.SQRT:
		t.emitSqrt()
	case bytecode.IN:
		t.emitIn()
	case bytecode.OUT:
		t.emitOut()
	case bytecode.HLT:
		t.emitEpilogue()
	case bytecode.RET:
		t.emitRet()
	case bytecode.JMP, bytecode.JB, bytecode.JA, bytecode.JE, bytecode.CALL:
		return t.emitTransfer(inst)
	default:
		// unknown opcodes were reported by the prepass and emit nothing
		t.code.Stats.Unknown++
	}
	return nil
}

func checkRegister(inst bytecode.Instruction) (x86.X86Reg, error) {
	r := inst.Reg()
	if r < 1 || r > bytecode.NumRegisters {
		return x86.X86Reg{}, fmt.Errorf("%w: %s at %d uses register %d", ErrBadRegister, bytecode.OpcodeToString(inst.Opcode), inst.Offset, r)
	}
	return regXMM(r), nil
}

// regXMM maps AX..DX onto xmm1..xmm4.
func regXMM(r int32) x86.X86Reg {
	return x86.XMM(int(r))
}
