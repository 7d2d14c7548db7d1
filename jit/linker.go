package jit

import (
	"fmt"

	"github.com/colorfulnotion/hostjit/bytecode"
	"github.com/colorfulnotion/hostjit/x86"
)

// callRetLen is the size of mov [rsp], r14; sub rsp, 16; jmp rel32 that
// follows the lea computing the return address.
var callRetLen = int32(x86.MovStore(x86.RSP, 0, regScratch).Len() + x86.SubRSP(SlotSize).Len() + x86.JmpRel32(0).Len())

// emitTransfer emits jumps, branches and calls. Backward targets are already
// placed and get their final displacement; forward targets get a zero
// placeholder patched when the label is defined.
func (t *Translator) emitTransfer(inst bytecode.Instruction) error {
	site, err := t.labels.Site(inst.Target(), inst.Offset)
	if err != nil {
		return err
	}
	branch := x86.JmpRel32(0)
	switch {
	case bytecode.IsConditionalJump(inst.Opcode):
		t.emitCompare(inst.Opcode)
		branch = x86.Jcc(x86.X86_OP2_JE, 0)
	case inst.Opcode == bytecode.CALL:
		t.buf.Emit(x86.LeaRIP(regScratch, callRetLen))
		t.buf.Emit(x86.MovStore(x86.RSP, 0, regScratch))
		t.push()
	}
	at := t.buf.Pos()
	field := at + branch.RelOffset()
	t.code.Transfers = append(t.code.Transfers, Transfer{Field: field, Label: site.Label})
	if site.Backward() {
		if site.CodePos < 0 {
			return fmt.Errorf("%w: %s at %d targets %d inside an instruction", ErrUnresolvedLabel, site.Kind, site.Jmp, site.Label)
		}
		t.buf.Emit(branch)
		if err := t.buf.PatchRel32(field, int32(site.CodePos-(at+branch.Len()))); err != nil {
			return err
		}
		return nil
	}
	t.buf.Emit(branch)
	site.CodePos = field
	return nil
}

// emitCompare pops next and top and sets ZF when the branch is taken.
func (t *Translator) emitCompare(op int32) {
	a, b := xmmTmp, xmmAux
	pred, mask := byte(x86.CMP_LT), int8(1)
	switch op {
	case bytecode.JA:
		a, b = xmmAux, xmmTmp
	case bytecode.JE:
		pred, mask = x86.CMP_EQ, 3
	}
	t.buf.Emit(x86.MovqLoad(a, x86.RSP, topSlot))
	t.buf.Emit(x86.MovqLoad(b, x86.RSP, nextSlot))
	t.buf.Emit(x86.AddRSP(2 * SlotSize))
	t.buf.Emit(x86.CmpPD(xmmTmp, xmmAux, pred))
	t.buf.Emit(x86.MovmskPD(regScratch, xmmTmp))
	t.buf.Emit(x86.AluImm8_32(x86.X86_REG_CMP, regScratch, mask))
}
