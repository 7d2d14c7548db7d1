package jit

import (
	"math"

	"github.com/colorfulnotion/hostjit/x86"
)

// Register roles inside translated code.
var (
	regData    = x86.R13 // data segment base
	regScratch = x86.R14
	regSaved   = x86.R15 // caller rsp
	xmmTmp     = x86.XMM5
	xmmAux     = x86.XMM0
)

// The top of the virtual stack is [rsp+16]; [rsp] is the free slot.
const (
	topSlot  = SlotSize
	nextSlot = 2 * SlotSize
)

// emitPrologue saves the callee-saved registers we use, records the caller
// rsp and loads the data segment base, which sits right before the code.
func (t *Translator) emitPrologue() {
	t.buf.Emit(x86.Push(x86.R13))
	t.buf.Emit(x86.Push(x86.R14))
	t.buf.Emit(x86.Push(x86.R15))
	t.buf.Emit(x86.MovReg(regSaved, x86.RSP))
	t.buf.Emit(x86.SubRSP(SlotSize))
	lea := x86.LeaRIP(regData, 0)
	end := t.buf.Pos() + lea.Len()
	t.buf.Emit(x86.LeaRIP(regData, int32(-DataSize-end)))
	t.code.HeaderSize = t.buf.Pos()
}

func (t *Translator) emitEpilogue() {
	t.buf.Emit(x86.MovReg(x86.RSP, regSaved))
	t.buf.Emit(x86.Pop(x86.R15))
	t.buf.Emit(x86.Pop(x86.R14))
	t.buf.Emit(x86.Pop(x86.R13))
	t.buf.Emit(x86.Ret())
}

func (t *Translator) push() { t.buf.Emit(x86.SubRSP(SlotSize)) }
func (t *Translator) pop()  { t.buf.Emit(x86.AddRSP(SlotSize)) }

func (t *Translator) emitPushImm(v float64) {
	t.buf.Emit(x86.MovImm64(regScratch, math.Float64bits(v)))
	t.buf.Emit(x86.MovStore(x86.RSP, 0, regScratch))
	t.push()
}

func (t *Translator) emitPushReg(r x86.X86Reg) {
	t.buf.Emit(x86.MovqStore(x86.RSP, 0, r))
	t.push()
}

func (t *Translator) emitPopReg(r x86.X86Reg) {
	t.buf.Emit(x86.MovqLoad(r, x86.RSP, topSlot))
	t.pop()
}

func (t *Translator) emitPushMem(disp int32) {
	t.buf.Emit(x86.MovqLoad(xmmTmp, regData, disp))
	t.buf.Emit(x86.MovqStore(x86.RSP, 0, xmmTmp))
	t.push()
}

func (t *Translator) emitPopMem(disp int32) {
	t.buf.Emit(x86.MovqLoad(xmmTmp, x86.RSP, topSlot))
	t.buf.Emit(x86.MovqStore(regData, disp, xmmTmp))
	t.pop()
}

// cellIndex truncates the register to an integer and wraps it to a cell.
func (t *Translator) cellIndex(r x86.X86Reg) {
	t.buf.Emit(x86.Cvttsd2si(regScratch, r))
	t.buf.Emit(x86.AluImm32_32(x86.X86_REG_AND, regScratch, MemoryMask))
}

func (t *Translator) emitPushIndexed(r x86.X86Reg) {
	t.cellIndex(r)
	t.buf.Emit(x86.MovqLoadIndexed(xmmTmp, regData, regScratch))
	t.buf.Emit(x86.MovqStore(x86.RSP, 0, xmmTmp))
	t.push()
}

func (t *Translator) emitPopIndexed(r x86.X86Reg) {
	t.cellIndex(r)
	t.buf.Emit(x86.MovqLoad(xmmTmp, x86.RSP, topSlot))
	t.buf.Emit(x86.MovqStoreIndexed(regData, regScratch, xmmTmp))
	t.pop()
}

// emitArith leaves top op next in the slot of next.
func (t *Translator) emitArith(op byte) {
	t.buf.Emit(x86.MovqLoad(xmmTmp, x86.RSP, topSlot))
	t.buf.Emit(x86.ArithSD(op, xmmTmp, x86.RSP, nextSlot))
	t.buf.Emit(x86.MovqStore(x86.RSP, nextSlot, xmmTmp))
	t.pop()
}

func (t *Translator) emitSqrt() {
	t.buf.Emit(x86.MovqLoad(xmmAux, x86.RSP, topSlot))
	t.buf.Emit(x86.SqrtPD(xmmAux, xmmAux))
	t.buf.Emit(x86.MovqStore(x86.RSP, topSlot, xmmAux))
}

// pushAll spills xmm1..xmm4 around host calls.
func (t *Translator) pushAll() {
	for r := int32(1); r <= 4; r++ {
		t.emitPushReg(regXMM(r))
	}
}

func (t *Translator) popAll() {
	for r := int32(4); r >= 1; r-- {
		t.emitPopReg(regXMM(r))
	}
}

// emitHostCall calls sym through an absolute address filled in at link time.
func (t *Translator) emitHostCall(sym Symbol) {
	at := t.buf.Emit(x86.MovImm64(x86.RAX, 0))
	t.code.Relocs = append(t.code.Relocs, Reloc{Offset: at + 2, Sym: sym})
	t.buf.Emit(x86.CallReg(x86.RAX))
}

// emitOut prints the top of the stack without popping it.
func (t *Translator) emitOut() {
	t.buf.Emit(x86.Lea(x86.RDI, x86.RSP, topSlot))
	t.pushAll()
	t.emitHostCall(SymPrint)
	t.popAll()
}

// emitIn reads one value into a new slot.
func (t *Translator) emitIn() {
	t.push()
	t.pushAll()
	t.buf.Emit(x86.Lea(x86.RDI, x86.RSP, topSlot+4*SlotSize))
	t.emitHostCall(SymScan)
	t.popAll()
}

func (t *Translator) emitRet() {
	t.buf.Emit(x86.MovLoad(regScratch, x86.RSP, topSlot))
	t.pop()
	t.buf.Emit(x86.JmpReg(regScratch))
}
