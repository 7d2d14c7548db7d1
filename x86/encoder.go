package x86

import "encoding/binary"

// Inst is a single encoded instruction.
type Inst struct {
	buf [MaxInstLen]byte
	n   uint8
}

func (i Inst) Bytes() []byte { return i.buf[:i.n] }
func (i Inst) Len() int      { return int(i.n) }

// RelOffset returns the offset of the trailing rel32 field for branch forms.
func (i Inst) RelOffset() int { return int(i.n) - Rel32Size }

func (i *Inst) emit(b ...byte) {
	i.n += uint8(copy(i.buf[i.n:], b))
}

func (i *Inst) emitU32(v uint32) {
	binary.LittleEndian.PutUint32(i.buf[i.n:], v)
	i.n += 4
}

func (i *Inst) emitU64(v uint64) {
	binary.LittleEndian.PutUint64(i.buf[i.n:], v)
	i.n += 8
}

func modrm(mod, reg, rm byte) byte {
	return mod<<6 | (reg&7)<<3 | rm&7
}

func sib(scale, index, base byte) byte {
	return scale<<6 | (index&7)<<3 | base&7
}

func rex(w bool, r, x, b byte) byte {
	v := byte(X86_REX_BASE) | r<<2 | x<<1 | b
	if w {
		v |= X86_REX_W
	}
	return v
}

// emitREX writes a REX prefix only when it carries information.
func (i *Inst) emitREX(w bool, r, x, b byte) {
	if v := rex(w, r, x, b); v != X86_REX_BASE {
		i.emit(v)
	}
}

// emitMem encodes [base+disp] with the reg field set to reg.
func (i *Inst) emitMem(reg byte, base X86Reg, disp int32) {
	rm := base.RegBits
	var mod byte
	switch {
	case disp == 0 && rm != X86_RBP_REGBITS:
		mod = X86_MOD_INDIRECT
	case disp >= -128 && disp <= 127:
		mod = X86_MOD_INDIRECT_DISP8
	default:
		mod = X86_MOD_INDIRECT_DISP32
	}
	i.emit(modrm(mod, reg, rm))
	if rm == X86_RSP_REGBITS {
		i.emit(sib(X86_SIB_SCALE_1, X86_SIB_NO_INDEX, rm))
	}
	i.emitDisp(mod, disp)
}

// emitIndexed encodes [base+index*scale+disp].
func (i *Inst) emitIndexed(reg byte, base, index X86Reg, scale byte, disp int32) {
	var mod byte
	switch {
	case disp == 0 && base.RegBits != X86_RBP_REGBITS:
		mod = X86_MOD_INDIRECT
	case disp >= -128 && disp <= 127:
		mod = X86_MOD_INDIRECT_DISP8
	default:
		mod = X86_MOD_INDIRECT_DISP32
	}
	i.emit(modrm(mod, reg, X86_RSP_REGBITS), sib(scale, index.RegBits, base.RegBits))
	i.emitDisp(mod, disp)
}

func (i *Inst) emitDisp(mod byte, disp int32) {
	switch mod {
	case X86_MOD_INDIRECT_DISP8:
		i.emit(byte(int8(disp)))
	case X86_MOD_INDIRECT_DISP32:
		i.emitU32(uint32(disp))
	}
}

// MovImm64 encodes MOV r64, imm64.
func MovImm64(dst X86Reg, imm uint64) Inst {
	var i Inst
	i.emit(rex(true, 0, 0, dst.REXBit), X86_OP_MOV_R_IMM+dst.RegBits)
	i.emitU64(imm)
	return i
}

// MovStore encodes MOV [base+disp], r64.
func MovStore(base X86Reg, disp int32, src X86Reg) Inst {
	var i Inst
	i.emit(rex(true, src.REXBit, 0, base.REXBit), X86_OP_MOV_RM_R)
	i.emitMem(src.RegBits, base, disp)
	return i
}

// MovLoad encodes MOV r64, [base+disp].
func MovLoad(dst, base X86Reg, disp int32) Inst {
	var i Inst
	i.emit(rex(true, dst.REXBit, 0, base.REXBit), X86_OP_MOV_R_RM)
	i.emitMem(dst.RegBits, base, disp)
	return i
}

// MovReg encodes MOV dst, src for 64-bit registers.
func MovReg(dst, src X86Reg) Inst {
	var i Inst
	i.emit(rex(true, src.REXBit, 0, dst.REXBit), X86_OP_MOV_RM_R, modrm(X86_MOD_REGISTER, src.RegBits, dst.RegBits))
	return i
}

// Lea encodes LEA dst, [base+disp].
func Lea(dst, base X86Reg, disp int32) Inst {
	var i Inst
	i.emit(rex(true, dst.REXBit, 0, base.REXBit), X86_OP_LEA)
	i.emitMem(dst.RegBits, base, disp)
	return i
}

// LeaRIP encodes LEA dst, [rip+disp32]. disp is relative to the end of the instruction.
func LeaRIP(dst X86Reg, disp int32) Inst {
	var i Inst
	i.emit(rex(true, dst.REXBit, 0, 0), X86_OP_LEA, modrm(X86_MOD_INDIRECT, dst.RegBits, X86_RBP_REGBITS))
	i.emitU32(uint32(disp))
	return i
}

// AluImm8 encodes a group-1 operation on a 64-bit register with a sign-extended imm8.
func AluImm8(op byte, dst X86Reg, imm int8) Inst {
	var i Inst
	i.emit(rex(true, 0, 0, dst.REXBit), X86_OP_GROUP1_RM_IMM8, modrm(X86_MOD_REGISTER, op, dst.RegBits), byte(imm))
	return i
}

// AluImm8_32 is AluImm8 on the 32-bit form of dst.
func AluImm8_32(op byte, dst X86Reg, imm int8) Inst {
	var i Inst
	i.emitREX(false, 0, 0, dst.REXBit)
	i.emit(X86_OP_GROUP1_RM_IMM8, modrm(X86_MOD_REGISTER, op, dst.RegBits), byte(imm))
	return i
}

// AluImm32_32 encodes a group-1 operation on a 32-bit register with imm32.
func AluImm32_32(op byte, dst X86Reg, imm uint32) Inst {
	var i Inst
	i.emitREX(false, 0, 0, dst.REXBit)
	i.emit(X86_OP_GROUP1_RM_IMM32, modrm(X86_MOD_REGISTER, op, dst.RegBits))
	i.emitU32(imm)
	return i
}

func SubRSP(imm int8) Inst { return AluImm8(X86_REG_SUB, RSP, imm) }
func AddRSP(imm int8) Inst { return AluImm8(X86_REG_ADD, RSP, imm) }

func Push(r X86Reg) Inst {
	var i Inst
	i.emitREX(false, 0, 0, r.REXBit)
	i.emit(X86_OP_PUSH_R + r.RegBits)
	return i
}

func Pop(r X86Reg) Inst {
	var i Inst
	i.emitREX(false, 0, 0, r.REXBit)
	i.emit(X86_OP_POP_R + r.RegBits)
	return i
}

func Ret() Inst {
	var i Inst
	i.emit(X86_OP_RET)
	return i
}

// CallReg encodes CALL r64.
func CallReg(r X86Reg) Inst {
	var i Inst
	i.emitREX(false, 0, 0, r.REXBit)
	i.emit(X86_OP_GROUP5_RM, modrm(X86_MOD_REGISTER, X86_REG_CALL_RM, r.RegBits))
	return i
}

// JmpReg encodes JMP r64.
func JmpReg(r X86Reg) Inst {
	var i Inst
	i.emitREX(false, 0, 0, r.REXBit)
	i.emit(X86_OP_GROUP5_RM, modrm(X86_MOD_REGISTER, X86_REG_JMP_RM, r.RegBits))
	return i
}

// JmpRel32 encodes JMP rel32. rel is relative to the end of the instruction.
func JmpRel32(rel int32) Inst {
	var i Inst
	i.emit(X86_OP_JMP_REL32)
	i.emitU32(uint32(rel))
	return i
}

// Jcc encodes the two-byte conditional jump 0F cc rel32.
func Jcc(cc byte, rel int32) Inst {
	var i Inst
	i.emit(X86_PREFIX_0F, cc)
	i.emitU32(uint32(rel))
	return i
}

// sse emits prefix, optional REX, 0F, op.
func (i *Inst) sse(prefix byte, w bool, r, x, b byte, op byte) {
	i.emit(prefix)
	i.emitREX(w, r, x, b)
	i.emit(X86_PREFIX_0F, op)
}

// MovqLoad encodes MOVQ xmm, [base+disp].
func MovqLoad(dst, base X86Reg, disp int32) Inst {
	var i Inst
	i.sse(X86_PREFIX_F3, false, dst.REXBit, 0, base.REXBit, X86_OP2_MOVQ_LOAD)
	i.emitMem(dst.RegBits, base, disp)
	return i
}

// MovqStore encodes MOVQ [base+disp], xmm.
func MovqStore(base X86Reg, disp int32, src X86Reg) Inst {
	var i Inst
	i.sse(X86_PREFIX_66, false, src.REXBit, 0, base.REXBit, X86_OP2_MOVQ_STORE)
	i.emitMem(src.RegBits, base, disp)
	return i
}

// MovqLoadIndexed encodes MOVQ xmm, [base+index*8].
func MovqLoadIndexed(dst, base, index X86Reg) Inst {
	var i Inst
	i.sse(X86_PREFIX_F3, false, dst.REXBit, index.REXBit, base.REXBit, X86_OP2_MOVQ_LOAD)
	i.emitIndexed(dst.RegBits, base, index, X86_SIB_SCALE_8, 0)
	return i
}

// MovqStoreIndexed encodes MOVQ [base+index*8], xmm.
func MovqStoreIndexed(base, index, src X86Reg) Inst {
	var i Inst
	i.sse(X86_PREFIX_66, false, src.REXBit, index.REXBit, base.REXBit, X86_OP2_MOVQ_STORE)
	i.emitIndexed(src.RegBits, base, index, X86_SIB_SCALE_8, 0)
	return i
}

// ArithSD encodes a scalar double operation dst = dst op [base+disp].
// op is one of X86_OP2_ADD, X86_OP2_SUB, X86_OP2_MUL, X86_OP2_DIV.
func ArithSD(op byte, dst, base X86Reg, disp int32) Inst {
	var i Inst
	i.sse(X86_PREFIX_F2, false, dst.REXBit, 0, base.REXBit, op)
	i.emitMem(dst.RegBits, base, disp)
	return i
}

// SqrtPD encodes SQRTPD dst, src.
func SqrtPD(dst, src X86Reg) Inst {
	var i Inst
	i.sse(X86_PREFIX_66, false, dst.REXBit, 0, src.REXBit, X86_OP2_SQRT)
	i.emit(modrm(X86_MOD_REGISTER, dst.RegBits, src.RegBits))
	return i
}

// CmpPD encodes CMPPD dst, src, pred.
func CmpPD(dst, src X86Reg, pred byte) Inst {
	var i Inst
	i.sse(X86_PREFIX_66, false, dst.REXBit, 0, src.REXBit, X86_OP2_CMPPD)
	i.emit(modrm(X86_MOD_REGISTER, dst.RegBits, src.RegBits), pred)
	return i
}

// MovmskPD encodes MOVMSKPD r32, xmm.
func MovmskPD(dst, src X86Reg) Inst {
	var i Inst
	i.sse(X86_PREFIX_66, false, dst.REXBit, 0, src.REXBit, X86_OP2_MOVMSKPD)
	i.emit(modrm(X86_MOD_REGISTER, dst.RegBits, src.RegBits))
	return i
}

// Cvttsd2si encodes CVTTSD2SI r64, xmm.
func Cvttsd2si(dst, src X86Reg) Inst {
	var i Inst
	i.sse(X86_PREFIX_F2, true, dst.REXBit, 0, src.REXBit, X86_OP2_CVTTSD2SI)
	i.emit(modrm(X86_MOD_REGISTER, dst.RegBits, src.RegBits))
	return i
}
