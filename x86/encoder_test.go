package x86

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"
)

func TestEncodingGolden(t *testing.T) {
	cases := []struct {
		name string
		inst Inst
		want []byte
	}{
		{"mov r14, imm64", MovImm64(R14, 0x3ff0000000000000), []byte{0x49, 0xBE, 0, 0, 0, 0, 0, 0, 0xF0, 0x3F}},
		{"mov rax, imm64", MovImm64(RAX, 1), []byte{0x48, 0xB8, 1, 0, 0, 0, 0, 0, 0, 0}},
		{"mov [rsp], r14", MovStore(RSP, 0, R14), []byte{0x4C, 0x89, 0x34, 0x24}},
		{"mov r14, [rsp+16]", MovLoad(R14, RSP, 16), []byte{0x4C, 0x8B, 0x74, 0x24, 0x10}},
		{"mov r15, rsp", MovReg(R15, RSP), []byte{0x49, 0x89, 0xE7}},
		{"mov rsp, r15", MovReg(RSP, R15), []byte{0x4C, 0x89, 0xFC}},
		{"sub rsp, 16", SubRSP(16), []byte{0x48, 0x83, 0xEC, 0x10}},
		{"add rsp, 32", AddRSP(32), []byte{0x48, 0x83, 0xC4, 0x20}},
		{"lea rdi, [rsp+80]", Lea(RDI, RSP, 80), []byte{0x48, 0x8D, 0x7C, 0x24, 0x50}},
		{"lea r13, [rip-1]", LeaRIP(R13, -1), []byte{0x4C, 0x8D, 0x2D, 0xFF, 0xFF, 0xFF, 0xFF}},
		{"lea r14, [rip+13]", LeaRIP(R14, 13), []byte{0x4C, 0x8D, 0x35, 0x0D, 0, 0, 0}},
		{"cmp r14d, 3", AluImm8_32(X86_REG_CMP, R14, 3), []byte{0x41, 0x83, 0xFE, 0x03}},
		{"and r14d, 1023", AluImm32_32(X86_REG_AND, R14, 1023), []byte{0x41, 0x81, 0xE6, 0xFF, 0x03, 0, 0}},
		{"push r13", Push(R13), []byte{0x41, 0x55}},
		{"push rbx", Push(RBX), []byte{0x53}},
		{"pop r15", Pop(R15), []byte{0x41, 0x5F}},
		{"ret", Ret(), []byte{0xC3}},
		{"call rax", CallReg(RAX), []byte{0xFF, 0xD0}},
		{"jmp r14", JmpReg(R14), []byte{0x41, 0xFF, 0xE6}},
		{"jmp rel32", JmpRel32(-5), []byte{0xE9, 0xFB, 0xFF, 0xFF, 0xFF}},
		{"je rel32", Jcc(X86_OP2_JE, 2), []byte{0x0F, 0x84, 2, 0, 0, 0}},
		{"movq xmm5, [rsp+16]", MovqLoad(XMM5, RSP, 16), []byte{0xF3, 0x0F, 0x7E, 0x6C, 0x24, 0x10}},
		{"movq [rsp], xmm1", MovqStore(RSP, 0, XMM1), []byte{0x66, 0x0F, 0xD6, 0x0C, 0x24}},
		{"movq xmm5, [r13+8]", MovqLoad(XMM5, R13, 8), []byte{0xF3, 0x41, 0x0F, 0x7E, 0x6D, 0x08}},
		{"movq xmm5, [r13+0]", MovqLoad(XMM5, R13, 0), []byte{0xF3, 0x41, 0x0F, 0x7E, 0x6D, 0x00}},
		{"movq [r13+1024], xmm5", MovqStore(R13, 1024, XMM5), []byte{0x66, 0x41, 0x0F, 0xD6, 0xAD, 0x00, 0x04, 0, 0}},
		{"movq xmm5, [r13+r14*8]", MovqLoadIndexed(XMM5, R13, R14), []byte{0xF3, 0x43, 0x0F, 0x7E, 0x6C, 0xF5, 0x00}},
		{"movq [r13+r14*8], xmm5", MovqStoreIndexed(R13, R14, XMM5), []byte{0x66, 0x43, 0x0F, 0xD6, 0x6C, 0xF5, 0x00}},
		{"addsd xmm5, [rsp+32]", ArithSD(X86_OP2_ADD, XMM5, RSP, 32), []byte{0xF2, 0x0F, 0x58, 0x6C, 0x24, 0x20}},
		{"divsd xmm5, [rsp+32]", ArithSD(X86_OP2_DIV, XMM5, RSP, 32), []byte{0xF2, 0x0F, 0x5E, 0x6C, 0x24, 0x20}},
		{"sqrtpd xmm0, xmm0", SqrtPD(XMM0, XMM0), []byte{0x66, 0x0F, 0x51, 0xC0}},
		{"cmppd xmm5, xmm0, lt", CmpPD(XMM5, XMM0, CMP_LT), []byte{0x66, 0x0F, 0xC2, 0xE8, 0x01}},
		{"movmskpd r14d, xmm5", MovmskPD(R14, XMM5), []byte{0x66, 0x44, 0x0F, 0x50, 0xF5}},
		{"cvttsd2si r14, xmm3", Cvttsd2si(R14, XMM3), []byte{0xF2, 0x4C, 0x0F, 0x2C, 0xF3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.inst.Bytes())
			require.Equal(t, len(tc.want), tc.inst.Len())
		})
	}
}

func TestEncodingDecodesCleanly(t *testing.T) {
	insts := []Inst{
		MovImm64(R14, 42),
		MovStore(RSP, 0, R14),
		MovLoad(R14, RSP, 16),
		MovqLoad(XMM2, R13, 200),
		MovqStoreIndexed(R13, R14, XMM5),
		ArithSD(X86_OP2_MUL, XMM5, RSP, 32),
		CmpPD(XMM5, XMM0, CMP_EQ),
		MovmskPD(R14, XMM5),
		Cvttsd2si(R14, XMM1),
		Jcc(X86_OP2_JE, 0),
		LeaRIP(R13, -8199),
	}
	for _, in := range insts {
		dec, err := x86asm.Decode(in.Bytes(), 64)
		require.NoError(t, err)
		require.Equal(t, in.Len(), dec.Len, "% x", in.Bytes())
	}
}

func TestDecodedOperands(t *testing.T) {
	dec, err := x86asm.Decode(MovqLoad(XMM5, R13, 8).Bytes(), 64)
	require.NoError(t, err)
	require.Equal(t, x86asm.X5, dec.Args[0])
	mem, ok := dec.Args[1].(x86asm.Mem)
	require.True(t, ok)
	require.Equal(t, x86asm.R13, mem.Base)
	require.EqualValues(t, 8, mem.Disp)

	dec, err = x86asm.Decode(CmpPD(XMM5, XMM0, CMP_LT).Bytes(), 64)
	require.NoError(t, err)
	require.Equal(t, x86asm.CMPPD, dec.Op)
}

func TestRelOffset(t *testing.T) {
	require.Equal(t, 1, JmpRel32(0).RelOffset())
	require.Equal(t, 2, Jcc(X86_OP2_JE, 0).RelOffset())
}

func TestDisassemble(t *testing.T) {
	var code []byte
	code = append(code, Push(R13).Bytes()...)
	code = append(code, Ret().Bytes()...)
	out := Disassemble(code)
	require.Contains(t, out, "0x0000: 41 55")
	require.Contains(t, out, "0x0002: c3")

	b, err := Boundaries(code)
	require.NoError(t, err)
	require.Equal(t, []int{0, 2}, b)
}
