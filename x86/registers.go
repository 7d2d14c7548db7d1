// Package x86 encodes the small subset of x86-64 used by the translator.
package x86

// X86Reg represents an x86-64 register with encoding information
type X86Reg struct {
	Name    string
	RegBits byte // 3-bit code for ModRM/SIB
	REXBit  byte // 1 if register index >= 8
}

// General purpose registers
var (
	RAX = X86Reg{"rax", 0, 0} // scratch, holds host routine addresses
	RCX = X86Reg{"rcx", 1, 0}
	RDX = X86Reg{"rdx", 2, 0}
	RBX = X86Reg{"rbx", 3, 0}
	RSP = X86Reg{"rsp", 4, 0} // virtual stack pointer
	RBP = X86Reg{"rbp", 5, 0}
	RSI = X86Reg{"rsi", 6, 0}
	RDI = X86Reg{"rdi", 7, 0} // first argument of host routines
	R12 = X86Reg{"r12", 4, 1}
	R13 = X86Reg{"r13", 5, 1} // data segment base
	R14 = X86Reg{"r14", 6, 1} // scratch
	R15 = X86Reg{"r15", 7, 1} // caller stack pointer
)

// SSE registers. xmm0 and xmm5 are scratch, xmm1..xmm4 hold AX..DX.
var (
	XMM0 = X86Reg{"xmm0", 0, 0}
	XMM1 = X86Reg{"xmm1", 1, 0}
	XMM2 = X86Reg{"xmm2", 2, 0}
	XMM3 = X86Reg{"xmm3", 3, 0}
	XMM4 = X86Reg{"xmm4", 4, 0}
	XMM5 = X86Reg{"xmm5", 5, 0}
)

var xmmList = []X86Reg{XMM0, XMM1, XMM2, XMM3, XMM4, XMM5}

// XMM returns xmmN for N in 0..5.
func XMM(n int) X86Reg {
	return xmmList[n]
}
