package x86

// REX Prefix Constants
const (
	X86_REX_BASE = 0x40 // Base value for REX prefix
	X86_REX_W    = 0x08 // REX.W - 64-bit operand size
	X86_REX_R    = 0x04 // REX.R - Extension of ModRM reg field
	X86_REX_X    = 0x02 // REX.X - Extension of SIB index field
	X86_REX_B    = 0x01 // REX.B - Extension of ModRM r/m, SIB base, or opcode reg field
)

// ModRM Mode Constants
const (
	X86_MOD_INDIRECT        = 0x00 // [reg] or [disp32]
	X86_MOD_INDIRECT_DISP8  = 0x01 // [reg + disp8]
	X86_MOD_INDIRECT_DISP32 = 0x02 // [reg + disp32]
	X86_MOD_REGISTER        = 0x03 // reg
)

// SIB (Scale-Index-Base) Constants
const (
	X86_SIB_SCALE_1  = 0x00
	X86_SIB_SCALE_2  = 0x01
	X86_SIB_SCALE_4  = 0x02
	X86_SIB_SCALE_8  = 0x03
	X86_SIB_NO_INDEX = 0x04 // RSP encoding in the index field
)

const (
	X86_RSP_REGBITS = 0x04 // rm=100 selects a SIB byte
	X86_RBP_REGBITS = 0x05 // rm=101 with mod=00 selects RIP/disp32
)

// Primary Opcodes
const (
	X86_OP_PUSH_R          = 0x50 // PUSH r64 (+ reg)
	X86_OP_POP_R           = 0x58 // POP r64 (+ reg)
	X86_OP_GROUP1_RM_IMM32 = 0x81 // Group 1 operations with imm32
	X86_OP_GROUP1_RM_IMM8  = 0x83 // Group 1 operations with imm8
	X86_OP_MOV_RM_R        = 0x89 // MOV r/m, r
	X86_OP_MOV_R_RM        = 0x8B // MOV r, r/m
	X86_OP_LEA             = 0x8D // LEA r, m
	X86_OP_MOV_R_IMM       = 0xB8 // MOV r, imm64 (+ reg)
	X86_OP_RET             = 0xC3 // RET
	X86_OP_JMP_REL32       = 0xE9 // JMP rel32
	X86_OP_GROUP5_RM       = 0xFF // Group 5 operations (INC, DEC, CALL, JMP, PUSH)
)

// ModRM reg field constants for opcodes with sub-operations
const (
	X86_REG_ADD = 0 // ADD (for 0x81/0x83 opcode)
	X86_REG_AND = 4 // AND (for 0x81/0x83 opcode)
	X86_REG_SUB = 5 // SUB (for 0x81/0x83 opcode)
	X86_REG_CMP = 7 // CMP (for 0x81/0x83 opcode)

	X86_REG_CALL_RM = 2 // CALL r/m (for 0xFF opcode)
	X86_REG_JMP_RM  = 4 // JMP r/m (for 0xFF opcode)
)

// Prefixes
const (
	X86_PREFIX_0F = 0x0F // Two-byte opcode prefix
	X86_PREFIX_66 = 0x66 // Operand-size override, selects packed-double forms
	X86_PREFIX_F2 = 0xF2 // Scalar double forms
	X86_PREFIX_F3 = 0xF3 // MOVQ load form
)

// Two-byte Opcodes (0x0F prefix)
const (
	X86_OP2_CVTTSD2SI  = 0x2C // CVTTSD2SI r, xmm/m64 (F2)
	X86_OP2_MOVMSKPD   = 0x50 // MOVMSKPD r32, xmm (66)
	X86_OP2_SQRT       = 0x51 // SQRTPD (66) / SQRTSD (F2)
	X86_OP2_ADD        = 0x58 // ADDSD (F2)
	X86_OP2_MUL        = 0x59 // MULSD (F2)
	X86_OP2_SUB        = 0x5C // SUBSD (F2)
	X86_OP2_DIV        = 0x5E // DIVSD (F2)
	X86_OP2_MOVQ_LOAD  = 0x7E // MOVQ xmm, xmm/m64 (F3)
	X86_OP2_CMPPD      = 0xC2 // CMPPD xmm, xmm/m128, imm8 (66)
	X86_OP2_MOVQ_STORE = 0xD6 // MOVQ xmm/m64, xmm (66)
)

// Conditional Jump Opcodes (0x0F prefix)
const (
	X86_OP2_JB  = 0x82 // JB/JNAE/JC rel32
	X86_OP2_JE  = 0x84 // JE/JZ rel32
	X86_OP2_JNE = 0x85 // JNE/JNZ rel32
	X86_OP2_JA  = 0x87 // JA/JNBE rel32
)

// CMPPD predicates (legacy SSE2 encodings)
const (
	CMP_EQ  = 0 // equal, ordered
	CMP_LT  = 1 // less than
	CMP_LE  = 2
	CMP_NEQ = 4
)

const (
	MaxInstLen = 15
	Rel32Size  = 4
)
