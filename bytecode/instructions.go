package bytecode

// Stack machine instruction set. Words are little-endian int32; the flagged
// push/pop variants carry a register or memory operand.
const (
	PUSH = 1
	POP  = 2
	IN   = 3
	OUT  = 4
	MUL  = 5
	ADD  = 6
	SUB  = 7
	DIV  = 8
	HLT  = 10
	JB   = 11
	CALL = 12
	RET  = 13
	JA   = 14
	JMP  = 15
	SQRT = 16
	JE   = 17

	POPM   = POP | 0x70
	POPR   = POP | 0x60
	POPRM  = POP | 0x35 // pop to memory, cell index taken from a register
	PUSHM  = PUSH | 0x70
	PUSHR  = PUSH | 0x60
	PUSHRM = PUSH | 0x35
)

// Logical registers.
const (
	AX = 1
	BX = 2
	CX = 3
	DX = 4
)

const (
	NumRegisters = 4
	MemoryCells  = 1024 // 8 KiB data segment of doubles
)

var opcodeNames = map[int32]string{
	PUSH:   "push",
	POP:    "pop",
	IN:     "in",
	OUT:    "out",
	MUL:    "mul",
	ADD:    "add",
	SUB:    "sub",
	DIV:    "div",
	HLT:    "hlt",
	JB:     "jb",
	CALL:   "call",
	RET:    "ret",
	JA:     "ja",
	JMP:    "jmp",
	SQRT:   "sqrt",
	JE:     "je",
	POPM:   "pop_m",
	POPR:   "pop_r",
	POPRM:  "pop_rm",
	PUSHM:  "push_m",
	PUSHR:  "push_r",
	PUSHRM: "push_rm",
}

var registerNames = [...]string{AX: "ax", BX: "bx", CX: "cx", DX: "dx"}

// OpcodeToString returns the mnemonic of an opcode
func OpcodeToString(opcode int32) string {
	name, exists := opcodeNames[opcode]
	if !exists {
		return "UNKNOWN"
	}
	return name
}

// RegisterToString returns "ax".."dx", or "r?" for an invalid id.
func RegisterToString(reg int32) string {
	if reg < AX || reg > DX {
		return "r?"
	}
	return registerNames[reg]
}

// IsKnown reports whether opcode belongs to the instruction set.
func IsKnown(opcode int32) bool {
	_, ok := opcodeNames[opcode]
	return ok
}

// OperandWords is the number of operand words following the opcode word.
// Unknown opcodes consume none. Both translation passes and the interpreter
// decode through this table so they can never disagree on instruction
// boundaries.
func OperandWords(opcode int32) int {
	switch opcode {
	case PUSH:
		return 2
	case PUSHR, PUSHM, PUSHRM, POPR, POPM, POPRM:
		return 1
	case JMP, JB, JA, JE, CALL:
		return 1
	}
	return 0
}

// IsControlTransfer returns true for opcodes whose operand is a jump target.
func IsControlTransfer(opcode int32) bool {
	switch opcode {
	case JMP, JB, JA, JE, CALL:
		return true
	}
	return false
}

// IsConditionalJump returns true for the compare-and-branch opcodes.
func IsConditionalJump(opcode int32) bool {
	return opcode == JB || opcode == JA || opcode == JE
}

// InstructionCategory represents the category of an instruction
type InstructionCategory int

const (
	CategoryUnknown InstructionCategory = iota
	CategoryStack
	CategoryArithmetic
	CategoryControlFlow
	CategoryIO
)

func GetInstructionCategory(opcode int32) InstructionCategory {
	switch opcode {
	case PUSH, POP, PUSHR, PUSHM, PUSHRM, POPR, POPM, POPRM:
		return CategoryStack
	case ADD, SUB, MUL, DIV, SQRT:
		return CategoryArithmetic
	case JMP, JB, JA, JE, CALL, RET, HLT:
		return CategoryControlFlow
	case IN, OUT:
		return CategoryIO
	}
	return CategoryUnknown
}

func GetCategoryName(category InstructionCategory) string {
	switch category {
	case CategoryStack:
		return "stack"
	case CategoryArithmetic:
		return "arithmetic"
	case CategoryControlFlow:
		return "control"
	case CategoryIO:
		return "io"
	}
	return "unknown"
}
