package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders a program as assembler source that Assemble accepts.
// Jump targets get synthetic "L<offset>" labels.
func Disassemble(p *Program) string {
	var sb strings.Builder
	labels := p.Labels()
	insts, err := p.Instructions()
	starts := make(map[int]bool, len(insts)+1)
	for _, inst := range insts {
		starts[inst.Offset] = true
	}
	starts[p.Len()] = true
	for _, inst := range insts {
		if labels[inst.Offset] {
			sb.WriteString(fmt.Sprintf("L%d:\n", inst.Offset))
		}
		text := inst.String()
		if IsControlTransfer(inst.Opcode) && starts[inst.Target()] {
			text = fmt.Sprintf("%s L%d", OpcodeToString(inst.Opcode), inst.Target())
		}
		sb.WriteString(fmt.Sprintf("    %-20s ; %04d\n", text, inst.Offset))
	}
	if labels[p.Len()] {
		sb.WriteString(fmt.Sprintf("L%d:\n", p.Len()))
	}
	if err != nil {
		sb.WriteString(fmt.Sprintf("    ; %v\n", err))
	}
	return sb.String()
}
