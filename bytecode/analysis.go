package bytecode

// ProgramStats contains statistics about a bytecode program
type ProgramStats struct {
	InstructionCount   int           // Total number of decoded instructions
	UnknownCount       int           // Words skipped as unknown opcodes
	JumpCount          int           // Jumps and calls
	ForwardJumps       int           // target > site
	BackwardJumps      int           // target <= site
	OpcodeDistribution map[int32]int // Distribution of opcodes
}

// Analyze decodes the program and collects statistics. Decoding stops at the
// first truncated instruction.
func (p *Program) Analyze() *ProgramStats {
	stats := &ProgramStats{OpcodeDistribution: make(map[int32]int)}
	for off := 0; off < len(p.Words); {
		inst, err := p.At(off)
		if err != nil {
			break
		}
		if !inst.Known() {
			stats.UnknownCount++
		} else {
			stats.InstructionCount++
			stats.OpcodeDistribution[inst.Opcode]++
		}
		if IsControlTransfer(inst.Opcode) {
			stats.JumpCount++
			if inst.Target() <= inst.Offset {
				stats.BackwardJumps++
			} else {
				stats.ForwardJumps++
			}
		}
		off = inst.Next()
	}
	return stats
}

// Labels returns every distinct jump/call target in the program.
func (p *Program) Labels() map[int]bool {
	labels := make(map[int]bool)
	insts, _ := p.Instructions()
	for _, inst := range insts {
		if IsControlTransfer(inst.Opcode) {
			labels[inst.Target()] = true
		}
	}
	return labels
}
