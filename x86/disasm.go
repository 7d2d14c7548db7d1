package x86

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

// Disassemble renders code one instruction per line with its offset and raw bytes.
func Disassemble(code []byte) string {
	return DisassembleAnnotated(code, nil)
}

// DisassembleAnnotated is Disassemble with an optional header line before
// instructions for which note returns a non-empty string.
func DisassembleAnnotated(code []byte, note func(offset int) string) string {
	var sb strings.Builder
	offset := 0
	for offset < len(code) {
		if note != nil {
			if s := note(offset); s != "" {
				sb.WriteString(s)
				sb.WriteByte('\n')
			}
		}
		inst, err := x86asm.Decode(code[offset:], 64)
		if err != nil {
			sb.WriteString(fmt.Sprintf("0x%04x: db 0x%02x\n", offset, code[offset]))
			offset++
			continue
		}
		var hexBytes []string
		for i := 0; i < inst.Len; i++ {
			hexBytes = append(hexBytes, fmt.Sprintf("%02x", code[offset+i]))
		}
		sb.WriteString(fmt.Sprintf("0x%04x: %-16s %s\n", offset, strings.Join(hexBytes, " "), inst.String()))
		offset += inst.Len
	}
	return sb.String()
}

// Boundaries returns the start offset of every decodable instruction in code.
func Boundaries(code []byte) ([]int, error) {
	var out []int
	for offset := 0; offset < len(code); {
		inst, err := x86asm.Decode(code[offset:], 64)
		if err != nil {
			return out, fmt.Errorf("decode at 0x%04x: %w", offset, err)
		}
		out = append(out, offset)
		offset += inst.Len
	}
	return out, nil
}
