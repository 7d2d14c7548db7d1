package bytecode

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/colorfulnotion/hostjit/common"
)

// AsmError reports a problem on one source line.
type AsmError struct {
	Line int
	Msg  string
}

func (e *AsmError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type asmLine struct {
	line   int
	offset int
	op     string
	arg    string
}

// Assemble translates the textual form into a program.
//
//	loop:            ; labels end with a colon
//	    push 1.5     ; immediate double
//	    push ax      ; register  (push_r)
//	    pop [12]     ; memory cell (pop_m)
//	    pop [bx]     ; cell indexed by a register (pop_rm)
//	    jb loop      ; jumps take a label or a word offset
//	    .word 99     ; raw word
//
// Comments start with ';' or '#'.
func Assemble(r io.Reader) (*Program, error) {
	var lines []asmLine
	labels := make(map[string]int)
	offset := 0

	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		text := sc.Text()
		if i := strings.IndexAny(text, ";#"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		for {
			i := strings.Index(text, ":")
			if i < 0 {
				break
			}
			name := strings.TrimSpace(text[:i])
			if name == "" || strings.ContainsAny(name, " \t[]") {
				return nil, &AsmError{n, fmt.Sprintf("bad label %q", name)}
			}
			if _, dup := labels[name]; dup {
				return nil, &AsmError{n, fmt.Sprintf("label %q redefined", name)}
			}
			labels[name] = offset
			text = strings.TrimSpace(text[i+1:])
		}
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		l := asmLine{line: n, offset: offset, op: strings.ToLower(fields[0])}
		if len(fields) > 2 {
			return nil, &AsmError{n, "too many operands"}
		}
		if len(fields) == 2 {
			l.arg = fields[1]
		}
		size, err := l.size()
		if err != nil {
			return nil, err
		}
		offset += size
		lines = append(lines, l)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	words := make([]int32, 0, offset)
	for _, l := range lines {
		w, err := l.encode(labels)
		if err != nil {
			return nil, err
		}
		words = append(words, w...)
	}
	return &Program{Words: words}, nil
}

// AssembleString is Assemble over a string.
func AssembleString(src string) (*Program, error) {
	return Assemble(strings.NewReader(src))
}

// MustAssemble panics on error; meant for tests and fixed programs.
func MustAssemble(src string) *Program {
	p, err := AssembleString(src)
	if err != nil {
		panic(err)
	}
	return p
}

func (l asmLine) size() (int, error) {
	if l.op == ".word" {
		return 1, nil
	}
	op, err := l.opcode()
	if err != nil {
		return 0, err
	}
	return 1 + OperandWords(op), nil
}

// opcode resolves the mnemonic plus operand shape to a concrete opcode.
func (l asmLine) opcode() (int32, error) {
	if l.op == "push" || l.op == "pop" {
		return l.stackOpcode()
	}
	for code, name := range opcodeNames {
		if name == l.op {
			if (OperandWords(code) == 0) != (l.arg == "") {
				return 0, &AsmError{l.line, fmt.Sprintf("%s: wrong operand count", l.op)}
			}
			return code, nil
		}
	}
	return 0, &AsmError{l.line, fmt.Sprintf("unknown mnemonic %q", l.op)}
}

func (l asmLine) stackOpcode() (int32, error) {
	push := l.op == "push"
	arg := l.arg
	switch {
	case arg == "":
		if push {
			return 0, &AsmError{l.line, "push needs an operand"}
		}
		return POP, nil
	case strings.HasPrefix(arg, "[") && strings.HasSuffix(arg, "]"):
		inner := arg[1 : len(arg)-1]
		if _, ok := parseRegister(inner); ok {
			return pick(push, PUSHRM, POPRM), nil
		}
		return pick(push, PUSHM, POPM), nil
	default:
		if _, ok := parseRegister(arg); ok {
			return pick(push, PUSHR, POPR), nil
		}
		if !push {
			return 0, &AsmError{l.line, fmt.Sprintf("cannot pop into %q", arg)}
		}
		return PUSH, nil
	}
}

func pick(push bool, a, b int32) int32 {
	if push {
		return a
	}
	return b
}

func (l asmLine) encode(labels map[string]int) ([]int32, error) {
	if l.op == ".word" {
		v, err := strconv.ParseInt(l.arg, 0, 32)
		if err != nil {
			return nil, &AsmError{l.line, fmt.Sprintf(".word: %v", err)}
		}
		return []int32{int32(v)}, nil
	}
	op, err := l.opcode()
	if err != nil {
		return nil, err
	}
	switch op {
	case PUSH:
		v, err := strconv.ParseFloat(l.arg, 64)
		if err != nil {
			return nil, &AsmError{l.line, fmt.Sprintf("bad immediate %q", l.arg)}
		}
		lo, hi := common.Float64ToWords(v)
		return []int32{op, lo, hi}, nil
	case PUSHR, POPR, PUSHRM, POPRM:
		reg, ok := parseRegister(unbracket(l.arg))
		if !ok {
			return nil, &AsmError{l.line, fmt.Sprintf("bad register %q", l.arg)}
		}
		return []int32{op, reg}, nil
	case PUSHM, POPM:
		cell, err := strconv.ParseInt(unbracket(l.arg), 0, 32)
		if err != nil || cell < 0 || cell >= MemoryCells {
			return nil, &AsmError{l.line, fmt.Sprintf("bad memory cell %q", l.arg)}
		}
		return []int32{op, int32(cell)}, nil
	case JMP, JB, JA, JE, CALL:
		if target, ok := labels[l.arg]; ok {
			return []int32{op, int32(target)}, nil
		}
		target, err := strconv.ParseInt(l.arg, 0, 32)
		if err != nil {
			return nil, &AsmError{l.line, fmt.Sprintf("undefined label %q", l.arg)}
		}
		return []int32{op, int32(target)}, nil
	}
	return []int32{op}, nil
}

func unbracket(s string) string {
	return strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
}

func parseRegister(s string) (int32, bool) {
	for id := int32(AX); id <= DX; id++ {
		if strings.EqualFold(s, registerNames[id]) {
			return id, true
		}
	}
	return 0, false
}
