// Package emulator interprets bytecode programs directly. It is the
// reference the native translation is checked against.
package emulator

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/colorfulnotion/hostjit/bytecode"
	"github.com/colorfulnotion/hostjit/log"
)

var (
	ErrStackUnderflow = errors.New("stack underflow")
	ErrStepLimit      = errors.New("step limit exceeded")
	ErrBadReturn      = errors.New("return address is not an instruction offset")
)

// IO serves OUT and IN.
type IO interface {
	Print(v float64) error
	Scan() (float64, error)
}

type Options struct {
	MaxSteps uint64 // zero means unbounded
	Strict   bool
}

// Machine is a stack machine with four registers and a 1024-cell memory.
type Machine struct {
	prog  *bytecode.Program
	io    IO
	opts  Options
	pc    int
	steps uint64

	stack  []float64
	regs   [bytecode.NumRegisters + 1]float64
	memory [bytecode.MemoryCells]float64
	halted bool
}

func NewMachine(p *bytecode.Program, io IO, opts Options) *Machine {
	return &Machine{prog: p, io: io, opts: opts}
}

func (m *Machine) Steps() uint64      { return m.steps }
func (m *Machine) PC() int            { return m.pc }
func (m *Machine) Halted() bool       { return m.halted }
func (m *Machine) Cell(i int) float64 { return m.memory[i] }

func (m *Machine) SetCell(i int, v float64) { m.memory[i] = v }

// Register returns AX..DX by their 1-based id.
func (m *Machine) Register(r int32) float64 { return m.regs[r] }

// Stack returns a copy of the stack, bottom first.
func (m *Machine) Stack() []float64 {
	out := make([]float64, len(m.stack))
	copy(out, m.stack)
	return out
}

func (m *Machine) push(v float64) { m.stack = append(m.stack, v) }

func (m *Machine) pop(inst bytecode.Instruction) (float64, error) {
	if len(m.stack) == 0 {
		return 0, fmt.Errorf("%w: %s at %d", ErrStackUnderflow, bytecode.OpcodeToString(inst.Opcode), inst.Offset)
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func (m *Machine) pop2(inst bytecode.Instruction) (top, next float64, err error) {
	if top, err = m.pop(inst); err != nil {
		return
	}
	next, err = m.pop(inst)
	return
}

// CellIndex converts a register value to a memory cell the same way the
// native code does: truncate to int64, out of range and NaN become 0, then
// keep the low 10 bits.
func CellIndex(v float64) int {
	if math.IsNaN(v) || v >= math.MaxInt64 || v < math.MinInt64 {
		return 0
	}
	return int(int64(v) & (bytecode.MemoryCells - 1))
}

// Run executes until HLT, the end of the program, an error or ctx is done.
func (m *Machine) Run(ctx context.Context) error {
	for !m.halted {
		if m.steps&0xfff == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	log.Debug(log.EmuModule, "halted", "steps", m.steps, "pc", m.pc, "depth", len(m.stack))
	return nil
}

// Step executes one instruction.
func (m *Machine) Step() error {
	if m.pc >= m.prog.Len() {
		m.halted = true
		return nil
	}
	if m.opts.MaxSteps > 0 && m.steps >= m.opts.MaxSteps {
		return fmt.Errorf("%w: %d", ErrStepLimit, m.opts.MaxSteps)
	}
	inst, err := m.prog.At(m.pc)
	if err != nil {
		return err
	}
	m.steps++
	next := inst.Next()
	switch op := inst.Opcode; op {
	case bytecode.PUSH:
		m.push(inst.Imm())
	case bytecode.POP:
		if _, err := m.pop(inst); err != nil {
			return err
		}
	case bytecode.PUSHR:
		r, err := register(inst)
		if err != nil {
			return err
		}
		m.push(m.regs[r])
	case bytecode.POPR:
		r, err := register(inst)
		if err != nil {
			return err
		}
		if m.regs[r], err = m.pop(inst); err != nil {
			return err
		}
	case bytecode.PUSHM, bytecode.POPM:
		c := inst.Cell()
		if c < 0 || c >= bytecode.MemoryCells {
			return fmt.Errorf("memory cell %d out of range at %d", c, inst.Offset)
		}
		if op == bytecode.PUSHM {
			m.push(m.memory[c])
		} else if m.memory[c], err = m.pop(inst); err != nil {
			return err
		}
	case bytecode.PUSHRM, bytecode.POPRM:
		r, err := register(inst)
		if err != nil {
			return err
		}
		c := CellIndex(m.regs[r])
		if op == bytecode.PUSHRM {
			m.push(m.memory[c])
		} else if m.memory[c], err = m.pop(inst); err != nil {
			return err
		}
	case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV:
		top, nxt, err := m.pop2(inst)
		if err != nil {
			return err
		}
		m.push(Arith(op, top, nxt))
	case bytecode.SQRT:
		top, err := m.pop(inst)
		if err != nil {
			return err
		}
		m.push(math.Sqrt(top))
	case bytecode.IN:
		v, err := m.io.Scan()
		if err != nil {
			return fmt.Errorf("in at %d: %w", inst.Offset, err)
		}
		m.push(v)
	case bytecode.OUT:
		if len(m.stack) == 0 {
			return fmt.Errorf("%w: out at %d", ErrStackUnderflow, inst.Offset)
		}
		if err := m.io.Print(m.stack[len(m.stack)-1]); err != nil {
			return fmt.Errorf("out at %d: %w", inst.Offset, err)
		}
	case bytecode.HLT:
		m.halted = true
		return nil
	case bytecode.JMP:
		next = inst.Target()
	case bytecode.JB, bytecode.JA, bytecode.JE:
		top, nxt, err := m.pop2(inst)
		if err != nil {
			return err
		}
		if Taken(op, top, nxt) {
			next = inst.Target()
		}
	case bytecode.CALL:
		m.push(math.Float64frombits(uint64(next)))
		next = inst.Target()
	case bytecode.RET:
		v, err := m.pop(inst)
		if err != nil {
			return err
		}
		ret := math.Float64bits(v)
		if ret > uint64(m.prog.Len()) {
			return fmt.Errorf("%w: %#x at %d", ErrBadReturn, ret, inst.Offset)
		}
		next = int(ret)
	default:
		if m.opts.Strict {
			return fmt.Errorf("unknown opcode %d at %d", op, inst.Offset)
		}
		log.Trace(log.EmuModule, "skipping unknown opcode", "opcode", op, "offset", inst.Offset)
	}
	m.pc = next
	return nil
}

func register(inst bytecode.Instruction) (int32, error) {
	r := inst.Reg()
	if r < 1 || r > bytecode.NumRegisters {
		return 0, fmt.Errorf("register %d out of range at %d", r, inst.Offset)
	}
	return r, nil
}

// Arith applies a binary opcode with the top of the stack as the left operand.
func Arith(op int32, top, next float64) float64 {
	switch op {
	case bytecode.ADD:
		return top + next
	case bytecode.SUB:
		return top - next
	case bytecode.MUL:
		return top * next
	case bytecode.DIV:
		return top / next
	}
	return math.NaN()
}

// Taken reports whether a conditional jump with these operands branches.
func Taken(op int32, top, next float64) bool {
	switch op {
	case bytecode.JB:
		return top < next
	case bytecode.JA:
		return top > next
	case bytecode.JE:
		return top == next
	}
	return false
}
