package jit

import (
	"encoding/binary"
	"fmt"
	"math"
	"runtime"
	"runtime/debug"

	"github.com/colorfulnotion/hostjit/log"
)

// Executable is linked code in an executable mapping laid out as
// [data segment, DataSize bytes, RW][code pages, RX].
type Executable struct {
	mem    []byte
	data   []byte
	code   []byte
	closed bool
}

// Finalize links the code against the native host routines, copies it into
// fresh memory and makes the code pages executable. It may be called once.
func (c *Code) Finalize() (*Executable, error) {
	if c.finalized {
		return nil, ErrFinalized
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	linked, err := c.Link(nativeResolver)
	if err != nil {
		return nil, err
	}
	mem, err := mapExecutable(linked)
	if err != nil {
		return nil, err
	}
	c.finalized = true
	log.Debug(log.ExecModule, "finalized", "code", len(linked), "mapped", len(mem))
	return &Executable{mem: mem, data: mem[:DataSize], code: mem[DataSize : DataSize+len(linked)]}, nil
}

// Run executes the program to completion with io serving OUT and IN.
func (e *Executable) Run(io HostIO) (err error) {
	if e.closed {
		return fmt.Errorf("run: executable closed")
	}
	defer func() {
		if r := recover(); r != nil {
			debug.PrintStack()
			err = fmt.Errorf("native execution panic: %v", r)
		}
	}()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	return withRuntime(io, func() error { return runNative(e.code) })
}

// Cell reads data segment cell i.
func (e *Executable) Cell(i int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(e.data[i*CellSize:]))
}

// SetCell writes data segment cell i.
func (e *Executable) SetCell(i int, v float64) {
	binary.LittleEndian.PutUint64(e.data[i*CellSize:], math.Float64bits(v))
}

func (e *Executable) Code() []byte { return e.code }

func (e *Executable) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return unmapExecutable(e.mem)
}
