//go:build unicorn
// +build unicorn

package jit

import (
	"encoding/binary"
	"fmt"
	"math"
	"runtime/debug"

	"github.com/colorfulnotion/hostjit/common"
	"github.com/colorfulnotion/hostjit/log"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"
)

const (
	sandboxPageSize  = 0x1000
	sandboxDataBase  = uint64(0x10000000)
	sandboxCodeBase  = sandboxDataBase + DataSize
	sandboxHostPage  = uint64(0x20000000) // print/scan land here and return immediately
	sandboxPrintAddr = sandboxHostPage
	sandboxScanAddr  = sandboxHostPage + 0x10
	sandboxExitAddr  = sandboxHostPage + 0x100
	sandboxStackBase = uint64(0x30000000)
	sandboxStackSize = uint64(1 << 20)

	cr4OSFXSR     = 1 << 9
	cr4OSXMMEXCPT = 1 << 10
)

// SandboxResult is the state left behind by an emulated run.
type SandboxResult struct {
	Data []byte
}

func (r *SandboxResult) Cell(i int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(r.Data[i*CellSize:]))
}

func sandboxResolver(sym Symbol) (uint64, error) {
	switch sym {
	case SymPrint:
		return sandboxPrintAddr, nil
	case SymScan:
		return sandboxScanAddr, nil
	}
	return 0, fmt.Errorf("unknown symbol %s", sym)
}

// RunSandbox executes code under unicorn instead of natively. maxSteps bounds
// the number of emulated instructions; zero means unbounded.
func RunSandbox(code *Code, io HostIO, maxSteps uint64) (res *SandboxResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			debug.PrintStack()
			err = fmt.Errorf("sandbox panic: %v", r)
		}
	}()
	if err := code.Verify(); err != nil {
		return nil, err
	}
	linked, err := code.Link(sandboxResolver)
	if err != nil {
		return nil, err
	}
	mu, err := uc.NewUnicorn(uc.ARCH_X86, uc.MODE_64)
	if err != nil {
		return nil, fmt.Errorf("NewUnicorn: %w", err)
	}
	defer mu.Close()

	size := uint64(DataSize + common.AlignUp(len(linked), sandboxPageSize))
	if err := mu.MemMap(sandboxDataBase, size); err != nil {
		return nil, fmt.Errorf("MemMap code: %w", err)
	}
	if err := mu.MemProtect(sandboxDataBase, size, uc.PROT_ALL); err != nil {
		return nil, fmt.Errorf("MemProtect code: %w", err)
	}
	if err := mu.MemWrite(sandboxCodeBase, linked); err != nil {
		return nil, fmt.Errorf("write code: %w", err)
	}

	host := make([]byte, sandboxPageSize)
	for i := range host {
		host[i] = 0xC3
	}
	if err := mu.MemMap(sandboxHostPage, sandboxPageSize); err != nil {
		return nil, fmt.Errorf("MemMap host page: %w", err)
	}
	if err := mu.MemWrite(sandboxHostPage, host); err != nil {
		return nil, fmt.Errorf("write host page: %w", err)
	}

	if err := mu.MemMap(sandboxStackBase, sandboxStackSize); err != nil {
		return nil, fmt.Errorf("stack MemMap: %w", err)
	}
	stackTop := sandboxStackBase + sandboxStackSize - 16
	rsp := stackTop - 8
	var ret [8]byte
	binary.LittleEndian.PutUint64(ret[:], sandboxExitAddr)
	if err := mu.MemWrite(rsp, ret[:]); err != nil {
		return nil, fmt.Errorf("write return address: %w", err)
	}
	if err := mu.RegWrite(uc.X86_REG_RSP, rsp); err != nil {
		return nil, fmt.Errorf("set RSP: %w", err)
	}
	cr4, _ := mu.RegRead(uc.X86_REG_CR4)
	if err := mu.RegWrite(uc.X86_REG_CR4, cr4|cr4OSFXSR|cr4OSXMMEXCPT); err != nil {
		return nil, fmt.Errorf("set CR4: %w", err)
	}

	var ioErr error
	_, err = mu.HookAdd(uc.HOOK_CODE, func(mu uc.Unicorn, addr uint64, size uint32) {
		rdi, _ := mu.RegRead(uc.X86_REG_RDI)
		rc := uint64(1)
		switch addr {
		case sandboxPrintAddr:
			raw, err := mu.MemRead(rdi, 8)
			if err == nil {
				err = io.Print(math.Float64frombits(binary.LittleEndian.Uint64(raw)))
			}
			if err != nil {
				rc = math.MaxUint64
				if ioErr == nil {
					ioErr = err
				}
			}
		case sandboxScanAddr:
			v, err := io.Scan()
			if err != nil {
				rc = math.MaxUint64
				if ioErr == nil {
					ioErr = err
				}
			}
			var out [8]byte
			binary.LittleEndian.PutUint64(out[:], math.Float64bits(v))
			mu.MemWrite(rdi, out[:])
		default:
			return
		}
		mu.RegWrite(uc.X86_REG_RAX, rc)
	}, sandboxHostPage, sandboxExitAddr-1)
	if err != nil {
		return nil, fmt.Errorf("add code hook: %w", err)
	}

	log.Debug(log.ExecModule, "sandbox start", "code", len(linked), "entry", fmt.Sprintf("0x%x", sandboxCodeBase))
	if err := mu.StartWithOptions(sandboxCodeBase, sandboxExitAddr, &uc.UcOptions{Count: maxSteps}); err != nil {
		return nil, fmt.Errorf("emulation failed: %w", err)
	}
	pc, _ := mu.RegRead(uc.X86_REG_RIP)
	if pc != sandboxExitAddr {
		return nil, fmt.Errorf("emulation stopped at 0x%x before returning", pc)
	}
	data, err := mu.MemRead(sandboxDataBase, DataSize)
	if err != nil {
		return nil, fmt.Errorf("read data segment: %w", err)
	}
	return &SandboxResult{Data: data}, ioErr
}
