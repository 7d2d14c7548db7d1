//go:build linux && amd64 && cgo

package jit

/*
#include <stdint.h>

extern int run_jit(void *entry);
extern void *hostjit_print_addr(void);
extern void *hostjit_scan_addr(void);
*/
import "C"

import (
	"fmt"
	"unsafe"
)

func NativeSupported() bool { return true }

func nativeResolver(sym Symbol) (uint64, error) {
	switch sym {
	case SymPrint:
		return uint64(uintptr(C.hostjit_print_addr())), nil
	case SymScan:
		return uint64(uintptr(C.hostjit_scan_addr())), nil
	}
	return 0, fmt.Errorf("unknown symbol %s", sym)
}

func runNative(code []byte) error {
	if len(code) == 0 {
		return fmt.Errorf("empty code")
	}
	if rc := C.run_jit(unsafe.Pointer(&code[0])); rc != 0 {
		return fmt.Errorf("native execution failed: status %d", int(rc))
	}
	return nil
}

//export goPrintDouble
func goPrintDouble(v C.double) C.int {
	return C.int(hostPrint(float64(v)))
}

//export goScanDouble
func goScanDouble(out *C.double) C.int {
	v, rc := hostScan()
	*out = C.double(v)
	return C.int(rc)
}
