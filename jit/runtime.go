package jit

import (
	"sync"
)

// HostIO backs the print and scan routines called by OUT and IN.
type HostIO interface {
	Print(v float64) error
	Scan() (float64, error)
}

// hostRuntime is the process-wide slot the native callbacks read. Runs are
// serialised on mu, so at most one program talks to it at a time.
var hostRuntime struct {
	mu  sync.Mutex
	io  HostIO
	err error
}

func acquireRuntime(io HostIO) {
	hostRuntime.mu.Lock()
	hostRuntime.io = io
	hostRuntime.err = nil
}

func releaseRuntime() error {
	err := hostRuntime.err
	hostRuntime.io = nil
	hostRuntime.err = nil
	hostRuntime.mu.Unlock()
	return err
}

// withRuntime holds the runtime slot for io while fn runs. The slot is
// released even if fn panics. An error from fn wins over a recorded I/O
// error.
func withRuntime(io HostIO, fn func() error) (err error) {
	acquireRuntime(io)
	defer func() {
		if ioErr := releaseRuntime(); err == nil {
			err = ioErr
		}
	}()
	return fn()
}

// hostPrint and hostScan are called with the runtime slot held. The first
// failure is kept and reported when the run ends; the return value is what
// the native side sees.
func hostPrint(v float64) int {
	if hostRuntime.io == nil {
		return -1
	}
	if err := hostRuntime.io.Print(v); err != nil {
		if hostRuntime.err == nil {
			hostRuntime.err = err
		}
		return -1
	}
	return 1
}

func hostScan() (float64, int) {
	if hostRuntime.io == nil {
		return 0, -1
	}
	v, err := hostRuntime.io.Scan()
	if err != nil {
		if hostRuntime.err == nil {
			hostRuntime.err = err
		}
		return 0, -1
	}
	return v, 1
}
