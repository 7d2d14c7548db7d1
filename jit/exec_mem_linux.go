//go:build linux

package jit

import (
	"fmt"
	"os"

	"github.com/colorfulnotion/hostjit/common"
	"golang.org/x/sys/unix"
)

func mapExecutable(code []byte) ([]byte, error) {
	page := os.Getpagesize()
	if DataSize%page != 0 {
		return nil, fmt.Errorf("data segment size %d is not page aligned (page %d)", DataSize, page)
	}
	size := DataSize + common.AlignUp(len(code), page)
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap %d bytes: %w", size, err)
	}
	copy(mem[DataSize:], code)
	if err := unix.Mprotect(mem[DataSize:], unix.PROT_READ|unix.PROT_EXEC); err != nil {
		unix.Munmap(mem)
		return nil, fmt.Errorf("mprotect: %w", err)
	}
	return mem, nil
}

func unmapExecutable(mem []byte) error {
	return unix.Munmap(mem)
}
