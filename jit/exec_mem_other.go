//go:build !linux

package jit

func mapExecutable(code []byte) ([]byte, error) {
	return nil, ErrNotSupported
}

func unmapExecutable(mem []byte) error {
	return nil
}
