//go:build !(linux && amd64 && cgo)

package jit

func NativeSupported() bool { return false }

func nativeResolver(sym Symbol) (uint64, error) {
	return 0, ErrNotSupported
}

func runNative(code []byte) error {
	return ErrNotSupported
}
