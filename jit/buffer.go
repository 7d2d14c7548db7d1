package jit

import (
	"encoding/binary"
	"fmt"

	"github.com/colorfulnotion/hostjit/x86"
)

const initialBufferSize = 4096

// Buffer is the output buffer the translator appends encodings to.
type Buffer struct {
	code   []byte
	cursor int
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = initialBufferSize
	}
	return &Buffer{code: make([]byte, capacity)}
}

// Pos is the physical offset where the next encoding will be placed.
func (b *Buffer) Pos() int { return b.cursor }

func (b *Buffer) grow(n int) {
	if b.cursor+n <= len(b.code) {
		return
	}
	size := 2 * len(b.code)
	for size < b.cursor+n {
		size *= 2
	}
	next := make([]byte, size)
	copy(next, b.code[:b.cursor])
	b.code = next
}

// Emit appends one encoding and returns the offset it was placed at.
func (b *Buffer) Emit(in x86.Inst) int {
	start := b.cursor
	raw := in.Bytes()
	b.grow(len(raw))
	copy(b.code[b.cursor:], raw)
	b.cursor += len(raw)
	return start
}

// PatchRel32 overwrites the 4-byte displacement field at at.
func (b *Buffer) PatchRel32(at int, rel int32) error {
	if at < 0 || at+x86.Rel32Size > b.cursor {
		return fmt.Errorf("patch at %d outside emitted code [0,%d)", at, b.cursor)
	}
	binary.LittleEndian.PutUint32(b.code[at:], uint32(rel))
	return nil
}

// Rel32At reads back a displacement field.
func (b *Buffer) Rel32At(at int) int32 {
	return int32(binary.LittleEndian.Uint32(b.code[at:]))
}

// Bytes returns a copy of the emitted code.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, b.cursor)
	copy(out, b.code[:b.cursor])
	return out
}

// Reset discards everything emitted so far.
func (b *Buffer) Reset() {
	b.cursor = 0
}
