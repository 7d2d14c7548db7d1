package common

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Hash is a 32-byte BLAKE2b digest.
type Hash [32]byte

func Blake2Hash(data []byte) Hash {
	return Hash(blake2b.Sum256(data))
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

// String_short returns the first 4 bytes in hex, handy in log lines.
func (h Hash) String_short() string {
	return hex.EncodeToString(h[:4])
}

func Uint32ToBytes(val uint32) []byte {
	bytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(bytes, val)
	return bytes
}

func BytesToUint32(data []byte) uint32 {
	if len(data) < 4 {
		panic("BytesToUint32: byte slice too short")
	}
	return binary.LittleEndian.Uint32(data)
}
