package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/colorfulnotion/hostjit/bytecode"
	"github.com/colorfulnotion/hostjit/common"
	"github.com/colorfulnotion/hostjit/jit"
	"github.com/colorfulnotion/hostjit/log"
	"github.com/fxamacker/cbor/v2"
)

// CodeFormatVersion changes whenever translated code for the same program
// would differ, so stale entries miss instead of running.
const CodeFormatVersion = 2

var codePrefix = []byte("code/")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("storage: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// CodeRecord is the stored form of a translation.
type CodeRecord struct {
	Version     uint32                `cbor:"1,keyasint"`
	Code        []byte                `cbor:"2,keyasint"`
	Relocs      []jit.Reloc           `cbor:"3,keyasint"`
	HeaderSize  int                   `cbor:"4,keyasint"`
	EpiloguePos int                   `cbor:"5,keyasint"`
	InstMap     map[int]int           `cbor:"6,keyasint"` // bytecode offset -> code offset
	InstMapRev  map[int]int           `cbor:"7,keyasint"`
	Stats       *jit.TranslationStats `cbor:"8,keyasint"`
	Transfers   []jit.Transfer        `cbor:"9,keyasint"`
}

func NewCodeRecord(code *jit.Code) *CodeRecord {
	return &CodeRecord{
		Version:     CodeFormatVersion,
		Code:        code.Bytes,
		Relocs:      code.Relocs,
		HeaderSize:  code.HeaderSize,
		EpiloguePos: code.EpiloguePos,
		InstMap:     code.InstMapToNative,
		InstMapRev:  code.InstMapToBytecode,
		Stats:       code.Stats,
		Transfers:   code.Transfers,
	}
}

// ToCode rebuilds an unfinalized Code.
func (r *CodeRecord) ToCode() *jit.Code {
	return &jit.Code{
		Bytes:             r.Code,
		Relocs:            r.Relocs,
		HeaderSize:        r.HeaderSize,
		EpiloguePos:       r.EpiloguePos,
		InstMapToNative:   r.InstMap,
		InstMapToBytecode: r.InstMapRev,
		Stats:             r.Stats,
		Transfers:         r.Transfers,
	}
}

func MarshalCodeRecord(r *CodeRecord) ([]byte, error) {
	return cborEncMode.Marshal(r)
}

func UnmarshalCodeRecord(data []byte) (*CodeRecord, error) {
	var r CodeRecord
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("storage: unmarshal code record: %w", err)
	}
	return &r, nil
}

// CodeCache stores translations keyed by program contents and options.
type CodeCache struct {
	store *PersistenceStore
}

// OpenCodeCache opens the cache under dir, or an in-memory cache when dir is empty.
func OpenCodeCache(dir string) (*CodeCache, error) {
	ps, err := NewPersistenceStore(dir)
	if err != nil {
		return nil, err
	}
	return &CodeCache{store: ps}, nil
}

// CacheKey identifies a translation of p under opts.
func CacheKey(p *bytecode.Program, opts jit.Options) []byte {
	var hdr [5]byte
	binary.LittleEndian.PutUint32(hdr[:], CodeFormatVersion)
	if opts.Strict {
		hdr[4] = 1
	}
	h := common.Blake2Hash(append(hdr[:], p.Bytes()...))
	return append(append([]byte(nil), codePrefix...), h.Bytes()...)
}

// Get returns the cached translation, or found=false.
func (c *CodeCache) Get(p *bytecode.Program, opts jit.Options) (*jit.Code, bool, error) {
	key := CacheKey(p, opts)
	data, ok, err := c.store.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	rec, err := UnmarshalCodeRecord(data)
	if err != nil {
		return nil, false, err
	}
	if rec.Version != CodeFormatVersion {
		log.Debug(log.CacheModule, "stale entry", "key", fmt.Sprintf("%x", key), "version", rec.Version)
		return nil, false, nil
	}
	code := rec.ToCode()
	if err := code.Verify(); err != nil {
		log.Warn(log.CacheModule, "dropping invalid entry", "key", fmt.Sprintf("%x", key), "err", err)
		return nil, false, nil
	}
	log.Debug(log.CacheModule, "hit", "key", fmt.Sprintf("%x", key), "bytes", len(rec.Code))
	return code, true, nil
}

func (c *CodeCache) Put(p *bytecode.Program, opts jit.Options, code *jit.Code) error {
	data, err := MarshalCodeRecord(NewCodeRecord(code))
	if err != nil {
		return err
	}
	key := CacheKey(p, opts)
	log.Debug(log.CacheModule, "store", "key", fmt.Sprintf("%x", key), "bytes", len(data))
	return c.store.Put(key, data)
}

// Len counts cached translations.
func (c *CodeCache) Len() (int, error) {
	kvs, err := c.store.GetWithPrefix(codePrefix)
	return len(kvs), err
}

// Purge drops every cached translation.
func (c *CodeCache) Purge() (int, error) {
	return c.store.DeleteWithPrefix(codePrefix)
}

func (c *CodeCache) Close() error {
	return c.store.Close()
}
