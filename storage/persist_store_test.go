package storage

import (
	"bytes"
	"testing"
)

func TestPersistenceStore_BasicOperations(t *testing.T) {
	ps, err := NewMemoryPersistenceStore()
	if err != nil {
		t.Fatalf("Failed to create memory store: %v", err)
	}
	defer ps.Close()

	key := []byte("test-key")
	value := []byte("test-value")

	if err := ps.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, found, err := ps.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatal("Expected key to be found")
	}
	if string(got) != string(value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}

	_, found, err = ps.Get([]byte("non-existent"))
	if err != nil {
		t.Fatalf("Get non-existent failed: %v", err)
	}
	if found {
		t.Error("Expected key not to be found")
	}

	if err := ps.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	_, found, err = ps.Get(key)
	if err != nil {
		t.Fatalf("Get after delete failed: %v", err)
	}
	if found {
		t.Error("Expected key to be deleted")
	}
}

func TestPersistenceStore_Prefix(t *testing.T) {
	ps, err := NewMemoryPersistenceStore()
	if err != nil {
		t.Fatalf("Failed to create memory store: %v", err)
	}
	defer ps.Close()

	prefix := []byte("prefix_")
	for _, key := range []string{"prefix_b", "prefix_a", "prefix_c", "other_key"} {
		if err := ps.Put([]byte(key), []byte("value-"+key)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	results, err := ps.GetWithPrefix(prefix)
	if err != nil {
		t.Fatalf("GetWithPrefix failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if string(results[0][0]) != "prefix_a" || string(results[2][1]) != "value-prefix_c" {
		t.Errorf("unexpected order: %q", results)
	}
	for _, kv := range results {
		if !bytes.HasPrefix(kv[0], prefix) {
			t.Errorf("Key %q does not have prefix %q", kv[0], prefix)
		}
	}

	n, err := ps.DeleteWithPrefix(prefix)
	if err != nil {
		t.Fatalf("DeleteWithPrefix failed: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted %d keys, want 3", n)
	}
	if _, found, _ := ps.Get([]byte("other_key")); !found {
		t.Error("other_key should survive")
	}
}

func TestPersistenceStore_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ps, err := NewPersistenceStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := ps.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	ps.Close()

	ps, err = NewPersistenceStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ps.Close()
	got, found, err := ps.Get([]byte("k"))
	if err != nil || !found || string(got) != "v" {
		t.Fatalf("after reopen got %q found=%v err=%v", got, found, err)
	}
}
