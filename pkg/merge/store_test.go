package merge

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	store := newMemoryStore()

	if err := store.Put(1, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(2, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("Expected 2 records, got %d", store.Len())
	}

	p, err := store.Get(1)
	if err != nil || string(p) != `{"a":1}` {
		t.Errorf("Get(1) = %s, %v", p, err)
	}

	if err := store.Delete(1); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(1); err == nil {
		t.Errorf("Expected error for deleted record")
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 record after delete, got %d", store.Len())
	}
}

func TestSpillStoreMigratesToDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spill")
	store := newSpillStore(dir, 3)
	defer store.Close()

	for i := uint64(0); i < 5; i++ {
		payload := []byte(fmt.Sprintf(`{"seq":%d}`, i))
		if err := store.Put(i, payload); err != nil {
			t.Fatalf("Put(%d) failed: %v", i, err)
		}
	}

	if !store.spilled {
		t.Fatalf("Expected store to spill past the threshold")
	}
	if _, ok := store.recordStore.(*badgerStore); !ok {
		t.Fatalf("Expected badger-backed store after spill, got %T", store.recordStore)
	}
	if store.Len() != 5 {
		t.Errorf("Expected 5 records after spill, got %d", store.Len())
	}

	// Records put before and after the spill stay readable.
	for i := uint64(0); i < 5; i++ {
		p, err := store.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		expected := fmt.Sprintf(`{"seq":%d}`, i)
		if string(p) != expected {
			t.Errorf("Get(%d) = %s, expected %s", i, p, expected)
		}
	}

	if err := store.Delete(2); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if store.Len() != 4 {
		t.Errorf("Expected 4 records after delete, got %d", store.Len())
	}
}

func TestSpillStoreDisabledThreshold(t *testing.T) {
	store := newSpillStore(filepath.Join(t.TempDir(), "spill"), 0)
	defer store.Close()

	for i := uint64(0); i < 100; i++ {
		if err := store.Put(i, []byte(`{}`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	if store.spilled {
		t.Errorf("Expected zero threshold to keep everything in memory")
	}
}

func TestSpillStoreCloseRemovesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spill")
	store := newSpillStore(dir, 1)

	if err := store.Put(0, []byte(`{}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(1, []byte(`{}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("Expected spill dir to be removed on close")
	}
}
