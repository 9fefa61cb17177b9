package diag

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "unknowns.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RecordAndList(t *testing.T) {
	store := openTestStore(t)

	store.Record("Drachenfrucht")
	store.Record("Drachenfrucht")
	store.Record("Seitan")
	store.Record("") // Empty terms are dropped silently

	entries, err := store.List(10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %v, want 2 distinct terms", entries)
	}

	// Most frequent first.
	if entries[0].Term != "Drachenfrucht" || entries[0].Count != 2 {
		t.Errorf("first entry = %+v, want Drachenfrucht ×2", entries[0])
	}
	if entries[1].Term != "Seitan" || entries[1].Count != 1 {
		t.Errorf("second entry = %+v, want Seitan ×1", entries[1])
	}
	if entries[0].LastSeen.Before(entries[0].FirstSeen) {
		t.Error("last seen must not precede first seen")
	}
}

func TestStore_Count(t *testing.T) {
	store := openTestStore(t)

	n, err := store.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0 for empty store", n)
	}

	store.Record("Drachenfrucht")
	store.Record("Drachenfrucht")
	store.Record("Seitan")

	n, err = store.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2 distinct terms", n)
	}
}

func TestStore_ListLimit(t *testing.T) {
	store := openTestStore(t)

	for _, term := range []string{"a-term", "b-term", "c-term"} {
		store.Record(term)
	}

	entries, err := store.List(2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want limit applied", len(entries))
	}
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unknowns.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	store.Record("Drachenfrucht")
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	n, err := reopened.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("count after reopen = %d, want 1", n)
	}
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = NopRecorder{}
	r.Record("anything")
	if err := r.Close(); err != nil {
		t.Errorf("Close = %v, want nil", err)
	}
}
