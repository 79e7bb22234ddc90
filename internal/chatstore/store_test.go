package chatstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "state", DefaultFileName))
}

func TestWriteThenLookup(t *testing.T) {
	s := newTestStore(t)

	s.Write("+15552223333", "chat_1")

	got, ok := s.Lookup("+15552223333")
	if !ok {
		t.Fatal("Lookup returned absent after Write")
	}
	if got != "chat_1" {
		t.Errorf("Lookup = %q, want chat_1", got)
	}
}

func TestWriteOverwrites(t *testing.T) {
	s := newTestStore(t)

	s.Write("+15552223333", "chat_1")
	s.Write("+15552223333", "chat_2")

	if got, _ := s.Lookup("+15552223333"); got != "chat_2" {
		t.Errorf("Lookup = %q, want chat_2", got)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	s.Write("+15552223333", "chat_1")
	s.Delete("+15552223333")

	if _, ok := s.Lookup("+15552223333"); ok {
		t.Error("Lookup found mapping after Delete")
	}
}

func TestLookupMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope", "chats.json"))

	if _, ok := s.Lookup("+15552223333"); ok {
		t.Error("Lookup found mapping in nonexistent store")
	}
}

func TestCorruptFileLoadsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chats.json")
	if err := os.WriteFile(path, []byte("{{{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	s := New(path)
	if _, ok := s.Lookup("+15552223333"); ok {
		t.Error("corrupt store should behave as empty")
	}

	// Writes still work after recovering from corruption.
	s.Write("+15552223333", "chat_1")
	if got, _ := s.Lookup("+15552223333"); got != "chat_1" {
		t.Errorf("Lookup = %q, want chat_1", got)
	}
}

func TestPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats.json")

	s1 := New(path)
	s1.Write("+15552223333", "chat_1")

	s2 := New(path)
	if got, _ := s2.Lookup("+15552223333"); got != "chat_1" {
		t.Errorf("fresh instance Lookup = %q, want chat_1", got)
	}
}

func TestResetCacheRereadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats.json")

	s := New(path)
	s.Write("+15552223333", "chat_1")

	// Change the file behind the store's back.
	external := map[string]string{"+15552223333": "chat_external"}
	data, err := json.Marshal(external)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	// Cached value still visible before the reset.
	if got, _ := s.Lookup("+15552223333"); got != "chat_1" {
		t.Errorf("pre-reset Lookup = %q, want cached chat_1", got)
	}

	s.ResetCache()
	if got, _ := s.Lookup("+15552223333"); got != "chat_external" {
		t.Errorf("post-reset Lookup = %q, want chat_external", got)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	s := newTestStore(t)
	s.Write("+15552223333", "chat_1")
	s.Write("+15554445555", "chat_2")

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("All() has %d entries, want 2", len(all))
	}

	// Mutating the copy must not touch the store.
	all["+15552223333"] = "tampered"
	if got, _ := s.Lookup("+15552223333"); got != "chat_1" {
		t.Errorf("Lookup = %q after mutating All() copy, want chat_1", got)
	}
}
