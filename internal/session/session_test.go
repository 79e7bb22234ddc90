package session

import (
	"path/filepath"
	"testing"
)

func TestNewSession(t *testing.T) {
	s := NewSession("relay:123")
	if s.Key != "relay:123" {
		t.Errorf("Key = %q, want %q", s.Key, "relay:123")
	}
	if s.MessageCount() != 0 {
		t.Errorf("MessageCount() = %d, want 0", s.MessageCount())
	}
	if s.CreatedAt.IsZero() {
		t.Error("CreatedAt should not be zero")
	}
}

func TestAddMessage(t *testing.T) {
	s := NewSession("test")
	s.AddMessage("user", "hello")
	s.AddMessage("assistant", "hi there")

	if s.MessageCount() != 2 {
		t.Fatalf("MessageCount() = %d, want 2", s.MessageCount())
	}

	msgs := s.GetMessages()
	if msgs[0].Role != "user" || msgs[0].Content != "hello" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[1].Role != "assistant" || msgs[1].Content != "hi there" {
		t.Errorf("second message = %+v", msgs[1])
	}
}

func TestGetHistory(t *testing.T) {
	s := NewSession("test")
	for i := 0; i < 5; i++ {
		s.AddMessage("user", "msg")
	}

	// Get all
	all := s.GetHistory(0)
	if len(all) != 5 {
		t.Errorf("GetHistory(0) len = %d, want 5", len(all))
	}

	// Get last 3
	last3 := s.GetHistory(3)
	if len(last3) != 3 {
		t.Errorf("GetHistory(3) len = %d, want 3", len(last3))
	}

	// Get more than available
	all2 := s.GetHistory(10)
	if len(all2) != 5 {
		t.Errorf("GetHistory(10) len = %d, want 5", len(all2))
	}
}

func TestClear(t *testing.T) {
	s := NewSession("test")
	s.AddMessage("user", "hello")
	s.Clear()

	if s.MessageCount() != 0 {
		t.Errorf("MessageCount() after Clear = %d, want 0", s.MessageCount())
	}
}

func TestInfo(t *testing.T) {
	s := NewSession("cli:local")
	s.AddMessage("user", "test")
	s.AddMessage("assistant", "response")

	info := s.Info()
	if info.Key != "cli:local" {
		t.Errorf("Info().Key = %q, want %q", info.Key, "cli:local")
	}
	if info.MessageCount != 2 {
		t.Errorf("Info().MessageCount = %d, want 2", info.MessageCount)
	}
}

func TestGetMessagesReturnsCopy(t *testing.T) {
	s := NewSession("test")
	s.AddMessage("user", "original")

	msgs := s.GetMessages()
	msgs[0].Content = "modified"

	// Original should be unchanged
	original := s.GetMessages()
	if original[0].Content != "original" {
		t.Error("GetMessages should return a copy, not a reference")
	}
}

// --- Manager tests ---

func TestManagerGetOrCreate(t *testing.T) {
	m := NewManager(t.TempDir())

	s := m.GetOrCreate("relay:+15552223333")
	if s == nil {
		t.Fatal("GetOrCreate returned nil")
	}

	// Same key returns the same session
	s2 := m.GetOrCreate("relay:+15552223333")
	if s != s2 {
		t.Error("GetOrCreate should return the cached session")
	}
}

func TestManagerSaveAndReload(t *testing.T) {
	dir := t.TempDir()

	m1 := NewManager(dir)
	s := m1.GetOrCreate("relay:+15552223333")
	s.AddMessage("user", "hello")
	s.AddMessage("assistant", "hi")
	if err := m1.Save(s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Fresh manager loads from disk
	m2 := NewManager(dir)
	loaded := m2.Get("relay:+15552223333")
	if loaded == nil {
		t.Fatal("Get returned nil for persisted session")
	}
	if loaded.MessageCount() != 2 {
		t.Errorf("MessageCount = %d, want 2", loaded.MessageCount())
	}
	msgs := loaded.GetMessages()
	if msgs[0].Content != "hello" || msgs[1].Content != "hi" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestManagerSaveRespectsMaxHistory(t *testing.T) {
	dir := t.TempDir()

	m := NewManager(dir)
	m.SetMaxHistory(3)
	s := m.GetOrCreate("relay:trim")
	for i := 0; i < 10; i++ {
		s.AddMessage("user", "msg")
	}
	if err := m.Save(s); err != nil {
		t.Fatal(err)
	}

	loaded := NewManager(dir).Get("relay:trim")
	if loaded.MessageCount() != 3 {
		t.Errorf("persisted MessageCount = %d, want 3", loaded.MessageCount())
	}
}

func TestManagerDelete(t *testing.T) {
	dir := t.TempDir()

	m := NewManager(dir)
	s := m.GetOrCreate("relay:gone")
	if err := m.Save(s); err != nil {
		t.Fatal(err)
	}

	if !m.Delete("relay:gone") {
		t.Error("Delete should report true for existing session")
	}
	if m.Delete("relay:gone") {
		t.Error("Delete should report false for missing session")
	}
}

func TestManagerList(t *testing.T) {
	dir := t.TempDir()

	m := NewManager(dir)
	a := m.GetOrCreate("relay:a")
	a.AddMessage("user", "x")
	m.Save(a)
	b := m.GetOrCreate("relay:b")
	m.Save(b)

	infos := m.List()
	if len(infos) != 2 {
		t.Fatalf("List() returned %d sessions, want 2", len(infos))
	}
}

func TestManagerClear(t *testing.T) {
	dir := t.TempDir()

	m := NewManager(dir)
	s := m.GetOrCreate("relay:wipe")
	s.AddMessage("user", "forget this")
	if err := m.Save(s); err != nil {
		t.Fatal(err)
	}

	if err := m.Clear("relay:wipe"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	loaded := NewManager(dir).Get("relay:wipe")
	if loaded == nil {
		t.Fatal("cleared session should still exist")
	}
	if loaded.MessageCount() != 0 {
		t.Errorf("MessageCount after Clear = %d, want 0", loaded.MessageCount())
	}

	// Clearing an unknown key is a no-op.
	if err := m.Clear("relay:never-seen"); err != nil {
		t.Errorf("Clear(unknown) = %v, want nil", err)
	}
}

func TestManagerClearAll(t *testing.T) {
	dir := t.TempDir()

	m := NewManager(dir)
	for _, key := range []string{"relay:a", "relay:b", "relay:c"} {
		s := m.GetOrCreate(key)
		s.AddMessage("user", "x")
		if err := m.Save(s); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := m.ClearAll()
	if err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	if infos := m.List(); len(infos) != 0 {
		t.Errorf("List() after ClearAll returned %d sessions", len(infos))
	}
}

func TestSafeKey(t *testing.T) {
	m := NewManager(t.TempDir())

	path := m.pathFor("relay:../../etc/passwd")
	if filepath.Dir(path) != m.dir {
		t.Errorf("traversal key escaped sessions dir: %q", path)
	}
	if got := m.safeKey("relay:+15552223333"); got != "relay_+15552223333" {
		t.Errorf("safeKey = %q", got)
	}
}

func TestTrimToMessageCount(t *testing.T) {
	msgs := make([]Message, 5)
	for i := range msgs {
		msgs[i] = Message{Role: "user", Content: "msg"}
	}

	result := TrimToMessageCount(msgs, 3)
	if len(result) != 3 {
		t.Errorf("TrimToMessageCount(3) len = %d, want 3", len(result))
	}

	// maxCount <= 0 returns all
	result = TrimToMessageCount(msgs, 0)
	if len(result) != 5 {
		t.Errorf("TrimToMessageCount(0) len = %d, want 5", len(result))
	}

	// maxCount >= len returns all
	result = TrimToMessageCount(msgs, 10)
	if len(result) != 5 {
		t.Errorf("TrimToMessageCount(10) len = %d, want 5", len(result))
	}

	// Returned slice is a copy
	result[0].Content = "modified"
	if msgs[len(msgs)-len(result)].Content != "msg" {
		t.Error("TrimToMessageCount should copy, not alias")
	}
}
