package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

// openStores builds each backend against a temp dir so the same checks run
// over all implementations.
func openStores(t *testing.T, historyCap int) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	file, err := NewFile(filepath.Join(dir, "users.json"), historyCap)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	bdb, err := NewBolt(filepath.Join(dir, "users.db"), historyCap)
	if err != nil {
		t.Fatalf("bolt store: %v", err)
	}
	t.Cleanup(func() { _ = bdb.Close() })
	return map[string]Store{
		"memory": NewMemory(historyCap),
		"file":   file,
		"bolt":   bdb,
	}
}

func TestEnsureUserSentinel(t *testing.T) {
	for name, s := range openStores(t, 0) {
		key, err := s.EnsureUser("")
		if err != nil {
			t.Fatalf("%s: ensure: %v", name, err)
		}
		if key != GuestKey {
			t.Errorf("%s: empty name -> %q, want %q", name, key, GuestKey)
		}
		key, err = s.EnsureUser("Alice")
		if err != nil {
			t.Fatalf("%s: ensure: %v", name, err)
		}
		if key != "Alice" {
			t.Errorf("%s: key = %q, want Alice", name, key)
		}
	}
}

func TestAppendAndHistory(t *testing.T) {
	for name, s := range openStores(t, 0) {
		key, _ := s.EnsureUser("Bob")
		if err := s.AppendTurn(key, SenderUser, "hello"); err != nil {
			t.Fatalf("%s: append: %v", name, err)
		}
		if err := s.AppendTurn(key, SenderBot, "hi Bob"); err != nil {
			t.Fatalf("%s: append: %v", name, err)
		}

		turns, err := s.History(key, 10)
		if err != nil {
			t.Fatalf("%s: history: %v", name, err)
		}
		if len(turns) != 2 {
			t.Fatalf("%s: got %d turns, want 2", name, len(turns))
		}
		if turns[0].Sender != SenderUser || turns[0].Text != "hello" {
			t.Errorf("%s: turns[0] = %+v", name, turns[0])
		}
		if turns[1].Sender != SenderBot || turns[1].Text != "hi Bob" {
			t.Errorf("%s: turns[1] = %+v", name, turns[1])
		}
		if turns[0].Time.IsZero() {
			t.Errorf("%s: turn timestamp not set", name)
		}

		// limit returns the most recent entries, chronological
		turns, _ = s.History(key, 1)
		if len(turns) != 1 || turns[0].Text != "hi Bob" {
			t.Errorf("%s: limited history = %+v", name, turns)
		}

		// unknown user has no history and no error
		turns, err = s.History("Nobody", 10)
		if err != nil || len(turns) != 0 {
			t.Errorf("%s: unknown user: turns=%v err=%v", name, turns, err)
		}
	}
}

func TestHistoryCap(t *testing.T) {
	const histCap = 5
	for name, s := range openStores(t, histCap) {
		key, _ := s.EnsureUser("Carol")
		for i := 0; i < histCap+1; i++ {
			if err := s.AppendTurn(key, SenderUser, fmt.Sprintf("msg %d", i)); err != nil {
				t.Fatalf("%s: append: %v", name, err)
			}
		}
		turns, err := s.History(key, 0)
		if err != nil {
			t.Fatalf("%s: history: %v", name, err)
		}
		if len(turns) != histCap {
			t.Fatalf("%s: got %d turns after histCap+1 appends, want %d", name, len(turns), histCap)
		}
		if turns[0].Text != "msg 1" {
			t.Errorf("%s: oldest entry not evicted: %+v", name, turns[0])
		}
		if turns[histCap-1].Text != fmt.Sprintf("msg %d", histCap) {
			t.Errorf("%s: newest entry wrong: %+v", name, turns[histCap-1])
		}
	}
}

func TestVisitsCountUserTurnsOnly(t *testing.T) {
	m := NewMemory(0)
	key, _ := m.EnsureUser("Dave")
	_ = m.AppendTurn(key, SenderUser, "one")
	_ = m.AppendTurn(key, SenderBot, "reply")
	_ = m.AppendTurn(key, SenderUser, "two")

	m.mu.Lock()
	visits := m.users[key].Visits
	m.mu.Unlock()
	if visits != 2 {
		t.Fatalf("visits = %d, want 2", visits)
	}
}

func TestPruneInactive(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	m := NewMemory(0)
	m.now = func() time.Time { return base }
	_ = m.AppendTurn("Old", SenderUser, "hi")
	m.now = func() time.Time { return base.Add(72 * time.Hour) }
	_ = m.AppendTurn("Fresh", SenderUser, "hi")

	removed, err := m.PruneInactive(24 * time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if turns, _ := m.History("Old", 0); len(turns) != 0 {
		t.Fatalf("stale user not removed")
	}
	if turns, _ := m.History("Fresh", 0); len(turns) != 1 {
		t.Fatalf("fresh user should survive prune")
	}
}

func TestFileStoreReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	f, err := NewFile(path, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key, _ := f.EnsureUser("Erin")
	_ = f.AppendTurn(key, SenderUser, "remember me")

	// a fresh handle over the same file sees the data
	f2, err := NewFile(path, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	turns, err := f2.History("Erin", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(turns) != 1 || turns[0].Text != "remember me" {
		t.Fatalf("reloaded history = %+v", turns)
	}
}

func TestBoltStoreReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	b, err := NewBolt(path, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key, _ := b.EnsureUser("Frank")
	_ = b.AppendTurn(key, SenderUser, "persist this")
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b2, err := NewBolt(path, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = b2.Close() }()
	turns, err := b2.History("Frank", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(turns) != 1 || turns[0].Text != "persist this" {
		t.Fatalf("reloaded history = %+v", turns)
	}
}
