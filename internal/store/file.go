package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// fileDoc is the on-disk shape: one JSON document holding every user.
type fileDoc struct {
	Users map[string]*User `json:"users"`
}

// File is a Store persisted as a single JSON file. Every mutation rewrites
// the whole document under the lock, which keeps per-user updates atomic.
type File struct {
	path string
	mu   sync.Mutex
	doc  fileDoc
	cap  int
	now  func() time.Time
}

// NewFile opens (or creates) the JSON store at path.
func NewFile(path string, historyCap int) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	f := &File{
		path: path,
		doc:  fileDoc{Users: make(map[string]*User)},
		cap:  historyCap,
		now:  func() time.Time { return time.Now().UTC() },
	}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) load() error {
	fd, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return f.saveUnlocked()
		}
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = fd.Close() }()
	var doc fileDoc
	if err := json.NewDecoder(fd).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil
		}
		// malformed file -> start fresh rather than refuse to serve
		return nil
	}
	if doc.Users == nil {
		doc.Users = make(map[string]*User)
	}
	f.doc = doc
	return nil
}

func (f *File) saveUnlocked() error {
	fd, err := os.OpenFile(f.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open store for write: %w", err)
	}
	defer func() { _ = fd.Close() }()
	enc := json.NewEncoder(fd)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f.doc); err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	return nil
}

func (f *File) EnsureUser(name string) (string, error) {
	key := canonicalKey(name)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.doc.Users[key]; ok {
		return key, nil
	}
	f.doc.Users[key] = newUser(key)
	return key, f.saveUnlocked()
}

func (f *File) AppendTurn(key, sender, text string) error {
	key = canonicalKey(key)
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.doc.Users[key]
	if !ok {
		u = newUser(key)
		f.doc.Users[key] = u
	}
	appendTurn(u, sender, text, f.now(), f.cap)
	return f.saveUnlocked()
}

func (f *File) History(key string, limit int) ([]Turn, error) {
	key = canonicalKey(key)
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.doc.Users[key]
	if !ok {
		return nil, nil
	}
	return lastTurns(u.Turns, limit), nil
}

func (f *File) PruneInactive(olderThan time.Duration) (int, error) {
	cutoff := f.now().Add(-olderThan)
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := 0
	for key, u := range f.doc.Users {
		if !u.LastSeen.IsZero() && u.LastSeen.Before(cutoff) {
			delete(f.doc.Users, key)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, f.saveUnlocked()
}

func (f *File) Close() error { return nil }
