package store

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var usersBucket = []byte("users")

// Bolt is a Store backed by a bbolt database, one JSON-encoded record per
// user key. Bolt serializes writers, so the append read-modify-write is
// atomic per user for free.
type Bolt struct {
	db  *bolt.DB
	cap int
	now func() time.Time
}

// NewBolt opens (or creates) the database at path.
func NewBolt(path string, historyCap int) (*Bolt, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(usersBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init bolt store: %w", err)
	}
	return &Bolt{
		db:  db,
		cap: historyCap,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func getUser(b *bolt.Bucket, key string) (*User, error) {
	raw := b.Get([]byte(key))
	if raw == nil {
		return nil, nil
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode user %q: %w", key, err)
	}
	return &u, nil
}

func putUser(b *bolt.Bucket, u *User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user %q: %w", u.Key, err)
	}
	return b.Put([]byte(u.Key), raw)
}

func (s *Bolt) EnsureUser(name string) (string, error) {
	key := canonicalKey(name)
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(usersBucket)
		u, err := getUser(b, key)
		if err != nil {
			return err
		}
		if u != nil {
			return nil
		}
		return putUser(b, newUser(key))
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *Bolt) AppendTurn(key, sender, text string) error {
	key = canonicalKey(key)
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(usersBucket)
		u, err := getUser(b, key)
		if err != nil {
			return err
		}
		if u == nil {
			u = newUser(key)
		}
		appendTurn(u, sender, text, s.now(), s.cap)
		return putUser(b, u)
	})
}

func (s *Bolt) History(key string, limit int) ([]Turn, error) {
	key = canonicalKey(key)
	var turns []Turn
	err := s.db.View(func(tx *bolt.Tx) error {
		u, err := getUser(tx.Bucket(usersBucket), key)
		if err != nil {
			return err
		}
		if u != nil {
			turns = lastTurns(u.Turns, limit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return turns, nil
}

func (s *Bolt) PruneInactive(olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(usersBucket)
		var stale [][]byte
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var u User
			if err := json.Unmarshal(v, &u); err != nil {
				continue
			}
			if !u.LastSeen.IsZero() && u.LastSeen.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *Bolt) Close() error { return s.db.Close() }
