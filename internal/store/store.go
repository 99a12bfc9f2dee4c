// Package store persists user records and their conversation history.
// Implementations can be in-memory, file-based or database-backed; all of
// them must make the append-and-count read-modify-write atomic per user.
package store

import (
	"strings"
	"time"
)

// GuestKey is the sentinel identity used until a user states a name.
const GuestKey = "guest"

// Sender tags for conversation turns.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// DefaultHistoryLimit caps per-user history unless configured otherwise.
const DefaultHistoryLimit = 200

// Turn is one recorded unit of conversation. Immutable once created;
// timestamps are UTC.
type Turn struct {
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`
}

// User is one persisted user record. Name stays empty for the guest
// sentinel. Turns is append-only with FIFO eviction past the history cap.
type User struct {
	Key      string    `json:"key"`
	Name     string    `json:"name,omitempty"`
	LastSeen time.Time `json:"last_seen"`
	Visits   int       `json:"visits"`
	Turns    []Turn    `json:"turns"`
}

// Store abstracts conversation persistence.
// EnsureUser maps an optional display name to a canonical non-empty key.
// AppendTurn enforces the history cap, refreshes last-seen and counts
// user-authored turns as visits.
// History returns the most recent limit turns in chronological order.
// PruneInactive drops users idle for longer than olderThan and reports how
// many were removed.
type Store interface {
	EnsureUser(name string) (string, error)
	AppendTurn(key, sender, text string) error
	History(key string, limit int) ([]Turn, error)
	PruneInactive(olderThan time.Duration) (int, error)
	Close() error
}

// canonicalKey maps an optional display name to a record key; an identity
// key is never empty.
func canonicalKey(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return GuestKey
	}
	return name
}

// newUser builds a fresh record for key. The guest sentinel has no name.
func newUser(key string) *User {
	u := &User{Key: key}
	if key != GuestKey {
		u.Name = key
	}
	return u
}

// appendTurn is the shared mutation used by every implementation: append,
// trim from the front past the cap, refresh last-seen, count visits.
func appendTurn(u *User, sender, text string, now time.Time, histCap int) {
	if histCap <= 0 {
		histCap = DefaultHistoryLimit
	}
	u.Turns = append(u.Turns, Turn{Sender: sender, Text: text, Time: now})
	if len(u.Turns) > histCap {
		u.Turns = append([]Turn(nil), u.Turns[len(u.Turns)-histCap:]...)
	}
	u.LastSeen = now
	if sender == SenderUser {
		u.Visits++
	}
}

// lastTurns copies the most recent limit turns, oldest first.
func lastTurns(turns []Turn, limit int) []Turn {
	if limit <= 0 || limit > len(turns) {
		limit = len(turns)
	}
	out := make([]Turn, limit)
	copy(out, turns[len(turns)-limit:])
	return out
}
