// Package pager owns pagination sessions: the per-message state that turns a
// one-shot search into a navigable multi-page view.
package pager

import (
	"sync"
	"time"

	"github.com/m3rciful/aitagbot/search"
)

// MessageKey identifies the chat message a result view is bound to.
type MessageKey struct {
	ChatID    int64
	MessageID int
}

// Query is the immutable origin of a search session.
type Query struct {
	Keyword string
	ChatID  int64
	UserID  int64
}

// Session is the mutable pagination state for one rendered message. Offset
// is always a multiple of the page size and within [0, max(total, size)).
// Sessions are owned by the Store; callers receive value copies.
type Session struct {
	Query      Query
	Offset     int
	Total      int
	LastAccess time.Time
}

type entry struct {
	mu   sync.Mutex
	sess Session
	gone bool
}

// Store is an in-memory session map with TTL eviction. Map access is a short
// read-write lock; session mutation is serialized per entry, so unrelated
// chats never contend. No lock is ever held across a network call.
type Store struct {
	limit int
	ttl   time.Duration
	now   func() time.Time

	mu        sync.RWMutex
	entries   map[MessageKey]*entry
	lastSweep time.Time
}

// NewStore builds a Store for pages of limit items with the given TTL.
func NewStore(limit int, ttl time.Duration) *Store {
	if limit <= 0 {
		limit = 1
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{
		limit:   limit,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[MessageKey]*entry),
	}
}

// Create binds a fresh session to key, replacing any previous one for the
// same message. Exactly one Create happens per new search.
func (s *Store) Create(key MessageKey, q Query, page search.Page) Session {
	now := s.now()
	fresh := &entry{sess: Session{
		Query:      q,
		Offset:     clampOffset(page.Offset, page.Total, s.limit),
		Total:      page.Total,
		LastAccess: now,
	}}

	s.mu.Lock()
	old := s.entries[key]
	s.entries[key] = fresh
	s.sweepLocked(now)
	s.mu.Unlock()

	if old != nil {
		old.mu.Lock()
		old.gone = true
		old.mu.Unlock()
	}
	return fresh.sess
}

// Get returns the session for key, evicting it first when its TTL lapsed.
func (s *Store) Get(key MessageKey) (Session, error) {
	e := s.lookup(key)
	if e == nil {
		return Session{}, ErrNotFound
	}

	e.mu.Lock()
	if e.gone {
		e.mu.Unlock()
		return Session{}, ErrNotFound
	}
	now := s.now()
	if s.expired(now, e.sess.LastAccess) {
		e.gone = true
		e.mu.Unlock()
		s.drop(key, e)
		return Session{}, ErrExpired
	}
	e.sess.LastAccess = now
	out := e.sess
	e.mu.Unlock()
	return out, nil
}

// Advance commits one navigation step as a compare-and-swap: the update
// applies only when the session still sits at the offset the pressing user
// observed (from). The loser of a race gets the already-updated session back
// with advanced=false and simply redisplays it. The new offset is from+delta
// clamped to the session invariant against the freshest total.
func (s *Store) Advance(key MessageKey, from, delta, total int) (Session, bool, error) {
	e := s.lookup(key)
	if e == nil {
		return Session{}, false, ErrNotFound
	}

	e.mu.Lock()
	if e.gone {
		e.mu.Unlock()
		return Session{}, false, ErrNotFound
	}
	now := s.now()
	if s.expired(now, e.sess.LastAccess) {
		e.gone = true
		e.mu.Unlock()
		s.drop(key, e)
		return Session{}, false, ErrExpired
	}
	e.sess.LastAccess = now

	if e.sess.Offset != from {
		out := e.sess
		e.mu.Unlock()
		return out, false, nil
	}

	target := clampOffset(from+delta, total, s.limit)
	e.sess.Offset = target
	e.sess.Total = total
	out := e.sess
	e.mu.Unlock()
	return out, target != from, nil
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) lookup(key MessageKey) *entry {
	s.mu.RLock()
	e := s.entries[key]
	s.mu.RUnlock()
	return e
}

func (s *Store) drop(key MessageKey, e *entry) {
	s.mu.Lock()
	if cur, ok := s.entries[key]; ok && cur == e {
		delete(s.entries, key)
	}
	s.mu.Unlock()
}

// sweepLocked garbage-collects idle sessions at most once per TTL window.
// Caller holds s.mu.
func (s *Store) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.lastSweep = now
	for key, e := range s.entries {
		e.mu.Lock()
		dead := e.gone || s.expired(now, e.sess.LastAccess)
		if dead {
			e.gone = true
		}
		e.mu.Unlock()
		if dead {
			delete(s.entries, key)
		}
	}
}

func (s *Store) expired(now, lastAccess time.Time) bool {
	return now.Sub(lastAccess) > s.ttl
}

// clampOffset aligns offset to a page boundary within [0, max(total, limit)).
func clampOffset(offset, total, limit int) int {
	if offset < 0 {
		offset = 0
	}
	offset -= offset % limit
	maxExclusive := total
	if maxExclusive < limit {
		maxExclusive = limit
	}
	if offset >= maxExclusive {
		offset = (maxExclusive - 1) / limit * limit
	}
	return offset
}
