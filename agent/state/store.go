package state

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrInvalidSession = errors.New("session id is empty")
)

const DefaultMaxHistory = 50

// Store owns every session. Sessions are created on first touch and mutated
// only through Append and SetDecision.
//
// Concurrency contract: callers hold the per-session lock from Lock for the
// whole turn, so turns on one session are serialized while distinct sessions
// proceed fully in parallel.
type Store interface {
	GetOrCreate(ctx context.Context, sessionID string) (*Session, error)
	Append(ctx context.Context, sessionID string, m Message) error
	SetDecision(ctx context.Context, sessionID string, d RoutingDecision) error
	Lock(sessionID string) (unlock func())
}

// keyedMutex serializes access per key while leaving distinct keys
// independent. Mutexes are kept for the store's lifetime; session counts are
// bounded by the retention policy above this layer.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

func (k *keyedMutex) lock(key string) func() {
	m := k.get(key)
	m.Lock()
	return m.Unlock
}

// MemoryStore is the in-process Store. External policies (TTL caches) may
// wrap it; the core stays oblivious to eviction.
type MemoryStore struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	locks      keyedMutex
	maxHistory int
	now        func() time.Time
}

type MemoryOption func(*MemoryStore)

func WithMaxHistory(n int) MemoryOption {
	return func(s *MemoryStore) {
		s.maxHistory = n
	}
}

func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		sessions:   make(map[string]*Session),
		maxHistory: DefaultMaxHistory,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore) GetOrCreate(ctx context.Context, sessionID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = NewSession(sessionID, s.now())
		s.sessions[sessionID] = sess
	}
	sess.Touch(s.now())
	return sess.Clone(), nil
}

func (s *MemoryStore) Append(ctx context.Context, sessionID string, m Message) error {
	return s.mutate(sessionID, func(sess *Session) {
		sess.AppendMessage(m, s.maxHistory)
	})
}

func (s *MemoryStore) SetDecision(ctx context.Context, sessionID string, d RoutingDecision) error {
	return s.mutate(sessionID, func(sess *Session) {
		sess.LastDecision = &d
	})
}

func (s *MemoryStore) Lock(sessionID string) func() {
	return s.locks.lock(sessionID)
}

// Len reports the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) mutate(sessionID string, fn func(*Session)) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = NewSession(sessionID, s.now())
		s.sessions[sessionID] = sess
	}
	fn(sess)
	sess.Touch(s.now())
	return nil
}
