package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSessionTTL is how long an idle session is kept when no lifetime is
// configured.
const DefaultSessionTTL = 30 * time.Minute

// Sessions hands out the cache of one browsing session. Opening a session
// stores nothing; a session exists from its first write until it has been
// idle for the store's lifetime or is ended.
type Sessions interface {
	Open(ctx context.Context, sessionID string) (Cache, error)
	End(ctx context.Context, sessionID string) error
}

// RedisSessions keeps each session in its own hash; see Redis.
type RedisSessions struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSessions expires sessions after ttl of idle time, DefaultSessionTTL
// when ttl is not positive.
func NewRedisSessions(rdb *redis.Client, ttl time.Duration) *RedisSessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessions{rdb: rdb, ttl: ttl}
}

// Open refreshes the session lifetime. The returned cache is usable even
// when the refresh fails.
func (s *RedisSessions) Open(ctx context.Context, sessionID string) (Cache, error) {
	c := NewRedis(s.rdb, sessionID, s.ttl)
	return c, c.Touch(ctx)
}

func (s *RedisSessions) End(ctx context.Context, sessionID string) error {
	return NewRedis(s.rdb, sessionID, s.ttl).End(ctx)
}

type memoryEntry struct {
	mem  *Memory
	seen time.Time
}

// MemorySessions keeps sessions in process. A session idle for longer than
// the lifetime reads as empty and is dropped by Purge.
type MemorySessions struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*memoryEntry
	now      func() time.Time
}

// NewMemorySessions expires sessions after ttl of idle time, DefaultSessionTTL
// when ttl is not positive.
func NewMemorySessions(ttl time.Duration) *MemorySessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessions{ttl: ttl, sessions: make(map[string]*memoryEntry), now: time.Now}
}

// live returns the entry for id, dropping it if it has gone idle. s.mu must be held.
func (s *MemorySessions) live(id string) *memoryEntry {
	e, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if s.now().Sub(e.seen) > s.ttl {
		delete(s.sessions, id)
		return nil
	}
	return e
}

func (s *MemorySessions) Open(_ context.Context, sessionID string) (Cache, error) {
	s.mu.Lock()
	if e := s.live(sessionID); e != nil {
		e.seen = s.now()
	}
	s.mu.Unlock()
	return memorySession{s: s, id: sessionID}, nil
}

func (s *MemorySessions) End(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// Purge drops idle sessions and reports how many went.
func (s *MemorySessions) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id := range s.sessions {
		if s.live(id) == nil {
			n++
		}
	}
	return n
}

// Len is the number of sessions held, idle ones included until purged.
func (s *MemorySessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

type memorySession struct {
	s  *MemorySessions
	id string
}

func (m memorySession) Get(ctx context.Context, key string) ([]byte, error) {
	m.s.mu.Lock()
	e := m.s.live(m.id)
	if e == nil {
		m.s.mu.Unlock()
		return nil, ErrMiss
	}
	e.seen = m.s.now()
	mem := e.mem
	m.s.mu.Unlock()
	return mem.Get(ctx, key)
}

func (m memorySession) Set(ctx context.Context, key string, value []byte) error {
	m.s.mu.Lock()
	e := m.s.live(m.id)
	if e == nil {
		e = &memoryEntry{mem: NewMemory()}
		m.s.sessions[m.id] = e
	}
	e.seen = m.s.now()
	mem := e.mem
	m.s.mu.Unlock()
	return mem.Set(ctx, key, value)
}

// Lazy is the cache of a session that has only just been created. Reads
// miss without touching the store; the session is opened on the first write.
type Lazy struct {
	mu       sync.Mutex
	sessions Sessions
	id       string
	c        Cache
}

func NewLazy(sessions Sessions, sessionID string) *Lazy {
	return &Lazy{sessions: sessions, id: sessionID}
}

func (l *Lazy) Get(ctx context.Context, key string) ([]byte, error) {
	l.mu.Lock()
	c := l.c
	l.mu.Unlock()
	if c == nil {
		return nil, ErrMiss
	}
	return c.Get(ctx, key)
}

func (l *Lazy) Set(ctx context.Context, key string, value []byte) error {
	l.mu.Lock()
	if l.c == nil {
		// a failed refresh still leaves a usable cache; only a missing one is fatal
		c, err := l.sessions.Open(ctx, l.id)
		if c == nil {
			l.mu.Unlock()
			if err == nil {
				err = errors.New("cache: session did not open")
			}
			return err
		}
		l.c = c
	}
	c := l.c
	l.mu.Unlock()
	return c.Set(ctx, key, value)
}
