package cursor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type localEntry struct {
	handle    Handle
	expiresAt time.Time
}

// LocalStore is an in-process Store for single-node deployments without
// Redis. It holds at most size cursors; the least recently used is evicted
// first.
type LocalStore struct {
	mu     sync.Mutex
	lru    *expirable.LRU[string, localEntry]
	prefix string
	now    func() time.Time
}

// NewLocalStore creates a LocalStore. maxTTL bounds every entry's lifetime
// regardless of the ttl passed to Save.
func NewLocalStore(prefix string, size int, maxTTL time.Duration) *LocalStore {
	return &LocalStore{
		lru:    expirable.NewLRU[string, localEntry](size, nil, maxTTL),
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *LocalStore) Take(_ context.Context, index, query string) (*Handle, error) {
	key := Key(s.prefix, index, query)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lru.Get(key)
	if !ok {
		return nil, nil
	}
	s.lru.Remove(key)
	if !s.now().Before(e.expiresAt) {
		return nil, nil
	}
	h := e.handle
	return &h, nil
}

func (s *LocalStore) Save(_ context.Context, index, query string, h Handle, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Add(Key(s.prefix, index, query), localEntry{handle: h, expiresAt: s.now().Add(ttl)})
	return nil
}

func (s *LocalStore) Clear(_ context.Context, index, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Remove(Key(s.prefix, index, query))
	return nil
}

func (s *LocalStore) ClearIndex(_ context.Context, index string) (int64, error) {
	prefix := s.prefix + index + "_"
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for _, key := range s.lru.Keys() {
		if strings.HasPrefix(key, prefix) && s.lru.Remove(key) {
			deleted++
		}
	}
	return deleted, nil
}
