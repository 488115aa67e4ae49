package cursor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
	pkgredis "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/redis"
)

// RedisStore keeps each cursor as a three element list
// [position, score, docID]. Take runs as one script and Save as one
// MULTI/EXEC, so readers never observe a partial tuple.
type RedisStore struct {
	client *pkgredis.Client
	prefix string
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisStore creates a RedisStore whose keys start with prefix.
func NewRedisStore(client *pkgredis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: slog.Default().With("component", "cursor-store"),
	}
}

func (s *RedisStore) Take(ctx context.Context, index, query string) (*Handle, error) {
	key := Key(s.prefix, index, query)
	parts, err := s.client.TakeList(ctx, key)
	if err != nil {
		return nil, apperrors.Cachef(err, "taking cursor")
	}
	h, ok := decode(parts)
	if !ok {
		if len(parts) > 0 {
			s.logger.Warn("discarding incomplete cursor", "key", key, "parts", len(parts))
		}
		s.misses.Add(1)
		return nil, nil
	}
	s.hits.Add(1)
	s.logger.Debug("cursor taken", "key", key, "position", h.Position)
	return h, nil
}

func (s *RedisStore) Save(ctx context.Context, index, query string, h Handle, ttl time.Duration) error {
	if err := s.client.ReplaceList(ctx, Key(s.prefix, index, query), encode(h), ttl); err != nil {
		return apperrors.Cachef(err, "saving cursor")
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, index, query string) error {
	if err := s.client.Del(ctx, Key(s.prefix, index, query)); err != nil {
		return apperrors.Cachef(err, "clearing cursor")
	}
	return nil
}

// ClearIndex removes the cursors of index. Keys are matched by the
// "<prefix><index>_" prefix, so an index whose name extends index with an
// underscore loses its cursors too; those scrolls restart from the top.
func (s *RedisStore) ClearIndex(ctx context.Context, index string) (int64, error) {
	pattern := globEscape(s.prefix+index+"_") + "*"
	deleted, err := s.client.FlushByPattern(ctx, pattern)
	if err != nil {
		return deleted, apperrors.Cachef(err, "clearing cursors of %q", index)
	}
	s.logger.Info("cursors invalidated", "index", index, "keys_deleted", deleted)
	return deleted, nil
}

// Prefix returns the key prefix of every cursor.
func (s *RedisStore) Prefix() string {
	return s.prefix
}

// Stats returns how many Take calls found a cursor and how many did not.
func (s *RedisStore) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}
