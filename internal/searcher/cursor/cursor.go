// Package cursor keeps the scroll position of paged searches in an external
// cache. A cursor is keyed by (index, raw query text), consumed on read and
// expires when a scroll is abandoned.
package cursor

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Handle marks the last hit returned to a paged search.
type Handle struct {
	// Position is the zero-based rank of the hit in the full result list.
	Position int
	Score    float64
	DocID    string
}

// Store persists cursors. Implementations must make Take and Save atomic with
// respect to each other for the same key.
type Store interface {
	// Take returns and removes the cursor for (index, query). A missing or
	// incomplete cursor yields (nil, nil).
	Take(ctx context.Context, index, query string) (*Handle, error)
	// Save replaces the cursor for (index, query) and restarts its TTL.
	Save(ctx context.Context, index, query string, h Handle, ttl time.Duration) error
	// Clear removes the cursor for (index, query).
	Clear(ctx context.Context, index, query string) error
	// ClearIndex removes every cursor belonging to index.
	ClearIndex(ctx context.Context, index string) (int64, error)
}

// Key composes the cache key for (index, query) under prefix, which is the
// configured index root path.
func Key(prefix, index, query string) string {
	return prefix + index + "_" + query
}

func encode(h Handle) []string {
	return []string{
		strconv.Itoa(h.Position),
		strconv.FormatFloat(h.Score, 'g', -1, 64),
		h.DocID,
	}
}

// decode rebuilds a Handle from its stored parts. Anything other than exactly
// three well-formed parts is treated as no cursor.
func decode(parts []string) (*Handle, bool) {
	if len(parts) != 3 || parts[2] == "" {
		return nil, false
	}
	pos, err := strconv.Atoi(parts[0])
	if err != nil || pos < 0 {
		return nil, false
	}
	score, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, false
	}
	return &Handle{Position: pos, Score: score, DocID: parts[2]}, true
}

// globEscape escapes the Redis glob metacharacters in s.
func globEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
