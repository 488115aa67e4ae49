package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/document"
	bleveindex "github.com/blevesearch/bleve_index_api"
	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
)

// page size used when collecting documents that match a delete term.
const lookupPageSize = 1000

const (
	freeTextOptions = bleveindex.IndexField | bleveindex.StoreField | bleveindex.IncludeTermVectors
	exactOptions    = bleveindex.IndexField | bleveindex.StoreField
)

// Manager opens write sessions and read handles on the indices under one
// Location. Every caller of the same index shares one engine instance, opened
// on first use and closed when the last caller releases it, so a search never
// waits on a writer and a writer never waits on searches.
type Manager struct {
	loc    Location
	cfg    config.IndexConfig
	logger *slog.Logger

	mu   sync.Mutex
	open map[string]*shared
}

// shared is one open engine instance and the callers currently using it.
type shared struct {
	idx    bleve.Index
	refs   int
	closed bool
	// single write session per index; see acquireWriter
	writer chan struct{}
}

// NewManager creates a Manager for the indices under cfg.RootPath.
func NewManager(cfg config.IndexConfig) *Manager {
	return &Manager{
		loc:    NewLocation(cfg.RootPath),
		cfg:    cfg,
		logger: slog.Default().With("component", "index-manager"),
		open:   make(map[string]*shared),
	}
}

// Location returns the name to directory mapping used by m.
func (m *Manager) Location() Location {
	return m.loc
}

// Write opens (creating on first use) the named index for writing, runs fn
// against it and releases the writer exactly once on every exit path. Pending
// documents are committed when fn returns. A close failure is joined with any
// error returned by fn.
func (m *Manager) Write(ctx context.Context, name string, lang Language, fn func(*Session) error) (err error) {
	s, err := m.openSession(ctx, name, lang)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	s.ctx = ctx
	return fn(s)
}

func (m *Manager) openSession(ctx context.Context, name string, lang Language) (*Session, error) {
	sh, err := m.acquire(name, lang, true)
	if err != nil {
		return nil, err
	}
	if err := m.acquireWriter(ctx, name, sh); err != nil {
		m.release(name, sh)
		return nil, err
	}
	fail := func(err error) (*Session, error) {
		<-sh.writer
		m.release(name, sh)
		return nil, err
	}

	textAnalyzer, err := lang.Analyzer()
	if err != nil {
		return fail(apperrors.Enginef(err, "resolving analyzer for %q", name))
	}
	keywordAnalyzer, err := exactAnalyzer()
	if err != nil {
		return fail(apperrors.Enginef(err, "resolving exact analyzer"))
	}

	return &Session{
		manager:  m,
		shared:   sh,
		name:     name,
		idx:      sh.idx,
		batch:    sh.idx.NewBatch(),
		maxBatch: m.cfg.BatchSize,
		text:     textAnalyzer,
		exact:    keywordAnalyzer,
		logger:   m.logger.With("index", name),
	}, nil
}

// acquireWriter waits until no other session writes to sh. It gives up after
// index.lockTimeout when one is configured, or when ctx ends.
func (m *Manager) acquireWriter(ctx context.Context, name string, sh *shared) error {
	select {
	case sh.writer <- struct{}{}:
		return nil
	default:
	}

	var timeout <-chan time.Time
	if m.cfg.LockTimeout > 0 {
		t := time.NewTimer(m.cfg.LockTimeout)
		defer t.Stop()
		timeout = t.C
	}
	m.logger.Debug("waiting for running write session", "index", name)
	select {
	case sh.writer <- struct{}{}:
		return nil
	case <-timeout:
		return apperrors.Enginef(fmt.Errorf("timeout after %s", m.cfg.LockTimeout), "opening index %q for writing", name)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OpenReader returns a read handle on an existing index. Callers must Close
// it. The stored language, when present, must equal lang. Every search on the
// handle runs against the latest committed snapshot, so documents still
// buffered by a write session are never seen.
func (m *Manager) OpenReader(name string, lang Language) (bleve.Index, error) {
	sh, err := m.acquire(name, lang, false)
	if err != nil {
		return nil, err
	}
	return &reader{engine: sh.idx, release: func() { m.release(name, sh) }}, nil
}

// acquire returns the shared instance of the named index, opening it when no
// caller holds it yet. With create set a missing index is created; otherwise
// it is reported as IndexNotFound.
func (m *Manager) acquire(name string, lang Language, create bool) (*shared, error) {
	path, err := m.loc.Path(name)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sh, ok := m.open[name]
	if !ok {
		idx, err := m.openEngine(name, path, lang, create)
		if err != nil {
			return nil, err
		}
		sh = &shared{idx: idx, writer: make(chan struct{}, 1)}
		m.open[name] = sh
	}
	if err := checkLanguage(sh.idx, lang, create); err != nil {
		if sh.refs == 0 {
			m.closeLocked(name, sh)
		}
		return nil, err
	}
	sh.refs++
	return sh, nil
}

func (m *Manager) openEngine(name, path string, lang Language, create bool) (bleve.Index, error) {
	if !create {
		exists, err := m.loc.Exists(name)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.Newf(apperrors.ErrIndexNotFound, http.StatusNotFound, "index %q does not exist", name)
		}
	} else if err := os.MkdirAll(m.loc.Root(), 0755); err != nil {
		return nil, apperrors.Enginef(err, "creating index root %s", m.loc.Root())
	}

	idx, err := bleve.OpenUsing(path, m.runtimeConfig())
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		if !create {
			return nil, apperrors.Newf(apperrors.ErrIndexNotFound, http.StatusNotFound, "index %q does not exist", name)
		}
		idx, err = bleve.New(path, lang.newMapping())
		if err == nil {
			m.logger.Info("index created", "index", name, "language", lang)
		}
	}
	if err != nil {
		return nil, apperrors.Enginef(err, "opening index %q", name)
	}
	m.logger.Debug("index opened", "index", name)
	return idx, nil
}

// release drops one reference to sh and closes the instance with the last one.
func (m *Manager) release(name string, sh *shared) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sh.refs--
	if sh.refs > 0 {
		return nil
	}
	return m.closeLocked(name, sh)
}

func (m *Manager) closeLocked(name string, sh *shared) error {
	// a dropped index may already have been replaced by a new instance
	if m.open[name] == sh {
		delete(m.open, name)
	}
	if sh.closed {
		return nil
	}
	sh.closed = true
	if err := sh.idx.Close(); err != nil {
		m.logger.Warn("closing index failed", "index", name, "error", err)
		return apperrors.Enginef(err, "closing index %q", name)
	}
	m.logger.Debug("index closed", "index", name)
	return nil
}

// reader is the handle returned by OpenReader. Close releases the shared
// instance instead of closing it.
type reader struct {
	engine
	once    sync.Once
	release func()
}

// engine names the embedded bleve.Index so the field does not collide with
// the promoted Index method.
type engine = bleve.Index

func (r *reader) Close() error {
	r.once.Do(r.release)
	return nil
}

// Drop removes the whole index directory. It reports whether anything was
// removed. The shared instance is closed at once, so searches and write
// sessions still holding it fail with an engine error; the next write starts a
// new index.
func (m *Manager) Drop(_ context.Context, name string) (bool, error) {
	path, err := m.loc.Path(name)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if sh, ok := m.open[name]; ok {
		_ = m.closeLocked(name, sh)
	}
	exists, err := m.loc.Exists(name)
	if err != nil || !exists {
		return false, err
	}
	if err := os.RemoveAll(path); err != nil {
		return false, apperrors.Enginef(err, "removing index %q", name)
	}
	m.logger.Info("index dropped", "index", name)
	return true, nil
}

// bolt_timeout bounds the wait on another process holding the index files.
func (m *Manager) runtimeConfig() map[string]interface{} {
	rc := map[string]interface{}{}
	if m.cfg.LockTimeout > 0 {
		rc["bolt_timeout"] = m.cfg.LockTimeout.String()
	}
	return rc
}

// Session is a write handle scoped to one Manager.Write call.
type Session struct {
	manager  *Manager
	shared   *shared
	ctx      context.Context
	name     string
	idx      bleve.Index
	batch    *bleve.Batch
	maxBatch int
	text     analysis.Analyzer
	exact    analysis.Analyzer
	logger   *slog.Logger

	added   int
	deleted int
}

// Add indexes doc under a freshly generated document id.
func (s *Session) Add(doc Document) error {
	if err := s.batch.IndexAdvanced(s.toEngine(uuid.NewString(), doc)); err != nil {
		return apperrors.Enginef(err, "adding document to %q", s.name)
	}
	s.added++
	return s.maybeFlush()
}

// Update removes every document whose keyField equals doc's value for that
// field and then adds doc. A doc without the key field is added as is.
func (s *Session) Update(keyField string, doc Document) error {
	if value, ok := doc.Value(keyField); ok {
		if _, err := s.DeleteWhere(keyField, value); err != nil {
			return err
		}
	}
	return s.Add(doc)
}

// DeleteWhere removes every document whose field holds exactly value and
// returns how many were matched.
func (s *Session) DeleteWhere(field, value string) (int, error) {
	// Pending adds must be visible to the lookup below.
	if err := s.flush(); err != nil {
		return 0, err
	}
	ids, err := s.lookup(field, value)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.batch.Delete(id)
	}
	s.deleted += len(ids)
	if len(ids) > 0 {
		if err := s.flush(); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

func (s *Session) lookup(field, value string) ([]string, error) {
	q := bleve.NewTermQuery(value)
	q.SetField(field)

	var ids []string
	for from := 0; ; from += lookupPageSize {
		req := bleve.NewSearchRequestOptions(q, lookupPageSize, from, false)
		req.SortBy([]string{"_id"})
		res, err := s.idx.SearchInContext(s.context(), req)
		if err != nil {
			return nil, apperrors.Enginef(err, "looking up %s=%q in %q", field, value, s.name)
		}
		for _, hit := range res.Hits {
			ids = append(ids, hit.ID)
		}
		if len(res.Hits) < lookupPageSize {
			return ids, nil
		}
	}
}

func (s *Session) toEngine(id string, doc Document) *document.Document {
	d := document.NewDocument(id)
	for _, f := range doc.Fields {
		if f.Kind == FreeText {
			d.AddField(document.NewTextFieldCustom(f.Name, nil, []byte(f.Value), freeTextOptions, s.text))
			continue
		}
		d.AddField(document.NewTextFieldCustom(f.Name, nil, []byte(f.Value), exactOptions, s.exact))
	}
	return d
}

func (s *Session) maybeFlush() error {
	if s.batch.Size() < s.maxBatch {
		return nil
	}
	s.logger.Debug("batch reached max size, flushing", "size", s.batch.Size(), "threshold", s.maxBatch)
	return s.flush()
}

func (s *Session) flush() error {
	if s.batch.Size() == 0 {
		return nil
	}
	if err := s.idx.Batch(s.batch); err != nil {
		return apperrors.Enginef(err, "flushing batch to %q", s.name)
	}
	s.batch.Reset()
	return nil
}

func (s *Session) context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// close commits whatever is pending, ends the write session and releases the
// shared instance. The instance is released even when the final flush fails.
func (s *Session) close() error {
	flushErr := s.flush()
	<-s.shared.writer
	releaseErr := s.manager.release(s.name, s.shared)
	s.logger.Info("write session closed", "added", s.added, "deleted", s.deleted)
	return errors.Join(flushErr, releaseErr)
}

// AddAll writes docs to the named index in one session.
func (m *Manager) AddAll(ctx context.Context, name string, lang Language, docs []Document) error {
	return m.Write(ctx, name, lang, func(s *Session) error {
		for i, doc := range docs {
			if err := s.Add(doc); err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
		}
		return nil
	})
}

// UpdateAll upserts docs by keyField in one session.
func (m *Manager) UpdateAll(ctx context.Context, name string, lang Language, keyField string, docs []Document) error {
	return m.Write(ctx, name, lang, func(s *Session) error {
		for i, doc := range docs {
			if err := s.Update(keyField, doc); err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
		}
		return nil
	})
}

// DeleteWhere removes every document of the named index whose field equals
// value. Exact terms are not analysed, so the index language is not checked.
// A missing index has nothing to delete and is left uncreated.
func (m *Manager) DeleteWhere(ctx context.Context, name string, field, value string) (int, error) {
	exists, err := m.loc.Exists(name)
	if err != nil || !exists {
		return 0, err
	}
	var n int
	err = m.Write(ctx, name, LanguageAny, func(s *Session) error {
		var err error
		n, err = s.DeleteWhere(field, value)
		return err
	})
	return n, err
}
