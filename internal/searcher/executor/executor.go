package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/index"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/searcher/cursor"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/searcher/highlight"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/metrics"
)

// relevance order: score descending, engine document id ascending on ties.
var rankOrder = []string{"-_score", "_id"}

// Request describes one keyword search against a single field.
type Request struct {
	Index        string
	Language     index.Language
	QueryField   string
	OutputFields []string
	Query        string
	PageSize     int
	PreTag       string
	PostTag      string
	Paging       bool
}

// Result holds the rows of one page. Each row carries the requested output
// fields in request order; Total counts every match of the query.
type Result struct {
	Query string     `json:"query"`
	Total uint64     `json:"total"`
	Rows  [][]string `json:"rows"`
}

// Executor runs parsed queries against the shared index readers and keeps
// the scroll cursor of paged searches.
type Executor struct {
	indexes   *index.Manager
	cursors   cursor.Store
	cfg       config.SearchConfig
	cursorTTL time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates an Executor. m may be nil.
func New(indexes *index.Manager, cursors cursor.Store, cfg config.SearchConfig, cursorTTL time.Duration, m *metrics.Metrics) *Executor {
	return &Executor{
		indexes:   indexes,
		cursors:   cursors,
		cfg:       cfg,
		cursorTTL: cursorTTL,
		metrics:   m,
		logger:    slog.Default().With("component", "query-executor"),
	}
}

type rankedHit struct {
	hit      *search.DocumentMatch
	position int
}

// Search runs req. With Paging set the page continues strictly after the
// cursor left by the previous paged search of the same (index, query).
func (e *Executor) Search(ctx context.Context, req Request) (result *Result, err error) {
	start := time.Now()
	defer func() { e.observe(req, result, err, time.Since(start)) }()

	if req.PageSize <= 0 {
		return nil, apperrors.Configf("page size must be positive, got %d", req.PageSize)
	}
	if e.cfg.MaxResults > 0 && req.PageSize > e.cfg.MaxResults {
		req.PageSize = e.cfg.MaxResults
	}
	if len(req.OutputFields) == 0 {
		return nil, apperrors.Configf("at least one output field is required")
	}
	for _, f := range req.OutputFields {
		if strings.TrimSpace(f) == "" {
			return nil, apperrors.Configf("output field names must not be empty")
		}
	}

	plan, err := parser.Parse(req.Query, req.QueryField, req.Language.AnalyzerName())
	if err != nil {
		return nil, err
	}

	idx, err := e.indexes.OpenReader(req.Index, req.Language)
	if err != nil {
		return nil, err
	}
	defer idx.Close()

	var after *cursor.Handle
	if req.Paging {
		after, err = e.cursors.Take(ctx, req.Index, req.Query)
		if err != nil {
			return nil, err
		}
		e.countCursor(after != nil)
	}

	hits, total, err := e.collect(ctx, idx, plan, req, after)
	if err != nil {
		return nil, err
	}

	rows, err := e.rows(hits, plan, req)
	if err != nil {
		return nil, err
	}

	if err := e.cursors.Clear(ctx, req.Index, req.Query); err != nil {
		return nil, err
	}
	if req.Paging && len(hits) > 0 {
		last := hits[len(hits)-1]
		h := cursor.Handle{Position: last.position, Score: last.hit.Score, DocID: last.hit.ID}
		if err := e.cursors.Save(ctx, req.Index, req.Query, h, e.cursorTTL); err != nil {
			return nil, err
		}
	}

	e.logger.Debug("query executed",
		"index", req.Index,
		"query", req.Query,
		"terms", plan.Terms,
		"total", total,
		"returned", len(rows),
		"resumed", after != nil,
	)
	return &Result{Query: req.Query, Total: total, Rows: rows}, nil
}

// collect returns up to req.PageSize hits ranked after the cursor. The cursor
// document is looked up within one page either side of its saved position,
// so a scroll stays aligned when documents ranked above it were added or
// removed since the previous page. If the document is gone the saved
// position is used as is.
func (e *Executor) collect(ctx context.Context, idx bleve.Index, plan *parser.QueryPlan, req Request, after *cursor.Handle) ([]rankedHit, uint64, error) {
	start := 0
	if after != nil {
		start = after.Position + 1
		lo := after.Position - req.PageSize
		if lo < 0 {
			lo = 0
		}
		window, err := e.search(ctx, idx, plan, req, nil, lo, 2*req.PageSize+1)
		if err != nil {
			return nil, 0, err
		}
		for i, hit := range window.Hits {
			if hit.ID == after.DocID {
				start = lo + i + 1
				break
			}
		}
	}

	res, err := e.search(ctx, idx, plan, req, req.OutputFields, start, req.PageSize)
	if err != nil {
		return nil, 0, err
	}
	hits := make([]rankedHit, 0, len(res.Hits))
	for i, hit := range res.Hits {
		hits = append(hits, rankedHit{hit: hit, position: start + i})
	}
	return hits, res.Total, nil
}

func (e *Executor) search(ctx context.Context, idx bleve.Index, plan *parser.QueryPlan, req Request, fields []string, from, size int) (*bleve.SearchResult, error) {
	sr := bleve.NewSearchRequestOptions(plan.Query, size, from, false)
	sr.SortBy(rankOrder)
	sr.Fields = fields
	res, err := idx.SearchInContext(ctx, sr)
	if err != nil {
		return nil, apperrors.Enginef(err, "searching index %q", req.Index)
	}
	return res, nil
}

func (e *Executor) rows(hits []rankedHit, plan *parser.QueryPlan, req Request) ([][]string, error) {
	var hl *highlight.Highlighter
	if highlight.Enabled(req.PreTag, req.PostTag) {
		analyzer, err := req.Language.Analyzer()
		if err != nil {
			return nil, apperrors.Enginef(err, "resolving analyzer")
		}
		hl = highlight.New(analyzer, plan.Terms, e.cfg.FragmentSize, req.PreTag, req.PostTag)
	}

	rows := make([][]string, 0, len(hits))
	for _, h := range hits {
		row := make([]string, len(req.OutputFields))
		for i, field := range req.OutputFields {
			value := storedText(h.hit.Fields[field])
			if hl != nil {
				value = hl.Highlight(value)
			}
			row[i] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// storedText renders a stored field as text. A field stored more than once
// yields its first value.
func storedText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []interface{}:
		if len(t) == 0 {
			return ""
		}
		return storedText(t[0])
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func (e *Executor) countCursor(resumed bool) {
	if e.metrics == nil {
		return
	}
	label := "fresh"
	if resumed {
		label = "resumed"
	}
	e.metrics.CursorTakesTotal.WithLabelValues(label).Inc()
}

func (e *Executor) observe(req Request, result *Result, err error, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	outcome := "hit"
	switch {
	case err != nil:
		outcome = "error"
	case len(result.Rows) == 0:
		outcome = "zero_result"
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(outcome).Inc()
	e.metrics.SearchLatency.WithLabelValues(strconv.FormatBool(req.Paging)).Observe(elapsed.Seconds())
	if result != nil {
		e.metrics.SearchResultsCount.Observe(float64(len(result.Rows)))
	}
}
