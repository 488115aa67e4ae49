package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/index"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/response"
)

// SearchExecutor runs keyword searches.
type SearchExecutor interface {
	Search(ctx context.Context, req executor.Request) (*executor.Result, error)
}

// Handler serves the search and suggest endpoints.
type Handler struct {
	executor     SearchExecutor
	suggester    *executor.Suggester
	defaultLimit int
	logger       *slog.Logger
}

// New creates a Handler. defaultLimit is the page size used when a request
// does not set num.
func New(exec SearchExecutor, defaultLimit int) *Handler {
	return &Handler{
		executor:     exec,
		suggester:    executor.NewSuggester(exec),
		defaultLimit: defaultLimit,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Register mounts the search routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/suggest", h.Suggest)
}

// SearchResponse is the data of a search reply.
type SearchResponse struct {
	Total uint64     `json:"total"`
	Rows  [][]string `json:"rows"`
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	common, err := h.commonParams(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	fields := splitList(r.FormValue("resultFieldNames"))
	if len(fields) == 0 {
		response.Error(w, apperrors.Configf("resultFieldNames is required"))
		return
	}

	req := executor.Request{
		Index:        common.index,
		Language:     common.lang,
		QueryField:   common.field,
		OutputFields: fields,
		Query:        common.keyword,
		PageSize:     common.num,
		PreTag:       common.preTag,
		PostTag:      common.postTag,
		Paging:       common.paging,
	}
	result, err := h.executor.Search(ctx, req)
	if err != nil {
		log.Warn("search failed", "index", req.Index, "query", req.Query, "error", err)
		response.Error(w, err)
		return
	}

	log.Info("search completed",
		"index", req.Index,
		"query", req.Query,
		"total_hits", result.Total,
		"returned", len(result.Rows),
		"paging", req.Paging,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	rows := result.Rows
	if rows == nil {
		rows = [][]string{}
	}
	response.OK(w, http.StatusOK, SearchResponse{Total: result.Total, Rows: rows})
}

func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	common, err := h.commonParams(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	values, err := h.suggester.Suggest(ctx, executor.SuggestRequest{
		Index:    common.index,
		Language: common.lang,
		Field:    common.field,
		Query:    common.keyword,
		PageSize: common.num,
		PreTag:   common.preTag,
		PostTag:  common.postTag,
		Paging:   common.paging,
	})
	if err != nil {
		logger.FromContext(ctx).Warn("suggest failed", "index", common.index, "error", err)
		response.Error(w, err)
		return
	}
	response.OK(w, http.StatusOK, values)
}

type searchParams struct {
	index   string
	lang    index.Language
	field   string
	keyword string
	num     int
	preTag  string
	postTag string
	paging  bool
}

func (h *Handler) commonParams(r *http.Request) (searchParams, error) {
	p := searchParams{
		index:   strings.TrimSpace(r.FormValue("indexName")),
		field:   strings.TrimSpace(r.FormValue("searchFieldName")),
		keyword: r.FormValue("keyword"),
		preTag:  r.FormValue("preTag"),
		postTag: r.FormValue("postTag"),
		paging:  flag(r.FormValue("paging")),
		num:     h.defaultLimit,
	}
	if err := index.ValidateName(p.index); err != nil {
		return p, err
	}
	if p.field == "" {
		return p, apperrors.Configf("searchFieldName is required")
	}
	lang, err := index.ParseLanguage(r.FormValue("isChinese"))
	if err != nil {
		return p, err
	}
	p.lang = lang
	if v := r.FormValue("num"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, apperrors.Configf("num must be a positive integer, got %q", v)
		}
		p.num = n
	}
	return p, nil
}

func flag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
