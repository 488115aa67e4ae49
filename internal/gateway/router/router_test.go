package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/index"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/searcher/cursor"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/searcher/executor"
	searchhandler "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/metrics"
	pkgmw "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/middleware"
)

func TestRouter_WriteThenSearch(t *testing.T) {
	root := t.TempDir() + "/"
	manager := index.NewManager(config.IndexConfig{RootPath: root, BatchSize: 100})
	cursors := cursor.NewLocalStore(root, 10, time.Hour)
	m := metrics.New(prometheus.NewRegistry())
	exec := executor.New(manager, cursors, config.SearchConfig{DefaultLimit: 10, MaxResults: 100, FragmentSize: 100}, time.Minute, m)
	svc := ingestion.NewService(manager, cursors, nil, m)

	checker := health.NewChecker()
	checker.Register("index_root", health.FromError(func(context.Context) error { return nil }))

	h := New(
		searchhandler.New(exec, 10),
		ingesthandler.New(svc, nil, 1<<20),
		checker,
		m,
		Options{RequestTimeout: 5 * time.Second},
	)

	form := url.Values{
		"indexName":      {"people"},
		"textColumns":    {"bio"},
		"dataListString": {`[{"id":"1","bio":"loves hiking"}]`},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/index/add-records", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(pkgmw.RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/search?indexName=people&searchFieldName=bio&resultFieldNames=id&keyword=hiking", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"code":1,"msg":"success","data":{"total":1,"rows":[["1"]]}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/search", "200")))
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	root := t.TempDir() + "/"
	manager := index.NewManager(config.IndexConfig{RootPath: root, BatchSize: 100})
	exec := executor.New(manager, cursor.NewLocalStore(root, 10, time.Hour), config.SearchConfig{DefaultLimit: 10, MaxResults: 100}, time.Minute, nil)
	h := New(searchhandler.New(exec, 10), ingesthandler.New(ingestion.NewService(manager, nil, nil, nil), nil, 1<<20), health.NewChecker(), nil, Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/index/drop", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
