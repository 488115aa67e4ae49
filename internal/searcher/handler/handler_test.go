package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/index"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/searcher/cursor"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/config"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
	Kind string          `json:"kind"`
}

func newMux(t *testing.T) *http.ServeMux {
	t.Helper()
	root := t.TempDir() + "/"
	manager := index.NewManager(config.IndexConfig{RootPath: root, BatchSize: 100})
	docs, err := index.MapRows([][]string{
		{"id", "name", "bio"},
		{"1", "Ann", "loves hiking and photography"},
		{"2", "Bob", "enjoys cooking"},
		{"3", "Cid", "hiking guide"},
	}, []int{2})
	require.NoError(t, err)
	require.NoError(t, manager.AddAll(context.Background(), "people", index.LanguageDefault, docs))

	exec := executor.New(manager, cursor.NewLocalStore(root, 10, time.Hour),
		config.SearchConfig{DefaultLimit: 10, MaxResults: 100, FragmentSize: 100}, time.Minute, nil)
	mux := http.NewServeMux()
	New(exec, 10).Register(mux)
	return mux
}

func get(t *testing.T, mux http.Handler, path string, params url.Values) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path+"?"+params.Encode(), nil))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestSearch(t *testing.T) {
	mux := newMux(t)
	status, env := get(t, mux, "/api/v1/search", url.Values{
		"indexName":        {"people"},
		"searchFieldName":  {"bio"},
		"resultFieldNames": {"id, name"},
		"keyword":          {"hiking"},
		"num":              {"10"},
		"isChinese":        {"0"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, env.Code)

	var data SearchResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, uint64(2), data.Total)
	assert.ElementsMatch(t, [][]string{{"1", "Ann"}, {"3", "Cid"}}, data.Rows)
}

func TestSearch_NoMatchesIsEmptyList(t *testing.T) {
	mux := newMux(t)
	_, env := get(t, mux, "/api/v1/search", url.Values{
		"indexName":        {"people"},
		"searchFieldName":  {"bio"},
		"resultFieldNames": {"id"},
		"keyword":          {"sailing"},
	})
	assert.JSONEq(t, `{"total":0,"rows":[]}`, string(env.Data))
}

func TestSearch_Errors(t *testing.T) {
	mux := newMux(t)
	base := func() url.Values {
		return url.Values{
			"indexName":        {"people"},
			"searchFieldName":  {"bio"},
			"resultFieldNames": {"id"},
			"keyword":          {"hiking"},
		}
	}
	tests := []struct {
		name   string
		edit   func(url.Values)
		status int
		kind   string
	}{
		{"missing index name", func(v url.Values) { v.Del("indexName") }, http.StatusBadRequest, "ConfigurationError"},
		{"missing field", func(v url.Values) { v.Del("searchFieldName") }, http.StatusBadRequest, "ConfigurationError"},
		{"missing result fields", func(v url.Values) { v.Del("resultFieldNames") }, http.StatusBadRequest, "ConfigurationError"},
		{"bad num", func(v url.Values) { v.Set("num", "zero") }, http.StatusBadRequest, "ConfigurationError"},
		{"bad language", func(v url.Values) { v.Set("isChinese", "2") }, http.StatusBadRequest, "ConfigurationError"},
		{"unknown index", func(v url.Values) { v.Set("indexName", "nobody") }, http.StatusNotFound, "IndexNotFound"},
		{"bad query", func(v url.Values) { v.Set("keyword", `"unterminated`) }, http.StatusBadRequest, "QuerySyntaxError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := base()
			tt.edit(params)
			status, env := get(t, mux, "/api/v1/search", params)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, 0, env.Code)
			assert.Equal(t, tt.kind, env.Kind)
		})
	}
}

func TestSuggest_PagesThroughMatches(t *testing.T) {
	mux := newMux(t)
	params := url.Values{
		"indexName":       {"people"},
		"searchFieldName": {"bio"},
		"keyword":         {"hiking"},
		"num":             {"1"},
		"paging":          {"1"},
		"preTag":          {"<b>"},
		"postTag":         {"</b>"},
	}

	var seen []string
	for i := 0; i < 2; i++ {
		status, env := get(t, mux, "/api/v1/suggest", params)
		require.Equal(t, http.StatusOK, status)
		var values []string
		require.NoError(t, json.Unmarshal(env.Data, &values))
		require.Len(t, values, 1)
		assert.Contains(t, values[0], "<b>hiking</b>")
		seen = append(seen, values[0])
	}
	assert.NotEqual(t, seen[0], seen[1])
}
