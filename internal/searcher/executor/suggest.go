package executor

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/index"
)

// SuggestRequest searches one field and returns only that field's values.
type SuggestRequest struct {
	Index    string
	Language index.Language
	Field    string
	Query    string
	PageSize int
	PreTag   string
	PostTag  string
	Paging   bool
}

// Searcher is the part of Executor a Suggester needs.
type Searcher interface {
	Search(ctx context.Context, req Request) (*Result, error)
}

type Suggester struct {
	searcher Searcher
}

func NewSuggester(s Searcher) *Suggester {
	return &Suggester{searcher: s}
}

// Suggest returns the matched values of req.Field in relevance order.
func (s *Suggester) Suggest(ctx context.Context, req SuggestRequest) ([]string, error) {
	res, err := s.searcher.Search(ctx, Request{
		Index:        req.Index,
		Language:     req.Language,
		QueryField:   req.Field,
		OutputFields: []string{req.Field},
		Query:        req.Query,
		PageSize:     req.PageSize,
		PreTag:       req.PreTag,
		PostTag:      req.PostTag,
		Paging:       req.Paging,
	})
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		values = append(values, row[0])
	}
	return values, nil
}
