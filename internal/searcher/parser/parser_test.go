package parser

import (
	"testing"

	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
)

func TestParse_SingleTerm(t *testing.T) {
	plan, err := Parse("hiking", "bio", "simple")
	require.NoError(t, err)

	q, ok := plan.Query.(*query.MatchQuery)
	require.True(t, ok)
	assert.Equal(t, "hiking", q.Match)
	assert.Equal(t, "bio", q.Field())
	assert.Equal(t, "simple", q.Analyzer)
	assert.Equal(t, []string{"hiking"}, plan.Terms)
	assert.Equal(t, "hiking", plan.RawQuery)
}

func TestParse_Phrase(t *testing.T) {
	plan, err := Parse(`"mountain hiking"`, "bio", "simple")
	require.NoError(t, err)

	q, ok := plan.Query.(*query.MatchPhraseQuery)
	require.True(t, ok)
	assert.Equal(t, "mountain hiking", q.MatchPhrase)
	assert.Equal(t, []string{"mountain hiking"}, plan.Terms)
}

func TestParse_BooleanOperators(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantTerms    []string
		wantExcluded []string
		wantMust     int
		wantMustNot  int
	}{
		{"default or", "hiking photo", []string{"hiking", "photo"}, nil, 1, 0},
		{"and", "hiking AND photo", []string{"hiking", "photo"}, nil, 2, 0},
		{"symbolic and", "hiking && photo", []string{"hiking", "photo"}, nil, 2, 0},
		{"or", "hiking || photo", []string{"hiking", "photo"}, nil, 1, 0},
		{"not", "hiking NOT photo", []string{"hiking"}, []string{"photo"}, 1, 1},
		{"minus", "hiking -photo", []string{"hiking"}, []string{"photo"}, 1, 1},
		{"bang", "hiking !photo", []string{"hiking"}, []string{"photo"}, 1, 1},
		{"plus", "+hiking photo", []string{"hiking", "photo"}, nil, 1, 0},
		{"group", "(hiking OR sailing) AND photo", []string{"hiking", "sailing", "photo"}, nil, 2, 0},
		{"negated group", "photo -(hiking sailing)", []string{"photo"}, []string{"hiking", "sailing"}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Parse(tt.input, "bio", "simple")
			require.NoError(t, err)
			assert.Equal(t, tt.wantTerms, plan.Terms)
			assert.Equal(t, tt.wantExcluded, plan.ExcludeTerms)

			bq, ok := plan.Query.(*query.BooleanQuery)
			require.True(t, ok, "expected boolean query, got %T", plan.Query)
			if tt.wantMust > 0 {
				must, ok := bq.Must.(*query.ConjunctionQuery)
				require.True(t, ok)
				assert.Len(t, must.Conjuncts, tt.wantMust)
			}
			if tt.wantMustNot > 0 {
				mustNot, ok := bq.MustNot.(*query.DisjunctionQuery)
				require.True(t, ok)
				assert.Len(t, mustNot.Disjuncts, tt.wantMustNot)
			} else {
				assert.Nil(t, bq.MustNot)
			}
		})
	}
}

func TestParse_OnlyExclusionsMatchNothing(t *testing.T) {
	plan, err := Parse("NOT hiking", "bio", "simple")
	require.NoError(t, err)
	_, ok := plan.Query.(*query.MatchNoneQuery)
	assert.True(t, ok)
	assert.Empty(t, plan.Terms)
	assert.Equal(t, []string{"hiking"}, plan.ExcludeTerms)
}

func TestParse_EscapedOperatorIsAWord(t *testing.T) {
	plan, err := Parse(`\-40 e-mail`, "bio", "simple")
	require.NoError(t, err)
	assert.Equal(t, []string{"-40", "e-mail"}, plan.Terms)
}

func TestParse_EscapedKeywordIsATerm(t *testing.T) {
	for _, kw := range []string{"AND", "OR", "NOT"} {
		t.Run(kw, func(t *testing.T) {
			plan, err := Parse(`hiking \`+kw+` photo`, "bio", "simple")
			require.NoError(t, err)
			assert.Equal(t, []string{"hiking", kw, "photo"}, plan.Terms)
		})
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	for _, input := range []string{
		"",
		"   ",
		`"unterminated`,
		`""`,
		"(hiking",
		"hiking)",
		"()",
		"AND hiking",
		"hiking AND",
		"hiking OR OR photo",
		"hiking -",
		"NOT",
		"a & b",
	} {
		_, err := Parse(input, "bio", "simple")
		require.Error(t, err, input)
		assert.ErrorIs(t, err, apperrors.ErrQuerySyntax, input)
	}
}

func TestParse_RequiresField(t *testing.T) {
	_, err := Parse("hiking", "", "simple")
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}
