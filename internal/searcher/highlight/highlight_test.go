package highlight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/index"
)

func newHighlighter(t *testing.T, lang index.Language, terms []string, size int) *Highlighter {
	t.Helper()
	analyzer, err := lang.Analyzer()
	require.NoError(t, err)
	return New(analyzer, terms, size, "<em>", "</em>")
}

func TestHighlight_WrapsMatchedTerms(t *testing.T) {
	h := newHighlighter(t, index.LanguageDefault, []string{"Hiking"}, 100)

	got := h.Highlight("loves hiking and photography")
	assert.Equal(t, "loves <em>hiking</em> and photography", got)
}

func TestHighlight_EveryOccurrenceInFragment(t *testing.T) {
	h := newHighlighter(t, index.LanguageDefault, []string{"go"}, 100)

	got := h.Highlight("Go is fun, go go")
	assert.Equal(t, "<em>Go</em> is fun, <em>go</em> <em>go</em>", got)
}

func TestHighlight_NoMatchReturnsValue(t *testing.T) {
	h := newHighlighter(t, index.LanguageDefault, []string{"sailing"}, 100)

	assert.Equal(t, "loves hiking", h.Highlight("loves hiking"))
}

func TestHighlight_PicksFragmentWithMostDistinctTerms(t *testing.T) {
	h := newHighlighter(t, index.LanguageDefault, []string{"alpha", "beta"}, 30)

	value := "alpha filler words here " + strings.Repeat("padding ", 5) + "alpha beta together"
	got := h.Highlight(value)

	assert.Contains(t, got, "<em>alpha</em> <em>beta</em>")
	assert.NotContains(t, got, "filler")
}

func TestHighlight_TieGoesToEarlierFragment(t *testing.T) {
	h := newHighlighter(t, index.LanguageDefault, []string{"alpha"}, 10)

	got := h.Highlight("alpha one two three alpha")
	assert.True(t, strings.HasPrefix(got, "<em>alpha</em>"), got)
	assert.NotContains(t, got, "three")
}

func TestHighlight_CJKBigramsAreMerged(t *testing.T) {
	h := newHighlighter(t, index.LanguageCJK, []string{"全文检索"}, 100)

	got := h.Highlight("支持全文检索服务")
	assert.Contains(t, got, "<em>全文检索</em>")
}

func TestEnabled(t *testing.T) {
	assert.False(t, Enabled("", ""))
	assert.True(t, Enabled("<b>", ""))
	assert.True(t, Enabled("", "</b>"))
}
