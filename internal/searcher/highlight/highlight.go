// Package highlight picks the best fragment of a stored field value and wraps
// the query terms found in it.
package highlight

import (
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
)

const DefaultFragmentSize = 100

// Enabled reports whether a request asked for highlighting.
func Enabled(pre, post string) bool {
	return pre != "" || post != ""
}

type Highlighter struct {
	analyzer     analysis.Analyzer
	terms        map[string]struct{}
	fragmentSize int
	pre          string
	post         string
}

// New builds a Highlighter for the given query texts. Texts are run through
// analyzer so they compare equal to the tokens of analysed field values.
func New(analyzer analysis.Analyzer, queryTexts []string, fragmentSize int, pre, post string) *Highlighter {
	if fragmentSize <= 0 {
		fragmentSize = DefaultFragmentSize
	}
	terms := make(map[string]struct{})
	for _, text := range queryTexts {
		for _, tok := range analyzer.Analyze([]byte(text)) {
			terms[string(tok.Term)] = struct{}{}
		}
	}
	return &Highlighter{
		analyzer:     analyzer,
		terms:        terms,
		fragmentSize: fragmentSize,
		pre:          pre,
		post:         post,
	}
}

type span struct{ start, end int }

type fragment struct {
	start, end int
	spans      []span
	distinct   map[string]struct{}
}

// Highlight returns the fragment of value holding the most distinct query
// terms, with each occurrence wrapped in the delimiters. The earliest
// fragment wins a tie. A value with no query term is returned unchanged.
func (h *Highlighter) Highlight(value string) string {
	if len(h.terms) == 0 || value == "" {
		return value
	}
	frags := h.fragments(value)

	best := -1
	for i, f := range frags {
		if len(f.distinct) == 0 {
			continue
		}
		if best < 0 || len(f.distinct) > len(frags[best].distinct) {
			best = i
		}
	}
	if best < 0 {
		return value
	}
	return h.render(value, frags[best])
}

func (h *Highlighter) fragments(value string) []*fragment {
	cur := &fragment{distinct: map[string]struct{}{}}
	frags := []*fragment{cur}
	for _, tok := range h.analyzer.Analyze([]byte(value)) {
		if tok.Start-cur.start >= h.fragmentSize && tok.Start > cur.start {
			cur.end = tok.Start
			cur = &fragment{start: tok.Start, distinct: map[string]struct{}{}}
			frags = append(frags, cur)
		}
		term := string(tok.Term)
		if _, ok := h.terms[term]; !ok {
			continue
		}
		cur.distinct[term] = struct{}{}
		cur.spans = append(cur.spans, span{tok.Start, tok.End})
	}
	cur.end = len(value)
	return frags
}

func (h *Highlighter) render(value string, f *fragment) string {
	spans := mergeSpans(f.spans)
	var b strings.Builder
	pos := f.start
	for _, s := range spans {
		end := s.end
		if end > f.end {
			end = f.end
		}
		b.WriteString(value[pos:s.start])
		b.WriteString(h.pre)
		b.WriteString(value[s.start:end])
		b.WriteString(h.post)
		pos = end
	}
	b.WriteString(value[pos:f.end])
	return b.String()
}

// mergeSpans joins overlapping token spans; bigram analyzers emit those.
func mergeSpans(spans []span) []span {
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	out := []span{spans[0]}
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.start < last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		out = append(out, s)
	}
	return out
}
