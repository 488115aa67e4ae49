package index

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/mapping"

	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
)

// Language selects the analyzer an index is built and queried with.
type Language string

const (
	LanguageDefault Language = "default"
	LanguageCJK     Language = "cjk"

	// LanguageAny opens an index without checking or recording its language.
	// Only operations that never analyse text may use it.
	LanguageAny Language = ""
)

// internal key under which an index remembers the language it was built with.
var languageKey = []byte("language")

// analyzerMapping resolves analyzer names through bleve's registry cache.
var analyzerMapping = bleve.NewIndexMapping()

// ParseLanguage accepts the canonical names plus the legacy "0"/"1" flag
// (1 meaning an ideographic-script index).
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "default", "false":
		return LanguageDefault, nil
	case "1", "cjk", "true", "chinese":
		return LanguageCJK, nil
	default:
		return "", apperrors.Configf("unknown language mode %q", s)
	}
}

// AnalyzerName is the bleve analyzer used for FreeText fields and queries.
func (l Language) AnalyzerName() string {
	if l == LanguageCJK {
		return cjk.AnalyzerName
	}
	return simple.Name
}

// Analyzer returns the text analyzer for l.
func (l Language) Analyzer() (analysis.Analyzer, error) {
	return namedAnalyzer(l.AnalyzerName())
}

func (l Language) newMapping() *mapping.IndexMappingImpl {
	m := bleve.NewIndexMapping()
	m.DefaultAnalyzer = l.AnalyzerName()
	m.StoreDynamic = true
	return m
}

func exactAnalyzer() (analysis.Analyzer, error) {
	return namedAnalyzer(keyword.Name)
}

func namedAnalyzer(name string) (analysis.Analyzer, error) {
	a := analyzerMapping.AnalyzerNamed(name)
	if a == nil {
		return nil, fmt.Errorf("analyzer %q not registered", name)
	}
	return a, nil
}

// checkLanguage compares the stored language of an open index with want.
// An index without a stored language adopts want when writable is set.
func checkLanguage(idx bleve.Index, want Language, writable bool) error {
	if want == LanguageAny {
		return nil
	}
	stored, err := idx.GetInternal(languageKey)
	if err != nil {
		return apperrors.Enginef(err, "reading index language")
	}
	if len(stored) == 0 {
		if !writable {
			return nil
		}
		if err := idx.SetInternal(languageKey, []byte(want)); err != nil {
			return apperrors.Enginef(err, "recording index language")
		}
		return nil
	}
	if Language(stored) != want {
		return apperrors.Configf("index was built with language %q, request uses %q", stored, want)
	}
	return nil
}
