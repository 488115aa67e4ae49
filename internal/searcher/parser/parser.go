// Package parser turns keyword query text into an engine query bound to a
// single field. The grammar is the familiar keyword syntax:
//
//	hiking                 term
//	"mountain hiking"      phrase
//	hiking AND photo       both required (&& also accepted)
//	hiking OR photo        either (|| also accepted, and the default)
//	hiking NOT photo       exclusion (! and -photo also accepted)
//	+hiking photo          required term
//	(hiking OR sailing) AND photo
package parser

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2/search/query"

	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
)

type Occur int

const (
	Should Occur = iota
	Must
	MustNot
)

// QueryPlan is a parsed query. Terms holds the raw text of every word and
// phrase that contributes to a match, ExcludeTerms the text of excluded ones.
type QueryPlan struct {
	Terms        []string
	ExcludeTerms []string
	RawQuery     string
	Field        string
	Query        query.Query
}

// Parse parses raw against field. analyzer names the engine analyzer used for
// the query text; it must be the one the field was indexed with.
func Parse(raw, field, analyzer string) (*QueryPlan, error) {
	if strings.TrimSpace(field) == "" {
		return nil, apperrors.Configf("query field is required")
	}
	if strings.TrimSpace(raw) == "" {
		return nil, syntaxError("empty query")
	}
	tokens, err := lex(raw)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, field: field, analyzer: analyzer}
	clauses, err := p.group(0)
	if err != nil {
		return nil, err
	}
	if len(clauses) == 0 {
		return nil, syntaxError("empty query")
	}

	plan := &QueryPlan{RawQuery: raw, Field: field, Query: combine(clauses)}
	for _, c := range clauses {
		if c.occur == MustNot {
			plan.ExcludeTerms = append(plan.ExcludeTerms, c.terms...)
			plan.ExcludeTerms = append(plan.ExcludeTerms, c.excludes...)
			continue
		}
		plan.Terms = append(plan.Terms, c.terms...)
		plan.ExcludeTerms = append(plan.ExcludeTerms, c.excludes...)
	}
	return plan, nil
}

type clause struct {
	occur    Occur
	q        query.Query
	terms    []string
	excludes []string
}

type parser struct {
	tokens   []token
	pos      int
	field    string
	analyzer string
}

func (p *parser) peek() token {
	if p.pos >= len(p.tokens) {
		return token{kind: tokEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// group parses clauses until EOF (depth 0) or a closing parenthesis.
func (p *parser) group(depth int) ([]clause, error) {
	var clauses []clause
	for {
		t := p.peek()
		switch t.kind {
		case tokEOF:
			if depth > 0 {
				return nil, syntaxError("missing closing parenthesis")
			}
			return clauses, nil
		case tokRParen:
			if depth == 0 {
				return nil, syntaxError("unexpected closing parenthesis")
			}
			p.next()
			return clauses, nil
		}

		conj := tokEOF
		if t.kind == tokAnd || t.kind == tokOr {
			if len(clauses) == 0 {
				return nil, syntaxError("operator %q without left operand", t.text)
			}
			conj = p.next().kind
		}

		var mod tokenKind = tokEOF
		for {
			k := p.peek().kind
			if k != tokPlus && k != tokMinus && k != tokNot {
				break
			}
			mod = p.next().kind
		}

		c, err := p.primary()
		if err != nil {
			return nil, err
		}
		switch {
		case mod == tokMinus || mod == tokNot:
			c.occur = MustNot
		case mod == tokPlus || conj == tokAnd:
			c.occur = Must
		default:
			c.occur = Should
		}
		if conj == tokAnd && len(clauses) > 0 && clauses[len(clauses)-1].occur == Should {
			clauses[len(clauses)-1].occur = Must
		}
		clauses = append(clauses, c)
	}
}

func (p *parser) primary() (clause, error) {
	t := p.next()
	switch t.kind {
	case tokWord:
		q := query.NewMatchQuery(t.text)
		q.SetField(p.field)
		q.Analyzer = p.analyzer
		return clause{q: q, terms: []string{t.text}}, nil
	case tokPhrase:
		q := query.NewMatchPhraseQuery(t.text)
		q.SetField(p.field)
		q.Analyzer = p.analyzer
		return clause{q: q, terms: []string{t.text}}, nil
	case tokLParen:
		inner, err := p.group(1)
		if err != nil {
			return clause{}, err
		}
		if len(inner) == 0 {
			return clause{}, syntaxError("empty group")
		}
		c := clause{q: combine(inner)}
		for _, ic := range inner {
			if ic.occur == MustNot {
				c.excludes = append(c.excludes, ic.terms...)
			} else {
				c.terms = append(c.terms, ic.terms...)
			}
			c.excludes = append(c.excludes, ic.excludes...)
		}
		return c, nil
	case tokEOF, tokRParen:
		return clause{}, syntaxError("operator without operand")
	default:
		return clause{}, syntaxError("unexpected %q", t.text)
	}
}

// combine builds the engine query for one group. A group with only excluded
// clauses matches nothing.
func combine(clauses []clause) query.Query {
	var must, should, mustNot []query.Query
	for _, c := range clauses {
		switch c.occur {
		case Must:
			must = append(must, c.q)
		case MustNot:
			mustNot = append(mustNot, c.q)
		default:
			should = append(should, c.q)
		}
	}
	switch {
	case len(must) == 0 && len(should) == 0:
		return query.NewMatchNoneQuery()
	case len(mustNot) == 0 && len(must)+len(should) == 1:
		return append(must, should...)[0]
	}
	if len(must) == 0 {
		must = []query.Query{query.NewDisjunctionQuery(should)}
		should = nil
	}
	return query.NewBooleanQuery(must, should, mustNot)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokPhrase
	tokLParen
	tokRParen
	tokAnd
	tokOr
	tokNot
	tokPlus
	tokMinus
)

type token struct {
	kind tokenKind
	text string
}

func lex(raw string) ([]token, error) {
	var tokens []token
	rs := []rune(raw)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{tokLParen, "("})
			i++
		case r == ')':
			tokens = append(tokens, token{tokRParen, ")"})
			i++
		case r == '"':
			end := i + 1
			for end < len(rs) && rs[end] != '"' {
				end++
			}
			if end >= len(rs) {
				return nil, syntaxError("unterminated phrase")
			}
			text := strings.TrimSpace(string(rs[i+1 : end]))
			if text == "" {
				return nil, syntaxError("empty phrase")
			}
			tokens = append(tokens, token{tokPhrase, text})
			i = end + 1
		case r == '&' || r == '|':
			if i+1 >= len(rs) || rs[i+1] != r {
				return nil, syntaxError("unexpected %q", string(r))
			}
			kind := tokAnd
			if r == '|' {
				kind = tokOr
			}
			tokens = append(tokens, token{kind, string(rs[i : i+2])})
			i += 2
		case r == '+' || r == '-' || r == '!':
			if i+1 >= len(rs) || unicode.IsSpace(rs[i+1]) || rs[i+1] == ')' {
				return nil, syntaxError("operator %q without operand", string(r))
			}
			kind := tokPlus
			switch r {
			case '-':
				kind = tokMinus
			case '!':
				kind = tokNot
			}
			tokens = append(tokens, token{kind, string(r)})
			i++
		default:
			var b strings.Builder
			escaped := false
			for i < len(rs) && !isBoundary(rs[i]) {
				if rs[i] == '\\' && i+1 < len(rs) {
					escaped = true
					i++
				}
				b.WriteRune(rs[i])
				i++
			}
			// an escaped AND/OR/NOT is a plain term
			if escaped {
				tokens = append(tokens, token{tokWord, b.String()})
			} else {
				tokens = append(tokens, wordToken(b.String()))
			}
		}
	}
	return tokens, nil
}

func isBoundary(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == ')' || r == '"'
}

func wordToken(w string) token {
	switch w {
	case "AND":
		return token{tokAnd, w}
	case "OR":
		return token{tokOr, w}
	case "NOT":
		return token{tokNot, w}
	}
	return token{tokWord, w}
}

func syntaxError(format string, args ...any) error {
	return apperrors.Newf(apperrors.ErrQuerySyntax, http.StatusBadRequest, format, args...)
}
