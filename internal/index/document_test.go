package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
)

func TestMapRows_TypesColumns(t *testing.T) {
	rows := [][]string{
		{"id", "name", "bio"},
		{"1", "Ann", "loves hiking and photography"},
	}

	docs, err := MapRows(rows, []int{2})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, []Field{
		{Name: "id", Value: "1", Kind: Exact},
		{Name: "name", Value: "Ann", Kind: Exact},
		{Name: "bio", Value: "loves hiking and photography", Kind: FreeText},
	}, docs[0].Fields)
}

func TestMapRows_NoTextColumnsMeansAllExact(t *testing.T) {
	docs, err := MapRows([][]string{{"a", "b"}, {"x", "y"}}, nil)
	require.NoError(t, err)
	for _, f := range docs[0].Fields {
		assert.Equal(t, Exact, f.Kind)
	}
}

func TestMapRows_ShortAndEmptyRows(t *testing.T) {
	rows := [][]string{
		{"id", "name", "bio"},
		{},
		{"2", "Bob"},
	}

	docs, err := MapRows(rows, []int{2})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Len(t, docs[0].Fields, 2)
	_, ok := docs[0].Value("bio")
	assert.False(t, ok)
}

func TestMapRows_Errors(t *testing.T) {
	_, err := MapRows(nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrMalformedRecord)

	_, err = MapRows([][]string{{"a"}, {"1", "2"}}, nil)
	assert.ErrorIs(t, err, apperrors.ErrMalformedRecord)

	_, err = MapRows([][]string{{"a", "b"}}, []int{2})
	assert.ErrorIs(t, err, apperrors.ErrInvalidFieldReference)

	_, err = MapRows([][]string{{"a", "b"}}, []int{-1})
	assert.ErrorIs(t, err, apperrors.ErrInvalidFieldReference)
}

func TestMapRecords(t *testing.T) {
	rec := NewRecord()
	rec.Set("id", "7")
	rec.Set("title", "Distributed systems")
	rec.Set("country", "NZ")

	docs := MapRecords([]*Record{rec}, []string{"title", "missing"})
	require.Len(t, docs, 1)
	assert.Equal(t, []Field{
		{Name: "id", Value: "7", Kind: Exact},
		{Name: "title", Value: "Distributed systems", Kind: FreeText},
		{Name: "country", Value: "NZ", Kind: Exact},
	}, docs[0].Fields)
}

func TestRecord_KeepsInsertionOrder(t *testing.T) {
	rec := NewRecord()
	rec.Set("b", "1")
	rec.Set("a", "2")
	rec.Set("b", "3")

	assert.Equal(t, []string{"b", "a"}, rec.Keys())
	v, _ := rec.Get("b")
	assert.Equal(t, "3", v)
}

func TestKeyColumn(t *testing.T) {
	rows := [][]string{{"id", "name"}}

	name, err := KeyColumn(rows, 0)
	require.NoError(t, err)
	assert.Equal(t, "id", name)

	_, err = KeyColumn(rows, 5)
	assert.ErrorIs(t, err, apperrors.ErrInvalidFieldReference)
}

func TestLocation(t *testing.T) {
	loc := NewLocation("/srv/idx")

	path, err := loc.Path("people")
	require.NoError(t, err)
	assert.Equal(t, "/srv/idx/people", path)

	for _, bad := range []string{"", "..", "a/b", `a\b`} {
		_, err := loc.Path(bad)
		assert.ErrorIs(t, err, apperrors.ErrConfiguration, bad)
	}
}

func TestParseLanguage(t *testing.T) {
	for in, want := range map[string]Language{"": LanguageDefault, "0": LanguageDefault, "1": LanguageCJK, "cjk": LanguageCJK} {
		got, err := ParseLanguage(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseLanguage("klingon")
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}
