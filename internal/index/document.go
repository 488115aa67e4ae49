package index

import (
	"fmt"
	"net/http"

	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
)

// FieldKind decides how a field value is indexed.
type FieldKind int

const (
	// Exact fields are indexed as one opaque term.
	Exact FieldKind = iota
	// FreeText fields are tokenized with the index language analyzer.
	FreeText
)

func (k FieldKind) String() string {
	if k == FreeText {
		return "free_text"
	}
	return "exact"
}

// Field is one typed value of a document. Every field is stored.
type Field struct {
	Name  string    `json:"name"`
	Value string    `json:"value"`
	Kind  FieldKind `json:"kind"`
}

// Document is the ordered set of typed fields written for one record.
type Document struct {
	Fields []Field `json:"fields"`
}

// Value returns the first value stored under name.
func (d Document) Value(name string) (string, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Record is an ordered field -> text mapping. Values are already text; any
// coercion happens where records are decoded.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return &Record{values: make(map[string]string)}
}

// Set assigns value to key, keeping the first-insertion order of keys.
func (r *Record) Set(key, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the field names in insertion order.
func (r *Record) Keys() []string {
	return r.keys
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.keys)
}

// MapRows converts a header row plus data rows into documents. Columns listed
// in textColumns are FreeText, every other column is Exact. Rows with no cells
// are skipped.
func MapRows(rows [][]string, textColumns []int) ([]Document, error) {
	if len(rows) == 0 {
		return nil, apperrors.New(apperrors.ErrMalformedRecord, http.StatusBadRequest, "missing header row")
	}
	header := rows[0]
	text := make(map[int]struct{}, len(textColumns))
	for _, c := range textColumns {
		if c < 0 || c >= len(header) {
			return nil, apperrors.Newf(apperrors.ErrInvalidFieldReference, http.StatusBadRequest,
				"text column %d outside header of %d columns", c, len(header))
		}
		text[c] = struct{}{}
	}

	docs := make([]Document, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		if len(row) > len(header) {
			return nil, apperrors.Newf(apperrors.ErrMalformedRecord, http.StatusBadRequest,
				"row %d has %d cells but header has %d", i+1, len(row), len(header))
		}
		doc := Document{Fields: make([]Field, 0, len(row))}
		for j, value := range row {
			kind := Exact
			if _, ok := text[j]; ok {
				kind = FreeText
			}
			doc.Fields = append(doc.Fields, Field{Name: header[j], Value: value, Kind: kind})
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// MapRecords converts associative records into documents. Fields named in
// textFields are FreeText, all others Exact.
func MapRecords(records []*Record, textFields []string) []Document {
	text := make(map[string]struct{}, len(textFields))
	for _, f := range textFields {
		text[f] = struct{}{}
	}
	docs := make([]Document, 0, len(records))
	for _, rec := range records {
		doc := Document{Fields: make([]Field, 0, rec.Len())}
		for _, key := range rec.Keys() {
			value, _ := rec.Get(key)
			kind := Exact
			if _, ok := text[key]; ok {
				kind = FreeText
			}
			doc.Fields = append(doc.Fields, Field{Name: key, Value: value, Kind: kind})
		}
		docs = append(docs, doc)
	}
	return docs
}

// KeyColumn resolves a zero-based key column index against a header row.
func KeyColumn(rows [][]string, column int) (string, error) {
	if len(rows) == 0 {
		return "", apperrors.New(apperrors.ErrMalformedRecord, http.StatusBadRequest, "missing header row")
	}
	if column < 0 || column >= len(rows[0]) {
		return "", apperrors.Newf(apperrors.ErrInvalidFieldReference, http.StatusBadRequest,
			"key column %d outside header of %d columns", column, len(rows[0]))
	}
	return rows[0][column], nil
}

func (d Document) String() string {
	return fmt.Sprintf("Document(%d fields)", len(d.Fields))
}
