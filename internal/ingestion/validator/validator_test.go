package validator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
)

func TestValidateCommand_Valid(t *testing.T) {
	valid := []ingestion.Command{
		{Op: ingestion.OpAdd, Index: "people", Rows: [][]string{{"id"}, {"1"}}},
		{Op: ingestion.OpAdd, Index: "people", Language: "cjk", Records: json.RawMessage(`[]`)},
		{Op: ingestion.OpUpdate, Index: "people", Records: json.RawMessage(`[{"id":"1"}]`), KeyField: "id"},
		{Op: ingestion.OpUpdate, Index: "people", Rows: [][]string{{"id"}}, KeyColumn: 0},
		{Op: ingestion.OpDelete, Index: "people", Field: "id", Value: "1"},
		{Op: ingestion.OpDrop, Index: "people"},
	}
	for _, cmd := range valid {
		cmd := cmd
		assert.NoError(t, ValidateCommand(&cmd), cmd.Op)
	}
}

func TestValidateCommand_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		cmd   ingestion.Command
		field string
	}{
		{"missing index", ingestion.Command{Op: ingestion.OpDrop}, "index"},
		{"path in index", ingestion.Command{Op: ingestion.OpDrop, Index: "a/b"}, "index"},
		{"unknown language", ingestion.Command{Op: ingestion.OpDrop, Index: "a", Language: "xx"}, "language"},
		{"no input", ingestion.Command{Op: ingestion.OpAdd, Index: "a"}, "rows"},
		{"both inputs", ingestion.Command{Op: ingestion.OpAdd, Index: "a", Rows: [][]string{{"id"}}, Records: json.RawMessage(`[]`)}, "rows"},
		{"update without key field", ingestion.Command{Op: ingestion.OpUpdate, Index: "a", Records: json.RawMessage(`[]`)}, "key_field"},
		{"negative key column", ingestion.Command{Op: ingestion.OpUpdate, Index: "a", Rows: [][]string{{"id"}}, KeyColumn: -1}, "key_column"},
		{"delete without field", ingestion.Command{Op: ingestion.OpDelete, Index: "a"}, "field"},
		{"unknown op", ingestion.Command{Op: "merge", Index: "a"}, "op"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommand(&tt.cmd)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrConfiguration)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestValidationError_StableMessage(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"op": "bad", "index": "missing"}}
	assert.Equal(t, "index:missing; op:bad", err.Error())
	assert.Equal(t, "ConfigurationError", apperrors.Kind(err))
}
