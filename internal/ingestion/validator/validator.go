// Package validator checks write commands before they are executed or
// queued, and returns per-field error details.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/index"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s:%s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

// Unwrap classifies every validation failure as a ConfigurationError.
func (e *ValidationError) Unwrap() error {
	return apperrors.ErrConfiguration
}

// ValidateCommand checks that cmd names a usable index and carries the inputs
// its op needs. It does not look at the index itself.
func ValidateCommand(cmd *ingestion.Command) error {
	errs := make(map[string]string)

	if err := index.ValidateName(cmd.Index); err != nil {
		errs["index"] = "index name must be a non-empty name without path separators"
	}
	if _, err := index.ParseLanguage(cmd.Language); err != nil {
		errs["language"] = fmt.Sprintf("unknown language %q", cmd.Language)
	}

	hasRows := len(cmd.Rows) > 0
	hasRecords := len(cmd.Records) > 0
	switch cmd.Op {
	case ingestion.OpAdd, ingestion.OpUpdate:
		switch {
		case hasRows && hasRecords:
			errs["rows"] = "rows and records are mutually exclusive"
		case !hasRows && !hasRecords:
			errs["rows"] = "rows or records are required"
		}
		if cmd.Op == ingestion.OpUpdate {
			if hasRecords && strings.TrimSpace(cmd.KeyField) == "" {
				errs["key_field"] = "key field is required to update records"
			}
			if hasRows && cmd.KeyColumn < 0 {
				errs["key_column"] = "key column must not be negative"
			}
		}
	case ingestion.OpDelete:
		if strings.TrimSpace(cmd.Field) == "" {
			errs["field"] = "field is required"
		}
	case ingestion.OpDrop:
	default:
		errs["op"] = fmt.Sprintf("unknown op %q", cmd.Op)
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
