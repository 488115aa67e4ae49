// Package records decodes a JSON array of objects into ordered text records.
// Every value is turned into text here, so the index layer only ever sees
// strings.
package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
)

// Parse decodes data, which must be a JSON array of objects. Field order
// follows the source text. Strings keep their value, numbers their literal
// text, booleans become "true"/"false", null becomes "null" and nested
// objects or arrays their compact JSON.
func Parse(data []byte) ([]*index.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	var out []*index.Record
	for dec.More() {
		rec, err := parseObject(dec, len(out))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformed("unexpected data after the record array")
	}
	return out, nil
}

func parseObject(dec *json.Decoder, n int) (*index.Record, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, malformed("record %d: %v", n, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, malformed("record %d is not an object", n)
	}
	rec := index.NewRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, malformed("record %d: %v", n, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, malformed("record %d: expected field name", n)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, malformed("record %d field %q: %v", n, key, err)
		}
		value, err := Text(raw)
		if err != nil {
			return nil, malformed("record %d field %q: %v", n, key, err)
		}
		rec.Set(key, value)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return rec, nil
}

// Text renders one JSON value as record text.
func Text(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", fmt.Errorf("empty value")
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		var b bytes.Buffer
		if err := json.Compact(&b, raw); err != nil {
			return "", err
		}
		return b.String(), nil
	default:
		return string(raw), nil
	}
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return malformed("expected %q: %v", want, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return malformed("expected %q, found %v", want, tok)
	}
	return nil
}

func malformed(format string, args ...any) error {
	return apperrors.Newf(apperrors.ErrMalformedRecord, http.StatusBadRequest, format, args...)
}
