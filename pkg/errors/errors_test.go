package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{Configf("page size must be positive"), "ConfigurationError"},
		{fmt.Errorf("mapping row 3: %w", New(ErrMalformedRecord, http.StatusBadRequest, "too long")), "MalformedRecord"},
		{ErrInvalidFieldReference, "InvalidFieldReference"},
		{ErrQuerySyntax, "QuerySyntaxError"},
		{ErrIndexNotFound, "IndexNotFound"},
		{Enginef(errors.New("disk full"), "closing writer"), "EngineError"},
		{Cachef(errors.New("dial tcp"), "taking cursor"), "CacheError"},
		{errors.New("boom"), "InternalError"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Kind(tc.err))
	}
}

func TestHTTPStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatusCode(Configf("bad")))
	assert.Equal(t, http.StatusNotFound, HTTPStatusCode(fmt.Errorf("opening: %w", ErrIndexNotFound)))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatusCode(Cachef(errors.New("down"), "saving cursor")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusCode(errors.New("boom")))
}

func TestEnginefKeepsCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := Enginef(cause, "opening index %q", "people")

	assert.ErrorIs(t, err, ErrEngine)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `opening index "people"`)
}
