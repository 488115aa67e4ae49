package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
)

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, http.StatusOK, []string{"a"})
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":1,"msg":"success","data":["a"]}`, rec.Body.String())
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, apperrors.Configf("unknown language mode %q", "xx"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"code":0,"msg":"configuration error: unknown language mode \"xx\"","kind":"ConfigurationError"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Error(rec, errors.New("secret path /srv/x"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"code":0,"msg":"internal error","kind":"InternalError"}`, rec.Body.String())
}
