// Package response writes the JSON envelope every API endpoint answers with:
// {"code":1,"msg":"success","data":...} on success and
// {"code":0,"msg":"...","kind":"..."} on failure.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
)

const (
	CodeOK    = 1
	CodeError = 0
)

type Envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
	Kind string `json:"kind,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to write response", "error", err)
	}
}

// OK writes a success envelope carrying data.
func OK(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Envelope{Code: CodeOK, Msg: "success", Data: data})
}

// Error writes a failure envelope. The status and kind come from the error
// taxonomy; internal errors are reported without their details.
func Error(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	kind := apperrors.Kind(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError && kind == "InternalError" {
		msg = "internal error"
	}
	JSON(w, status, Envelope{Code: CodeError, Msg: msg, Kind: kind})
}
