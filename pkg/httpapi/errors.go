package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fitsync/gateway/pkg/logger"
)

// codedError pairs an error with the HTTP status it should surface as.
// Messages on 4xx errors are safe to return to the caller; 5xx errors are
// logged in full and replaced with a generic message before leaving the
// process.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func withCode(err error, code int) error {
	return &codedError{code: code, err: err}
}

func errBadRequest(err error) error { return withCode(err, http.StatusBadRequest) }
func errNotFound(err error) error   { return withCode(err, http.StatusNotFound) }

func statusCode(err error) int {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	return http.StatusInternalServerError
}

// handlerFunc is an HTTP handler that can return an error, letting route
// handlers focus on the happy path and leave status-code translation to
// errorHandler.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// errorHandler wraps fn, converting a returned error into an HTTP response.
// 5xx errors are logged with full detail and replaced with a generic
// message; 4xx errors are returned to the caller verbatim.
func errorHandler(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		code := statusCode(err)
		if code >= http.StatusInternalServerError {
			logger.FromContext(r.Context()).Error("http handler error", "error", err, "path", r.URL.Path)
			writeJSONError(w, code, http.StatusText(code))
			return
		}
		writeJSONError(w, code, err.Error())
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
