package api

import (
	"encoding/json"
	"io"
	"net/http"
)

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

// badRequest creates an error carrying http.StatusBadRequest.
func badRequest(cause error) error {
	return &httpError{cause: cause, status: http.StatusBadRequest}
}

// handlerFunc is like http.HandlerFunc but returns an error. An httpError
// responds with its status; any other error responds 500.
type handlerFunc func(http.ResponseWriter, *http.Request) error

func wrapHandlerFunc(f handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			if he, ok := err.(*httpError); ok {
				http.Error(w, he.cause.Error(), he.status)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

// parseJSON decodes a JSON object in strict mode.
func parseJSON(r io.Reader, v interface{}) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// writeJSON responds with a JSON body.
func writeJSON(w http.ResponseWriter, v interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(v)
}
