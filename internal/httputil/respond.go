// Package httputil provides JSON request/response helpers shared by handlers
// and middleware.
package httputil

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/tendhq/tend/internal/errors"
)

// DecodeJSON decodes a JSON request body into dst. Unknown fields are
// rejected so typos surface as validation errors instead of silent drops.
func DecodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Validation("invalid request body: " + err.Error())
	}
	return nil
}

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError maps err onto the service error envelope. Errors outside the
// taxonomy are reported as internal without leaking their text.
func WriteError(w http.ResponseWriter, err error) {
	svcErr := errors.GetServiceError(err)
	if svcErr == nil {
		svcErr = errors.Internal("", err)
	}
	WriteJSON(w, svcErr.HTTPStatus, map[string]interface{}{"error": svcErr})
}
