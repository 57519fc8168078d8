// Package httpapi holds the HTTP surface: the router, and the response
// helpers every feature handler shares.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "clearway/pkg/domain-errors"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// WriteJSON writes v with the given status. Encoding failures are logged by
// net/http; the status line is already gone by then.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps a domain error onto the wire: its code picks the status,
// its message is returned verbatim. Internal errors are masked and logged.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(err)
	message := dErrors.MessageOf(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "internal error", "error", err, "path", r.URL.Path)
		message = "internal error"
		code = dErrors.CodeInternal
	}

	var body errorBody
	body.Error.Code = string(code)
	body.Error.Message = message
	WriteJSON(w, status, body)
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request body")
	}
	return nil
}
