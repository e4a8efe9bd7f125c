package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"socialsync/internal/editor"
	appLog "socialsync/internal/log"
	"socialsync/internal/model"
	"socialsync/internal/services"
)

// maxJSONBody bounds decoded request bodies.
const maxJSONBody = 1 << 20

// envelope is the success shape: {data, meta}.
type envelope struct {
	Data any   `json:"data"`
	Meta *meta `json:"meta,omitempty"`
}

type meta struct {
	Source services.DataSource `json:"source,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// errorResponse is the failure shape: {error, code, message}.
type errorResponse struct {
	Error   string            `json:"error"`
	Code    int               `json:"code"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Data: data})
}

// writeResult writes a tagged read. Fallback data is still a 200; the meta
// tells the client it is not live.
func writeResult[T any](w http.ResponseWriter, res services.Result[T]) {
	writeJSON(w, http.StatusOK, envelope{Data: res.Data, Meta: &meta{Source: res.Source, Error: res.Error}})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: http.StatusText(status), Code: status, Message: msg})
}

// statusFor maps the model sentinels onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeErr writes err with the status of its sentinel. Unknown errors are
// logged and hidden behind a generic message.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: http.StatusText(status), Code: status, Message: err.Error()}
	var fe editor.FieldErrors
	if errors.As(err, &fe) {
		resp.Fields = fe
	}
	if status == http.StatusInternalServerError {
		appLog.Error("request failed", err, "method", r.Method, "path", r.URL.Path)
		resp.Message = "internal error"
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a JSON body into v. Malformed bodies are validation
// errors.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", model.ErrValidation)
		}
		return fmt.Errorf("%w: invalid JSON: %v", model.ErrValidation, err)
	}
	return nil
}

func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
