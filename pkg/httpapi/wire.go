// Package httpapi holds the wire shapes shared between the gateway client
// and the backend REST contract, plus small JSON response helpers used by
// the stub server.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ListBody is the envelope returned by GET /{resource}.
type ListBody struct {
	Data  []json.RawMessage `json:"data"`
	Total int64             `json:"total"`
}

// ErrorBody is the backend's error envelope. Validation failures carry a
// per-field message-list map in Errors; plain failures carry Message only.
type ErrorBody struct {
	Message string              `json:"message,omitempty"`
	Error   string              `json:"error,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// UploadBody is the response of POST /{resource}/{id}/uploadimgorfile: the
// url field named in the request mapped to the stored file's URL.
type UploadBody map[string]string

// RowError is one rejected row of a bulk import. Row numbers are as
// reported by the backend (1-based, header row excluded).
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportReport is the row-level outcome of POST /{resource}/import/xlsx.
// Its shape is distinct from ErrorBody's field map and is passed through to
// callers unmodified; only non-row-level failures go through translation.
type ImportReport struct {
	Imported int        `json:"imported"`
	Failed   int        `json:"failed"`
	Errors   []RowError `json:"errors,omitempty"`
}

// RowLevel reports whether the payload parsed into a usable per-row report.
func (r *ImportReport) RowLevel() bool {
	return r != nil && (r.Imported > 0 || r.Failed > 0 || len(r.Errors) > 0)
}

// ResponseError is the raw carrier for a non-2xx backend response. It is
// never handed to controllers directly; serrors.Translate consumes it.
type ResponseError struct {
	StatusCode int
	Body       []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("backend responded %d", e.StatusCode)
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string, fields map[string][]string) error {
	return WriteJSON(w, status, &ErrorBody{
		Message: message,
		Errors:  fields,
	})
}
