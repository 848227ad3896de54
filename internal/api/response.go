// internal/api/response.go
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	custom_errors "chapter-ingest/internal/errors"
	"chapter-ingest/internal/result"
)

const maxBodyBytes = 1 << 20

// respondWithJSON marshals before writing so an encoding failure can still
// become a clean 500.
func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","message":"internal error","statusCode":500}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func respondWithResult[T any](w http.ResponseWriter, res result.Result[T]) {
	respondWithJSON(w, res.StatusCode, res)
}

func respondWithError(w http.ResponseWriter, err error) {
	respondWithResult(w, result.Failure[any](err))
}

// decodeBody decodes a required JSON body and writes a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		respondWithError(w, &custom_errors.ValidationError{Field: "body", Reason: "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

// decodeOptionalBody is decodeBody but treats an empty body as zero values.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return true
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, &custom_errors.ValidationError{Field: "body", Reason: "invalid JSON: " + err.Error()})
		return false
	}
	return true
}
