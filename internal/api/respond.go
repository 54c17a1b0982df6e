package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"sentinel/internal/domain"
)

const maxRequestBody = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a bounded JSON object from the request body into dst.
// Any decode failure is a ValidationError; the body is never echoed back.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return domain.ErrValidation("request body is required")
		case errors.As(err, &tooLarge):
			return domain.ErrValidation("request body too large")
		default:
			return domain.ErrValidation("malformed JSON request body")
		}
	}
	return nil
}

// listResponse is the envelope for collection reads.
type listResponse[T any] struct {
	Count  int `json:"count"`
	Values []T `json:"values"`
}

func newList[T any](values []T) listResponse[T] {
	if values == nil {
		values = []T{}
	}
	return listResponse[T]{Count: len(values), Values: values}
}

// commandResponse is returned by every mutation that runs the
// administration tool.
type commandResponse struct {
	Success bool   `json:"success"`
	Out     string `json:"out"`
	DryRun  bool   `json:"dryRun,omitempty"`
}

func newCommandResponse(res domain.CommandResult) commandResponse {
	return commandResponse{Success: true, Out: res.Stdout, DryRun: res.DryRun}
}
