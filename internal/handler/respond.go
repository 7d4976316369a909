package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeData writes the {status, data: {...}} envelope.
func writeData(w http.ResponseWriter, status int, data map[string]any) {
	writeJSON(w, status, map[string]any{"status": "success", "data": data})
}

// writeList writes the list envelope with a results count.
func writeList(w http.ResponseWriter, results int, items any) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"results": results,
		"data":    map[string]any{"data": items},
	})
}

// readBody reads the raw request body, mapping an oversize body to a
// validation error.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, bodyError(err)
	}
	return b, nil
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return bodyError(err)
	}
	return nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return domain.Errorf(domain.KindValidation, "Request body exceeds %d bytes", maxErr.Limit).
			WithStatus(http.StatusRequestEntityTooLarge).Wrap(err)
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return domain.Validation("Invalid input data. Malformed JSON").Wrap(err)
	case errors.As(err, &typeErr):
		return domain.Validation(fmt.Sprintf("Invalid input data. %s must be %s", typeErr.Field, typeErr.Type)).Wrap(err)
	default:
		return domain.Validation("Invalid input data. " + err.Error()).Wrap(err)
	}
}
