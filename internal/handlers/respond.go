package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"notcringe/internal/apperr"
	"notcringe/pkg/logging"
)

type errorBody struct {
	Error string      `json:"error"`
	Code  apperr.Kind `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto the caller-facing error body. Anything that is not
// an *apperr.Error is reported as an internal error with fallback as message.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Unknown(fallback, err)
	}
	status := e.HTTPStatusCode()

	logger := logging.L(r.Context())
	fields := []zap.Field{
		zap.String("error_code", string(e.Kind)),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request_failed", fields...)
	} else {
		logger.Warn("request_rejected", fields...)
	}

	writeJSON(w, status, errorBody{Error: e.Message, Code: e.Kind})
}

// decodeJSON reads a single JSON object from the body. Oversized bodies map
// to 413; anything else malformed is a validation failure.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &apperr.Error{
				Kind:    apperr.KindValidation,
				Message: "Request body too large.",
				Status:  http.StatusRequestEntityTooLarge,
				Err:     err,
			}
		}
		return apperr.Validation("Invalid request payload.", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.Validation("Invalid request payload.", errors.New("body must hold a single JSON object"))
	}
	return nil
}
