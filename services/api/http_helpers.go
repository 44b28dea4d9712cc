package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// respondRaw writes a pre-serialized JSON payload. List endpoints use it on
// both the cached and uncached paths so repeated reads are byte-identical.
func respondRaw(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	respondJSON(w, status, map[string]any{"error": err.Error()})
}

// writeError is the single translation point from typed errors to HTTP
// statuses. Handlers never map statuses themselves.
func writeError(w http.ResponseWriter, err error) {
	var (
		authErr  *AuthError
		valErr   ValidationError
		storeErr *StoreError
	)

	switch {
	case errors.Is(err, ErrNotFound):
		respondError(w, http.StatusNotFound, err)
	case errors.Is(err, ErrForbidden):
		respondError(w, http.StatusForbidden, err)
	case errors.As(err, &authErr):
		respondError(w, http.StatusUnauthorized, authErr)
	case errors.As(err, &valErr):
		respondJSON(w, http.StatusBadRequest, map[string]any{"errors": valErr})
	case errors.As(err, &storeErr):
		respondError(w, http.StatusInternalServerError, errors.New("internal storage failure"))
	default:
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}
