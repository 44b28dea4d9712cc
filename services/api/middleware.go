package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey int

const userIDKey contextKey = iota

// requireAuth verifies the bearer access credential and stores the caller's
// user id in the request context. Refresh credentials are rejected here.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential, ok := bearerCredential(r)
		if !ok {
			writeError(w, &AuthError{Reason: "missing bearer credential"})
			return
		}

		userID, err := a.verifyAccess(credential)
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerCredential(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	credential, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", false
	}
	credential = strings.TrimSpace(credential)
	return credential, credential != ""
}

func userIDFrom(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	return userID, ok
}
