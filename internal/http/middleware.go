package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/auth"
	"github.com/google/uuid"
)

type contextKey string

const identityKey contextKey = "identity"

// AuthMiddleware resolves the caller's identity and stores it in the
// request context. Requests without a resolvable identity are rejected
// before they reach a handler.
func AuthMiddleware(authenticator auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := authenticator.Identify(r)
			if err != nil {
				if errors.Is(err, auth.ErrUnauthenticated) {
					respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
					return
				}
				respondError(w, http.StatusUnauthorized, "unauthorized", "could not verify identity")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFromContext(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(auth.Identity)
	return identity, ok
}

// RequestIDMiddleware echoes the caller's request id, or mints one, so
// log lines can be tied back to a client report.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}
