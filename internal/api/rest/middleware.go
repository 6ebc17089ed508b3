package rest

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/linkedfishers/backend/internal/platform/errors"
	"github.com/linkedfishers/backend/internal/platform/requestctx"
	"github.com/linkedfishers/backend/internal/platform/timeouts"
)

// requireSession verifies the bearer token and injects the caller's account
// id into the request context.
func (h *Handler) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.verifier == nil {
			writeError(w, apperrors.New(apperrors.CodeAuthUnauthorized, "session verification is not configured"))
			return
		}
		claims, err := h.verifier.Verify(bearerToken(r))
		if err != nil {
			writeError(w, apperrors.Wrap(apperrors.CodeAuthUnauthorized, "invalid session", err))
			return
		}
		ctx := requestctx.WithAccountID(r.Context(), claims.AccountID)
		next(w, r.WithContext(ctx))
	})
}

// withStoreTimeout bounds every request context so a wedged store call
// cannot hold the connection open. Expired deadlines surface downstream as
// transient store failures.
func withStoreTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.StoreCall)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// callerID returns the authenticated account id injected by requireSession.
func callerID(r *http.Request) string {
	return requestctx.AccountID(r.Context())
}
