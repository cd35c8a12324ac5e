package middlewares

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/phonehub/storefront/internal/pkg/requestmeta"
)

// AttachRequestMetadata lifts the per-request metadata — request ID,
// idempotency key, bearer token — into the context so it reaches every
// outbound call against the remote store.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestmeta.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ctx = requestmeta.WithIdempotencyKey(ctx, r.Header.Get(requestmeta.HeaderIdempotencyKey))

		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			ctx = requestmeta.WithBearerToken(ctx, strings.TrimPrefix(auth, "Bearer "))
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
