package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"erp/internal/platform/requestctx"
)

// RequestID attaches a request id to the context and echoes it in the
// response. An incoming X-Request-ID is trusted so callers can correlate
// retries.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := requestctx.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
