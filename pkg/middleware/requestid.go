package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/platinummonkey/taskdeck/pkg/contextkeys"
)

// RequestIDHeader is the header carrying the request id on responses and,
// optionally, on inbound requests from a trusted proxy.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request an id and echoes it on the response. An id
// already present on the request is kept so traces line up across hops.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := contextkeys.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
