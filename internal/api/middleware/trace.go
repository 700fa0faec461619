package middleware

import (
	"log/slog"
	"net/http"
	"regexp"

	"github.com/phrazzld/adaptive-api/internal/api/shared"
	"github.com/phrazzld/adaptive-api/internal/platform/logger"
)

// Incoming trace IDs are honoured only when they look like one of ours or a
// typical upstream ID, so arbitrary header content never reaches the logs.
var validTraceID = regexp.MustCompile(`^[A-Za-z0-9-]{8,64}$`)

// Trace returns middleware that assigns each request a trace ID, echoes it in
// the X-Trace-ID response header, and stores a request-scoped logger carrying
// the ID in the context. Apply it early in the chain.
func Trace(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(shared.TraceIDHeader)
			if !validTraceID.MatchString(traceID) {
				traceID = shared.NewTraceID()
			}

			ctx := shared.WithTraceID(r.Context(), traceID)
			log := base.With(slog.String("trace_id", traceID))
			ctx = logger.WithLogger(ctx, log)

			w.Header().Set(shared.TraceIDHeader, traceID)

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
