package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"product-listing-service/internal/logger"
)

// TraceIDHeader carries the request trace id in and out.
const TraceIDHeader = "X-Trace-ID"

// LoggerMiddleware logs every request and stores a trace-scoped logger in the request context.
func LoggerMiddleware(base *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceIDHeader)
			if _, err := uuid.Parse(traceID); err != nil {
				traceID = uuid.New().String()
			}
			w.Header().Set(TraceIDHeader, traceID)

			// Handlers and the listing service get the plain trace logger.
			coreLogger := base.With(slog.String("trace_id", traceID))
			httpLogger := coreLogger.With(
				slog.String("http_method", r.Method),
				slog.String("http_path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			httpLogger.Info("Request started")

			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), coreLogger)))

			httpLogger.Info("Request finished",
				slog.Int("status_code", ww.Status()),
				slog.Int("bytes_written", ww.BytesWritten()),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}
