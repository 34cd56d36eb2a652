package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Leo190198/promoShare/internal/apierr"
	"github.com/Leo190198/promoShare/internal/pkg/httputil"
	"github.com/Leo190198/promoShare/internal/pkg/logger"
)

// requestLogger emits one structured line per request. Chat ids embedded
// in paths or query strings are redacted by the logger itself.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"durationMs", time.Since(start).Milliseconds(),
			"remote", r.RemoteAddr,
			"requestId", middleware.GetReqID(r.Context()),
		)
	})
}

// apiKeyAuth admits requests carrying the shared secret in X-API-Key.
// An empty configured key disables admission, for local development.
func apiKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey != "" {
				provided := r.Header.Get("X-API-Key")
				if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
					httputil.Error(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "Invalid or missing API key")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
