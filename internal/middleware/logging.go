package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ayush/consciousday/backend/internal/logger"
)

// RequestLogger logs one line per request through the application logger.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		keyvals := []interface{}{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"req_id", chimw.GetReqID(r.Context()),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request", keyvals...)
			return
		}
		logger.Info("request", keyvals...)
	})
}
